// Package sink implements the append-only byte sink of spec.md §6: a CSV
// file that Export appends batches to, writing a header on the first batch
// unless the caller forces append mode. There is no CSV library anywhere in
// the retrieval pack, so this is built on the standard library's
// encoding/csv — see DESIGN.md.
package sink

import (
	"encoding/csv"
	"os"

	"github.com/accented-ai/spellstore/internal/dataframe"
	"github.com/accented-ai/spellstore/internal/util"
)

// Sink is the driver's view of an output destination: write one batch,
// optionally preceded by a header row.
type Sink interface {
	WriteBatch(columns []string, rows [][]any, header bool) error
}

// CSVFile appends batches to a file path, opening and closing the file once
// per batch so a crash mid-export leaves a file truncated only to a
// complete-row boundary, never a partial row (spec.md §5's "a cancelled CSV
// sink ends on a row boundary").
type CSVFile struct {
	Path string
}

// NewCSVFile returns a Sink writing to path.
func NewCSVFile(path string) *CSVFile {
	return &CSVFile{Path: path}
}

// WriteBatch appends rows to the file, writing columns as a header row
// first when header is true.
func (s *CSVFile) WriteBatch(columns []string, rows [][]any, header bool) error {
	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return util.WrapError("open csv sink", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if header {
		if err := w.Write(columns); err != nil {
			return util.WrapError("write csv header", err)
		}
	}

	record := make([]string, len(columns))

	for _, row := range rows {
		for i, v := range row {
			record[i] = dataframe.FormatCell(v)
		}

		if err := w.Write(record); err != nil {
			return util.WrapError("write csv row", err)
		}
	}

	w.Flush()

	return util.WrapError("flush csv sink", w.Error())
}
