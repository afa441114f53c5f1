package cli

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/accented-ai/spellstore/internal/dataframe"
	"github.com/accented-ai/spellstore/internal/util"
)

// loadEntityDataset reads a CSV file into a DataFrame for Join's
// entity_dataset input. eventTimestampColumn, if non-empty, is parsed as
// RFC3339 (Join's Mode B requires a time.Time value there); every other
// column is parsed as an int64, then a float64, falling back to string.
func loadEntityDataset(path, eventTimestampColumn string) (*dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, util.WrapError("open entity dataset", err)
	}
	defer f.Close()

	r := csv.NewReader(f)

	header, err := r.Read()
	if err != nil {
		return nil, util.WrapError("read entity dataset header", err)
	}

	df := dataframe.New(header)

	for {
		record, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return nil, util.WrapError("read entity dataset row", err)
		}

		row := make([]any, len(record))

		for i, cell := range record {
			row[i] = parseCell(header[i], cell, eventTimestampColumn)
		}

		if err := df.AddRow(row); err != nil {
			return nil, util.WrapError("build entity dataset", err)
		}
	}

	return df, nil
}

func parseCell(column, cell, eventTimestampColumn string) any {
	if cell == "" {
		return nil
	}

	if column == eventTimestampColumn {
		if ts, err := time.Parse(time.RFC3339, cell); err == nil {
			return ts
		}

		return cell
	}

	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return n
	}

	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}

	return cell
}
