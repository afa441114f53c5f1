package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/accented-ai/spellstore/internal/render"
	"github.com/accented-ai/spellstore/internal/sink"
	"github.com/accented-ai/spellstore/internal/util"
)

// ExportOptions is the Export operation's input, spec.md §4.5's
// export(features, snapshot?, output_sink?, chunk_size, force_fetch_all,
// force_append).
type ExportOptions struct {
	Features string
	Snapshot *time.Time // nil: the driver substitutes time.Now() once, at request entry
	Sink     sink.Sink  // nil: no CSV side effect, preview only
	Limit    *int

	ChunkSize     int // 0: Driver.ChunkSize
	ForceFetchAll bool
	ForceAppend   bool
}

// ExportResult is what Export hands back: the markdown preview spec.md §6
// promises (first batch, or the full result under ForceFetchAll) plus the
// total row count actually streamed.
type ExportResult struct {
	PreviewMarkdown string
	RowCount        int
}

// Export plans and executes features as of Snapshot (or now), streaming
// the result in ChunkSize batches, optionally appending each batch to Sink.
// The cursor is released on every exit path, including error and
// cancellation.
func (d *Driver) Export(ctx context.Context, opts ExportOptions) (*ExportResult, error) {
	snapshot := time.Now()
	if opts.Snapshot != nil {
		snapshot = *opts.Snapshot
	}

	chunkSize := d.ChunkSize
	if opts.ChunkSize > 0 {
		chunkSize = opts.ChunkSize
	}

	sqlText, args, err := d.compose(opts.Features, snapshot, nil, d.FullJoin, opts.Limit)
	if err != nil {
		return nil, err
	}

	cursor, err := d.Backend.Query(ctx, sqlText, args)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	columns := cursor.Columns()

	var previewRows [][]any

	totalRows := 0
	keepGoing := opts.Sink != nil || opts.ForceFetchAll

	for batchNum := 0; ; batchNum++ {
		batch, err := fetchBatch(ctx, cursor, chunkSize)
		if err != nil {
			return nil, err
		}

		if len(batch) == 0 {
			break
		}

		totalRows += len(batch)

		if batchNum == 0 {
			previewRows = batch
		} else if opts.ForceFetchAll {
			previewRows = append(previewRows, batch...)
		}

		if opts.Sink != nil {
			header := batchNum == 0 && !opts.ForceAppend
			if err := opts.Sink.WriteBatch(columns, batch, header); err != nil {
				return nil, util.WrapError("export: write sink batch", err)
			}
		}

		if !keepGoing || len(batch) < chunkSize {
			break
		}
	}

	if err := cursor.Err(); err != nil {
		return nil, newBackendFailure(sqlText, err)
	}

	d.Logger.Info().
		Str("features", opts.Features).
		Time("snapshot", snapshot).
		Int("rows", totalRows).
		Msg("export complete")

	return &ExportResult{
		PreviewMarkdown: render.MarkdownTable(columns, previewRows),
		RowCount:        totalRows,
	}, nil
}

// fetchBatch reads up to n rows from cur, checking ctx before each row so a
// cancelled request stops mid-batch rather than mid-row.
func fetchBatch(ctx context.Context, cur Cursor, n int) ([][]any, error) {
	batch := make([][]any, 0, n)

	for len(batch) < n {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		default:
		}

		if !cur.Next() {
			break
		}

		row, err := cur.Row()
		if err != nil {
			return nil, err
		}

		batch = append(batch, row)
	}

	return batch, nil
}
