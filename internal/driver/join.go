package driver

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/accented-ai/spellstore/internal/dataframe"
	"github.com/accented-ai/spellstore/internal/sink"
	"github.com/accented-ai/spellstore/internal/util"
)

// chunkConcurrency bounds how many entity-key chunks Join executes against
// the backend at once. Chunks are independent queries (each its own
// IN-list), so fetching them concurrently shortens wall time on multi-batch
// joins without needing a result from one chunk to start the next.
const chunkConcurrency = 8

// forceFetchAllRowThreshold mirrors spellbook/feature_store.py's join():
// "if entity_df.shape[0] <= 1000: force_fetch_all = True". An entity
// dataset this small is always meant to resolve fully in memory, regardless
// of how many IN-list batches resolving it happens to take.
const forceFetchAllRowThreshold = 1000

// JoinOptions is the Join operation's input, spec.md §4.5's
// join(entity_dataset, entity_column, event_timestamp_column?, features,
// snapshot?, output_sink?, chunk_size).
type JoinOptions struct {
	EntityDataset        *dataframe.DataFrame
	EntityColumn         string
	EventTimestampColumn string // "": Mode A only, no per-row snapshot is available
	Features             string
	Snapshot             *time.Time // non-nil forces Mode A regardless of EventTimestampColumn
	Sink                 sink.Sink
	Limit                *int
	ChunkSize            int // 0: Driver.ChunkSize
	ForceFetchAll        bool
}

// JoinResult is the merged dataset: the entity dataset's own rows and
// columns, plus every non-colliding feature column.
type JoinResult struct {
	Dataset  *dataframe.DataFrame
	RowCount int
}

// Join resolves features against EntityDataset's keys, batching backend
// queries so no single query's IN-list exceeds the dialect's MaxInList, and
// left-joins each batch's result back onto the corresponding dataset rows.
func (d *Driver) Join(ctx context.Context, opts JoinOptions) (*JoinResult, error) {
	chunkSize := d.ChunkSize
	if opts.ChunkSize > 0 {
		chunkSize = opts.ChunkSize
	}

	var (
		out        *dataframe.DataFrame
		chunkCount int
		err        error
	)

	if opts.Snapshot != nil || opts.EventTimestampColumn == "" {
		snapshot := time.Now()
		if opts.Snapshot != nil {
			snapshot = *opts.Snapshot
		}

		out, chunkCount, err = d.joinModeA(ctx, opts, snapshot)
	} else {
		out, chunkCount, err = d.joinModeB(ctx, opts)
	}

	if err != nil {
		return nil, err
	}

	rowCount := out.NumRows()
	forceFetchAll := opts.ForceFetchAll || opts.EntityDataset.NumRows() <= forceFetchAllRowThreshold

	if chunkCount > 1 && !forceFetchAll && opts.Sink == nil {
		return nil, ErrUnboundedSpillRequired
	}

	if opts.Sink != nil {
		if err := writeDataFrameToSink(opts.Sink, out, chunkSize); err != nil {
			return nil, err
		}
	}

	d.Logger.Info().
		Str("features", opts.Features).
		Int("rows", rowCount).
		Msg("join complete")

	return &JoinResult{Dataset: out, RowCount: rowCount}, nil
}

// joinModeA is spec.md §4.5's snapshot-pinned mode: one snapshot for the
// whole request, entity keys batched into chunks of max_in_list-1. The
// returned int is the number of IN-list chunks (backend queries) the join
// actually took, the "batch" spec.md §4.5's spill rule means.
func (d *Driver) joinModeA(ctx context.Context, opts JoinOptions, snapshot time.Time) (*dataframe.DataFrame, int, error) {
	batchSize := batchSizeFor(d.Backend.Dialect().MaxInList())

	keys, err := uniqueKeysInOrder(opts.EntityDataset, opts.EntityColumn)
	if err != nil {
		return nil, 0, err
	}

	chunks := chunkValues(keys, batchSize)
	results := make([]*dataframe.DataFrame, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(chunkConcurrency)

	for i, chunk := range chunks {
		i, chunk := i, chunk

		g.Go(func() error {
			subset, err := filterRowsByKeys(opts.EntityDataset, opts.EntityColumn, chunk)
			if err != nil {
				return err
			}

			featureRows, err := d.executeChunk(gctx, opts.Features, snapshot, chunk, d.FullJoin, opts.Limit)
			if err != nil {
				return err
			}

			joined, err := subset.LeftJoin(featureRows, opts.EntityColumn, opts.EntityColumn)
			if err != nil {
				return err
			}

			results[i] = joined

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	out, err := dataframe.Concat(results...)

	return out, len(chunks), err
}

// joinModeB is spec.md §4.5's per-row point-in-time mode: the entity
// dataset is grouped by (entity_column, event_timestamp_column), and each
// group is queried at its own snapshot. The returned int is the total
// number of IN-list chunks across every group.
func (d *Driver) joinModeB(ctx context.Context, opts JoinOptions) (*dataframe.DataFrame, int, error) {
	groups, err := opts.EntityDataset.GroupBy(opts.EntityColumn, opts.EventTimestampColumn)
	if err != nil {
		return nil, 0, err
	}

	batchSize := batchSizeFor(d.Backend.Dialect().MaxInList())

	type task struct {
		snapshot time.Time
		rows     *dataframe.DataFrame
		chunk    []any
	}

	var tasks []task

	for _, g := range groups {
		snapshot, ok := g.Key[1].(time.Time)
		if !ok {
			return nil, 0, fmt.Errorf("driver: %q values must be time.Time for join mode B, got %T", opts.EventTimestampColumn, g.Key[1])
		}

		keys, err := uniqueKeysInOrder(g.Rows, opts.EntityColumn)
		if err != nil {
			return nil, 0, err
		}

		for _, chunk := range chunkValues(keys, batchSize) {
			tasks = append(tasks, task{snapshot: snapshot, rows: g.Rows, chunk: chunk})
		}
	}

	results := make([]*dataframe.DataFrame, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(chunkConcurrency)

	for i, t := range tasks {
		i, t := i, t

		g.Go(func() error {
			subset, err := filterRowsByKeys(t.rows, opts.EntityColumn, t.chunk)
			if err != nil {
				return err
			}

			featureRows, err := d.executeChunk(gctx, opts.Features, t.snapshot, t.chunk, d.FullJoin, opts.Limit)
			if err != nil {
				return err
			}

			joined, err := subset.LeftJoin(featureRows, opts.EntityColumn, opts.EntityColumn)
			if err != nil {
				return err
			}

			results[i] = joined

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	out, err := dataframe.Concat(results...)

	return out, len(tasks), err
}

// executeChunk plans, executes, and fully materializes one entity-key-
// restricted query.
func (d *Driver) executeChunk(
	ctx context.Context,
	features string,
	snapshot time.Time,
	entityKeys []any,
	fullJoin bool,
	limit *int,
) (*dataframe.DataFrame, error) {
	sqlText, args, err := d.compose(features, snapshot, entityKeys, fullJoin, limit)
	if err != nil {
		return nil, err
	}

	cursor, err := d.Backend.Query(ctx, sqlText, args)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	df := dataframe.New(cursor.Columns())

	for {
		batch, err := fetchBatch(ctx, cursor, 500)
		if err != nil {
			return nil, err
		}

		if len(batch) == 0 {
			break
		}

		for _, row := range batch {
			if err := df.AddRow(row); err != nil {
				return nil, err
			}
		}

		if len(batch) < 500 {
			break
		}
	}

	if err := cursor.Err(); err != nil {
		return nil, newBackendFailure(sqlText, err)
	}

	return df, nil
}

// batchSizeFor leaves room for exactly one other predicate alongside the
// entity IN-list, per spec.md §4.5's "chunks of size max_in_list - 1".
func batchSizeFor(maxInList int) int {
	if maxInList <= 1 {
		return 1
	}

	return maxInList - 1
}

func uniqueKeysInOrder(df *dataframe.DataFrame, column string) ([]any, error) {
	values, err := df.Column(column)
	if err != nil {
		return nil, err
	}

	seen := make(map[any]struct{}, len(values))
	out := make([]any, 0, len(values))

	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}

		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out, nil
}

func chunkValues(values []any, size int) [][]any {
	if len(values) == 0 {
		return nil
	}

	chunks := make([][]any, 0, (len(values)/size)+1)

	for start := 0; start < len(values); start += size {
		end := start + size
		if end > len(values) {
			end = len(values)
		}

		chunks = append(chunks, values[start:end])
	}

	return chunks
}

func filterRowsByKeys(df *dataframe.DataFrame, column string, keys []any) (*dataframe.DataFrame, error) {
	idx, ok := df.ColumnIndex(column)
	if !ok {
		return nil, fmt.Errorf("%w: %q", dataframe.ErrUnknownColumn, column)
	}

	keySet := make(map[any]struct{}, len(keys))
	for _, k := range keys {
		keySet[k] = struct{}{}
	}

	indices := make([]int, 0, len(keys))

	for i, row := range df.Rows {
		if _, ok := keySet[row[idx]]; ok {
			indices = append(indices, i)
		}
	}

	return df.SelectRows(indices), nil
}

func writeDataFrameToSink(s sink.Sink, df *dataframe.DataFrame, chunkSize int) error {
	if df.NumRows() == 0 {
		return util.WrapError("join: write sink batch", s.WriteBatch(df.Columns, nil, true))
	}

	for start := 0; start < df.NumRows(); start += chunkSize {
		end := start + chunkSize
		if end > df.NumRows() {
			end = df.NumRows()
		}

		if err := s.WriteBatch(df.Columns, df.Rows[start:end], start == 0); err != nil {
			return util.WrapError("join: write sink batch", err)
		}
	}

	return nil
}
