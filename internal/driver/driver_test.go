package driver_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accented-ai/spellstore/internal/catalog"
	"github.com/accented-ai/spellstore/internal/dataframe"
	"github.com/accented-ai/spellstore/internal/dialect"
	"github.com/accented-ai/spellstore/internal/driver"
)

// fakeCatalog is a minimal catalog.View backed by a map, so driver tests
// never need to parse a real catalog YAML file.
type fakeCatalog map[string]catalog.GroupMeta

func (f fakeCatalog) GetGroup(name string) (catalog.GroupMeta, error) {
	meta, ok := f[name]
	if !ok {
		return catalog.GroupMeta{}, fmt.Errorf("%w: %q", catalog.ErrUnknownGroup, name)
	}

	return meta, nil
}

// fakeCursor replays a fixed row set.
type fakeCursor struct {
	columns []string
	rows    [][]any
	i       int
}

func (c *fakeCursor) Next() bool {
	if c.i < len(c.rows) {
		c.i++
		return true
	}

	return false
}

func (c *fakeCursor) Row() ([]any, error) { return c.rows[c.i-1], nil }
func (c *fakeCursor) Columns() []string   { return c.columns }
func (c *fakeCursor) Err() error          { return nil }
func (c *fakeCursor) Close()              {}

// fakeBackend hands queries to a caller-supplied function instead of a real
// connection pool, recording every call's bound args for assertions.
// queryFunc must be safe for concurrent use: Join fetches entity-key
// chunks concurrently.
type fakeBackend struct {
	d         dialect.Dialect
	queryFunc func(sqlText string, args []any) (*fakeCursor, error)

	mu    sync.Mutex
	calls [][]any
}

func (b *fakeBackend) Dialect() dialect.Dialect { return b.d }

func (b *fakeBackend) Query(_ context.Context, sqlText string, args []any) (driver.Cursor, error) {
	b.mu.Lock()
	b.calls = append(b.calls, args)
	b.mu.Unlock()

	return b.queryFunc(sqlText, args)
}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.calls)
}

// smallInListDialect wraps a real dialect but caps MaxInList, so Join's
// batching can be exercised without constructing 1000 entity keys.
type smallInListDialect struct {
	dialect.Dialect
	max int
}

func (d smallInListDialect) MaxInList() int { return d.max }

func TestParseFeatureRefs(t *testing.T) {
	t.Parallel()

	t.Run("splits on the final dot", func(t *testing.T) {
		t.Parallel()

		refs, err := driver.ParseFeatureRefs("orders.total, orders.count ,user.country")
		require.NoError(t, err)
		require.Len(t, refs, 3)
		assert.Equal(t, catalog.FeatureRef{GroupName: "orders", ColumnName: "total"}, refs[0])
		assert.Equal(t, catalog.FeatureRef{GroupName: "orders", ColumnName: "count"}, refs[1])
		assert.Equal(t, catalog.FeatureRef{GroupName: "user", ColumnName: "country"}, refs[2])
	})

	t.Run("group name may itself contain dots", func(t *testing.T) {
		t.Parallel()

		refs, err := driver.ParseFeatureRefs("schema.orders.total")
		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, "schema.orders", refs[0].GroupName)
		assert.Equal(t, "total", refs[0].ColumnName)
	})

	t.Run("rejects a token with no dot", func(t *testing.T) {
		t.Parallel()

		_, err := driver.ParseFeatureRefs("total")
		require.ErrorIs(t, err, driver.ErrInvalidFeatureToken)
	})

	t.Run("rejects an empty group", func(t *testing.T) {
		t.Parallel()

		_, err := driver.ParseFeatureRefs(".total")
		require.ErrorIs(t, err, driver.ErrInvalidFeatureToken)
	})

	t.Run("rejects an empty column", func(t *testing.T) {
		t.Parallel()

		_, err := driver.ParseFeatureRefs("orders.")
		require.ErrorIs(t, err, driver.ErrInvalidFeatureToken)
	})

	t.Run("rejects an empty list", func(t *testing.T) {
		t.Parallel()

		_, err := driver.ParseFeatureRefs("   ")
		require.ErrorIs(t, err, driver.ErrInvalidFeatureToken)
	})
}

func TestExportStreamsRowsAndPreviewsFirstBatch(t *testing.T) {
	t.Parallel()

	cat := fakeCatalog{"orders": {EntityColumn: "id"}}

	backend := &fakeBackend{
		d: dialect.NewPostgres(),
		queryFunc: func(string, []any) (*fakeCursor, error) {
			return &fakeCursor{
				columns: []string{"id", "total"},
				rows: [][]any{
					{1, 10.0}, {2, 20.0}, {3, 30.0}, {4, 40.0}, {5, 50.0},
				},
			}, nil
		},
	}

	d := driver.New(backend, cat)
	d.ChunkSize = 2

	result, err := d.Export(context.Background(), driver.ExportOptions{Features: "orders.total"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.RowCount, "without ForceFetchAll/Sink, Export stops after the first batch")
	assert.Contains(t, result.PreviewMarkdown, "| id | total |")
	assert.Contains(t, result.PreviewMarkdown, "| 1 | 10 |")
	assert.NotContains(t, result.PreviewMarkdown, "| 5 | 50 |")
}

func TestExportForceFetchAllReadsEveryBatch(t *testing.T) {
	t.Parallel()

	cat := fakeCatalog{"orders": {EntityColumn: "id"}}

	backend := &fakeBackend{
		d: dialect.NewPostgres(),
		queryFunc: func(string, []any) (*fakeCursor, error) {
			return &fakeCursor{
				columns: []string{"id", "total"},
				rows:    [][]any{{1, 10.0}, {2, 20.0}, {3, 30.0}},
			}, nil
		},
	}

	d := driver.New(backend, cat)
	d.ChunkSize = 2

	result, err := d.Export(context.Background(), driver.ExportOptions{Features: "orders.total", ForceFetchAll: true})
	require.NoError(t, err)

	assert.Equal(t, 3, result.RowCount)
	assert.Contains(t, result.PreviewMarkdown, "| 3 | 30 |")
}

func TestExportRejectsRankSentinelColumn(t *testing.T) {
	t.Parallel()

	cat := fakeCatalog{"orders": {EntityColumn: "id"}}
	backend := &fakeBackend{d: dialect.NewPostgres()}

	d := driver.New(backend, cat)

	_, err := d.Export(context.Background(), driver.ExportOptions{Features: "orders.rnk"})
	require.ErrorIs(t, err, catalog.ErrRankColumnCollision)
}

func TestExportUnknownGroup(t *testing.T) {
	t.Parallel()

	cat := fakeCatalog{}
	backend := &fakeBackend{d: dialect.NewPostgres()}

	d := driver.New(backend, cat)

	_, err := d.Export(context.Background(), driver.ExportOptions{Features: "orders.total"})
	require.ErrorIs(t, err, catalog.ErrUnknownGroup)
}

func TestExportCancellationStopsMidBatch(t *testing.T) {
	t.Parallel()

	cat := fakeCatalog{"orders": {EntityColumn: "id"}}

	backend := &fakeBackend{
		d: dialect.NewPostgres(),
		queryFunc: func(string, []any) (*fakeCursor, error) {
			return &fakeCursor{columns: []string{"id"}, rows: [][]any{{1}, {2}, {3}}}, nil
		},
	}

	d := driver.New(backend, cat)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Export(ctx, driver.ExportOptions{Features: "orders.total"})
	require.ErrorIs(t, err, driver.ErrCancelled)
}

// This test's catalog and backend exercise Join Mode A's batching: MaxInList caps at
// 3, so batchSizeFor yields chunks of 2, and 5 distinct entity keys split
// into 3 chunks.
func TestJoinModeABatchesEntityKeysAndLeftJoinsResults(t *testing.T) {
	t.Parallel()

	cat := fakeCatalog{"orders": {EntityColumn: "id"}}

	backend := &fakeBackend{
		d: smallInListDialect{Dialect: dialect.NewPostgres(), max: 3},
		queryFunc: func(_ string, args []any) (*fakeCursor, error) {
			rows := make([][]any, 0, len(args))
			for _, key := range args {
				rows = append(rows, []any{key, fmt.Sprintf("val-%v", key)})
			}

			return &fakeCursor{columns: []string{"id", "total"}, rows: rows}, nil
		},
	}

	entities := dataframe.New([]string{"id"})
	for _, id := range []int{1, 2, 3, 4, 5} {
		require.NoError(t, entities.AddRow([]any{id}))
	}

	d := driver.New(backend, cat)

	result, err := d.Join(context.Background(), driver.JoinOptions{
		EntityDataset: entities,
		EntityColumn:  "id",
		Features:      "orders.total",
		ForceFetchAll: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.RowCount)
	assert.Equal(t, 3, backend.callCount(), "5 keys at batch size 2 (max_in_list-1) makes 3 queries")

	total, err := result.Dataset.Column("total")
	require.NoError(t, err)

	for i, id := range []int{1, 2, 3, 4, 5} {
		assert.Equal(t, fmt.Sprintf("val-%d", id), total[i])
	}
}

func TestJoinUnboundedSpillRequiresSinkOrForceFetchAll(t *testing.T) {
	t.Parallel()

	cat := fakeCatalog{"orders": {EntityColumn: "id"}}

	backend := &fakeBackend{
		d: smallInListDialect{Dialect: dialect.NewPostgres(), max: 3},
		queryFunc: func(_ string, args []any) (*fakeCursor, error) {
			rows := make([][]any, 0, len(args))
			for _, key := range args {
				rows = append(rows, []any{key, "v"})
			}

			return &fakeCursor{columns: []string{"id", "total"}, rows: rows}, nil
		},
	}

	// More than forceFetchAllRowThreshold rows, so the ≤1000-row
	// force-fetch-all rule doesn't swallow the spill error, and enough of
	// them that the dialect's max_in_list of 3 (batches of 2) yields more
	// than one real IN-list chunk.
	entities := dataframe.New([]string{"id"})
	for id := 0; id < 1001; id++ {
		require.NoError(t, entities.AddRow([]any{id}))
	}

	d := driver.New(backend, cat)

	_, err := d.Join(context.Background(), driver.JoinOptions{
		EntityDataset: entities,
		EntityColumn:  "id",
		Features:      "orders.total",
	})
	require.ErrorIs(t, err, driver.ErrUnboundedSpillRequired)
}

func TestJoinModeBUsesPerRowSnapshot(t *testing.T) {
	t.Parallel()

	cat := fakeCatalog{"orders": {EntityColumn: "id", EventTimestampColumn: "as_of"}}

	var mu sync.Mutex

	snapshotsSeen := make(map[string]time.Time)

	backend := &fakeBackend{
		d: dialect.NewPostgres(),
		queryFunc: func(_ string, args []any) (*fakeCursor, error) {
			// args[0] is the snapshot bind value (the <= filter), the rest
			// are entity keys.
			snapshot, _ := args[0].(time.Time)
			key := args[1]

			mu.Lock()
			snapshotsSeen[fmt.Sprintf("%v", key)] = snapshot
			mu.Unlock()

			return &fakeCursor{columns: []string{"id", "total"}, rows: [][]any{{key, "v"}}}, nil
		},
	}

	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	entities := dataframe.New([]string{"id", "as_of"})
	require.NoError(t, entities.AddRow([]any{1, t1}))
	require.NoError(t, entities.AddRow([]any{2, t2}))

	d := driver.New(backend, cat)

	result, err := d.Join(context.Background(), driver.JoinOptions{
		EntityDataset:        entities,
		EntityColumn:         "id",
		EventTimestampColumn: "as_of",
		Features:             "orders.total",
		ForceFetchAll:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.RowCount)

	assert.Equal(t, t1, snapshotsSeen["1"])
	assert.Equal(t, t2, snapshotsSeen["2"])
}
