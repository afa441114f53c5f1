package planner_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accented-ai/spellstore/internal/catalog"
	"github.com/accented-ai/spellstore/internal/dialect"
	"github.com/accented-ai/spellstore/internal/planner"
	"github.com/accented-ai/spellstore/internal/queryast"
)

var snapshot = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestPlanUntimestampedPassthrough(t *testing.T) {
	t.Parallel()

	spec := planner.ViewSpec{
		GroupName:        "test",
		RequestedColumns: []string{"c"},
		EntityColumn:     "a",
	}

	args := queryast.NewArgs(dialect.NewPostgres())

	view, err := planner.Plan(spec, dialect.NewPostgres(), args, "s1", snapshot, nil)
	require.NoError(t, err)

	assert.Empty(t, view.RankColumn, "untimestamped view has no rank column")
	assert.Equal(t, []string{"c", "a"}, view.ExposedColumns)

	sql := view.Subquery.Render()
	assert.NotContains(t, sql, "RANK()")
	assert.NotContains(t, sql, "WHERE", "no snapshot filter without an event-timestamp column")
}

func TestPlanWindowRankedStrategy(t *testing.T) {
	t.Parallel()

	spec := planner.ViewSpec{
		GroupName:            "test",
		RequestedColumns:     []string{"c"},
		EntityColumn:         "a",
		EventTimestampColumn: "b",
	}

	args := queryast.NewArgs(dialect.NewPostgres())

	view, err := planner.Plan(spec, dialect.NewPostgres(), args, "s1", snapshot, nil)
	require.NoError(t, err)

	assert.Equal(t, "rnk", view.RankColumn)

	sql := view.Subquery.Render()
	assert.Contains(t, sql, "RANK() OVER (PARTITION BY \"a\" ORDER BY \"b\" DESC)")
	assert.Contains(t, sql, `"t"."b" <= $1`)
	assert.Equal(t, []any{snapshot}, args.Values())
}

func TestPlanWindowRankedIncludesCreateTimestampTieBreak(t *testing.T) {
	t.Parallel()

	spec := planner.ViewSpec{
		GroupName:             "test",
		RequestedColumns:      []string{"c"},
		EntityColumn:          "a",
		EventTimestampColumn:  "b",
		CreateTimestampColumn: "b1",
	}

	args := queryast.NewArgs(dialect.NewPostgres())

	view, err := planner.Plan(spec, dialect.NewPostgres(), args, "s1", snapshot, nil)
	require.NoError(t, err)

	sql := view.Subquery.Render()
	assert.Contains(t, sql, `ORDER BY "b" DESC, "b1" DESC`)
}

func TestPlanFallsBackToSafeStrategyWithoutWindowSupport(t *testing.T) {
	t.Parallel()

	spec := planner.ViewSpec{
		GroupName:            "test",
		RequestedColumns:     []string{"c"},
		EntityColumn:         "a",
		EventTimestampColumn: "b",
	}

	d := dialect.NewMySQL(false)
	args := queryast.NewArgs(d)

	view, err := planner.Plan(spec, d, args, "s1", snapshot, nil)
	require.NoError(t, err)

	assert.Empty(t, view.RankColumn, "safe strategy enforces top-1 via the join, not an exposed rank column")

	sql := view.Subquery.Render()
	assert.Contains(t, sql, "MAX(")
	assert.Contains(t, sql, "GROUP BY")
	assert.Contains(t, sql, "JOIN")
	assert.NotContains(t, sql, "RANK()")
}

func TestPlanSafeStrategyTwoIndependentMaxAggregates(t *testing.T) {
	t.Parallel()

	spec := planner.ViewSpec{
		GroupName:             "test",
		RequestedColumns:      []string{"c"},
		EntityColumn:          "a",
		EventTimestampColumn:  "b",
		CreateTimestampColumn: "b1",
	}

	d := dialect.NewMySQL(false)
	args := queryast.NewArgs(d)

	view, err := planner.Plan(spec, d, args, "s1", snapshot, nil)
	require.NoError(t, err)

	sql := view.Subquery.Render()
	assert.Equal(t, 2, strings.Count(sql, "MAX("), "event and create timestamps are aggregated independently")
}

func TestPlanEntityFilterRestrictsToGivenKeys(t *testing.T) {
	t.Parallel()

	spec := planner.ViewSpec{
		GroupName:        "test",
		RequestedColumns: []string{"c"},
		EntityColumn:     "a",
	}

	d := dialect.NewPostgres()
	args := queryast.NewArgs(d)

	view, err := planner.Plan(spec, d, args, "s1", snapshot, []any{1, 2, 3})
	require.NoError(t, err)

	sql := view.Subquery.Render()
	assert.Contains(t, sql, `"t"."a" IN ($1, $2, $3)`)
	assert.Equal(t, []any{1, 2, 3}, args.Values())
}

func TestExposedColumnsDedupeAndOrder(t *testing.T) {
	t.Parallel()

	spec := planner.ViewSpec{
		GroupName:            "test",
		RequestedColumns:     []string{"c", "a"}, // "a" also happens to be the entity column
		EntityColumn:         "a",
		EventTimestampColumn: "b",
	}

	d := dialect.NewPostgres()
	args := queryast.NewArgs(d)

	view, err := planner.Plan(spec, d, args, "s1", snapshot, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "a", "b"}, view.ExposedColumns)
}

func TestRankColumnNameAvoidsCollisionWithExposedColumns(t *testing.T) {
	t.Parallel()

	spec := planner.ViewSpec{
		GroupName:            "test",
		RequestedColumns:     []string{catalog.RankSentinel}, // a feature literally named "rnk"
		EntityColumn:         "a",
		EventTimestampColumn: "b",
	}

	d := dialect.NewPostgres()
	args := queryast.NewArgs(d)

	view, err := planner.Plan(spec, d, args, "s1", snapshot, nil)
	require.NoError(t, err)

	assert.Equal(t, "rrnk", view.RankColumn, "rnk collides with a requested column, so the planner prepends r")
}

func TestFromCatalogCopiesMetadata(t *testing.T) {
	t.Parallel()

	meta := catalog.GroupMeta{
		EntityColumn:          "a",
		EventTimestampColumn:  "b",
		CreateTimestampColumn: "b1",
	}

	spec := planner.FromCatalog("test", []string{"c"}, meta)

	assert.Equal(t, "test", spec.GroupName)
	assert.Equal(t, []string{"c"}, spec.RequestedColumns)
	assert.Equal(t, "a", spec.EntityColumn)
	assert.Equal(t, "b", spec.EventTimestampColumn)
	assert.Equal(t, "b1", spec.CreateTimestampColumn)
}
