package planner

import (
	"time"

	"github.com/accented-ai/spellstore/internal/dialect"
	"github.com/accented-ai/spellstore/internal/queryast"
)

// planSafe emits spec.md §4.3's safe strategy for dialects without window
// functions: an inner aggregation computing MAX(event_timestamp) (and
// MAX(create_timestamp), as two distinct aggregates — see DESIGN.md's note
// on the original's apparent bug) per entity, self-joined back onto the
// base table. No rank column is exposed; the join itself enforces top-1.
func planSafe(
	spec ViewSpec,
	d dialect.Dialect,
	args *queryast.Args,
	alias string,
	columns []string,
	snapshot time.Time,
	entityKeys []any,
) *PlannedView {
	const baseAlias = "t"

	const aggAlias = "agg"

	eventAggCol := rankColumnName(columns)

	aggItems := []queryast.SelectItem{
		{
			Expr:  queryast.Expr(d.QuoteIdent(baseAlias) + "." + d.QuoteIdent(spec.EntityColumn)),
			Alias: d.QuoteIdent(spec.EntityColumn),
		},
		{
			Expr:  queryast.Expr("MAX(" + d.QuoteIdent(baseAlias) + "." + d.QuoteIdent(spec.EventTimestampColumn) + ")"),
			Alias: d.QuoteIdent(eventAggCol),
		},
	}

	pairs := []dialect.ColumnPair{
		{Base: spec.EntityColumn, Agg: spec.EntityColumn},
		{Base: spec.EventTimestampColumn, Agg: eventAggCol},
	}

	if spec.CreateTimestampColumn != "" {
		createAggCol := eventAggCol + "0"
		aggItems = append(aggItems, queryast.SelectItem{
			Expr:  queryast.Expr("MAX(" + d.QuoteIdent(baseAlias) + "." + d.QuoteIdent(spec.CreateTimestampColumn) + ")"),
			Alias: d.QuoteIdent(createAggCol),
		})
		pairs = append(pairs, dialect.ColumnPair{Base: spec.CreateTimestampColumn, Agg: createAggCol})
	}

	aggSel := &queryast.Select{
		Items: aggItems,
		From: queryast.FromItem{
			Table: queryast.Expr(d.QuoteIdent(spec.GroupName)),
			Alias: d.QuoteIdent(baseAlias),
		},
		Where:   []queryast.Expr{snapshotFilter(d, args, baseAlias, spec.EventTimestampColumn, snapshot)},
		GroupBy: []queryast.Expr{queryast.Expr(d.QuoteIdent(baseAlias) + "." + d.QuoteIdent(spec.EntityColumn))},
	}

	if len(entityKeys) > 0 {
		aggSel.Where = append(aggSel.Where, entityFilter(d, args, baseAlias, spec.EntityColumn, entityKeys))
	}

	outerSel := &queryast.Select{
		Items: projectItems(d, baseAlias, columns),
		From: queryast.FromItem{
			Table: queryast.Expr(d.QuoteIdent(spec.GroupName)),
			Alias: d.QuoteIdent(baseAlias),
		},
		Joins: []queryast.JoinClause{
			{
				Type: queryast.InnerJoin,
				Item: queryast.FromItem{Subquery: aggSel, Alias: d.QuoteIdent(aggAlias)},
				On:   queryast.Expr(d.RenderTop1PerPartitionFallback(baseAlias, aggAlias, pairs)),
			},
		},
	}

	return &PlannedView{
		Alias:          alias,
		EntityColumn:   spec.EntityColumn,
		ExposedColumns: columns,
		Subquery:       outerSel,
	}
}
