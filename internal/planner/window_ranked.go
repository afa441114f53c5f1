package planner

import (
	"time"

	"github.com/accented-ai/spellstore/internal/dialect"
	"github.com/accented-ai/spellstore/internal/queryast"
)

// planWindowRanked emits a single subquery over the base table that
// projects the exposed columns, filters event_timestamp <= snapshot (and
// entity_column IN (...) when entityKeys is given), and adds a
// RANK() OVER (PARTITION BY entity ORDER BY event DESC [, create DESC])
// column — spec.md §4.3's window-ranked strategy.
func planWindowRanked(
	spec ViewSpec,
	d dialect.Dialect,
	args *queryast.Args,
	alias string,
	columns []string,
	snapshot time.Time,
	entityKeys []any,
) *PlannedView {
	const baseAlias = "t"

	rankCol := rankColumnName(columns)

	orderBy := []dialect.OrderColumn{{Name: spec.EventTimestampColumn, Desc: true}}
	if spec.CreateTimestampColumn != "" {
		orderBy = append(orderBy, dialect.OrderColumn{Name: spec.CreateTimestampColumn, Desc: true})
	}

	items := projectItems(d, baseAlias, columns)
	items = append(items, queryast.SelectItem{
		Expr:  queryast.Expr(d.RenderRankOver(spec.EntityColumn, orderBy)),
		Alias: d.QuoteIdent(rankCol),
	})

	sel := &queryast.Select{
		Items: items,
		From: queryast.FromItem{
			Table: queryast.Expr(d.QuoteIdent(spec.GroupName)),
			Alias: d.QuoteIdent(baseAlias),
		},
		Where: []queryast.Expr{snapshotFilter(d, args, baseAlias, spec.EventTimestampColumn, snapshot)},
	}

	if len(entityKeys) > 0 {
		sel.Where = append(sel.Where, entityFilter(d, args, baseAlias, spec.EntityColumn, entityKeys))
	}

	return &PlannedView{
		Alias:          alias,
		EntityColumn:   spec.EntityColumn,
		RankColumn:     rankCol,
		ExposedColumns: columns,
		Subquery:       sel,
	}
}

// snapshotFilter renders "event_timestamp <= snapshot". NULL event
// timestamps never satisfy this comparison under normal SQL three-valued
// logic, which is exactly spec.md §4.3's "NULL event-timestamps are
// treated as strictly less than any snapshot (excluded)".
func snapshotFilter(d dialect.Dialect, args *queryast.Args, tableAlias, eventCol string, snapshot time.Time) queryast.Expr {
	col := d.QuoteIdent(tableAlias) + "." + d.QuoteIdent(eventCol)
	placeholder := args.Bind(snapshot)

	return queryast.Expr(col + " <= " + string(placeholder))
}
