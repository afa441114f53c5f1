// Package composer implements the FeatureGroup Composer of spec.md §4.4: it
// combines the per-view subqueries the planner produced into one query,
// coalescing entity columns, joining the views, filtering to rank=1 rows,
// and projecting the requested features.
package composer

import (
	"errors"
	"strings"

	"github.com/accented-ai/spellstore/internal/dialect"
	"github.com/accented-ai/spellstore/internal/planner"
	"github.com/accented-ai/spellstore/internal/queryast"
)

// ErrNoViews is returned by Compose when given an empty view list; the
// planner should never produce one from a non-empty feature request, but
// an empty request is a caller error worth naming explicitly.
var ErrNoViews = errors.New("composer: no feature views to join")

// Options controls composition behavior that is per-request rather than
// per-view: full outer vs. left outer joins, and an optional row cap.
type Options struct {
	FullJoin bool
	Limit    *int
}

// Compose joins views[0] (the anchor/base view) against views[1:], in
// order, coalescing entity columns across the join chain and filtering
// each view's rank column (if any) to rank=1 or NULL.
func Compose(views []*planner.PlannedView, d dialect.Dialect, opts Options) (*queryast.Select, error) {
	if len(views) == 0 {
		return nil, ErrNoViews
	}

	base := views[0]

	joinType := queryast.LeftOuterJoin
	if opts.FullJoin && d.SupportsFullOuterJoin() {
		joinType = queryast.FullOuterJoin
	}

	sel := &queryast.Select{
		Items: entityProjection(d, base, views),
		From: queryast.FromItem{
			Subquery: base.Subquery,
			Alias:    d.QuoteIdent(base.Alias),
		},
	}

	for _, v := range views {
		sel.Items = append(sel.Items, nonEntityProjection(d, v)...)
	}

	if base.RankColumn != "" {
		sel.Where = append(sel.Where, rankFilter(d, base.Alias, base.RankColumn))
	}

	priorEntityExprs := []string{qualify(d, base.Alias, base.EntityColumn)}

	for _, v := range views[1:] {
		onRight := qualify(d, v.Alias, v.EntityColumn)

		sel.Joins = append(sel.Joins, queryast.JoinClause{
			Type: joinType,
			Item: queryast.FromItem{Subquery: v.Subquery, Alias: d.QuoteIdent(v.Alias)},
			On:   queryast.Expr(coalesceOrSingle(priorEntityExprs) + " = " + onRight),
		})

		if v.RankColumn != "" {
			sel.Where = append(sel.Where, rankFilter(d, v.Alias, v.RankColumn))
		}

		priorEntityExprs = append(priorEntityExprs, onRight)
	}

	sel.Limit = opts.Limit

	return sel, nil
}

// entityProjection builds the single coalesced (or, for one view, bare)
// entity-column select item, aliased to the anchor view's entity-column
// name — spec.md §4.4 step 1.
func entityProjection(d dialect.Dialect, base *planner.PlannedView, views []*planner.PlannedView) []queryast.SelectItem {
	if len(views) == 1 {
		return []queryast.SelectItem{{
			Expr:  queryast.Expr(qualify(d, base.Alias, base.EntityColumn)),
			Alias: d.QuoteIdent(base.EntityColumn),
		}}
	}

	exprs := make([]string, 0, len(views))
	for _, v := range views {
		exprs = append(exprs, qualify(d, v.Alias, v.EntityColumn))
	}

	return []queryast.SelectItem{{
		Expr:  queryast.Expr("COALESCE(" + strings.Join(exprs, ", ") + ")"),
		Alias: d.QuoteIdent(base.EntityColumn),
	}}
}

// nonEntityProjection projects every exposed column of v except its entity
// column, which the combined entity projection already covers.
func nonEntityProjection(d dialect.Dialect, v *planner.PlannedView) []queryast.SelectItem {
	items := make([]queryast.SelectItem, 0, len(v.ExposedColumns))

	for _, col := range v.ExposedColumns {
		if col == v.EntityColumn {
			continue
		}

		items = append(items, queryast.SelectItem{Expr: queryast.Expr(qualify(d, v.Alias, col))})
	}

	return items
}

func rankFilter(d dialect.Dialect, alias, rankColumn string) queryast.Expr {
	col := qualify(d, alias, rankColumn)

	return queryast.Expr(col + " = 1 OR " + col + " IS NULL")
}

func qualify(d dialect.Dialect, alias, column string) string {
	return d.QuoteIdent(alias) + "." + d.QuoteIdent(column)
}

func coalesceOrSingle(exprs []string) string {
	if len(exprs) == 1 {
		return exprs[0]
	}

	return "COALESCE(" + strings.Join(exprs, ", ") + ")"
}
