// Package planner implements the FeatureView Planner of spec.md §4.3: for a
// single feature group it plans a subquery selecting the latest row per
// entity as of a snapshot moment, using whichever of the window-ranked or
// safe strategy the dialect supports.
package planner

import (
	"time"

	"github.com/accented-ai/spellstore/internal/catalog"
	"github.com/accented-ai/spellstore/internal/dialect"
	"github.com/accented-ai/spellstore/internal/queryast"
)

// ViewSpec is the planner's input for one feature group within a request:
// the backing table name, the requested feature columns in user order, and
// the key/timestamp metadata resolved from the catalog.
type ViewSpec struct {
	GroupName             string
	RequestedColumns      []string
	EntityColumn          string
	EventTimestampColumn  string // "" when the group carries no event-time axis
	CreateTimestampColumn string // "" when the group carries no tie-break column
}

// FromCatalog builds a ViewSpec from catalog metadata and the requested
// columns for one group.
func FromCatalog(groupName string, requestedColumns []string, meta catalog.GroupMeta) ViewSpec {
	return ViewSpec{
		GroupName:             groupName,
		RequestedColumns:      requestedColumns,
		EntityColumn:          meta.EntityColumn,
		EventTimestampColumn:  meta.EventTimestampColumn,
		CreateTimestampColumn: meta.CreateTimestampColumn,
	}
}

// PlannedView is the planner's output for one view: the bookkeeping the
// composer needs (alias, entity column name, rank column name if any, the
// full exposed column list) plus the subquery AST itself.
type PlannedView struct {
	Alias          string
	EntityColumn   string
	RankColumn     string // "" when the view carries no event-timestamp axis
	ExposedColumns []string
	Subquery       *queryast.Select
}

// Plan builds the subquery for one view. alias names the subquery in the
// composed query's FROM/JOIN clause (e.g. "s1", "s2", ...). entityKeys, when
// non-nil, restricts the view to those entity keys; the caller (the
// execution driver) is responsible for keeping any one IN-list within the
// dialect's MaxInList.
func Plan(
	spec ViewSpec,
	d dialect.Dialect,
	args *queryast.Args,
	alias string,
	snapshot time.Time,
	entityKeys []any,
) (*PlannedView, error) {
	columns := exposedColumns(spec)

	if spec.EventTimestampColumn == "" {
		return planUntimestamped(spec, d, args, alias, columns, entityKeys), nil
	}

	if d.SupportsWindowRank() {
		return planWindowRanked(spec, d, args, alias, columns, snapshot, entityKeys), nil
	}

	return planSafe(spec, d, args, alias, columns, snapshot, entityKeys), nil
}

// exposedColumns computes the union of requested columns, the entity
// column, and (if present) the event/create timestamp columns, each added
// at most once and in first-seen order — spec.md §4.3's column contract.
func exposedColumns(spec ViewSpec) []string {
	seen := make(map[string]struct{}, len(spec.RequestedColumns)+3)

	var out []string

	add := func(col string) {
		if col == "" {
			return
		}

		if _, ok := seen[col]; ok {
			return
		}

		seen[col] = struct{}{}
		out = append(out, col)
	}

	for _, c := range spec.RequestedColumns {
		add(c)
	}

	add(spec.EntityColumn)
	add(spec.EventTimestampColumn)
	add(spec.CreateTimestampColumn)

	return out
}

// rankColumnName picks a synthetic rank-column alias that does not collide
// with any exposed column: start at catalog.RankSentinel, and while it
// collides, prepend "r" (spec.md §4.3).
func rankColumnName(columns []string) string {
	taken := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		taken[c] = struct{}{}
	}

	name := catalog.RankSentinel
	for {
		if _, collide := taken[name]; !collide {
			return name
		}

		name = "r" + name
	}
}

func projectItems(d dialect.Dialect, tableAlias string, columns []string) []queryast.SelectItem {
	items := make([]queryast.SelectItem, 0, len(columns))
	for _, col := range columns {
		items = append(items, queryast.SelectItem{
			Expr: queryast.Expr(d.QuoteIdent(tableAlias) + "." + d.QuoteIdent(col)),
		})
	}

	return items
}

func entityFilter(d dialect.Dialect, args *queryast.Args, tableAlias, entityColumn string, entityKeys []any) queryast.Expr {
	placeholders := make([]string, 0, len(entityKeys))
	for _, key := range entityKeys {
		placeholders = append(placeholders, string(args.Bind(key)))
	}

	col := d.QuoteIdent(tableAlias) + "." + d.QuoteIdent(entityColumn)

	return queryast.Expr(col + " IN (" + joinStrings(placeholders, ", ") + ")")
}

func joinStrings(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}

		out += p
	}

	return out
}

func planUntimestamped(
	spec ViewSpec,
	d dialect.Dialect,
	args *queryast.Args,
	alias string,
	columns []string,
	entityKeys []any,
) *PlannedView {
	const baseAlias = "t"

	sel := &queryast.Select{
		Items: projectItems(d, baseAlias, columns),
		From: queryast.FromItem{
			Table: queryast.Expr(d.QuoteIdent(spec.GroupName)),
			Alias: d.QuoteIdent(baseAlias),
		},
	}

	if len(entityKeys) > 0 {
		sel.Where = append(sel.Where, entityFilter(d, args, baseAlias, spec.EntityColumn, entityKeys))
	}

	return &PlannedView{
		Alias:          alias,
		EntityColumn:   spec.EntityColumn,
		ExposedColumns: columns,
		Subquery:       sel,
	}
}
