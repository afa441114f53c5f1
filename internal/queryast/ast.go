// Package queryast is the pure, immutable query AST spec.md §9 asks for in
// place of the original's session-scoped ORM query builder. The planner and
// composer only construct *Select values; nothing in either package calls
// Render — rendering happens exactly once, in the execution driver, right
// before a query is sent to a connection.
package queryast

import (
	"strconv"
	"strings"
)

// Expr is an already-quoted, already-escaped SQL expression fragment.
// Identifier quoting is the dialect's job (internal/dialect); by the time a
// string becomes an Expr it is ready to drop into SQL text verbatim.
type Expr string

// SelectItem is one projected column.
type SelectItem struct {
	Expr  Expr
	Alias string // quoted; empty when Expr already reads as a bare column reference
}

// JoinType distinguishes LEFT OUTER from FULL OUTER for the composer's view
// joins; INNER JOIN is used only by the planner's safe-strategy self-join.
type JoinType int

const (
	LeftOuterJoin JoinType = iota
	FullOuterJoin
	InnerJoin
)

func (jt JoinType) sql() string {
	switch jt {
	case FullOuterJoin:
		return "FULL OUTER JOIN"
	case InnerJoin:
		return "JOIN"
	default:
		return "LEFT OUTER JOIN"
	}
}

// FromItem is a FROM/JOIN source: either a bare table name or a nested
// subquery, always under an alias.
type FromItem struct {
	Table    Expr // quoted table name; empty when Subquery is set
	Subquery *Select
	Alias    string // quoted
}

func (f FromItem) render() string {
	if f.Subquery != nil {
		return "(" + f.Subquery.Render() + ") AS " + f.Alias
	}

	return string(f.Table) + " AS " + f.Alias
}

// JoinClause attaches one additional FROM source to a Select.
type JoinClause struct {
	Type JoinType
	Item FromItem
	On   Expr
}

// Select is a single SELECT ... FROM ... [JOIN ...]* [WHERE ...] [GROUP BY
// ...] [LIMIT ...] node. It doubles as the per-view subquery (leaf, no
// Joins) and as the composer's outer query (From is the anchor view, Joins
// are the remaining views).
type Select struct {
	Items   []SelectItem
	From    FromItem
	Joins   []JoinClause
	Where   []Expr // ANDed together
	GroupBy []Expr
	Limit   *int
}

// Render renders s to SQL text, recursing into any nested subqueries.
func (s *Select) Render() string {
	var b strings.Builder

	b.WriteString("SELECT ")
	b.WriteString(renderItems(s.Items))
	b.WriteString(" FROM ")
	b.WriteString(s.From.render())

	for _, j := range s.Joins {
		b.WriteString(" ")
		b.WriteString(j.Type.sql())
		b.WriteString(" ")
		b.WriteString(j.Item.render())
		b.WriteString(" ON ")
		b.WriteString(string(j.On))
	}

	if len(s.Where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(joinExprAnd(s.Where))
	}

	if len(s.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(joinExpr(s.GroupBy, ", "))
	}

	if s.Limit != nil {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(*s.Limit))
	}

	return b.String()
}

func renderItems(items []SelectItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		if it.Alias == "" {
			parts[i] = string(it.Expr)
		} else {
			parts[i] = string(it.Expr) + " AS " + it.Alias
		}
	}

	return strings.Join(parts, ", ")
}

func joinExprAnd(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = "(" + string(e) + ")"
	}

	return strings.Join(parts, " AND ")
}

func joinExpr(exprs []Expr, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = string(e)
	}

	return strings.Join(parts, sep)
}

