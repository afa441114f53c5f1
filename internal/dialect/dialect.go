// Package dialect hides the differences between target databases: quoting,
// window-function support, FULL OUTER JOIN support, and IN-list cardinality
// caps. No other package in spellstore contains a dialect-specific string;
// everything that varies by backend is a method on Dialect.
package dialect

import (
	"fmt"
	"strings"
)

// OrderColumn is one column of an ORDER BY / PARTITION BY clause.
type OrderColumn struct {
	Name string
	Desc bool
}

// ColumnPair names a column present on both sides of a self-join, used by
// RenderTop1PerPartitionFallback's equality predicate.
type ColumnPair struct {
	Base string
	Agg  string
}

// Dialect is the SQL Dialect Adapter of spec.md §4.2.
type Dialect interface {
	// Name identifies the dialect for logging and error messages.
	Name() string

	// SupportsWindowRank reports whether RANK() OVER (...) is available.
	// When false, the planner falls back to the safe GROUP BY + self-join
	// strategy.
	SupportsWindowRank() bool

	// SupportsFullOuterJoin reports whether FULL OUTER JOIN is available.
	// When false, the composer downgrades full_join requests to LEFT
	// OUTER JOIN.
	SupportsFullOuterJoin() bool

	// MaxInList bounds how many literals may appear in a single IN (...)
	// list; the driver splits larger entity-key lists into batches of at
	// most MaxInList-1 to leave room for other predicates.
	MaxInList() int

	// QuoteIdent quotes a single SQL identifier.
	QuoteIdent(name string) string

	// Placeholder renders the bind-parameter token for the n-th (1-indexed)
	// value bound to a query, e.g. "$1" for Postgres or "?" for MySQL.
	Placeholder(n int) string

	// RenderRankOver renders "RANK() OVER (PARTITION BY ... ORDER BY ...
	// DESC [, ... DESC])" for the window-ranked planner strategy.
	RenderRankOver(partitionCol string, orderBy []OrderColumn) string

	// RenderTop1PerPartitionFallback renders the equality predicate
	// joining baseAlias to aggAlias on the given column pairs, used by
	// the safe planner strategy's self-join.
	RenderTop1PerPartitionFallback(baseAlias, aggAlias string, pairs []ColumnPair) string
}

// qualify renders "alias"."column" with q as the quoting function.
func qualify(q func(string) string, alias, column string) string {
	if alias == "" {
		return q(column)
	}

	return q(alias) + "." + q(column)
}

func renderRankOver(q func(string) string, partitionCol string, orderBy []OrderColumn) string {
	terms := make([]string, 0, len(orderBy))
	for _, oc := range orderBy {
		dir := "ASC"
		if oc.Desc {
			dir = "DESC"
		}

		terms = append(terms, fmt.Sprintf("%s %s", q(oc.Name), dir))
	}

	return fmt.Sprintf("RANK() OVER (PARTITION BY %s ORDER BY %s)", q(partitionCol), strings.Join(terms, ", "))
}

func renderTop1Fallback(q func(string) string, baseAlias, aggAlias string, pairs []ColumnPair) string {
	clauses := make([]string, 0, len(pairs))
	for _, p := range pairs {
		clauses = append(clauses, fmt.Sprintf("%s = %s", qualify(q, baseAlias, p.Base), qualify(q, aggAlias, p.Agg)))
	}

	return strings.Join(clauses, " AND ")
}
