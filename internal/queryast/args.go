package queryast

import "github.com/accented-ai/spellstore/internal/dialect"

// Args accumulates bind-parameter values in render order as the planner and
// composer build a query, handing back the placeholder token to drop into
// an Expr. Keeping entity keys and snapshot timestamps as bind parameters
// rather than inlined literals avoids building SQL text out of caller-
// supplied values.
type Args struct {
	dialect dialect.Dialect
	values  []any
}

// NewArgs returns an empty Args bound to d's placeholder style.
func NewArgs(d dialect.Dialect) *Args {
	return &Args{dialect: d}
}

// Bind appends v and returns the placeholder token for it.
func (a *Args) Bind(v any) Expr {
	a.values = append(a.values, v)
	return Expr(a.dialect.Placeholder(len(a.values)))
}

// Values returns the bound values in bind order, ready to pass as the
// variadic args to a driver's Query call.
func (a *Args) Values() []any {
	return a.values
}
