package dialect

import (
	"strconv"
	"strings"
)

const defaultMaxInList = 1000

// Postgres is the full-featured dialect: window functions and FULL OUTER
// JOIN are both available, so the planner always takes the window-ranked
// strategy and the composer always honors full_join as requested.
type Postgres struct {
	maxInList int
}

// NewPostgres returns a Postgres dialect with the default IN-list cap.
func NewPostgres() *Postgres {
	return &Postgres{maxInList: defaultMaxInList}
}

func (p *Postgres) Name() string               { return "postgres" }
func (p *Postgres) SupportsWindowRank() bool    { return true }
func (p *Postgres) SupportsFullOuterJoin() bool { return true }
func (p *Postgres) MaxInList() int              { return p.maxInList }

func (p *Postgres) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (p *Postgres) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (p *Postgres) RenderRankOver(partitionCol string, orderBy []OrderColumn) string {
	return renderRankOver(p.QuoteIdent, partitionCol, orderBy)
}

func (p *Postgres) RenderTop1PerPartitionFallback(baseAlias, aggAlias string, pairs []ColumnPair) string {
	return renderTop1Fallback(p.QuoteIdent, baseAlias, aggAlias, pairs)
}
