package dialect

import "strings"

// MySQL models MySQL/MariaDB. FULL OUTER JOIN is never available on this
// engine family, so the composer always downgrades full_join to LEFT
// OUTER JOIN here. Window-function support depends on server version:
// MySQL 8.0+ has RANK() OVER (...), 5.7 and MariaDB before 10.2 do not, so
// it is a constructor parameter rather than a constant.
type MySQL struct {
	supportsWindow bool
	maxInList      int
}

// NewMySQL returns a MySQL dialect. supportsWindowRank should be true for
// MySQL 8.0+/MariaDB 10.2+, false for older servers, which forces the
// planner onto the safe GROUP BY + self-join strategy.
func NewMySQL(supportsWindowRank bool) *MySQL {
	return &MySQL{supportsWindow: supportsWindowRank, maxInList: defaultMaxInList}
}

func (m *MySQL) Name() string               { return "mysql" }
func (m *MySQL) SupportsWindowRank() bool    { return m.supportsWindow }
func (m *MySQL) SupportsFullOuterJoin() bool { return false }
func (m *MySQL) MaxInList() int              { return m.maxInList }

func (m *MySQL) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Placeholder is always "?" on MySQL: the driver binds positionally, the
// token itself carries no position.
func (m *MySQL) Placeholder(int) string {
	return "?"
}

func (m *MySQL) RenderRankOver(partitionCol string, orderBy []OrderColumn) string {
	return renderRankOver(m.QuoteIdent, partitionCol, orderBy)
}

func (m *MySQL) RenderTop1PerPartitionFallback(baseAlias, aggAlias string, pairs []ColumnPair) string {
	return renderTop1Fallback(m.QuoteIdent, baseAlias, aggAlias, pairs)
}
