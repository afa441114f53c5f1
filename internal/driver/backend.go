package driver

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/accented-ai/spellstore/internal/dialect"
	"github.com/accented-ai/spellstore/pkg/database"
)

// Cursor is the streaming-read surface the driver needs from either backend,
// hiding pgx.Rows vs *sql.Rows behind one shape. A single row is read as a
// slice of driver-scanned values, in column order.
type Cursor interface {
	Next() bool
	Row() ([]any, error)
	Columns() []string
	Err() error
	Close()
}

// Backend binds a Dialect to the connection pool that can actually run
// queries against it. The planner and composer never see a Backend; only
// the driver does, at the point a composed query is executed.
type Backend interface {
	Dialect() dialect.Dialect
	Query(ctx context.Context, sqlText string, args []any) (Cursor, error)
}

// PostgresBackend runs queries against a Pool using the window-ranked
// strategy dialect.
type PostgresBackend struct {
	Pool *database.Pool
	D    dialect.Dialect
}

func (b *PostgresBackend) Dialect() dialect.Dialect { return b.D }

func (b *PostgresBackend) Query(ctx context.Context, sqlText string, args []any) (Cursor, error) {
	rows, err := b.Pool.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, newBackendFailure(sqlText, err)
	}

	return &pgxCursor{rows: rows}, nil
}

type pgxCursor struct {
	rows pgx.Rows
}

func (c *pgxCursor) Next() bool { return c.rows.Next() }

func (c *pgxCursor) Row() ([]any, error) { return c.rows.Values() }

func (c *pgxCursor) Columns() []string {
	fields := c.rows.FieldDescriptions()
	names := make([]string, len(fields))

	for i, f := range fields {
		names[i] = f.Name
	}

	return names
}

func (c *pgxCursor) Err() error { return c.rows.Err() }

func (c *pgxCursor) Close() { c.rows.Close() }

// MySQLBackend runs queries against a MySQLPool using the safe strategy
// dialect (MySQL carries no FULL OUTER JOIN and, pre-8.0, no window
// functions).
type MySQLBackend struct {
	Pool *database.MySQLPool
	D    dialect.Dialect
}

func (b *MySQLBackend) Dialect() dialect.Dialect { return b.D }

func (b *MySQLBackend) Query(ctx context.Context, sqlText string, args []any) (Cursor, error) {
	rows, err := b.Pool.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, newBackendFailure(sqlText, err)
	}

	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, newBackendFailure(sqlText, err)
	}

	return &sqlCursor{rows: rows, columns: cols}, nil
}

type sqlCursor struct {
	rows    *sql.Rows
	columns []string
}

func (c *sqlCursor) Next() bool { return c.rows.Next() }

func (c *sqlCursor) Row() ([]any, error) {
	values := make([]any, len(c.columns))
	ptrs := make([]any, len(c.columns))

	for i := range values {
		ptrs[i] = &values[i]
	}

	if err := c.rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	return values, nil
}

func (c *sqlCursor) Columns() []string { return c.columns }

func (c *sqlCursor) Err() error { return c.rows.Err() }

func (c *sqlCursor) Close() { c.rows.Close() }
