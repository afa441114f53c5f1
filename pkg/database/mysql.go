package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/go-sql-driver/mysql" // registers the "mysql" driver

	"github.com/accented-ai/spellstore/internal/util"
)

// MySQLPool wraps a database/sql pool for the MySQL/MariaDB backend. It
// exists alongside Pool because the safe-strategy dialect (no window
// functions, no FULL OUTER JOIN) is exercised against MySQL, not Postgres.
type MySQLPool struct {
	db *sql.DB
}

// NewMySQLPoolFromDSN opens a MySQL pool and pings it with the same
// exponential-backoff retry as NewPoolFromURL.
func NewMySQLPoolFromDSN(ctx context.Context, dsn string) (*MySQLPool, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, util.WrapError("open mysql pool", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	pingErr := backoff.Retry(func() error {
		return db.PingContext(ctx)
	}, backoff.WithContext(bo, ctx))
	if pingErr != nil {
		db.Close()
		return nil, util.WrapError("ping mysql database", pingErr)
	}

	return &MySQLPool{db: db}, nil
}

// Close releases the underlying pool.
func (p *MySQLPool) Close() error {
	return p.db.Close()
}

// Query issues sql in streaming mode. *sql.Rows streams from the wire as
// Next is called, matching the cursor semantics the driver relies on.
func (p *MySQLPool) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)

	return rows, util.WrapError("execute query", err)
}
