// Package database wraps the pgx connection pool used by the Postgres
// backend, and the equivalent database/sql pool used by the MySQL backend,
// behind the small surface the execution driver needs: open, query, close.
package database

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/accented-ai/spellstore/internal/util"
)

// Pool is a Postgres connection pool that retries its initial connect with
// exponential backoff, since pool construction happens once per CLI
// invocation and a cold database (e.g. just-started container) should not
// fail the whole command.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPoolFromURL parses url, opens a pool against it, and pings it before
// returning. The ping is retried with backoff.ExponentialBackOff for up to
// 30s to ride out a database that is still starting.
func NewPoolFromURL(ctx context.Context, url string) (*Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, util.WrapError("parse pool config", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, util.WrapError("create connection pool", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	pingErr := backoff.Retry(func() error {
		return pool.Ping(ctx)
	}, backoff.WithContext(bo, ctx))
	if pingErr != nil {
		pool.Close()
		return nil, util.WrapError("ping database", pingErr)
	}

	return &Pool{pool: pool}, nil
}

// Close releases the underlying pool. Safe to call once.
func (p *Pool) Close() {
	p.pool.Close()
}

// Query issues sql in streaming mode; pgx.Rows is itself a streaming
// cursor, there is no separate "enable streaming" step on this driver.
func (p *Pool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...) //nolint:wrapcheck
}

// QueryRow issues sql expecting exactly one row.
func (p *Pool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

// CurrentDatabase reports the name of the connected database, used only for
// status logging at the CLI boundary.
func (p *Pool) CurrentDatabase(ctx context.Context) (string, error) {
	var dbName string

	err := p.pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName)
	if err != nil {
		return "", util.WrapError("get current database", err)
	}

	return dbName, nil
}
