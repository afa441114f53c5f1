package cli

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/accented-ai/spellstore/internal/catalog"
	"github.com/accented-ai/spellstore/internal/dialect"
	"github.com/accented-ai/spellstore/internal/driver"
	"github.com/accented-ai/spellstore/internal/telemetry"
	"github.com/accented-ai/spellstore/internal/util"
	"github.com/accented-ai/spellstore/pkg/database"
)

// loadCatalog reads and parses the catalog file at path.
func loadCatalog(path string) (*catalog.LoadedCatalog, error) {
	return catalog.LoadFile(path)
}

// newBackend opens the connection pool implied by connectionURL's scheme
// and pairs it with the matching Dialect.
func newBackend(ctx context.Context, connectionURL string) (driver.Backend, func(), error) {
	switch {
	case strings.HasPrefix(connectionURL, "postgres://"), strings.HasPrefix(connectionURL, "postgresql://"):
		pool, err := database.NewPoolFromURL(ctx, connectionURL)
		if err != nil {
			return nil, nil, util.WrapError("connect to postgres", err)
		}

		backend := &driver.PostgresBackend{Pool: pool, D: dialect.NewPostgres()}

		return backend, func() { pool.Close() }, nil

	case strings.HasPrefix(connectionURL, "mysql://"):
		dsn := strings.TrimPrefix(connectionURL, "mysql://")

		pool, err := database.NewMySQLPoolFromDSN(ctx, dsn)
		if err != nil {
			return nil, nil, util.WrapError("connect to mysql", err)
		}

		backend := &driver.MySQLBackend{Pool: pool, D: dialect.NewMySQL(false)}

		return backend, func() { pool.Close() }, nil

	default:
		return nil, nil, util.WrapError("select backend", ErrUnsupportedConnectionScheme)
	}
}

// buildDriver loads the catalog, opens the matching backend, and returns a
// Driver wired to both plus a close func releasing the backend's pool.
// logger is the command's base logger; each call gets its own request id.
func buildDriver(ctx context.Context, catalogPath string, logger zerolog.Logger) (*driver.Driver, func(), error) {
	loaded, err := loadCatalog(catalogPath)
	if err != nil {
		return nil, nil, err
	}

	backend, closeFn, err := newBackend(ctx, loaded.ConnectionURL)
	if err != nil {
		return nil, nil, err
	}

	d := driver.New(backend, loaded.Catalog)
	d.Logger = telemetry.WithRequestID(logger)

	return d, closeFn, nil
}
