// Package driver is the Execution Driver of spec.md §4.5: it binds the
// composed query to a connection, streams rows in chunks, writes them to a
// sink, and optionally performs the client-side entity-dataframe join.
package driver

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFeatureToken is returned when a "group.column" token cannot
	// be split into a non-empty group and column.
	ErrInvalidFeatureToken = errors.New("driver: invalid feature token")

	// ErrDialectUnsupported names a request the dialect in hand cannot
	// satisfy. No code path in this package returns it: a full_join request
	// against a dialect without FULL OUTER JOIN falls back to LEFT OUTER
	// JOIN instead.
	ErrDialectUnsupported = errors.New("driver: dialect cannot satisfy request")

	// ErrUnboundedSpillRequired is returned by Join when more than one
	// batch would be produced but neither ForceFetchAll nor an output sink
	// was given, so the full result has nowhere bounded to go.
	ErrUnboundedSpillRequired = errors.New("driver: result spans multiple batches; set ForceFetchAll or an output sink")

	// ErrCancelled distinguishes a context-cancelled request from a
	// backend failure; spec.md §7 requires the two never be merged.
	ErrCancelled = errors.New("driver: request cancelled")
)

// BackendFailure wraps a database error together with the SQL statement
// that produced it, per spec.md §6's "Database errors surface as
// BackendFailure with the failing SQL attached."
type BackendFailure struct {
	SQL string
	Err error
}

func (e *BackendFailure) Error() string {
	return fmt.Sprintf("driver: backend failure executing %q: %v", e.SQL, e.Err)
}

func (e *BackendFailure) Unwrap() error {
	return e.Err
}

func newBackendFailure(sql string, err error) error {
	if err == nil {
		return nil
	}

	return &BackendFailure{SQL: sql, Err: err}
}
