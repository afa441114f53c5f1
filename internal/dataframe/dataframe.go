// Package dataframe is a minimal in-memory columnar table, standing in for
// the original implementation's pandas DataFrame. It carries just enough
// behavior for the execution driver's entity-dataframe join: column
// lookup, row iteration, grouping, and a left join with column-collision
// handling.
package dataframe

import (
	"errors"
	"fmt"
)

// ErrUnknownColumn is returned when a column name is not present.
var ErrUnknownColumn = errors.New("dataframe: unknown column")

// DataFrame is a row-major table: Rows[i][j] is the value of Columns[j] in
// row i. Cells are driver-scanned values (string, int64, float64,
// time.Time, nil, ...); the dataframe package itself is type-agnostic.
type DataFrame struct {
	Columns []string
	Rows    [][]any

	index map[string]int
}

// New returns an empty DataFrame with the given column names.
func New(columns []string) *DataFrame {
	df := &DataFrame{Columns: append([]string{}, columns...)}
	df.buildIndex()

	return df
}

func (df *DataFrame) buildIndex() {
	df.index = make(map[string]int, len(df.Columns))
	for i, c := range df.Columns {
		df.index[c] = i
	}
}

// AddRow appends a row. len(values) must equal len(df.Columns).
func (df *DataFrame) AddRow(values []any) error {
	if len(values) != len(df.Columns) {
		return fmt.Errorf("dataframe: row has %d values, want %d", len(values), len(df.Columns))
	}

	df.Rows = append(df.Rows, values)

	return nil
}

// NumRows reports how many rows df holds.
func (df *DataFrame) NumRows() int {
	return len(df.Rows)
}

// ColumnIndex returns the 0-based position of name.
func (df *DataFrame) ColumnIndex(name string) (int, bool) {
	if df.index == nil {
		df.buildIndex()
	}

	i, ok := df.index[name]

	return i, ok
}

// Column returns every row's value for name, in row order.
func (df *DataFrame) Column(name string) ([]any, error) {
	idx, ok := df.ColumnIndex(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}

	out := make([]any, len(df.Rows))
	for i, row := range df.Rows {
		out[i] = row[idx]
	}

	return out, nil
}

// Slice returns a new DataFrame holding rows [start:end).
func (df *DataFrame) Slice(start, end int) *DataFrame {
	out := New(df.Columns)
	out.Rows = append(out.Rows, df.Rows[start:end]...)

	return out
}

// SelectRows returns a new DataFrame holding only the given row indices, in
// the given order.
func (df *DataFrame) SelectRows(indices []int) *DataFrame {
	out := New(df.Columns)
	for _, i := range indices {
		out.Rows = append(out.Rows, df.Rows[i])
	}

	return out
}

// Concat returns a new DataFrame with frames[0]'s columns holding every
// frame's rows, in order. Each frame must have as many columns as frames[0];
// column names are not compared.
func Concat(frames ...*DataFrame) (*DataFrame, error) {
	if len(frames) == 0 {
		return New(nil), nil
	}

	out := New(frames[0].Columns)

	for _, f := range frames {
		if len(f.Columns) != len(out.Columns) {
			return nil, errors.New("dataframe: concat requires identical column sets")
		}

		out.Rows = append(out.Rows, f.Rows...)
	}

	return out, nil
}
