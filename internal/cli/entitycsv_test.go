package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCell(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name                 string
		column               string
		cell                 string
		eventTimestampColumn string
		want                 any
	}{
		{"empty is nil", "country", "", "", nil},
		{"int64", "age", "42", "", int64(42)},
		{"float64", "score", "3.14", "", 3.14},
		{"string fallback", "country", "US", "", "US"},
		{"event timestamp parsed", "observed_at", ts.Format(time.RFC3339), "observed_at", ts},
		{"event timestamp column unparsable falls back to string", "observed_at", "not-a-time", "observed_at", "not-a-time"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := parseCell(tc.column, tc.cell, tc.eventTimestampColumn)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoadEntityDataset(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "entities.csv")
	content := "user_id,observed_at\n1,2024-03-01T12:00:00Z\n2,2024-03-02T12:00:00Z\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	df, err := loadEntityDataset(path, "observed_at")
	require.NoError(t, err)

	idx, ok := df.ColumnIndex("user_id")
	require.True(t, ok)
	assert.Equal(t, int64(1), df.Rows[0][idx])
	assert.Equal(t, int64(2), df.Rows[1][idx])

	tsIdx, ok := df.ColumnIndex("observed_at")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), df.Rows[0][tsIdx])
}
