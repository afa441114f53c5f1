package sink_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accented-ai/spellstore/internal/sink"
)

func TestCSVFileWritesHeaderOnceAndAppendsBatches(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	s := sink.NewCSVFile(path)

	require.NoError(t, s.WriteBatch([]string{"id", "total"}, [][]any{{1, 10.0}, {2, 20.0}}, true))
	require.NoError(t, s.WriteBatch([]string{"id", "total"}, [][]any{{3, 30.0}}, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := "id,total\n1,10\n2,20\n3,30\n"
	assert.Equal(t, want, string(data))
}

func TestCSVFileForceAppendSkipsHeaderOnFirstBatch(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	s := sink.NewCSVFile(path)

	require.NoError(t, s.WriteBatch([]string{"id"}, [][]any{{1}}, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\n", string(data))
}

func TestCSVFileRendersNilAsEmptyCell(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	s := sink.NewCSVFile(path)

	require.NoError(t, s.WriteBatch([]string{"id", "country"}, [][]any{{1, nil}}, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,country\n1,\n", string(data))
}
