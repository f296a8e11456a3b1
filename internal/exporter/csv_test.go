package exporter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"embalsescli/internal/config"
)

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())
	return paths
}

func TestWriteSimpleCSV(t *testing.T) {
	paths := testPaths(t)
	writer := NewCSVWriter(paths)

	err := writer.WriteSimpleCSV("out.csv", []string{"a", "b"}, [][]string{
		{"1", "2"},
		{"3", "4"},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(paths.GetReportPath("out.csv"))
	require.NoError(t, err)

	// BOM prefix, then headers and records.
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data[:3])
	assert.Equal(t, "a,b\n1,2\n3,4\n", string(data[3:]))
}

func TestAppendToCSV(t *testing.T) {
	paths := testPaths(t)
	writer := NewCSVWriter(paths)

	require.NoError(t, writer.WriteSimpleCSV("out.csv", []string{"a"}, [][]string{{"1"}}))
	require.NoError(t, writer.AppendToCSV("out.csv", [][]string{{"2"}}))

	data, err := os.ReadFile(paths.GetReportPath("out.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n2\n", string(data[3:]))
}

func TestStreamWriter(t *testing.T) {
	paths := testPaths(t)
	writer := NewCSVWriter(paths)

	stream, err := writer.CreateStreamWriter("stream.csv", []string{"x", "y"})
	require.NoError(t, err)

	require.NoError(t, stream.WriteRecord([]string{"1", "2"}))
	require.NoError(t, stream.WriteRecord([]string{"3", "4"}))
	require.NoError(t, stream.Close())

	data, err := os.ReadFile(paths.GetReportPath("stream.csv"))
	require.NoError(t, err)
	assert.Equal(t, "x,y\n1,2\n3,4\n", string(data[3:]))
}

func TestResolvePathAbsolute(t *testing.T) {
	paths := testPaths(t)
	writer := NewCSVWriter(paths)

	abs := filepath.Join(t.TempDir(), "elsewhere.csv")
	require.NoError(t, writer.WriteSimpleCSV(abs, []string{"a"}, nil))

	_, err := os.Stat(abs)
	assert.NoError(t, err)
}
