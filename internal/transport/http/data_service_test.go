package http

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"embalsescli/internal/config"
)

func newTestDataService(t *testing.T) (*CachedDataService, *config.Paths) {
	t.Helper()

	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	csv := strings.Join([]string{
		"date,embalse_codigo,embalse_nombre,embalse_reserva,meteo_temp_media",
		"2023-01-01,casasola,Casasola,12.3,15.2",
		"2023-01-03,casasola,Casasola,12.6,14.9",
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(paths.DataDir, "casasola.csv"), []byte(csv), 0o644))

	return NewCachedDataService(config.Default(), paths, testLogger()), paths
}

func TestDataServiceLoadsAndCleans(t *testing.T) {
	svc, _ := newTestDataService(t)

	dataset, err := svc.Dataset(context.Background())
	require.NoError(t, err)

	// The cleaner materializes the missing 2023-01-02 calendar day.
	assert.Equal(t, 3, dataset.Len())
	assert.Equal(t, []string{"casasola"}, dataset.Reservoirs())
}

func TestDataServiceCachesBetweenCalls(t *testing.T) {
	svc, paths := newTestDataService(t)

	first, err := svc.Dataset(context.Background())
	require.NoError(t, err)

	// New files are invisible until the cache expires or Refresh is called.
	csv := "date,embalse_codigo,embalse_nombre,embalse_reserva\n2023-01-01,conde,Conde,41.0\n"
	require.NoError(t, os.WriteFile(filepath.Join(paths.DataDir, "conde.csv"), []byte(csv), 0o644))

	cached, err := svc.Dataset(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	refreshed, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, refreshed.Reservoirs(), 2)
}

func TestDataServiceMissingDirFails(t *testing.T) {
	paths := config.NewPaths(filepath.Join(t.TempDir(), "missing"))
	svc := NewCachedDataService(config.Default(), paths, testLogger())

	_, err := svc.Dataset(context.Background())
	assert.Error(t, err)
}
