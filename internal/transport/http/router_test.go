package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"embalsescli/internal/config"
	"embalsescli/internal/infrastructure"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	csv := strings.Join([]string{
		"date,embalse_codigo,embalse_nombre,embalse_reserva,meteo_temp_media",
		"2023-01-01,casasola,Casasola,12.3,15.2",
		"2023-01-02,casasola,Casasola,12.5,16.1",
		"2023-01-03,casasola,Casasola,12.6,14.9",
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(paths.DataDir, "casasola.csv"), []byte(csv), 0o644))

	cfg := config.Default()
	cfg.Server.RateLimit.Enabled = false

	return NewRouter(RouterConfig{
		Config:  cfg,
		Paths:   paths,
		Logger:  testLogger(),
		Metrics: infrastructure.NewMetrics(),
		Version: "test",
	})
}

func TestRouterHealth(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterStats(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/casasola", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "embalse_reserva")
}

func TestRouterQuality(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/quality", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "per_reservoir")
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "embalses_")
}

func TestRouterUnknownRouteIs404(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterSetsRequestID(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health/live", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
