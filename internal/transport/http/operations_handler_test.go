package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"embalsescli/internal/config"
	"embalsescli/internal/infrastructure"
	"embalsescli/internal/operations"
)

func newOperationsHandler(t *testing.T) *OperationsHandler {
	t.Helper()

	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	csv := strings.Join([]string{
		"date,embalse_codigo,embalse_nombre,embalse_reserva,meteo_temp_media",
		"2023-01-01,casasola,Casasola,12.345,15.2",
		"2023-01-02,casasola,Casasola,12.5,16.1",
		"2023-01-03,casasola,Casasola,12.6,14.9",
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(paths.DataDir, "casasola.csv"), []byte(csv), 0o644))

	logger := testLogger()
	manager := operations.NewManager(config.Default(), paths, logger, infrastructure.NewMetrics())
	validation, errorHandler := testValidation(t)
	return NewOperationsHandler(manager, validation, errorHandler, logger)
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestOperationsStartAndPoll(t *testing.T) {
	h := newOperationsHandler(t)
	routes := h.Routes()

	rec := postJSON(t, routes, "/", `{"step":"clean"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var started startResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	require.NotEmpty(t, started.ID)
	assert.Equal(t, "/api/operations/"+started.ID, started.Href)

	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+started.ID, nil))
		if rec.Code != http.StatusOK {
			return false
		}
		var resp operations.OperationResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			return false
		}
		return resp.Status == operations.OperationStatusCompleted
	}, 10*time.Second, 20*time.Millisecond)
}

func TestOperationsStartRejectsUnknownStep(t *testing.T) {
	h := newOperationsHandler(t)

	rec := postJSON(t, h.Routes(), "/", `{"step":"deploy"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation")
}

func TestOperationsStartRejectsBadDate(t *testing.T) {
	h := newOperationsHandler(t)

	rec := postJSON(t, h.Routes(), "/", `{"from_date":"01/02/2023"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOperationsGetUnknownID(t *testing.T) {
	h := newOperationsHandler(t)

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/does-not-exist", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOperationsStopUnknownID(t *testing.T) {
	h := newOperationsHandler(t)

	rec := postJSON(t, h.Routes(), "/does-not-exist/stop", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOperationsListFiltersByStatus(t *testing.T) {
	h := newOperationsHandler(t)
	routes := h.Routes()

	rec := postJSON(t, routes, "/", `{"step":"load"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?status=completed", nil))
		if rec.Code != http.StatusOK {
			return false
		}
		var resp struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			return false
		}
		return resp.Count == 1
	}, 10*time.Second, 20*time.Millisecond)

	empty := httptest.NewRecorder()
	routes.ServeHTTP(empty, httptest.NewRequest(http.MethodGet, "/?status=failed", nil))
	require.Equal(t, http.StatusOK, empty.Code)
	assert.Contains(t, empty.Body.String(), `"count":0`)
}

func TestOperationsListRejectsBadStatus(t *testing.T) {
	h := newOperationsHandler(t)

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?status=exploded", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
