package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"embalsescli/pkg/contracts/domain"
)

func newQualityHandler(t *testing.T, dataset *domain.Dataset) *QualityHandler {
	t.Helper()
	_, errorHandler := testValidation(t)
	return NewQualityHandler(&staticData{dataset: dataset}, errorHandler, testLogger())
}

func TestQualityReport(t *testing.T) {
	h := newQualityHandler(t, seedDataset("casasola", 30))

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var report domain.QualityReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 30, report.TotalRecords)
	assert.Equal(t, 1, report.Reservoirs)
	require.Contains(t, report.PerReservoir, "casasola")
	assert.Equal(t, 30, report.PerReservoir["casasola"].PresentDays)
}

func TestQualityReportFlagsRangeViolation(t *testing.T) {
	observations := []domain.Observation{
		seedObservation("conde", mustDate("2023-01-01"), 41.0, 15.0),
		seedObservation("conde", mustDate("2023-01-02"), -5.0, 16.0), // negative reserve
	}
	h := newQualityHandler(t, domain.NewDataset(observations))

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var report domain.QualityReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.RangeViolations)
}

func TestQualityCompleteness(t *testing.T) {
	h := newQualityHandler(t, seedDataset("casasola", 10))

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/completeness", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		PerReservoir map[string]domain.ReservoirCompleteness `json:"per_reservoir"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.PerReservoir, "casasola")
	assert.Equal(t, 10, resp.PerReservoir["casasola"].ExpectedDays)
}
