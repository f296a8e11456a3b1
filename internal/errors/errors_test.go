package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorError(t *testing.T) {
	err := New(http.StatusBadRequest, "INVALID_REQUEST", "bad input")
	assert.Equal(t, "bad input", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", err.ErrorCode)
}

func TestNewWithDetails(t *testing.T) {
	details := map[string]string{"field": "lag"}
	err := NewWithDetails(http.StatusBadRequest, "INVALID_LAG", "lag must be >= 0", details)
	assert.Equal(t, details, err.Details)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrInvalidLag)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "INVALID_LAG", resp.Error.ErrorCode)
}

func TestFromAppError(t *testing.T) {
	tests := []struct {
		name       string
		appErr     *AppError
		wantStatus int
		wantCode   string
	}{
		{
			name:       "load error",
			appErr:     NewLoadError("casasola.csv", "file unreadable", fmt.Errorf("permission denied")),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "LOAD_FAILED",
		},
		{
			name:       "format error",
			appErr:     NewFormatError("casasola.csv", 42, "invalid date", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "FORMAT_ERROR",
		},
		{
			name:       "invalid lag",
			appErr:     NewInvalidLagError(-1),
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_LAG",
		},
		{
			name:       "insufficient data",
			appErr:     NewInsufficientDataError("need two full periods", 400, 730),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "INSUFFICIENT_DATA",
		},
		{
			name:       "not found",
			appErr:     NewNotFoundError("reservoir conde"),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := FromAppError(tt.appErr)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
		})
	}
}

func TestProblemDetailsMarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeInvalidLag, "Bad Request", "lag must be >= 0, got -3", "/api/correlation")
	pd.WithExtension("lag", -3)

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, TypeInvalidLag, decoded["type"])
	assert.Equal(t, float64(http.StatusBadRequest), decoded["status"])
	assert.Equal(t, float64(-3), decoded["lag"])
}
