package http

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	apierrors "embalsescli/internal/errors"
	"embalsescli/internal/middleware"
	"embalsescli/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testValidation(t *testing.T) (*middleware.ValidationMiddleware, *apierrors.ErrorHandler) {
	t.Helper()
	logger := testLogger()
	handler := apierrors.NewErrorHandler(logger, false)
	return middleware.NewValidationMiddleware(logger, handler), handler
}

// staticData serves a fixed in-memory dataset.
type staticData struct {
	dataset *domain.Dataset
}

func (s *staticData) Dataset(ctx context.Context) (*domain.Dataset, error) {
	return s.dataset, nil
}

func (s *staticData) Refresh(ctx context.Context) (*domain.Dataset, error) {
	return s.dataset, nil
}

// seedObservation builds an observation with every measurement missing
// except reserve volume and mean temperature.
func seedObservation(code string, date time.Time, reserve, tempMean float64) domain.Observation {
	obs := domain.Observation{
		Date:          date,
		ReservoirCode: code,
		ReservoirName: "Embalse de " + code,
		Province:      "Málaga",
	}
	for _, f := range domain.MeasurementFields() {
		obs.SetValue(f, domain.Missing())
	}
	obs.SetValue(domain.FieldReserveVolume, reserve)
	obs.SetValue(domain.FieldTempMean, tempMean)
	return obs
}

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// seedDataset builds n consecutive days for one reservoir with a rising
// reserve level and an alternating temperature.
func seedDataset(code string, n int) *domain.Dataset {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	observations := make([]domain.Observation, 0, n)
	for i := 0; i < n; i++ {
		reserve := 40.0 + 0.1*float64(i)
		temp := 15.0 + float64(i%2)
		observations = append(observations, seedObservation(code, start.AddDate(0, 0, i), reserve, temp))
	}
	return domain.NewDataset(observations)
}
