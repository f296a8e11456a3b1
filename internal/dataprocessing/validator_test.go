package dataprocessing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"embalsescli/pkg/contracts/domain"
)

func fullObs(dayN int, code string) domain.Observation {
	obs := domain.Observation{
		Date:          day(dayN),
		ReservoirCode: code,
		ReservoirName: code,
	}
	obs.ReserveVolume = 18.3
	obs.ReservePercent = 55.2
	obs.TempMax = 19.5
	obs.TempMin = 8.1
	obs.TempMean = 13.2
	obs.HumidityMax = 90.0
	obs.HumidityMin = 40.0
	obs.HumidityMean = 65.0
	obs.WindSpeedMean = 3.2
	obs.WindSpeedMax = 8.8
	obs.WindDirection = 210.0
	obs.Radiation = 12.5
	obs.Precipitation = 0.0
	return obs
}

func TestValidateCleanDataset(t *testing.T) {
	ds := domain.NewDataset([]domain.Observation{fullObs(1, "S19"), fullObs(2, "S19")})

	report, err := NewValidator(nil).Validate(context.Background(), ds)
	require.NoError(t, err)

	assert.Empty(t, report.Violations)
	assert.Equal(t, 0, report.RangeViolations)
	assert.Equal(t, 0, report.OrderViolations)
	assert.Equal(t, 1.0, report.Completeness)
	assert.Equal(t, 2, report.TotalRecords)
	assert.Equal(t, 1, report.Reservoirs)
}

func TestValidateRangeViolations(t *testing.T) {
	obs := fullObs(1, "S19")
	obs.TempMax = 60.0       // above 50
	obs.WindDirection = 360  // [0,360) is half-open
	obs.ReservePercent = 120 // above 100
	ds := domain.NewDataset([]domain.Observation{obs})

	report, err := NewValidator(nil).Validate(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 3, report.RangeViolations)
	assert.True(t, report.HasViolation(obs.Key(), domain.ViolationRange))

	// The dataset itself is untouched.
	assert.Equal(t, 60.0, ds.Observations[0].TempMax)
}

func TestValidateOrderingViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Observation)
		vtype  domain.ViolationType
	}{
		{
			name:   "temperature mean above max",
			mutate: func(o *domain.Observation) { o.TempMean = o.TempMax + 5 },
			vtype:  domain.ViolationOrderingTemperature,
		},
		{
			name:   "temperature min above mean",
			mutate: func(o *domain.Observation) { o.TempMin = o.TempMean + 1 },
			vtype:  domain.ViolationOrderingTemperature,
		},
		{
			name:   "humidity min above mean",
			mutate: func(o *domain.Observation) { o.HumidityMin = o.HumidityMean + 10 },
			vtype:  domain.ViolationOrderingHumidity,
		},
		{
			name:   "wind max below mean",
			mutate: func(o *domain.Observation) { o.WindSpeedMax = o.WindSpeedMean - 1 },
			vtype:  domain.ViolationOrderingWind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := fullObs(1, "S19")
			tt.mutate(&obs)
			ds := domain.NewDataset([]domain.Observation{obs})

			report, err := NewValidator(nil).Validate(context.Background(), ds)
			require.NoError(t, err)

			assert.Equal(t, 1, report.OrderViolations)
			assert.True(t, report.HasViolation(obs.Key(), tt.vtype))
		})
	}
}

func TestValidateOrderingSkipsMissingSides(t *testing.T) {
	obs := fullObs(1, "S19")
	obs.TempMin = domain.Missing()
	obs.TempMax = domain.Missing()
	ds := domain.NewDataset([]domain.Observation{obs})

	report, err := NewValidator(nil).Validate(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 0, report.OrderViolations)
}

func TestValidateCompletenessCountsAbsentDates(t *testing.T) {
	// Days 1 and 4 present, days 2-3 absent entirely: the expected span is
	// 4 days, so completeness counts the absent days against the score.
	ds := domain.NewDataset([]domain.Observation{fullObs(1, "S19"), fullObs(4, "S19")})

	report, err := NewValidator(nil).Validate(context.Background(), ds)
	require.NoError(t, err)

	rc := report.PerReservoir["S19"]
	assert.Equal(t, 4, rc.ExpectedDays)
	assert.Equal(t, 2, rc.PresentDays)
	assert.Equal(t, 2, rc.MaxGapDays)
	assert.InDelta(t, 0.5, rc.Completeness, 1e-9)
	assert.InDelta(t, 0.5, report.Completeness, 1e-9)
}

func TestValidateCompletenessCountsMissingCells(t *testing.T) {
	a := fullObs(1, "S19")
	b := fullObs(2, "S19")
	b.TempMean = domain.Missing()
	ds := domain.NewDataset([]domain.Observation{a, b})

	report, err := NewValidator(nil).Validate(context.Background(), ds)
	require.NoError(t, err)

	fields := len(domain.MeasurementFields())
	rc := report.PerReservoir["S19"]
	assert.Equal(t, 2*fields, rc.ExpectedCells)
	assert.Equal(t, 1, rc.MissingCells)
	assert.Less(t, report.Completeness, 1.0)
	assert.Greater(t, report.Completeness, 0.0)
}

func TestValidateCountsDuplicates(t *testing.T) {
	ds := domain.NewDataset([]domain.Observation{fullObs(1, "S19"), fullObs(1, "S19")})

	report, err := NewValidator(nil).Validate(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 1, report.DuplicateDates)
}

func TestValidateCountsOutlierFlags(t *testing.T) {
	obs := fullObs(1, "S19")
	obs.FlagOutlier(domain.FieldTempMax)
	obs.FlagOutlier(domain.FieldRadiation)
	ds := domain.NewDataset([]domain.Observation{obs})

	report, err := NewValidator(nil).Validate(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 2, report.OutliersFlagged)
}

func TestValidateCountsIQROutliers(t *testing.T) {
	observations := make([]domain.Observation, 0, 12)
	for d := 1; d <= 11; d++ {
		observations = append(observations, fullObs(d, "S19"))
	}
	spike := fullObs(12, "S19")
	spike.ReserveVolume = 180.0
	observations = append(observations, spike)
	ds := domain.NewDataset(observations)

	report, err := NewValidator(nil).Validate(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 1, report.IQROutliers[string(domain.FieldReserveVolume)])
	assert.Equal(t, 0, report.IQROutliers[string(domain.FieldTempMean)])
}

func TestValidateIQRSkipsThinFields(t *testing.T) {
	// Three rows cannot place quartiles, so no field is scored.
	ds := domain.NewDataset([]domain.Observation{fullObs(1, "S19"), fullObs(2, "S19"), fullObs(3, "S19")})

	report, err := NewValidator(nil).Validate(context.Background(), ds)
	require.NoError(t, err)
	assert.Empty(t, report.IQROutliers)
}
