package analysis

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "embalsescli/internal/errors"
	"embalsescli/pkg/contracts/domain"
)

// yearOfData builds two years of daily observations for one reservoir with a
// mild yearly cycle in reserve volume and temperature.
func yearOfData(code string, days int) *domain.Dataset {
	var observations []domain.Observation
	for d := 0; d < days; d++ {
		obs := domain.Observation{
			Date:          dayAt(d + 1),
			ReservoirCode: code,
			ReservoirName: code,
		}
		for _, f := range domain.MeasurementFields() {
			obs.SetValue(f, domain.Missing())
		}
		phase := 2 * math.Pi * float64(d) / 365
		obs.ReserveVolume = 20 + 5*math.Sin(phase)
		obs.TempMean = 18 - 8*math.Sin(phase)
		observations = append(observations, obs)
	}
	return domain.NewDataset(observations)
}

func TestAnalyzerDescribeField(t *testing.T) {
	ds := yearOfData("S19", 365)
	analyzer := NewAnalyzer(nil)

	stats, err := analyzer.DescribeField(ds, "S19", domain.FieldReserveVolume, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 365, stats.Count)
	assert.Greater(t, stats.Max, stats.Min)
}

func TestAnalyzerDescribeFieldWindow(t *testing.T) {
	ds := yearOfData("S19", 365)
	analyzer := NewAnalyzer(nil)

	from, to := dayAt(1), dayAt(31)
	stats, err := analyzer.DescribeField(ds, "S19", domain.FieldReserveVolume, from, to)
	require.NoError(t, err)
	assert.Equal(t, 31, stats.Count)
}

func TestAnalyzerUnknownReservoir(t *testing.T) {
	ds := yearOfData("S19", 30)
	analyzer := NewAnalyzer(nil)

	_, err := analyzer.DescribeField(ds, "NOPE", domain.FieldReserveVolume, time.Time{}, time.Time{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestAnalyzerSummarySkipsThinFields(t *testing.T) {
	ds := yearOfData("S19", 60)
	analyzer := NewAnalyzer(nil)

	summary := analyzer.Summary(context.Background(), ds)
	require.Contains(t, summary, "S19")

	perField := summary["S19"]
	assert.Contains(t, perField, string(domain.FieldReserveVolume))
	assert.Contains(t, perField, string(domain.FieldTempMean))
	// All-missing fields are skipped, not reported as errors.
	assert.NotContains(t, perField, string(domain.FieldPrecipitation))
}

func TestAnalyzerSeasonal(t *testing.T) {
	ds := yearOfData("S19", 365)
	analyzer := NewAnalyzer(nil)

	seasonal, err := analyzer.Seasonal(ds, "S19", domain.FieldTempMean)
	require.NoError(t, err)

	assert.Len(t, seasonal.Monthly, 12)
	assert.Len(t, seasonal.Seasonal, 4)
	// Málaga-style cycle in the builder: summer runs hotter than winter.
	assert.Greater(t, seasonal.Seasonal["Autumn"].Mean, seasonal.Seasonal["Spring"].Mean)
}

func TestAnalyzerCorrelateFields(t *testing.T) {
	ds := yearOfData("S19", 365)
	analyzer := NewAnalyzer(nil)

	result, err := analyzer.CorrelateFields(ds, "S19", domain.FieldReserveVolume, domain.FieldTempMean, 0, MethodPearson)
	require.NoError(t, err)
	// The builder makes them perfectly anticorrelated.
	assert.InDelta(t, -1.0, result.Coefficient, 1e-6)
	assert.Equal(t, 365, result.N)
}

func TestAnalyzerCorrelateNegativeLag(t *testing.T) {
	ds := yearOfData("S19", 60)
	analyzer := NewAnalyzer(nil)

	_, err := analyzer.CorrelateFields(ds, "S19", domain.FieldReserveVolume, domain.FieldTempMean, -1, MethodPearson)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidLagError(err))
}

func TestAnalyzerDecomposeField(t *testing.T) {
	ds := yearOfData("S19", 730)
	analyzer := NewAnalyzer(nil)

	dec, err := analyzer.DecomposeField(ds, "S19", domain.FieldReserveVolume, 365)
	require.NoError(t, err)
	assert.Len(t, dec.Trend, 730)
}

func TestAnalyzerDecomposeTooShort(t *testing.T) {
	ds := yearOfData("S19", 400)
	analyzer := NewAnalyzer(nil)

	_, err := analyzer.DecomposeField(ds, "S19", domain.FieldReserveVolume, 365)
	require.Error(t, err)
	assert.True(t, apperrors.IsInsufficientDataError(err))
}
