package dataprocessing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"embalsescli/internal/config"
	"embalsescli/pkg/contracts/domain"
)

func day(d int) time.Time {
	return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC)
}

// obsWith builds an observation where every measurement except the given
// reserve volume is missing.
func obsWith(date time.Time, code string, reserve float64) domain.Observation {
	obs := domain.Observation{
		Date:          date,
		ReservoirCode: code,
		ReservoirName: code,
	}
	for _, f := range domain.MeasurementFields() {
		obs.SetValue(f, domain.Missing())
	}
	obs.ReserveVolume = reserve
	return obs
}

func newTestCleaner() *Cleaner {
	return NewCleaner(config.CleaningConfig{MaxInterpolationGap: 3}, nil)
}

func TestCleanRoundsToFieldPrecision(t *testing.T) {
	obs := obsWith(day(1), "S19", 18.123456)
	obs.ReservePercent = 55.16789
	obs.TempMean = 13.267891
	ds := domain.NewDataset([]domain.Observation{obs})

	report, err := newTestCleaner().Clean(context.Background(), ds)
	require.NoError(t, err)

	got := ds.Observations[0]
	assert.Equal(t, 18.123, got.ReserveVolume) // 3 decimals
	assert.Equal(t, 55.2, got.ReservePercent)  // 1 decimal
	assert.Equal(t, 13.27, got.TempMean)       // 2 decimals
	assert.Equal(t, 3, report.ValuesRounded)
}

func TestCleanRemovesDuplicatesKeepingFirst(t *testing.T) {
	a := obsWith(day(1), "S19", 10.0)
	b := obsWith(day(1), "S19", 99.0)
	c := obsWith(day(2), "S19", 11.0)
	ds := domain.NewDataset([]domain.Observation{a, b, c})

	report, err := newTestCleaner().Clean(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 1, report.DuplicatesRemoved)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, 10.0, ds.Observations[0].ReserveVolume)
}

func TestCleanInterpolatesShortGap(t *testing.T) {
	// Two records with two missing days between 10.0 and 16.0 interpolate
	// to 12.0 and 14.0.
	ds := domain.NewDataset([]domain.Observation{
		obsWith(day(1), "S19", 10.0),
		obsWith(day(4), "S19", 16.0),
	})

	report, err := newTestCleaner().Clean(context.Background(), ds)
	require.NoError(t, err)

	require.Equal(t, 4, ds.Len())
	assert.Equal(t, 2, report.CalendarRowsAdded)

	assert.Equal(t, 12.0, ds.Observations[1].ReserveVolume)
	assert.Equal(t, 14.0, ds.Observations[2].ReserveVolume)
	assert.True(t, ds.Observations[1].Interpolated)
	assert.True(t, ds.Observations[2].Interpolated)
	assert.Equal(t, 2, report.PerField[domain.FieldReserveVolume].Interpolated)
}

func TestCleanForwardFillsLongGap(t *testing.T) {
	// A five-day gap exceeds MaxInterpolationGap=3, so the last known value
	// is carried forward.
	ds := domain.NewDataset([]domain.Observation{
		obsWith(day(1), "S19", 10.0),
		obsWith(day(7), "S19", 16.0),
	})

	report, err := newTestCleaner().Clean(context.Background(), ds)
	require.NoError(t, err)
	require.Equal(t, 7, ds.Len())

	for i := 1; i <= 5; i++ {
		assert.Equal(t, 10.0, ds.Observations[i].ReserveVolume, "day %d", i+1)
		assert.True(t, ds.Observations[i].Filled)
	}
	assert.Equal(t, 16.0, ds.Observations[6].ReserveVolume)
	assert.Equal(t, 5, report.PerField[domain.FieldReserveVolume].ForwardFilled)
}

func TestCleanTrailingGapForwardFills(t *testing.T) {
	// The last two days have a missing temperature; there is no right bound
	// so the value is carried forward regardless of gap length.
	a := obsWith(day(1), "S19", 10.0)
	a.TempMean = 13.0
	b := obsWith(day(2), "S19", 11.0)
	c := obsWith(day(3), "S19", 12.0)
	ds := domain.NewDataset([]domain.Observation{a, b, c})

	_, err := newTestCleaner().Clean(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 13.0, ds.Observations[1].TempMean)
	assert.Equal(t, 13.0, ds.Observations[2].TempMean)
}

func TestCleanLeadingGapStaysMissing(t *testing.T) {
	a := obsWith(day(1), "S19", domain.Missing())
	b := obsWith(day(2), "S19", domain.Missing())
	c := obsWith(day(3), "S19", 12.0)
	ds := domain.NewDataset([]domain.Observation{a, b, c})

	_, err := newTestCleaner().Clean(context.Background(), ds)
	require.NoError(t, err)

	assert.True(t, domain.IsMissing(ds.Observations[0].ReserveVolume))
	assert.True(t, domain.IsMissing(ds.Observations[1].ReserveVolume))
	assert.Equal(t, 12.0, ds.Observations[2].ReserveVolume)
}

func TestCleanFlagsOutliers(t *testing.T) {
	obs := obsWith(day(1), "S19", 10.0)
	obs.TempMax = 60.0 // outside (-10, 50)
	ds := domain.NewDataset([]domain.Observation{obs})

	report, err := newTestCleaner().Clean(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 1, report.OutliersFlagged)
	assert.True(t, ds.Observations[0].HasOutlier(domain.FieldTempMax))
	// The value itself is untouched.
	assert.Equal(t, 60.0, ds.Observations[0].TempMax)
}

func TestCleanIsIdempotent(t *testing.T) {
	ds := domain.NewDataset([]domain.Observation{
		obsWith(day(1), "S19", 10.123456),
		obsWith(day(1), "S19", 10.123456),
		obsWith(day(4), "S19", 16.0),
		obsWith(day(1), "S11", 33.3),
	})

	cleaner := newTestCleaner()
	first, err := cleaner.Clean(context.Background(), ds)
	require.NoError(t, err)
	assert.False(t, first.Clean())

	second, err := cleaner.Clean(context.Background(), ds)
	require.NoError(t, err)
	assert.True(t, second.Clean(), "second pass must change nothing")
	assert.Equal(t, 0, second.DuplicatesRemoved)
	assert.Equal(t, 0, second.CalendarRowsAdded)
	assert.Equal(t, 0, second.ValuesRounded)
	assert.Equal(t, 0, second.TotalMutations())
}

func TestCleanSeparatesReservoirs(t *testing.T) {
	// A gap in one reservoir is never bridged with another reservoir's values.
	ds := domain.NewDataset([]domain.Observation{
		obsWith(day(1), "S19", 10.0),
		obsWith(day(3), "S19", 12.0),
		obsWith(day(1), "S11", 100.0),
		obsWith(day(3), "S11", 102.0),
	})

	_, err := newTestCleaner().Clean(context.Background(), ds)
	require.NoError(t, err)
	require.Equal(t, 6, ds.Len())

	byRes := ds.ByReservoir()
	assert.Equal(t, 101.0, byRes["S11"][1].ReserveVolume)
	assert.Equal(t, 11.0, byRes["S19"][1].ReserveVolume)
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 1.23, roundTo(1.2345, 2))
	assert.Equal(t, 1.235, roundTo(1.2345, 3))
	assert.Equal(t, 1.0, roundTo(1.2345, 0))
	assert.True(t, domain.IsMissing(roundTo(domain.Missing(), 2)))
}
