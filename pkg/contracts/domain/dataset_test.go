package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obsAt(code string, day int, reserve float64) Observation {
	obs := Observation{
		Date:          time.Date(2020, 1, day, 0, 0, 0, 0, time.UTC),
		ReservoirCode: code,
	}
	for _, f := range MeasurementFields() {
		obs.SetValue(f, Missing())
	}
	obs.ReserveVolume = reserve
	return obs
}

func TestByReservoirGroupsSortedDataset(t *testing.T) {
	ds := NewDataset([]Observation{
		obsAt("S19", 2, 11.0),
		obsAt("S11", 1, 100.0),
		obsAt("S19", 1, 10.0),
	})
	ds.Sort()

	groups := ds.ByReservoir()
	require.Len(t, groups, 2)
	require.Len(t, groups["S19"], 2)
	require.Len(t, groups["S11"], 1)
	assert.Equal(t, 100.0, groups["S11"][0].ReserveVolume)
	assert.Equal(t, 10.0, groups["S19"][0].ReserveVolume)
	assert.Equal(t, 11.0, groups["S19"][1].ReserveVolume)
}

func TestByReservoirAliasesDataset(t *testing.T) {
	// The cleaner fills gaps through the groups, so a write through a group
	// must reach the dataset itself.
	ds := NewDataset([]Observation{
		obsAt("S11", 1, 100.0),
		obsAt("S19", 1, 10.0),
		obsAt("S19", 2, Missing()),
	})
	ds.Sort()

	group := ds.ByReservoir()["S19"]
	group[1].SetValue(FieldReserveVolume, 12.0)
	group[1].Interpolated = true

	assert.Equal(t, 12.0, ds.Observations[2].ReserveVolume)
	assert.True(t, ds.Observations[2].Interpolated)
}

func TestByReservoirAppendDoesNotClobber(t *testing.T) {
	ds := NewDataset([]Observation{
		obsAt("S11", 1, 100.0),
		obsAt("S19", 1, 10.0),
	})
	ds.Sort()

	groups := ds.ByReservoir()
	_ = append(groups["S11"], obsAt("S11", 2, 101.0))

	assert.Equal(t, 10.0, ds.Observations[1].ReserveVolume)
}
