package dataprocessing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "embalsescli/internal/errors"
	"embalsescli/pkg/contracts/domain"
)

const sampleHeader = "date,embalse_codigo,embalse_nombre,embalse_provincia,embalse_reserva,embalse_porcentaje,meteo_temp_max,meteo_temp_min,meteo_temp_media,meteo_num_estaciones,estaciones_usadas"

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "casasola.csv", sampleHeader+"\n"+
		"2020-01-01,S19,CASASOLA,MALAGA,18.345,55.2,19.5,8.1,13.2,3,6155A;6172O;6083\n"+
		"2020-01-02,S19,CASASOLA,MALAGA,18.301,,20.1,7.9,13.8,2,6155A;6172O\n")

	loader := NewLoader(nil)
	ds, err := loader.LoadFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())

	first := ds.Observations[0]
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "S19", first.ReservoirCode)
	assert.Equal(t, "CASASOLA", first.ReservoirName)
	assert.Equal(t, "MALAGA", first.Province)
	assert.Equal(t, 18.345, first.ReserveVolume)
	assert.Equal(t, 3, first.StationsAveraged)
	assert.Equal(t, []string{"6155A", "6172O", "6083"}, first.StationsUsed)

	// Empty cells become missing values, never zero.
	second := ds.Observations[1]
	assert.True(t, domain.IsMissing(second.ReservePercent))
	assert.Equal(t, 18.301, second.ReserveVolume)

	// Columns absent from the file load as missing.
	assert.True(t, domain.IsMissing(first.Precipitation))
}

func TestLoadFileMissingFile(t *testing.T) {
	loader := NewLoader(nil)
	_, err := loader.LoadFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, apperrors.IsLoadError(err))
}

func TestLoadFileMissingHeaderColumns(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "broken.csv", "date,embalse_reserva\n2020-01-01,10.0\n")

	loader := NewLoader(nil)
	_, err := loader.LoadFile(context.Background(), path)
	require.Error(t, err)
	assert.True(t, apperrors.IsLoadError(err))
	assert.Contains(t, err.Error(), "embalse_codigo")
}

func TestLoadFileBadDate(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "casasola.csv", sampleHeader+"\n"+
		"2020-01-01,S19,CASASOLA,MALAGA,18.3,55.2,19.5,8.1,13.2,3,6155A\n"+
		"not-a-date,S19,CASASOLA,MALAGA,18.3,55.2,19.5,8.1,13.2,3,6155A\n")

	loader := NewLoader(nil)
	_, err := loader.LoadFile(context.Background(), path)
	require.Error(t, err)
	require.True(t, apperrors.IsFormatError(err))

	// The error names the offending row.
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 3, appErr.Context["row"])
}

func TestLoadFileGarbageNumeric(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "casasola.csv", sampleHeader+"\n"+
		"2020-01-01,S19,CASASOLA,MALAGA,garbage,55.2,19.5,8.1,13.2,3,6155A\n")

	loader := NewLoader(nil)
	_, err := loader.LoadFile(context.Background(), path)
	require.Error(t, err)
	assert.True(t, apperrors.IsFormatError(err))
	assert.Contains(t, err.Error(), "embalse_reserva")
}

func TestLoadFileBOMHeader(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "casasola.csv", "\uFEFF"+sampleHeader+"\n"+
		"2020-01-01,S19,CASASOLA,MALAGA,18.3,55.2,19.5,8.1,13.2,3,6155A\n")

	loader := NewLoader(nil)
	ds, err := loader.LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "casasola.csv", sampleHeader+"\n"+
		"2020-01-02,S19,CASASOLA,MALAGA,18.3,55.2,19.5,8.1,13.2,3,6155A\n"+
		"2020-01-01,S19,CASASOLA,MALAGA,18.4,55.5,18.9,7.5,12.8,3,6155A\n")
	writeCSV(t, dir, "conde.csv", sampleHeader+"\n"+
		"2020-01-01,S11,CONDE DE GUADALHORCE,MALAGA,33.1,71.0,17.2,6.0,11.5,2,6172O\n")
	writeCSV(t, dir, "test.csv", sampleHeader+"\n"+
		"2020-01-01,XX,TEST,MALAGA,1.0,1.0,1.0,1.0,1.0,1,X\n")

	loader := NewLoader(nil)
	ds, err := loader.LoadDirectory(context.Background(), dir, nil)
	require.NoError(t, err)

	// test.csv is excluded; rows are sorted by (reservoir, date).
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, "S11", ds.Observations[0].ReservoirCode)
	assert.Equal(t, "S19", ds.Observations[1].ReservoirCode)
	assert.True(t, ds.Observations[1].Date.Before(ds.Observations[2].Date))

	// Every observation is tagged with its source file.
	assert.Equal(t, "conde", ds.Observations[0].SourceReservoir)
	assert.Equal(t, "casasola", ds.Observations[1].SourceReservoir)
}

func TestLoadDirectoryIncludeFilter(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "casasola.csv", sampleHeader+"\n"+
		"2020-01-01,S19,CASASOLA,MALAGA,18.3,55.2,19.5,8.1,13.2,3,6155A\n")
	writeCSV(t, dir, "conde.csv", sampleHeader+"\n"+
		"2020-01-01,S11,CONDE DE GUADALHORCE,MALAGA,33.1,71.0,17.2,6.0,11.5,2,6172O\n")

	loader := NewLoader(nil)
	ds, err := loader.LoadDirectory(context.Background(), dir, []string{"conde"})
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, "S11", ds.Observations[0].ReservoirCode)
}

func TestLoadDirectoryEmpty(t *testing.T) {
	loader := NewLoader(nil)
	_, err := loader.LoadDirectory(context.Background(), t.TempDir(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsLoadError(err))
}

func TestParseMeasurement(t *testing.T) {
	tests := []struct {
		text    string
		missing bool
		want    float64
		wantErr bool
	}{
		{text: "18.345", want: 18.345},
		{text: "", missing: true},
		{text: "NA", missing: true},
		{text: "NaN", missing: true},
		{text: "null", missing: true},
		{text: "-3.5", want: -3.5},
		{text: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := parseMeasurement(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.missing {
				assert.True(t, domain.IsMissing(got))
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
