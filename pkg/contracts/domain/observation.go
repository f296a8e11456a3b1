package domain

import (
	"math"
	"time"
)

// Observation represents one day of reservoir and weather measurements for a
// single reservoir. Numeric measurement fields use NaN as the missing-value
// sentinel, mirroring the empty cells of the source CSV files.
type Observation struct {
	Date          time.Time `json:"date"`
	ReservoirCode string    `json:"embalse_codigo" validate:"required"`
	ReservoirName string    `json:"embalse_nombre" validate:"required"`
	Province      string    `json:"embalse_provincia"`

	// Reservoir state
	ReserveVolume  float64 `json:"embalse_reserva"`    // cubic hectometers
	ReservePercent float64 `json:"embalse_porcentaje"` // 0-100

	// Meteorological measurements
	TempMax       float64 `json:"meteo_temp_max"`
	TempMin       float64 `json:"meteo_temp_min"`
	TempMean      float64 `json:"meteo_temp_media"`
	HumidityMax   float64 `json:"meteo_humedad_max"`
	HumidityMin   float64 `json:"meteo_humedad_min"`
	HumidityMean  float64 `json:"meteo_humedad_media"`
	WindSpeedMean float64 `json:"meteo_vel_viento"`
	WindSpeedMax  float64 `json:"meteo_vel_viento_max"`
	WindDirection float64 `json:"meteo_dir_viento"` // degrees, [0,360)
	Radiation     float64 `json:"meteo_radiacion"`
	Precipitation float64 `json:"meteo_precipitacion"`

	// Station provenance
	StationsAveraged int      `json:"meteo_num_estaciones"`
	StationsUsed     []string `json:"estaciones_usadas"`

	// SourceReservoir identifies the input file an observation came from when
	// several reservoirs are merged into one dataset.
	SourceReservoir string `json:"source_reservoir,omitempty"`

	// Quality annotations set by the cleaner. Flags are advisory; no stage
	// removes flagged rows.
	Interpolated  bool     `json:"interpolated,omitempty"`
	Filled        bool     `json:"filled,omitempty"`
	OutlierFields []string `json:"outlier_fields,omitempty"`
}

// Field identifies a numeric measurement column. Values match the CSV header
// names of the source files.
type Field string

const (
	FieldReserveVolume  Field = "embalse_reserva"
	FieldReservePercent Field = "embalse_porcentaje"
	FieldTempMax        Field = "meteo_temp_max"
	FieldTempMin        Field = "meteo_temp_min"
	FieldTempMean       Field = "meteo_temp_media"
	FieldHumidityMax    Field = "meteo_humedad_max"
	FieldHumidityMin    Field = "meteo_humedad_min"
	FieldHumidityMean   Field = "meteo_humedad_media"
	FieldWindSpeedMean  Field = "meteo_vel_viento"
	FieldWindSpeedMax   Field = "meteo_vel_viento_max"
	FieldWindDirection  Field = "meteo_dir_viento"
	FieldRadiation      Field = "meteo_radiacion"
	FieldPrecipitation  Field = "meteo_precipitacion"
)

// MeasurementFields lists every numeric measurement column in CSV order.
// Cleaner, validator and analyzer iterate this list instead of hard-coding
// struct fields.
func MeasurementFields() []Field {
	return []Field{
		FieldReserveVolume,
		FieldReservePercent,
		FieldTempMax,
		FieldTempMin,
		FieldTempMean,
		FieldHumidityMax,
		FieldHumidityMin,
		FieldHumidityMean,
		FieldWindSpeedMean,
		FieldWindSpeedMax,
		FieldWindDirection,
		FieldRadiation,
		FieldPrecipitation,
	}
}

// Value returns the measurement stored under f, or NaN for unknown fields.
func (o *Observation) Value(f Field) float64 {
	switch f {
	case FieldReserveVolume:
		return o.ReserveVolume
	case FieldReservePercent:
		return o.ReservePercent
	case FieldTempMax:
		return o.TempMax
	case FieldTempMin:
		return o.TempMin
	case FieldTempMean:
		return o.TempMean
	case FieldHumidityMax:
		return o.HumidityMax
	case FieldHumidityMin:
		return o.HumidityMin
	case FieldHumidityMean:
		return o.HumidityMean
	case FieldWindSpeedMean:
		return o.WindSpeedMean
	case FieldWindSpeedMax:
		return o.WindSpeedMax
	case FieldWindDirection:
		return o.WindDirection
	case FieldRadiation:
		return o.Radiation
	case FieldPrecipitation:
		return o.Precipitation
	}
	return math.NaN()
}

// SetValue stores v under the measurement field f. Unknown fields are ignored.
func (o *Observation) SetValue(f Field, v float64) {
	switch f {
	case FieldReserveVolume:
		o.ReserveVolume = v
	case FieldReservePercent:
		o.ReservePercent = v
	case FieldTempMax:
		o.TempMax = v
	case FieldTempMin:
		o.TempMin = v
	case FieldTempMean:
		o.TempMean = v
	case FieldHumidityMax:
		o.HumidityMax = v
	case FieldHumidityMin:
		o.HumidityMin = v
	case FieldHumidityMean:
		o.HumidityMean = v
	case FieldWindSpeedMean:
		o.WindSpeedMean = v
	case FieldWindSpeedMax:
		o.WindSpeedMax = v
	case FieldWindDirection:
		o.WindDirection = v
	case FieldRadiation:
		o.Radiation = v
	case FieldPrecipitation:
		o.Precipitation = v
	}
}

// IsMissing reports whether v is the missing-value sentinel.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Missing returns the missing-value sentinel.
func Missing() float64 {
	return math.NaN()
}

// Key returns the unique (reservoir, date) key of the observation.
func (o *Observation) Key() ObservationKey {
	return ObservationKey{
		ReservoirCode: o.ReservoirCode,
		Date:          o.Date.Format("2006-01-02"),
	}
}

// HasOutlier reports whether the cleaner flagged field f on this observation.
func (o *Observation) HasOutlier(f Field) bool {
	for _, name := range o.OutlierFields {
		if name == string(f) {
			return true
		}
	}
	return false
}

// FlagOutlier records field f as out of physical range. Flagging twice is a
// no-op so repeated cleaning passes stay idempotent.
func (o *Observation) FlagOutlier(f Field) {
	if o.HasOutlier(f) {
		return
	}
	o.OutlierFields = append(o.OutlierFields, string(f))
}

// ObservationKey uniquely identifies an observation within a dataset.
type ObservationKey struct {
	ReservoirCode string `json:"embalse_codigo"`
	Date          string `json:"date"`
}
