package config

import (
	"embalsescli/pkg/contracts/domain"
)

// Application constants for the Málaga reservoir weather pipeline.
const (
	AppName    = "Embalses"
	AppVersion = "1.2.0"

	// EnvPrefix is the environment variable prefix for envconfig.
	EnvPrefix = "EMBALSES"

	// DefaultConfigFile is looked up relative to the working directory.
	DefaultConfigFile = "embalses.yaml"

	// File paths (relative to the executable)
	DefaultDataDir    = "data/reservoir-weather"
	DefaultReportsDir = "data/reports"
	DefaultLogsDir    = "logs"

	// Rate limiting
	DefaultRateLimit = 100 // requests per minute
	DefaultBurstSize = 50

	// Log settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Data processing
	DateFormat = "2006-01-02"
	// StationListSeparator splits the estaciones_usadas CSV field.
	StationListSeparator = ";"
	// DefaultMaxInterpolationGap is the longest missing-day run that gets
	// linear interpolation; longer gaps are forward-filled.
	DefaultMaxInterpolationGap = 3
	// DefaultDecompositionPeriod is the seasonal period for yearly data.
	DefaultDecompositionPeriod = 365
)

// API endpoints
const (
	APIBasePath         = "/api"
	HealthEndpoint      = "/api/health"
	QualityEndpoint     = "/api/quality"
	StatsEndpoint       = "/api/stats"
	CorrelationEndpoint = "/api/correlation"
	OperationsEndpoint  = "/api/operations"
	MetricsEndpoint     = "/metrics"
)

// FieldPrecision returns the decimal precision the cleaner rounds each
// measurement field to. Defaults match the precision of the source files.
func FieldPrecision(f domain.Field) int {
	switch f {
	case domain.FieldReserveVolume:
		return 3
	case domain.FieldReservePercent:
		return 1
	case domain.FieldTempMax, domain.FieldTempMin, domain.FieldTempMean:
		return 2
	case domain.FieldHumidityMax, domain.FieldHumidityMin, domain.FieldHumidityMean:
		return 1
	case domain.FieldWindSpeedMean, domain.FieldWindSpeedMax, domain.FieldWindDirection:
		return 2
	case domain.FieldRadiation, domain.FieldPrecipitation:
		return 2
	}
	return 2
}

// Range is a closed (or half-open) physical plausibility interval.
type Range struct {
	Min          float64
	Max          float64
	MaxExclusive bool // true for wind direction, [0,360)
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool {
	if v < r.Min {
		return false
	}
	if r.MaxExclusive {
		return v < r.Max
	}
	return v <= r.Max
}

// FieldRanges returns the physical range for every measurement field.
// Bounds follow the source data's validation rules for the Málaga climate.
func FieldRanges() map[domain.Field]Range {
	return map[domain.Field]Range{
		domain.FieldReserveVolume:  {Min: 0, Max: 1000},
		domain.FieldReservePercent: {Min: 0, Max: 100},
		domain.FieldTempMax:        {Min: -10, Max: 50},
		domain.FieldTempMin:        {Min: -15, Max: 45},
		domain.FieldTempMean:       {Min: -12, Max: 47},
		domain.FieldHumidityMax:    {Min: 0, Max: 100},
		domain.FieldHumidityMin:    {Min: 0, Max: 100},
		domain.FieldHumidityMean:   {Min: 0, Max: 100},
		domain.FieldWindSpeedMean:  {Min: 0, Max: 50},
		domain.FieldWindSpeedMax:   {Min: 0, Max: 100},
		domain.FieldWindDirection:  {Min: 0, Max: 360, MaxExclusive: true},
		domain.FieldRadiation:      {Min: 0, Max: 40},
		domain.FieldPrecipitation:  {Min: 0, Max: 200},
	}
}

// SeasonOf maps a month (1-12) to its meteorological season name.
func SeasonOf(month int) string {
	switch month {
	case 12, 1, 2:
		return "Winter"
	case 3, 4, 5:
		return "Spring"
	case 6, 7, 8:
		return "Summer"
	default:
		return "Autumn"
	}
}
