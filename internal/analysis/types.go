package analysis

import "time"

// DescriptiveStats summarizes one field of one series.
type DescriptiveStats struct {
	Count   int     `json:"count"`
	Missing int     `json:"missing"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	Std     float64 `json:"std"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	P25     float64 `json:"p25"`
	P75     float64 `json:"p75"`
	P95     float64 `json:"p95"`
}

// AggStats is the aggregate used by monthly and seasonal groupings.
type AggStats struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// SeasonalAnalysis groups a field by calendar month and by meteorological
// season.
type SeasonalAnalysis struct {
	Field    string                  `json:"field"`
	Monthly  map[time.Month]AggStats `json:"monthly"`
	Seasonal map[string]AggStats     `json:"seasonal"`
}

// CorrelationMethod selects the correlation coefficient.
type CorrelationMethod string

const (
	MethodPearson  CorrelationMethod = "pearson"
	MethodSpearman CorrelationMethod = "spearman"
)

// CorrelationResult is one pairwise correlation.
type CorrelationResult struct {
	Method      CorrelationMethod `json:"method"`
	FieldX      string            `json:"field_x"`
	FieldY      string            `json:"field_y"`
	Lag         int               `json:"lag"`
	Coefficient float64           `json:"coefficient"`
	N           int               `json:"n"` // pairs actually correlated
}

// CorrelationMatrix is a symmetric matrix over a field list.
type CorrelationMatrix struct {
	Method CorrelationMethod `json:"method"`
	Fields []string          `json:"fields"`
	Values [][]float64       `json:"values"`
}

// TrendResult is a least-squares linear trend over time, with the slope
// expressed per day and per year.
type TrendResult struct {
	Slope        float64 `json:"slope"` // units per day
	Intercept    float64 `json:"intercept"`
	RSquared     float64 `json:"r_squared"`
	AnnualChange float64 `json:"annual_change"` // slope * 365.25
	N            int     `json:"n"`
}

// Decomposition splits a series into trend, seasonal and remainder parts.
// For every index i with a non-missing original value,
// original[i] == Trend[i] + Seasonal[i] + Remainder[i] holds exactly.
type Decomposition struct {
	Period    int       `json:"period"`
	Trend     []float64 `json:"trend"`
	Seasonal  []float64 `json:"seasonal"`
	Remainder []float64 `json:"remainder"`
}
