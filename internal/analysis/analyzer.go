package analysis

import (
	"context"
	"log/slog"
	"time"

	"embalsescli/internal/config"
	apperrors "embalsescli/internal/errors"
	"embalsescli/pkg/contracts/domain"
)

// Analyzer runs the statistical operations over a cleaned dataset. It reads
// the dataset and never mutates it; errors on one statistic do not abort
// others in the same batch.
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{logger: logger.With(slog.String("component", "analyzer"))}
}

// DescribeField summarizes one field of one reservoir, optionally restricted
// to a time window (zero bounds are open).
func (a *Analyzer) DescribeField(dataset *domain.Dataset, code string, field domain.Field, from, to time.Time) (DescriptiveStats, error) {
	windowed := dataset.FilterWindow(from, to)
	series := windowed.Series(code, field)
	if series.Len() == 0 {
		return DescriptiveStats{}, apperrors.NewNotFoundError("reservoir " + code)
	}
	return Describe(series.Values)
}

// Summary describes every measurement field of every reservoir. Fields with
// too little data are skipped rather than failing the batch.
func (a *Analyzer) Summary(ctx context.Context, dataset *domain.Dataset) map[string]map[string]DescriptiveStats {
	summary := make(map[string]map[string]DescriptiveStats)
	for _, code := range dataset.Reservoirs() {
		perField := make(map[string]DescriptiveStats)
		for _, field := range domain.MeasurementFields() {
			stats, err := Describe(dataset.Series(code, field).Values)
			if err != nil {
				a.logger.DebugContext(ctx, "skipping field in summary",
					slog.String("reservoir", code),
					slog.String("field", string(field)),
					slog.String("reason", err.Error()))
				continue
			}
			perField[string(field)] = stats
		}
		summary[code] = perField
	}
	return summary
}

// Seasonal groups one field of one reservoir by month and season.
func (a *Analyzer) Seasonal(dataset *domain.Dataset, code string, field domain.Field) (*SeasonalAnalysis, error) {
	filtered := dataset.FilterReservoir(code)
	if filtered.Len() == 0 {
		return nil, apperrors.NewNotFoundError("reservoir " + code)
	}

	byMonth := make(map[time.Month][]float64)
	bySeason := make(map[string][]float64)
	for i := range filtered.Observations {
		obs := &filtered.Observations[i]
		value := obs.Value(field)
		month := obs.Date.Month()
		byMonth[month] = append(byMonth[month], value)
		season := config.SeasonOf(int(month))
		bySeason[season] = append(bySeason[season], value)
	}

	result := &SeasonalAnalysis{
		Field:    string(field),
		Monthly:  make(map[time.Month]AggStats, len(byMonth)),
		Seasonal: make(map[string]AggStats, len(bySeason)),
	}
	for month, values := range byMonth {
		result.Monthly[month] = aggregate(values)
	}
	for season, values := range bySeason {
		result.Seasonal[season] = aggregate(values)
	}
	return result, nil
}

// Trend fits a linear trend to one field of one reservoir.
func (a *Analyzer) Trend(dataset *domain.Dataset, code string, field domain.Field) (TrendResult, error) {
	series := dataset.Series(code, field)
	if series.Len() == 0 {
		return TrendResult{}, apperrors.NewNotFoundError("reservoir " + code)
	}
	return LinearTrend(series)
}

// Extremes analyzes the extreme events of one field of one reservoir.
func (a *Analyzer) Extremes(dataset *domain.Dataset, code string, field domain.Field, percentile float64) (*ExtremeEvents, error) {
	series := dataset.Series(code, field)
	if series.Len() == 0 {
		return nil, apperrors.NewNotFoundError("reservoir " + code)
	}
	return ExtremesOver(series, percentile)
}

// CorrelateFields correlates two fields of one reservoir with the given lag.
func (a *Analyzer) CorrelateFields(dataset *domain.Dataset, code string, x, y domain.Field, lag int, method CorrelationMethod) (CorrelationResult, error) {
	sx := dataset.Series(code, x)
	sy := dataset.Series(code, y)
	if sx.Len() == 0 {
		return CorrelationResult{}, apperrors.NewNotFoundError("reservoir " + code)
	}

	coeff, n, err := Correlate(sx.Values, sy.Values, lag, method)
	if err != nil {
		return CorrelationResult{}, err
	}
	return CorrelationResult{
		Method:      method,
		FieldX:      string(x),
		FieldY:      string(y),
		Lag:         lag,
		Coefficient: coeff,
		N:           n,
	}, nil
}

// CorrelationMatrix computes the all-pairs matrix over the measurement
// fields of one reservoir.
func (a *Analyzer) CorrelationMatrix(dataset *domain.Dataset, code string, method CorrelationMethod) (*CorrelationMatrix, error) {
	if dataset.FilterReservoir(code).Len() == 0 {
		return nil, apperrors.NewNotFoundError("reservoir " + code)
	}
	return Matrix(dataset, code, domain.MeasurementFields(), method), nil
}

// DecomposeField decomposes one field of one reservoir with the given
// seasonal period.
func (a *Analyzer) DecomposeField(dataset *domain.Dataset, code string, field domain.Field, period int) (*Decomposition, error) {
	series := dataset.Series(code, field)
	if series.Len() == 0 {
		return nil, apperrors.NewNotFoundError("reservoir " + code)
	}
	return Decompose(series.Values, period)
}
