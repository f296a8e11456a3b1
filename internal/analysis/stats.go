package analysis

import (
	"math"
	"sort"

	apperrors "embalsescli/internal/errors"
	"embalsescli/pkg/contracts/domain"
)

// nonMissing filters the missing values out of a series.
func nonMissing(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !domain.IsMissing(v) {
			out = append(out, v)
		}
	}
	return out
}

// Describe computes descriptive statistics over a series. Missing values are
// excluded; fewer than two non-missing values cannot support a standard
// deviation and fail with an insufficient-data error.
func Describe(values []float64) (DescriptiveStats, error) {
	present := nonMissing(values)
	if len(present) < 2 {
		return DescriptiveStats{}, apperrors.NewInsufficientDataError(
			"describe needs at least two non-missing observations", len(present), 2)
	}

	sorted := append([]float64(nil), present...)
	sort.Float64s(sorted)

	stats := DescriptiveStats{
		Count:   len(present),
		Missing: len(values) - len(present),
		Mean:    mean(present),
		Median:  quantile(sorted, 0.5),
		Min:     sorted[0],
		Max:     sorted[len(sorted)-1],
		P25:     quantile(sorted, 0.25),
		P75:     quantile(sorted, 0.75),
		P95:     quantile(sorted, 0.95),
	}
	stats.Std = std(present, stats.Mean)
	return stats, nil
}

// mean returns the arithmetic mean. The caller guarantees len > 0.
func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// std returns the sample standard deviation (n-1 denominator).
func std(values []float64, mu float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		d := v - mu
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// quantile returns the q-quantile of an already sorted slice using linear
// interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// aggregate computes the grouping statistics for one bucket.
func aggregate(values []float64) AggStats {
	present := nonMissing(values)
	if len(present) == 0 {
		return AggStats{}
	}
	sorted := append([]float64(nil), present...)
	sort.Float64s(sorted)
	mu := mean(present)
	return AggStats{
		Mean:  mu,
		Std:   std(present, mu),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Count: len(present),
	}
}

// LinearTrend fits a least-squares line over the day offsets of the series.
// The slope is in field units per day; AnnualChange scales it to a year.
func LinearTrend(series domain.Series) (TrendResult, error) {
	var xs, ys []float64
	for i, v := range series.Values {
		if domain.IsMissing(v) {
			continue
		}
		days := series.Dates[i].Sub(series.Dates[0]).Hours() / 24
		xs = append(xs, days)
		ys = append(ys, v)
	}
	if len(xs) < 2 {
		return TrendResult{}, apperrors.NewInsufficientDataError(
			"trend needs at least two non-missing observations", len(xs), 2)
	}

	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 {
		return TrendResult{}, apperrors.NewInsufficientDataError(
			"trend needs observations on at least two distinct days", 1, 2)
	}

	slope := sxy / sxx
	result := TrendResult{
		Slope:        slope,
		Intercept:    my - slope*mx,
		AnnualChange: slope * 365.25,
		N:            len(xs),
	}
	if syy > 0 {
		result.RSquared = (sxy * sxy) / (sxx * syy)
	}
	return result, nil
}
