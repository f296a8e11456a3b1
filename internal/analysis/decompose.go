package analysis

import (
	"math"

	apperrors "embalsescli/internal/errors"
	"embalsescli/pkg/contracts/domain"
)

// Decompose splits a daily series into trend, seasonal and remainder
// components for the given period (365 for yearly seasonality).
//
// The trend is a centered moving average whose window shrinks near the
// series boundaries so it is defined everywhere. The seasonal component is
// the zero-mean phase average of the detrended series. The remainder is
// computed as original - trend - seasonal, so the round-trip identity holds
// exactly at every non-missing index.
//
// The series must span at least two full periods.
func Decompose(values []float64, period int) (*Decomposition, error) {
	if period < 2 {
		return nil, apperrors.NewAppValidationError("decomposition period must be at least 2")
	}
	if len(values) < 2*period {
		return nil, apperrors.NewInsufficientDataError(
			"decomposition needs at least two full periods", len(values), 2*period)
	}

	n := len(values)
	trend := movingAverage(values, period)

	// Phase averages of the detrended series.
	phaseSum := make([]float64, period)
	phaseCount := make([]int, period)
	for i := 0; i < n; i++ {
		if domain.IsMissing(values[i]) || domain.IsMissing(trend[i]) {
			continue
		}
		phase := i % period
		phaseSum[phase] += values[i] - trend[i]
		phaseCount[phase]++
	}

	phaseMean := make([]float64, period)
	var total float64
	var populated int
	for p := 0; p < period; p++ {
		if phaseCount[p] > 0 {
			phaseMean[p] = phaseSum[p] / float64(phaseCount[p])
			total += phaseMean[p]
			populated++
		}
	}
	// Center the seasonal component so it sums to zero over one period.
	if populated > 0 {
		offset := total / float64(populated)
		for p := 0; p < period; p++ {
			phaseMean[p] -= offset
		}
	}

	seasonal := make([]float64, n)
	remainder := make([]float64, n)
	for i := 0; i < n; i++ {
		seasonal[i] = phaseMean[i%period]
		if domain.IsMissing(values[i]) || domain.IsMissing(trend[i]) {
			remainder[i] = math.NaN()
			continue
		}
		remainder[i] = values[i] - trend[i] - seasonal[i]
	}

	return &Decomposition{
		Period:    period,
		Trend:     trend,
		Seasonal:  seasonal,
		Remainder: remainder,
	}, nil
}

// movingAverage computes a centered moving average of the given window. Near
// the boundaries the window shrinks symmetrically to what is available, so
// every index with enough non-missing neighbours gets a trend value.
func movingAverage(values []float64, window int) []float64 {
	n := len(values)
	half := window / 2
	out := make([]float64, n)

	for i := 0; i < n; i++ {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > n-1 {
			hi = n - 1
		}

		sum := 0.0
		count := 0
		for j := lo; j <= hi; j++ {
			if domain.IsMissing(values[j]) {
				continue
			}
			sum += values[j]
			count++
		}
		if count == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(count)
	}
	return out
}
