package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	apperrors "embalsescli/internal/errors"
	"embalsescli/pkg/contracts/domain"
)

// DefaultExtremePercentile is the threshold used when the caller does not
// pick one.
const DefaultExtremePercentile = 95.0

// ExtremeEvents summarizes the observations of one series that exceed a
// percentile threshold, with their spread over months and years.
type ExtremeEvents struct {
	Percentile    float64            `json:"percentile"`
	Threshold     float64            `json:"threshold"`
	Count         int                `json:"count"`
	Percentage    float64            `json:"percentage"` // of non-missing observations
	Mean          float64            `json:"mean"`
	Max           float64            `json:"max"`
	Std           float64            `json:"std"`
	MonthlyCounts map[time.Month]int `json:"monthly_counts"`
	YearlyCounts  map[int]int        `json:"yearly_counts"`
}

// ExtremesOver finds the values strictly above the series' own percentile
// threshold. Missing values count neither toward the threshold nor the
// events; fewer than two non-missing values cannot place a threshold.
func ExtremesOver(series domain.Series, percentile float64) (*ExtremeEvents, error) {
	if percentile <= 0 || percentile >= 100 {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("percentile must be in (0, 100), got %g", percentile))
	}

	present := nonMissing(series.Values)
	if len(present) < 2 {
		return nil, apperrors.NewInsufficientDataError(
			"extreme-event analysis needs at least two non-missing observations", len(present), 2)
	}

	sorted := append([]float64(nil), present...)
	sort.Float64s(sorted)
	threshold := quantile(sorted, percentile/100)

	result := &ExtremeEvents{
		Percentile:    percentile,
		Threshold:     threshold,
		Mean:          math.NaN(),
		Max:           math.NaN(),
		Std:           math.NaN(),
		MonthlyCounts: make(map[time.Month]int),
		YearlyCounts:  make(map[int]int),
	}

	var events []float64
	for i, v := range series.Values {
		if domain.IsMissing(v) || v <= threshold {
			continue
		}
		events = append(events, v)
		result.MonthlyCounts[series.Dates[i].Month()]++
		result.YearlyCounts[series.Dates[i].Year()]++
	}

	result.Count = len(events)
	result.Percentage = float64(len(events)) / float64(len(present)) * 100
	if len(events) > 0 {
		mu := mean(events)
		result.Mean = mu
		result.Std = std(events, mu)
		max := events[0]
		for _, v := range events[1:] {
			if v > max {
				max = v
			}
		}
		result.Max = max
	}
	return result, nil
}
