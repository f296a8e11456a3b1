package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"embalsescli/internal/config"
	"embalsescli/pkg/contracts/domain"
)

// Validator checks physical ranges and cross-field ordering and measures
// completeness. Violations never drop rows: they accumulate in the report
// and are surfaced to the caller.
type Validator struct {
	logger *slog.Logger
}

// NewValidator creates a validator.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger.With(slog.String("component", "validator"))}
}

// Validate inspects the dataset read-only and produces its quality report.
func (v *Validator) Validate(ctx context.Context, dataset *domain.Dataset) (*domain.QualityReport, error) {
	report := &domain.QualityReport{
		GeneratedAt:  time.Now().UTC(),
		TotalRecords: dataset.Len(),
		PerReservoir: make(map[string]domain.ReservoirCompleteness),
		IQROutliers:  make(map[string]int),
	}

	v.checkRanges(dataset, report)
	v.checkOrdering(dataset, report)
	v.countDuplicates(dataset, report)
	v.detectIQROutliers(dataset, report)
	v.measureCompleteness(dataset, report)

	for i := range dataset.Observations {
		report.OutliersFlagged += len(dataset.Observations[i].OutlierFields)
	}
	report.Reservoirs = len(report.PerReservoir)

	v.logger.InfoContext(ctx, "validation finished",
		slog.Int("records", report.TotalRecords),
		slog.Int("range_violations", report.RangeViolations),
		slog.Int("order_violations", report.OrderViolations),
		slog.Float64("completeness", report.Completeness))

	return report, nil
}

// checkRanges records a violation for every value outside its physical range.
func (v *Validator) checkRanges(dataset *domain.Dataset, report *domain.QualityReport) {
	ranges := config.FieldRanges()
	for i := range dataset.Observations {
		obs := &dataset.Observations[i]
		for _, field := range domain.MeasurementFields() {
			value := obs.Value(field)
			if domain.IsMissing(value) {
				continue
			}
			if r, ok := ranges[field]; ok && !r.Contains(value) {
				report.Violations = append(report.Violations, domain.Violation{
					Key:   obs.Key(),
					Field: string(field),
					Type:  domain.ViolationRange,
					Value: value,
				})
				report.RangeViolations++
			}
		}
	}
}

// checkOrdering enforces min <= mean <= max for temperature and humidity and
// max >= mean for wind speed. Comparisons with a missing side never fire.
func (v *Validator) checkOrdering(dataset *domain.Dataset, report *domain.QualityReport) {
	ordered := func(lo, hi float64) bool {
		if domain.IsMissing(lo) || domain.IsMissing(hi) {
			return true
		}
		return lo <= hi
	}

	for i := range dataset.Observations {
		obs := &dataset.Observations[i]
		key := obs.Key()

		if !ordered(obs.TempMin, obs.TempMean) || !ordered(obs.TempMean, obs.TempMax) {
			report.Violations = append(report.Violations, domain.Violation{
				Key:   key,
				Field: string(domain.FieldTempMean),
				Type:  domain.ViolationOrderingTemperature,
				Value: obs.TempMean,
			})
			report.OrderViolations++
		}

		if !ordered(obs.HumidityMin, obs.HumidityMean) || !ordered(obs.HumidityMean, obs.HumidityMax) {
			report.Violations = append(report.Violations, domain.Violation{
				Key:   key,
				Field: string(domain.FieldHumidityMean),
				Type:  domain.ViolationOrderingHumidity,
				Value: obs.HumidityMean,
			})
			report.OrderViolations++
		}

		if !ordered(obs.WindSpeedMean, obs.WindSpeedMax) {
			report.Violations = append(report.Violations, domain.Violation{
				Key:   key,
				Field: string(domain.FieldWindSpeedMax),
				Type:  domain.ViolationOrderingWind,
				Value: obs.WindSpeedMax,
			})
			report.OrderViolations++
		}
	}
}

// countDuplicates counts repeated (reservoir, date) keys. After a cleaning
// pass this is always zero.
func (v *Validator) countDuplicates(dataset *domain.Dataset, report *domain.QualityReport) {
	seen := make(map[domain.ObservationKey]bool, dataset.Len())
	for i := range dataset.Observations {
		key := dataset.Observations[i].Key()
		if seen[key] {
			report.DuplicateDates++
			continue
		}
		seen[key] = true
	}
}

// iqrMultiplier is the classic Tukey fence factor.
const iqrMultiplier = 1.5

// detectIQROutliers counts, per field, the values outside
// [Q1 - 1.5*IQR, Q3 + 1.5*IQR]. Unlike the physical-range checks these
// bounds come from each field's own distribution, so they catch
// plausible-but-unusual values.
func (v *Validator) detectIQROutliers(dataset *domain.Dataset, report *domain.QualityReport) {
	for _, field := range domain.MeasurementFields() {
		values := make([]float64, 0, dataset.Len())
		for i := range dataset.Observations {
			if val := dataset.Observations[i].Value(field); !domain.IsMissing(val) {
				values = append(values, val)
			}
		}
		if len(values) < 4 {
			continue
		}
		sort.Float64s(values)

		q1 := quantileSorted(values, 0.25)
		q3 := quantileSorted(values, 0.75)
		spread := q3 - q1
		lo, hi := q1-iqrMultiplier*spread, q3+iqrMultiplier*spread

		count := 0
		for _, val := range values {
			if val < lo || val > hi {
				count++
			}
		}
		report.IQROutliers[string(field)] = count
	}
}

// quantileSorted returns the q-quantile of a sorted slice using linear
// interpolation between closest ranks.
func quantileSorted(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// measureCompleteness scores each reservoir over its full implied date span:
// every expected day contributes one cell per measurement field, and days
// with no row at all count fully against the score.
func (v *Validator) measureCompleteness(dataset *domain.Dataset, report *domain.QualityReport) {
	fields := len(domain.MeasurementFields())

	var totalExpected, totalMissing int
	for code, group := range dataset.ByReservoir() {
		first, last := group[0].Date, group[0].Date
		for i := range group {
			if group[i].Date.Before(first) {
				first = group[i].Date
			}
			if group[i].Date.After(last) {
				last = group[i].Date
			}
		}
		expectedDays := dayCount(first, last)
		expectedCells := expectedDays * fields

		present := 0
		presentDays := make(map[string]bool, len(group))
		for i := range group {
			presentDays[group[i].Date.Format(config.DateFormat)] = true
			for _, field := range domain.MeasurementFields() {
				if !domain.IsMissing(group[i].Value(field)) {
					present++
				}
			}
		}

		completeness := 1.0
		if expectedCells > 0 {
			completeness = float64(present) / float64(expectedCells)
		}

		report.PerReservoir[code] = domain.ReservoirCompleteness{
			ReservoirCode: code,
			StartDate:     first,
			EndDate:       last,
			ExpectedDays:  expectedDays,
			PresentDays:   len(presentDays),
			ExpectedCells: expectedCells,
			MissingCells:  expectedCells - present,
			Completeness:  completeness,
			MaxGapDays:    longestAbsentRun(first, last, presentDays),
		}

		totalExpected += expectedCells
		totalMissing += expectedCells - present
	}

	if totalExpected > 0 {
		report.Completeness = float64(totalExpected-totalMissing) / float64(totalExpected)
	} else {
		report.Completeness = 1.0
	}
}

// longestAbsentRun returns the longest run of consecutive days in [first,
// last] with no row present.
func longestAbsentRun(first, last time.Time, presentDays map[string]bool) int {
	longest, run := 0, 0
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if presentDays[day.Format(config.DateFormat)] {
			run = 0
			continue
		}
		run++
		if run > longest {
			longest = run
		}
	}
	return longest
}
