package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"time"

	"embalsescli/internal/config"
	"embalsescli/pkg/contracts/domain"
)

// Cleaner applies the deterministic cleaning pass: rounding, deduplication,
// calendar materialization, gap filling and outlier flagging. Cleaning the
// same dataset twice reports zero mutations on the second pass.
type Cleaner struct {
	logger *slog.Logger
	maxGap int
}

// NewCleaner creates a cleaner. cfg.MaxInterpolationGap bounds the gap length
// that still gets linear interpolation; longer gaps are carried forward.
func NewCleaner(cfg config.CleaningConfig, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	maxGap := cfg.MaxInterpolationGap
	if maxGap <= 0 {
		maxGap = config.DefaultMaxInterpolationGap
	}
	return &Cleaner{
		logger: logger.With(slog.String("component", "cleaner")),
		maxGap: maxGap,
	}
}

// Clean mutates the dataset in place and returns what changed. The pass runs
// in a fixed order so its result is reproducible:
//
//  1. round every value to its field precision
//  2. drop duplicate (reservoir, date) rows, keeping the first
//  3. materialize the full daily calendar per reservoir
//  4. fill gaps: linear interpolation for short bounded runs, forward fill
//     for long or trailing runs, leading runs stay missing
//  5. flag out-of-range values (advisory, rows are never dropped)
func (c *Cleaner) Clean(ctx context.Context, dataset *domain.Dataset) (*domain.CleanReport, error) {
	report := domain.NewCleanReport()
	report.RowsIn = dataset.Len()

	dataset.Sort()

	c.roundValues(dataset, report)
	c.deduplicate(dataset, report)
	c.materializeCalendar(dataset, report)
	dataset.Sort()
	c.fillGaps(dataset, report)
	c.flagOutliers(dataset, report)

	report.RowsOut = dataset.Len()

	c.logger.InfoContext(ctx, "cleaning pass finished",
		slog.Int("rows_in", report.RowsIn),
		slog.Int("rows_out", report.RowsOut),
		slog.Int("duplicates_removed", report.DuplicatesRemoved),
		slog.Int("calendar_rows_added", report.CalendarRowsAdded),
		slog.Int("mutations", report.TotalMutations()),
		slog.Int("outliers_flagged", report.OutliersFlagged))

	return report, nil
}

// roundValues rounds each measurement to its field precision. Only cells
// whose value actually changes count as mutations.
func (c *Cleaner) roundValues(dataset *domain.Dataset, report *domain.CleanReport) {
	for i := range dataset.Observations {
		obs := &dataset.Observations[i]
		for _, field := range domain.MeasurementFields() {
			value := obs.Value(field)
			if domain.IsMissing(value) {
				continue
			}
			rounded := roundTo(value, config.FieldPrecision(field))
			if rounded != value {
				obs.SetValue(field, rounded)
				report.ValuesRounded++
			}
		}
	}
}

// deduplicate removes repeated (reservoir, date) rows, keeping the first.
// The dataset is sorted, so repeats are adjacent.
func (c *Cleaner) deduplicate(dataset *domain.Dataset, report *domain.CleanReport) {
	if dataset.Len() == 0 {
		return
	}

	kept := dataset.Observations[:1]
	for i := 1; i < len(dataset.Observations); i++ {
		obs := dataset.Observations[i]
		if obs.Key() == kept[len(kept)-1].Key() {
			report.DuplicatesRemoved++
			continue
		}
		kept = append(kept, obs)
	}
	dataset.Observations = kept
}

// materializeCalendar inserts a row for every missing date between each
// reservoir's first and last observation. Inserted rows carry the reservoir
// identity and all-missing measurements, so the gap fillers below see one
// uniform daily series.
func (c *Cleaner) materializeCalendar(dataset *domain.Dataset, report *domain.CleanReport) {
	for code, group := range dataset.ByReservoir() {
		if len(group) < 2 {
			continue
		}

		present := make(map[string]bool, len(group))
		for i := range group {
			present[group[i].Date.Format(config.DateFormat)] = true
		}

		first, last := group[0], group[len(group)-1]
		for day := first.Date; !day.After(last.Date); day = day.AddDate(0, 0, 1) {
			if present[day.Format(config.DateFormat)] {
				continue
			}
			blank := domain.Observation{
				Date:            day,
				ReservoirCode:   code,
				ReservoirName:   first.ReservoirName,
				Province:        first.Province,
				SourceReservoir: first.SourceReservoir,
			}
			for _, field := range domain.MeasurementFields() {
				blank.SetValue(field, domain.Missing())
			}
			dataset.Observations = append(dataset.Observations, blank)
			report.CalendarRowsAdded++
		}
	}
}

// fillGaps closes missing-value runs per reservoir and field. A run bounded
// on both sides and no longer than maxGap is linearly interpolated; a longer
// or right-unbounded run carries the last known value forward. Leading runs
// have no left value and stay missing.
func (c *Cleaner) fillGaps(dataset *domain.Dataset, report *domain.CleanReport) {
	for _, group := range dataset.ByReservoir() {
		for _, field := range domain.MeasurementFields() {
			c.fillFieldGaps(group, field, report)
		}
	}
}

func (c *Cleaner) fillFieldGaps(group []domain.Observation, field domain.Field, report *domain.CleanReport) {
	precision := config.FieldPrecision(field)
	n := len(group)

	i := 0
	for i < n {
		if !domain.IsMissing(group[i].Value(field)) {
			i++
			continue
		}

		// The run [start, end) is all missing.
		start := i
		for i < n && domain.IsMissing(group[i].Value(field)) {
			i++
		}
		end := i

		if start == 0 {
			// Leading run: nothing to carry or anchor on the left.
			continue
		}

		left := group[start-1].Value(field)
		runLen := end - start

		if end < n && runLen <= c.maxGap {
			right := group[end].Value(field)
			step := (right - left) / float64(runLen+1)
			for j := start; j < end; j++ {
				value := roundTo(left+step*float64(j-start+1), precision)
				group[j].SetValue(field, value)
				group[j].Interpolated = true
				report.PerField[field].Interpolated++
			}
			continue
		}

		for j := start; j < end; j++ {
			group[j].SetValue(field, left)
			group[j].Filled = true
			report.PerField[field].ForwardFilled++
		}
	}
}

// flagOutliers marks values outside their physical range. Flags are
// advisory; re-flagging an already flagged cell is a no-op.
func (c *Cleaner) flagOutliers(dataset *domain.Dataset, report *domain.CleanReport) {
	ranges := config.FieldRanges()
	for i := range dataset.Observations {
		obs := &dataset.Observations[i]
		for _, field := range domain.MeasurementFields() {
			value := obs.Value(field)
			if domain.IsMissing(value) {
				continue
			}
			if r, ok := ranges[field]; ok && !r.Contains(value) && !obs.HasOutlier(field) {
				obs.FlagOutlier(field)
				report.OutliersFlagged++
			}
		}
	}
}

// roundTo rounds v to the given number of decimal places.
func roundTo(v float64, precision int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	factor := math.Pow(10, float64(precision))
	return math.Round(v*factor) / factor
}

// dayCount returns the number of calendar days in [from, to], inclusive.
func dayCount(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}
