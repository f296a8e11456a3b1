package domain

import (
	"sort"
	"time"
)

// Dataset is an ordered collection of observations, possibly spanning several
// reservoirs. It is built fresh per analysis run and passed explicitly between
// pipeline stages; no stage holds dataset state across invocations.
type Dataset struct {
	Observations []Observation `json:"observations"`
}

// NewDataset creates a dataset from the given observations.
func NewDataset(observations []Observation) *Dataset {
	return &Dataset{Observations: observations}
}

// Len returns the number of observations.
func (d *Dataset) Len() int {
	return len(d.Observations)
}

// Sort orders observations by (reservoir code, date). Every pipeline stage
// relies on this ordering, so the loader sorts once after merging inputs.
func (d *Dataset) Sort() {
	sort.SliceStable(d.Observations, func(i, j int) bool {
		a, b := &d.Observations[i], &d.Observations[j]
		if a.ReservoirCode != b.ReservoirCode {
			return a.ReservoirCode < b.ReservoirCode
		}
		return a.Date.Before(b.Date)
	})
}

// Reservoirs returns the distinct reservoir codes present, sorted.
func (d *Dataset) Reservoirs() []string {
	seen := make(map[string]bool)
	var codes []string
	for i := range d.Observations {
		code := d.Observations[i].ReservoirCode
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}

// ByReservoir groups observations by reservoir code. The dataset must be
// sorted; each group is a sub-slice of d.Observations, so writes through a
// group reach the dataset.
func (d *Dataset) ByReservoir() map[string][]Observation {
	groups := make(map[string][]Observation)
	for start := 0; start < len(d.Observations); {
		code := d.Observations[start].ReservoirCode
		end := start + 1
		for end < len(d.Observations) && d.Observations[end].ReservoirCode == code {
			end++
		}
		groups[code] = d.Observations[start:end:end]
		start = end
	}
	return groups
}

// FilterReservoir returns a new dataset holding only the given reservoir.
func (d *Dataset) FilterReservoir(code string) *Dataset {
	var filtered []Observation
	for _, obs := range d.Observations {
		if obs.ReservoirCode == code {
			filtered = append(filtered, obs)
		}
	}
	return NewDataset(filtered)
}

// FilterWindow returns a new dataset restricted to [from, to], inclusive.
// Zero bounds are open.
func (d *Dataset) FilterWindow(from, to time.Time) *Dataset {
	var filtered []Observation
	for _, obs := range d.Observations {
		if !from.IsZero() && obs.Date.Before(from) {
			continue
		}
		if !to.IsZero() && obs.Date.After(to) {
			continue
		}
		filtered = append(filtered, obs)
	}
	return NewDataset(filtered)
}

// DateRange returns the earliest and latest observation dates. ok is false
// for an empty dataset.
func (d *Dataset) DateRange() (min, max time.Time, ok bool) {
	if len(d.Observations) == 0 {
		return time.Time{}, time.Time{}, false
	}
	min, max = d.Observations[0].Date, d.Observations[0].Date
	for i := range d.Observations {
		date := d.Observations[i].Date
		if date.Before(min) {
			min = date
		}
		if date.After(max) {
			max = date
		}
	}
	return min, max, true
}

// Series extracts the (date, value) series of one measurement field for one
// reservoir, ordered by date. Missing cells are included as NaN so gap
// positions stay visible to callers.
func (d *Dataset) Series(code string, field Field) Series {
	var s Series
	for i := range d.Observations {
		obs := &d.Observations[i]
		if obs.ReservoirCode != code {
			continue
		}
		s.Dates = append(s.Dates, obs.Date)
		s.Values = append(s.Values, obs.Value(field))
	}
	sort.Sort(&s)
	return s
}

// Series is a date-ordered sequence of measurements for a single field.
type Series struct {
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

// Len implements sort.Interface.
func (s *Series) Len() int { return len(s.Dates) }

// Less implements sort.Interface.
func (s *Series) Less(i, j int) bool { return s.Dates[i].Before(s.Dates[j]) }

// Swap implements sort.Interface.
func (s *Series) Swap(i, j int) {
	s.Dates[i], s.Dates[j] = s.Dates[j], s.Dates[i]
	s.Values[i], s.Values[j] = s.Values[j], s.Values[i]
}

// NonMissing returns the count of non-NaN values.
func (s *Series) NonMissing() int {
	n := 0
	for _, v := range s.Values {
		if !IsMissing(v) {
			n++
		}
	}
	return n
}
