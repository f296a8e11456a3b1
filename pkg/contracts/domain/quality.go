package domain

import (
	"time"
)

// ViolationType classifies a quality-rule violation.
type ViolationType string

const (
	// ViolationRange marks a value outside its physical range.
	ViolationRange ViolationType = "range"
	// ViolationOrderingTemperature marks temp_min <= temp_mean <= temp_max broken.
	ViolationOrderingTemperature ViolationType = "ordering: temperature"
	// ViolationOrderingHumidity marks humidity_min <= humidity_mean <= humidity_max broken.
	ViolationOrderingHumidity ViolationType = "ordering: humidity"
	// ViolationOrderingWind marks wind_speed_max < wind_speed_mean.
	ViolationOrderingWind ViolationType = "ordering: wind"
)

// Violation records one quality-rule breach for one observation. Violations
// are advisory: the validator reports them, it never drops rows.
type Violation struct {
	Key   ObservationKey `json:"key"`
	Field string         `json:"field"`
	Type  ViolationType  `json:"type"`
	Value float64        `json:"value"`
}

// ReservoirCompleteness summarizes data availability for one reservoir over
// its full implied date span.
type ReservoirCompleteness struct {
	ReservoirCode string    `json:"embalse_codigo"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	ExpectedDays  int       `json:"expected_days"`
	PresentDays   int       `json:"present_days"`
	ExpectedCells int       `json:"expected_cells"`
	MissingCells  int       `json:"missing_cells"`
	Completeness  float64   `json:"completeness"` // [0,1]
	MaxGapDays    int       `json:"max_gap_days"`
}

// QualityReport is the immutable validation summary for one dataset. It is
// produced by the validator and consumed read-only downstream.
type QualityReport struct {
	GeneratedAt     time.Time                        `json:"generated_at"`
	TotalRecords    int                              `json:"total_records"`
	Reservoirs      int                              `json:"reservoirs"`
	Completeness    float64                          `json:"completeness"` // [0,1] over all reservoirs
	PerReservoir    map[string]ReservoirCompleteness `json:"per_reservoir"`
	Violations      []Violation                      `json:"violations"`
	RangeViolations int                              `json:"range_violations"`
	OrderViolations int                              `json:"order_violations"`
	OutliersFlagged int                              `json:"outliers_flagged"`
	IQROutliers     map[string]int                   `json:"iqr_outliers"`
	DuplicateDates  int                              `json:"duplicate_dates"`
}

// ViolationsFor returns the violations recorded against the given key.
func (r *QualityReport) ViolationsFor(key ObservationKey) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Key == key {
			out = append(out, v)
		}
	}
	return out
}

// HasViolation reports whether key has at least one violation of type t.
func (r *QualityReport) HasViolation(key ObservationKey, t ViolationType) bool {
	for _, v := range r.Violations {
		if v.Key == key && v.Type == t {
			return true
		}
	}
	return false
}

// FieldMutations counts the cells the cleaner changed for a single field.
type FieldMutations struct {
	Interpolated  int `json:"interpolated"`
	ForwardFilled int `json:"forward_filled"`
}

// CleanReport summarizes the mutations one cleaning pass applied. A second
// pass over already-clean data reports zero everywhere.
type CleanReport struct {
	RowsIn            int                       `json:"rows_in"`
	RowsOut           int                       `json:"rows_out"`
	DuplicatesRemoved int                       `json:"duplicates_removed"`
	CalendarRowsAdded int                       `json:"calendar_rows_added"`
	ValuesRounded     int                       `json:"values_rounded"`
	PerField          map[Field]*FieldMutations `json:"per_field"`
	OutliersFlagged   int                       `json:"outliers_flagged"`
}

// NewCleanReport creates an empty report with the per-field map initialized.
func NewCleanReport() *CleanReport {
	report := &CleanReport{PerField: make(map[Field]*FieldMutations)}
	for _, f := range MeasurementFields() {
		report.PerField[f] = &FieldMutations{}
	}
	return report
}

// TotalMutations returns the count of all cell-level changes: rounding,
// interpolation and forward fills.
func (r *CleanReport) TotalMutations() int {
	total := r.ValuesRounded
	for _, m := range r.PerField {
		total += m.Interpolated + m.ForwardFilled
	}
	return total
}

// Clean reports whether the pass changed nothing, i.e. the input was already
// clean.
func (r *CleanReport) Clean() bool {
	return r.TotalMutations() == 0 && r.DuplicatesRemoved == 0 && r.CalendarRowsAdded == 0
}
