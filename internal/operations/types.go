package operations

import "time"

// Step identifiers, in pipeline order.
const (
	StepIDLoad     = "load"
	StepIDClean    = "clean"
	StepIDValidate = "validate"
	StepIDAnalyze  = "analyze"
	StepIDExport   = "export"
)

// FullPipeline requests every step in order.
const FullPipeline = "full_pipeline"

// OperationRequest describes one pipeline run.
type OperationRequest struct {
	// ID of the run; the manager assigns one when empty.
	ID string `json:"id,omitempty"`

	// Step runs the pipeline up to and including the named step. Empty or
	// "full_pipeline" runs everything.
	Step string `json:"step,omitempty" validate:"omitempty,oneof=load clean validate analyze export full_pipeline"`

	// Include restricts loading to reservoirs whose code matches one of the
	// given names. Empty loads everything found in the data directory.
	Include []string `json:"include,omitempty"`

	// FromDate and ToDate restrict the dataset window, ISO dates, inclusive.
	FromDate string `json:"from_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ToDate   string `json:"to_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// OperationResponse is the serialized view of a run returned to callers.
type OperationResponse struct {
	ID        string               `json:"id"`
	Status    OperationStatusValue `json:"status"`
	StartTime time.Time            `json:"start_time"`
	EndTime   *time.Time           `json:"end_time,omitempty"`
	Duration  string               `json:"duration"`
	Steps     []*StepState         `json:"steps"`
	Error     string               `json:"error,omitempty"`
}
