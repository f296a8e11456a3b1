package operations

import (
	"sync"
	"time"

	"embalsescli/internal/exporter"
	"embalsescli/pkg/contracts/domain"
)

// OperationStatusValue represents the overall operation status enum
type OperationStatusValue string

const (
	OperationStatusPending   OperationStatusValue = "pending"
	OperationStatusRunning   OperationStatusValue = "running"
	OperationStatusCompleted OperationStatusValue = "completed"
	OperationStatusFailed    OperationStatusValue = "failed"
	OperationStatusCancelled OperationStatusValue = "cancelled"
)

// Artifacts holds the typed outputs each step hands to the next. Steps write
// only their own slot; the manager never mutates artifacts.
type Artifacts struct {
	Dataset       *domain.Dataset            `json:"-"`
	CleanReport   *domain.CleanReport        `json:"clean_report,omitempty"`
	QualityReport *domain.QualityReport      `json:"quality_report,omitempty"`
	Summary       *exporter.StatisticsSummary `json:"summary,omitempty"`
	WrittenFiles  map[string]string          `json:"written_files,omitempty"`
}

// OperationState represents the complete state of a operation execution
type OperationState struct {
	mu sync.RWMutex

	// Basic operation information
	ID        string               `json:"id"`
	Status    OperationStatusValue `json:"status"`
	StartTime time.Time            `json:"start_time"`
	EndTime   *time.Time           `json:"end_time,omitempty"`

	// Step states, in execution order
	Steps []*StepState `json:"steps"`

	// Request parameters the steps read
	Request OperationRequest `json:"request"`

	// Outputs produced by the steps
	Artifacts Artifacts `json:"artifacts"`

	// Error if operation failed
	Error string `json:"error,omitempty"`
}

// NewOperationState creates a new operation state
func NewOperationState(id string, req OperationRequest) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Request:   req,
	}
}

// Start marks the operation as running
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the operation as completed
func (p *OperationState) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCompleted
}

// Fail marks the operation as failed
func (p *OperationState) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusFailed
	if err != nil {
		p.Error = err.Error()
	}
}

// Cancel marks the operation as cancelled
func (p *OperationState) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCancelled
}

// AddStep appends a step state in execution order.
func (p *OperationState) AddStep(step *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Steps = append(p.Steps, step)
}

// GetStep returns the state of a specific Step, or nil if unknown.
func (p *OperationState) GetStep(stepID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, s := range p.Steps {
		if s.ID == stepID {
			return s
		}
	}
	return nil
}

// GetStatus returns the current status under the read lock.
func (p *OperationState) GetStatus() OperationStatusValue {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Status
}

// Duration returns the duration of the operation execution
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}

// HasFailures returns true if any Step has failed
func (p *OperationState) HasFailures() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, s := range p.Steps {
		if s.Status == StepStatusFailed {
			return true
		}
	}
	return false
}

// Snapshot creates a copy of the operation state safe to serve over HTTP.
// Step metadata is copied; heavy artifacts (the dataset itself) are omitted.
func (p *OperationState) Snapshot() *OperationState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	clone := &OperationState{
		ID:        p.ID,
		Status:    p.Status,
		StartTime: p.StartTime,
		Request:   p.Request,
		Error:     p.Error,
		Artifacts: Artifacts{
			CleanReport:   p.Artifacts.CleanReport,
			QualityReport: p.Artifacts.QualityReport,
			Summary:       p.Artifacts.Summary,
			WrittenFiles:  p.Artifacts.WrittenFiles,
		},
	}

	if p.EndTime != nil {
		endTime := *p.EndTime
		clone.EndTime = &endTime
	}

	for _, s := range p.Steps {
		s.mu.RLock()
		stepCopy := &StepState{
			ID:        s.ID,
			Name:      s.Name,
			Status:    s.Status,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			Message:   s.Message,
			Error:     s.Error,
			Metadata:  make(map[string]interface{}, len(s.Metadata)),
		}
		for mk, mv := range s.Metadata {
			stepCopy.Metadata[mk] = mv
		}
		s.mu.RUnlock()
		clone.Steps = append(clone.Steps, stepCopy)
	}

	return clone
}
