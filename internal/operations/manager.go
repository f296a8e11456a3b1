package operations

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"embalsescli/internal/config"
	"embalsescli/internal/infrastructure"
	"embalsescli/pkg/contracts/domain"
)

// Manager orchestrates pipeline runs. Steps execute sequentially in pipeline
// order; a failed step aborts the run and the remaining steps are skipped.
type Manager struct {
	steps   []Step
	logger  *slog.Logger
	metrics *infrastructure.Metrics

	mu         sync.RWMutex
	operations map[string]*OperationState
	cancels    map[string]context.CancelFunc
}

// NewManager creates a manager wired with the full pipeline.
func NewManager(cfg *config.Config, paths *config.Paths, logger *slog.Logger, metrics *infrastructure.Metrics) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = infrastructure.DefaultMetrics()
	}
	return &Manager{
		steps: []Step{
			NewLoadStep(paths, logger),
			NewCleanStep(cfg.Cleaning, logger),
			NewValidateStep(logger),
			NewAnalyzeStep(logger),
			NewExportStep(paths, logger),
		},
		logger:     logger,
		metrics:    metrics,
		operations: make(map[string]*OperationState),
		cancels:    make(map[string]context.CancelFunc),
	}
}

// stepsFor returns the pipeline prefix ending at the requested step.
func (m *Manager) stepsFor(requested string) ([]Step, error) {
	if requested == "" || requested == FullPipeline {
		return m.steps, nil
	}
	for i, step := range m.steps {
		if step.ID() == requested {
			return m.steps[:i+1], nil
		}
	}
	return nil, NewNotFoundError(fmt.Sprintf("step %q", requested))
}

// Execute runs an operation synchronously and returns its final state.
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, error) {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	steps, err := m.stepsFor(req.Step)
	if err != nil {
		return nil, err
	}

	state := NewOperationState(req.ID, req)
	for _, step := range steps {
		state.AddStep(NewStepState(step.ID(), step.Name()))
	}
	m.storeOperation(state)

	ctx, cancel := context.WithCancel(ctx)
	m.storeCancel(req.ID, cancel)
	defer m.removeCancel(req.ID)

	m.runSteps(ctx, state, steps)

	m.metrics.PipelineRuns.WithLabelValues(string(state.GetStatus())).Inc()
	return m.createResponse(state), state.runError()
}

// ExecuteAsync starts a run in the background and returns its ID immediately.
// The run detaches from the caller's context; use Cancel to stop it.
func (m *Manager) ExecuteAsync(ctx context.Context, req OperationRequest) (string, error) {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	steps, err := m.stepsFor(req.Step)
	if err != nil {
		return "", err
	}

	state := NewOperationState(req.ID, req)
	for _, step := range steps {
		state.AddStep(NewStepState(step.ID(), step.Name()))
	}
	m.storeOperation(state)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.storeCancel(req.ID, cancel)

	go func() {
		defer m.removeCancel(req.ID)
		m.runSteps(runCtx, state, steps)
		m.metrics.PipelineRuns.WithLabelValues(string(state.GetStatus())).Inc()
	}()

	return req.ID, nil
}

// runSteps executes the steps in order, recording per-step timing.
func (m *Manager) runSteps(ctx context.Context, state *OperationState, steps []Step) {
	state.Start()
	m.logger.InfoContext(ctx, "operation started",
		slog.String("operation_id", state.ID),
		slog.Int("steps", len(steps)))

	for i, step := range steps {
		stepState := state.GetStep(step.ID())

		if err := ctx.Err(); err != nil {
			m.skipRemaining(state, steps[i:], "operation cancelled")
			state.Cancel()
			m.logger.WarnContext(ctx, "operation cancelled",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			return
		}

		if err := step.Validate(state); err != nil {
			stepState.Fail(err)
			m.skipRemaining(state, steps[i+1:], "previous step failed")
			state.Fail(err)
			return
		}

		stepState.Start()
		err := step.Execute(ctx, state)
		m.metrics.StageDuration.WithLabelValues(step.ID()).Observe(stepState.Duration().Seconds())

		if err != nil {
			stepState.Fail(err)
			m.skipRemaining(state, steps[i+1:], "previous step failed")
			if ctx.Err() != nil {
				state.Cancel()
			} else {
				state.Fail(NewExecutionError(step.ID(), err))
			}
			m.logger.ErrorContext(ctx, "step failed",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.String("error", err.Error()))
			return
		}

		stepState.Complete()
		m.observeStep(state, step.ID())
		m.logger.InfoContext(ctx, "step completed",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Duration("duration", stepState.Duration()))
	}

	state.Complete()
	m.logger.InfoContext(ctx, "operation completed",
		slog.String("operation_id", state.ID),
		slog.Duration("duration", state.Duration()))
}

// observeStep publishes the step's domain counters after it completes.
func (m *Manager) observeStep(state *OperationState, stepID string) {
	switch stepID {
	case StepIDLoad:
		if ds := state.Artifacts.Dataset; ds != nil {
			for code, group := range ds.ByReservoir() {
				m.metrics.RowsProcessed.WithLabelValues(code).Add(float64(len(group)))
			}
		}
	case StepIDClean:
		if report := state.Artifacts.CleanReport; report != nil {
			for field, muts := range report.PerField {
				if muts.Interpolated > 0 {
					m.metrics.CellsInterpolated.WithLabelValues(string(field)).Add(float64(muts.Interpolated))
				}
				if muts.ForwardFilled > 0 {
					m.metrics.CellsForwardFilled.WithLabelValues(string(field)).Add(float64(muts.ForwardFilled))
				}
			}
			if report.OutliersFlagged > 0 {
				m.metrics.OutliersFlagged.Add(float64(report.OutliersFlagged))
			}
		}
	case StepIDValidate:
		if report := state.Artifacts.QualityReport; report != nil {
			byType := make(map[domain.ViolationType]int)
			for _, v := range report.Violations {
				byType[v.Type]++
			}
			for t, n := range byType {
				m.metrics.QualityViolations.WithLabelValues(string(t)).Add(float64(n))
			}
			for code, c := range report.PerReservoir {
				m.metrics.Completeness.WithLabelValues(code).Set(c.Completeness)
			}
		}
	}
}

// skipRemaining marks every pending step in the slice as skipped.
func (m *Manager) skipRemaining(state *OperationState, steps []Step, reason string) {
	for _, step := range steps {
		if s := state.GetStep(step.ID()); s != nil && s.Status == StepStatusPending {
			s.Skip(reason)
		}
	}
}

// Get returns the current view of one run.
func (m *Manager) Get(id string) (*OperationResponse, error) {
	m.mu.RLock()
	state, ok := m.operations[id]
	m.mu.RUnlock()
	if !ok {
		return nil, NewNotFoundError(fmt.Sprintf("operation %q", id))
	}
	return m.createResponse(state), nil
}

// GetState returns the live state of one run, including its artifacts.
func (m *Manager) GetState(id string) (*OperationState, error) {
	m.mu.RLock()
	state, ok := m.operations[id]
	m.mu.RUnlock()
	if !ok {
		return nil, NewNotFoundError(fmt.Sprintf("operation %q", id))
	}
	return state, nil
}

// List returns every known run, newest first.
func (m *Manager) List() []*OperationResponse {
	m.mu.RLock()
	states := make([]*OperationState, 0, len(m.operations))
	for _, state := range m.operations {
		states = append(states, state)
	}
	m.mu.RUnlock()

	sort.Slice(states, func(i, j int) bool {
		return states[i].StartTime.After(states[j].StartTime)
	})

	responses := make([]*OperationResponse, 0, len(states))
	for _, state := range states {
		responses = append(responses, m.createResponse(state))
	}
	return responses
}

// Cancel stops a running operation. Cancelling a finished run is an error.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	cancel, ok := m.cancels[id]
	m.mu.Unlock()
	if !ok {
		return NewNotFoundError(fmt.Sprintf("running operation %q", id))
	}
	cancel()
	return nil
}

func (m *Manager) createResponse(state *OperationState) *OperationResponse {
	snapshot := state.Snapshot()
	return &OperationResponse{
		ID:        snapshot.ID,
		Status:    snapshot.Status,
		StartTime: snapshot.StartTime,
		EndTime:   snapshot.EndTime,
		Duration:  state.Duration().String(),
		Steps:     snapshot.Steps,
		Error:     snapshot.Error,
	}
}

func (m *Manager) storeOperation(state *OperationState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[state.ID] = state
}

func (m *Manager) storeCancel(id string, cancel context.CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancels[id] = cancel
}

func (m *Manager) removeCancel(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cancels, id)
}

// runError converts a failed state into an error for synchronous callers.
func (p *OperationState) runError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	switch p.Status {
	case OperationStatusFailed:
		return fmt.Errorf("operation %s failed: %s", p.ID, p.Error)
	case OperationStatusCancelled:
		return context.Canceled
	}
	return nil
}
