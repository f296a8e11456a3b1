package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "embalsescli/internal/errors"
	"embalsescli/internal/middleware"
	"embalsescli/internal/operations"
)

// OperationsHandler exposes pipeline runs over HTTP. Runs start in the
// background; callers poll the returned ID for progress.
type OperationsHandler struct {
	manager    *operations.Manager
	validation *middleware.ValidationMiddleware
	errors     *apierrors.ErrorHandler
	logger     *slog.Logger
}

// NewOperationsHandler creates an operations handler.
func NewOperationsHandler(manager *operations.Manager, validation *middleware.ValidationMiddleware, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *OperationsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationsHandler{
		manager:    manager,
		validation: validation,
		errors:     errorHandler,
		logger:     logger.With(slog.String("handler", "operations")),
	}
}

// Routes returns the operations routes.
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Start)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/stop", h.Stop)
	return r
}

// startRequest is the payload accepted by POST /.
type startRequest struct {
	Step     string   `json:"step" validate:"omitempty,oneof=load clean validate analyze export full_pipeline"`
	Include  []string `json:"include" validate:"omitempty,dive,reservoir"`
	FromDate string   `json:"from_date" validate:"omitempty,iso8601"`
	ToDate   string   `json:"to_date" validate:"omitempty,iso8601"`
}

// Bind implements render.Binder.
func (req *startRequest) Bind(r *http.Request) error {
	if req.Step == "" {
		req.Step = operations.FullPipeline
	}
	return nil
}

// startResponse is returned with 202 Accepted.
type startResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Href   string `json:"href"`
}

// Start launches a pipeline run in the background and returns its ID.
func (h *OperationsHandler) Start(w http.ResponseWriter, r *http.Request) {
	req := &startRequest{}
	if err := render.Bind(r, req); err != nil {
		h.errors.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validation.ValidateStruct(req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	id, err := h.manager.ExecuteAsync(r.Context(), operations.OperationRequest{
		Step:     req.Step,
		Include:  req.Include,
		FromDate: req.FromDate,
		ToDate:   req.ToDate,
	})
	if err != nil {
		h.handleOperationError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "operation accepted",
		slog.String("operation_id", id),
		slog.String("step", req.Step))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, startResponse{
		ID:     id,
		Status: string(operations.OperationStatusPending),
		Href:   "/api/operations/" + id,
	})
}

// Get returns the current state of one run.
func (h *OperationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	resp, err := h.manager.Get(id)
	if err != nil {
		h.handleOperationError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// List returns every known run, newest first. An optional status query
// parameter filters the result.
func (h *OperationsHandler) List(w http.ResponseWriter, r *http.Request) {
	statusFilter := r.URL.Query().Get("status")
	if statusFilter != "" && !validOperationStatus(statusFilter) {
		h.errors.HandleError(w, r, apierrors.ErrValidation("status",
			"must be one of: pending, running, completed, failed, cancelled"))
		return
	}

	all := h.manager.List()
	filtered := all
	if statusFilter != "" {
		filtered = make([]*operations.OperationResponse, 0, len(all))
		for _, op := range all {
			if string(op.Status) == statusFilter {
				filtered = append(filtered, op)
			}
		}
	}

	render.JSON(w, r, map[string]interface{}{
		"operations": filtered,
		"count":      len(filtered),
	})
}

// Stop cancels a running operation.
func (h *OperationsHandler) Stop(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.manager.Cancel(id); err != nil {
		h.handleOperationError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "operation cancel requested",
		slog.String("operation_id", id))
	render.JSON(w, r, map[string]string{
		"id":     id,
		"status": "cancelling",
	})
}

// handleOperationError maps manager errors onto API errors before handing
// them to the shared problem renderer.
func (h *OperationsHandler) handleOperationError(w http.ResponseWriter, r *http.Request, err error) {
	var opErr *operations.OperationError
	if errors.As(err, &opErr) {
		switch opErr.Type {
		case operations.ErrorTypeNotFound:
			h.errors.HandleError(w, r, apierrors.New(http.StatusNotFound, "NOT_FOUND", opErr.Message))
			return
		case operations.ErrorTypeValidation:
			h.errors.HandleError(w, r, apierrors.New(http.StatusBadRequest, "VALIDATION_FAILED", opErr.Message))
			return
		}
	}
	h.errors.HandleError(w, r, err)
}

func validOperationStatus(s string) bool {
	switch operations.OperationStatusValue(s) {
	case operations.OperationStatusPending, operations.OperationStatusRunning,
		operations.OperationStatusCompleted, operations.OperationStatusFailed,
		operations.OperationStatusCancelled:
		return true
	}
	return false
}
