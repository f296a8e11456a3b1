package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"embalsescli/internal/dataprocessing"
	apierrors "embalsescli/internal/errors"
)

// QualityHandler runs the quality validator over the current dataset and
// serves the resulting report.
type QualityHandler struct {
	data      DataService
	validator *dataprocessing.Validator
	errors    *apierrors.ErrorHandler
	logger    *slog.Logger
}

// NewQualityHandler creates a quality handler.
func NewQualityHandler(data DataService, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *QualityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &QualityHandler{
		data:      data,
		validator: dataprocessing.NewValidator(logger),
		errors:    errorHandler,
		logger:    logger.With(slog.String("handler", "quality")),
	}
}

// Routes returns the quality routes.
func (h *QualityHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Report)
	r.Get("/completeness", h.Completeness)
	return r
}

// Report validates the dataset and returns the full quality report.
func (h *QualityHandler) Report(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.data.Dataset(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	report, err := h.validator.Validate(r.Context(), dataset)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// Completeness returns only the per-reservoir completeness section.
func (h *QualityHandler) Completeness(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.data.Dataset(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	report, err := h.validator.Validate(r.Context(), dataset)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"per_reservoir": report.PerReservoir,
	})
}
