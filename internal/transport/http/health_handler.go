package http

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"embalsescli/internal/config"
)

// HealthHandler exposes liveness, readiness and version endpoints.
type HealthHandler struct {
	paths     *config.Paths
	logger    *slog.Logger
	version   string
	startTime time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(paths *config.Paths, logger *slog.Logger, version string) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if version == "" {
		version = "dev"
	}
	return &HealthHandler{
		paths:     paths,
		logger:    logger.With(slog.String("handler", "health")),
		version:   version,
		startTime: time.Now(),
	}
}

// Routes returns the health routes.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Health)
	r.Get("/live", h.Live)
	r.Get("/ready", h.Ready)
	r.Get("/version", h.Version)
	return r
}

type healthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Uptime  string                 `json:"uptime"`
	Checks  map[string]checkResult `json:"checks,omitempty"`
}

type checkResult struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Health reports overall status with per-dependency checks.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]checkResult{
		"data_dir":    h.checkDir(h.paths.DataDir),
		"reports_dir": h.checkDir(h.paths.ReportsDir),
	}

	status := "healthy"
	httpStatus := http.StatusOK
	for _, c := range checks {
		if c.Status != "ok" {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	render.Status(r, httpStatus)
	render.JSON(w, r, healthResponse{
		Status:  status,
		Version: h.version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Checks:  checks,
	})
}

// Live always reports success while the process is up.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "alive"})
}

// Ready reports success once the data directory is reachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if c := h.checkDir(h.paths.DataDir); c.Status != "ok" {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]string{"status": "not ready", "detail": c.Detail})
		return
	}
	render.JSON(w, r, map[string]string{"status": "ready"})
}

// Version reports the build version.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"version": h.version})
}

func (h *HealthHandler) checkDir(dir string) checkResult {
	info, err := os.Stat(dir)
	if err != nil {
		return checkResult{Status: "error", Detail: err.Error()}
	}
	if !info.IsDir() {
		return checkResult{Status: "error", Detail: dir + " is not a directory"}
	}
	return checkResult{Status: "ok"}
}
