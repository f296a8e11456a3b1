package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"embalsescli/internal/config"
	apierrors "embalsescli/internal/errors"
	"embalsescli/internal/infrastructure"
	"embalsescli/internal/middleware"
	"embalsescli/internal/operations"
)

// RouterConfig carries the dependencies for the API router.
type RouterConfig struct {
	Config  *config.Config
	Paths   *config.Paths
	Logger  *slog.Logger
	Metrics *infrastructure.Metrics
	Manager *operations.Manager
	Data    DataService
	Version string
}

// NewRouter assembles the API router with the full middleware chain. Missing
// dependencies are constructed from the configuration.
func NewRouter(rc RouterConfig) *chi.Mux {
	logger := rc.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := rc.Metrics
	if metrics == nil {
		metrics = infrastructure.DefaultMetrics()
	}
	manager := rc.Manager
	if manager == nil {
		manager = operations.NewManager(rc.Config, rc.Paths, logger, metrics)
	}
	data := rc.Data
	if data == nil {
		data = NewCachedDataService(rc.Config, rc.Paths, logger)
	}

	errorHandler := apierrors.NewErrorHandler(logger, false)
	validation := middleware.NewValidationMiddleware(logger, errorHandler)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(60*time.Second, logger))

	if rl := rc.Config.Server.RateLimit; rl.Enabled {
		r.Use(middleware.NewRateLimiter(rl.RPS, rl.Burst, logger).Handler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Mount("/health", NewHealthHandler(rc.Paths, logger, rc.Version).Routes())
		api.Mount("/operations", NewOperationsHandler(manager, validation, errorHandler, logger).Routes())
		api.Mount("/stats", NewStatsHandler(data, rc.Config.Analysis, validation, errorHandler, logger).Routes())
		api.Mount("/quality", NewQualityHandler(data, errorHandler, logger).Routes())
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	return r
}
