package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"embalsescli/internal/config"
	"embalsescli/internal/infrastructure"
	transport "embalsescli/internal/transport/http"
	"embalsescli/pkg/contracts"
)

// version can be overridden at build time with -ldflags "-X main.version=...".
var version = contracts.Version

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("web", flag.ContinueOnError)
	baseDir := flags.String("base", "", "base directory for data and reports (defaults to the executable directory)")
	port := flags.Int("port", 0, "override the listen port")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	var paths *config.Paths
	if *baseDir != "" {
		paths = config.NewPaths(*baseDir)
	} else {
		paths, err = config.GetPaths()
		if err != nil {
			slog.Error("failed to resolve paths", "error", err)
			return 1
		}
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("failed to create directories", "error", err)
		return 1
	}
	if cfg.Logging.Output != "console" {
		cfg.Logging.FilePath = paths.GetLogPath("web.log")
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	router := transport.NewRouter(transport.RouterConfig{
		Config:  cfg,
		Paths:   paths,
		Logger:  logger,
		Metrics: infrastructure.DefaultMetrics(),
		Version: version,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			slog.String("addr", server.Addr),
			slog.String("version", version),
			slog.String("data_dir", paths.DataDir))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			return 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return 1
	}

	logger.Info("server stopped")
	return 0
}
