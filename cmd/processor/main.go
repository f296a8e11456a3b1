package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"embalsescli/internal/config"
	"embalsescli/internal/infrastructure"
	"embalsescli/internal/operations"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("processor", flag.ContinueOnError)
	baseDir := flags.String("base", "", "base directory for data and reports (defaults to the executable directory)")
	dataDir := flags.String("data", "", "override the input CSV directory")
	step := flags.String("step", operations.FullPipeline, "run the pipeline up to and including this step: load, clean, validate, analyze, export, full_pipeline")
	include := flags.String("include", "", "comma-separated reservoir codes to load (default: all)")
	fromDate := flags.String("from", "", "start of the date window, inclusive (YYYY-MM-DD)")
	toDate := flags.String("to", "", "end of the date window, inclusive (YYYY-MM-DD)")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	paths, err := resolvePaths(*baseDir, *dataDir)
	if err != nil {
		slog.Error("failed to resolve paths", "error", err)
		return 1
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("failed to create directories", "error", err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}
	if cfg.Logging.Output != "console" {
		cfg.Logging.FilePath = paths.GetLogPath("processor.log")
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting reservoir data pipeline",
		slog.String("data_dir", paths.DataDir),
		slog.String("reports_dir", paths.ReportsDir),
		slog.String("step", *step))

	manager := operations.NewManager(cfg, paths, logger, infrastructure.DefaultMetrics())
	resp, err := manager.Execute(ctx, operations.OperationRequest{
		Step:     *step,
		Include:  splitList(*include),
		FromDate: *fromDate,
		ToDate:   *toDate,
	})
	if resp != nil {
		printSummary(resp)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("pipeline cancelled")
			return 130
		}
		logger.Error("pipeline failed", "error", err)
		return 1
	}

	logger.Info("pipeline completed", slog.String("duration", resp.Duration))
	return 0
}

// resolvePaths builds the path set, rooted at the base flag when given and
// the executable directory otherwise.
func resolvePaths(baseDir, dataDir string) (*config.Paths, error) {
	var paths *config.Paths
	if baseDir != "" {
		paths = config.NewPaths(baseDir)
	} else {
		var err error
		paths, err = config.GetPaths()
		if err != nil {
			return nil, err
		}
	}
	if dataDir != "" {
		paths.DataDir = dataDir
	}
	return paths, nil
}

// splitList splits a comma-separated flag value, trimming blanks.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

// printSummary writes the per-step outcome to stdout for interactive runs.
func printSummary(resp *operations.OperationResponse) {
	fmt.Printf("operation %s: %s (%s)\n", resp.ID, resp.Status, resp.Duration)
	for _, step := range resp.Steps {
		line := fmt.Sprintf("  %-10s %s", step.Name, step.Status)
		if step.Error != "" {
			line += ": " + step.Error
		} else if step.Message != "" {
			line += ": " + step.Message
		}
		fmt.Println(line)
	}
}
