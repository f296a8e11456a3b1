package exporter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"embalsescli/internal/analysis"
	"embalsescli/internal/config"
)

// StatisticsSummary is the JSON document written after the analysis stage:
// per-reservoir, per-field descriptive statistics plus the annual trend of
// the reserve volume where one could be fitted.
type StatisticsSummary struct {
	GeneratedAt time.Time                                       `json:"generated_at"`
	Reservoirs  map[string]map[string]analysis.DescriptiveStats `json:"reservoirs"`
	Trends      map[string]analysis.TrendResult                 `json:"reserve_trends,omitempty"`
}

// SummaryExporter writes the statistics summary JSON.
type SummaryExporter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewSummaryExporter creates a summary exporter.
func NewSummaryExporter(paths *config.Paths, logger *slog.Logger) *SummaryExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryExporter{paths: paths, logger: logger}
}

// ExportJSON writes the summary to paths.SummaryJSON.
func (e *SummaryExporter) ExportJSON(summary *StatisticsSummary) error {
	if err := os.MkdirAll(filepath.Dir(e.paths.SummaryJSON), 0755); err != nil {
		return fmt.Errorf("failed to create summary directory: %w", err)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal statistics summary: %w", err)
	}

	if err := os.WriteFile(e.paths.SummaryJSON, data, 0644); err != nil {
		return fmt.Errorf("failed to write statistics summary: %w", err)
	}

	e.logger.Info("exported statistics summary",
		slog.String("path", e.paths.SummaryJSON),
		slog.Int("reservoirs", len(summary.Reservoirs)))
	return nil
}
