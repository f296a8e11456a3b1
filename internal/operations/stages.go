package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"embalsescli/internal/analysis"
	"embalsescli/internal/config"
	"embalsescli/internal/dataprocessing"
	"embalsescli/internal/exporter"
	"embalsescli/internal/files"
	"embalsescli/pkg/contracts/domain"
)

// LoadStep reads the raw reservoir CSV files into one dataset.
type LoadStep struct {
	BaseStage
	loader *dataprocessing.Loader
	paths  *config.Paths
	logger *slog.Logger
}

// NewLoadStep creates the load step.
func NewLoadStep(paths *config.Paths, logger *slog.Logger) *LoadStep {
	return &LoadStep{
		BaseStage: NewBaseStage(StepIDLoad, "Load reservoir data"),
		loader:    dataprocessing.NewLoader(logger),
		paths:     paths,
		logger:    logger,
	}
}

// Execute loads every matching CSV under the data directory and applies the
// requested date window.
func (s *LoadStep) Execute(ctx context.Context, state *OperationState) error {
	dataset, err := s.loader.LoadDirectory(ctx, s.paths.DataDir, state.Request.Include)
	if err != nil {
		return err
	}

	from, to, err := parseWindow(state.Request)
	if err != nil {
		return err
	}
	if !from.IsZero() || !to.IsZero() {
		dataset = dataset.FilterWindow(from, to)
	}

	state.Artifacts.Dataset = dataset
	if step := state.GetStep(StepIDLoad); step != nil {
		step.SetMetadata("rows", dataset.Len())
		step.SetMetadata("reservoirs", len(dataset.Reservoirs()))
	}
	return nil
}

// parseWindow parses the optional from/to dates of a request.
func parseWindow(req OperationRequest) (from, to time.Time, err error) {
	if req.FromDate != "" {
		from, err = time.Parse(config.DateFormat, req.FromDate)
		if err != nil {
			return time.Time{}, time.Time{}, NewValidationError(StepIDLoad, fmt.Sprintf("invalid from_date %q", req.FromDate))
		}
	}
	if req.ToDate != "" {
		to, err = time.Parse(config.DateFormat, req.ToDate)
		if err != nil {
			return time.Time{}, time.Time{}, NewValidationError(StepIDLoad, fmt.Sprintf("invalid to_date %q", req.ToDate))
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return time.Time{}, time.Time{}, NewValidationError(StepIDLoad, "to_date precedes from_date")
	}
	return from, to, nil
}

// CleanStep normalizes the loaded dataset in place.
type CleanStep struct {
	BaseStage
	cleaner *dataprocessing.Cleaner
}

// NewCleanStep creates the clean step.
func NewCleanStep(cfg config.CleaningConfig, logger *slog.Logger) *CleanStep {
	return &CleanStep{
		BaseStage: NewBaseStage(StepIDClean, "Clean dataset"),
		cleaner:   dataprocessing.NewCleaner(cfg, logger),
	}
}

// Validate requires a loaded dataset.
func (s *CleanStep) Validate(state *OperationState) error {
	if state.Artifacts.Dataset == nil {
		return NewValidationError(StepIDClean, "no dataset loaded")
	}
	return nil
}

// Execute runs the cleaning pass and records its report.
func (s *CleanStep) Execute(ctx context.Context, state *OperationState) error {
	report, err := s.cleaner.Clean(ctx, state.Artifacts.Dataset)
	if err != nil {
		return err
	}
	state.Artifacts.CleanReport = report

	if step := state.GetStep(StepIDClean); step != nil {
		step.SetMetadata("rows_out", report.RowsOut)
		step.SetMetadata("duplicates_removed", report.DuplicatesRemoved)
		step.SetMetadata("calendar_rows_added", report.CalendarRowsAdded)
	}
	return nil
}

// ValidateStep checks quality rules and measures completeness.
type ValidateStep struct {
	BaseStage
	validator *dataprocessing.Validator
}

// NewValidateStep creates the validate step.
func NewValidateStep(logger *slog.Logger) *ValidateStep {
	return &ValidateStep{
		BaseStage: NewBaseStage(StepIDValidate, "Validate dataset"),
		validator: dataprocessing.NewValidator(logger),
	}
}

// Validate requires a loaded dataset.
func (s *ValidateStep) Validate(state *OperationState) error {
	if state.Artifacts.Dataset == nil {
		return NewValidationError(StepIDValidate, "no dataset loaded")
	}
	return nil
}

// Execute produces the quality report. Violations never fail the run.
func (s *ValidateStep) Execute(ctx context.Context, state *OperationState) error {
	report, err := s.validator.Validate(ctx, state.Artifacts.Dataset)
	if err != nil {
		return err
	}
	state.Artifacts.QualityReport = report

	if step := state.GetStep(StepIDValidate); step != nil {
		step.SetMetadata("violations", len(report.Violations))
		step.SetMetadata("completeness", report.Completeness)
	}
	return nil
}

// AnalyzeStep computes descriptive statistics and reserve trends.
type AnalyzeStep struct {
	BaseStage
	analyzer *analysis.Analyzer
	logger   *slog.Logger
}

// NewAnalyzeStep creates the analyze step.
func NewAnalyzeStep(logger *slog.Logger) *AnalyzeStep {
	return &AnalyzeStep{
		BaseStage: NewBaseStage(StepIDAnalyze, "Analyze dataset"),
		analyzer:  analysis.NewAnalyzer(logger),
		logger:    logger,
	}
}

// Validate requires a loaded dataset.
func (s *AnalyzeStep) Validate(state *OperationState) error {
	if state.Artifacts.Dataset == nil {
		return NewValidationError(StepIDAnalyze, "no dataset loaded")
	}
	return nil
}

// Execute summarizes every reservoir and fits the reserve-volume trend where
// the series is long enough. Reservoirs too thin to fit are skipped.
func (s *AnalyzeStep) Execute(ctx context.Context, state *OperationState) error {
	dataset := state.Artifacts.Dataset

	summary := &exporter.StatisticsSummary{
		GeneratedAt: time.Now().UTC(),
		Reservoirs:  s.analyzer.Summary(ctx, dataset),
		Trends:      make(map[string]analysis.TrendResult),
	}

	for _, code := range dataset.Reservoirs() {
		trend, err := s.analyzer.Trend(dataset, code, domain.FieldReserveVolume)
		if err != nil {
			s.logger.Warn("skipping reserve trend",
				slog.String("reservoir", code),
				slog.String("error", err.Error()))
			continue
		}
		summary.Trends[code] = trend
	}

	state.Artifacts.Summary = summary
	if step := state.GetStep(StepIDAnalyze); step != nil {
		step.SetMetadata("reservoirs", len(summary.Reservoirs))
	}
	return nil
}

// ExportStep writes every output artifact to disk.
type ExportStep struct {
	BaseStage
	datasets *exporter.DatasetExporter
	quality  *exporter.QualityExporter
	summary  *exporter.SummaryExporter
	files    *files.Manager
	paths    *config.Paths
}

// NewExportStep creates the export step.
func NewExportStep(paths *config.Paths, logger *slog.Logger) *ExportStep {
	return &ExportStep{
		BaseStage: NewBaseStage(StepIDExport, "Export results"),
		datasets:  exporter.NewDatasetExporter(paths, logger),
		quality:   exporter.NewQualityExporter(paths, logger),
		summary:   exporter.NewSummaryExporter(paths, logger),
		files:     files.NewManager(paths),
		paths:     paths,
	}
}

// Validate requires a loaded dataset; the remaining artifacts are optional so
// partial runs still export what they produced.
func (s *ExportStep) Validate(state *OperationState) error {
	if state.Artifacts.Dataset == nil {
		return NewValidationError(StepIDExport, "no dataset loaded")
	}
	return nil
}

// Execute writes the combined CSV, per-reservoir CSVs and, when present, the
// quality report and statistics summary.
func (s *ExportStep) Execute(ctx context.Context, state *OperationState) error {
	written := map[string]string{}

	if err := s.datasets.ExportCombined(ctx, state.Artifacts.Dataset); err != nil {
		return err
	}
	written["combined"] = s.paths.CombinedDataCSV

	perReservoir, err := s.datasets.ExportPerReservoir(ctx, state.Artifacts.Dataset)
	if err != nil {
		return err
	}
	for code, path := range perReservoir {
		written["reservoir:"+code] = path
	}

	if report := state.Artifacts.QualityReport; report != nil {
		if err := s.quality.ExportJSON(report); err != nil {
			return err
		}
		written["quality_json"] = s.paths.QualityJSON

		if err := s.quality.ExportWorkbook(report); err != nil {
			return err
		}
		written["quality_workbook"] = s.paths.QualityWorkbook
	}

	if summary := state.Artifacts.Summary; summary != nil {
		if err := s.summary.ExportJSON(summary); err != nil {
			return err
		}
		written["summary_json"] = s.paths.SummaryJSON
	}

	state.Artifacts.WrittenFiles = written
	if step := state.GetStep(StepIDExport); step != nil {
		step.SetMetadata("files_written", len(written))
		step.SetMetadata("bytes_written", s.totalBytes(written))
	}
	return nil
}

// totalBytes sums the sizes of the written artifacts.
func (s *ExportStep) totalBytes(written map[string]string) int64 {
	var total int64
	for _, path := range written {
		if size, err := s.files.GetFileSize(path); err == nil {
			total += size
		}
	}
	return total
}
