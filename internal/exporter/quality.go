package exporter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"embalsescli/internal/config"
	"embalsescli/pkg/contracts/domain"
)

// QualityExporter persists a quality report in two shapes: a JSON document
// for programmatic consumers and an Excel workbook for manual review.
type QualityExporter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewQualityExporter creates a quality exporter.
func NewQualityExporter(paths *config.Paths, logger *slog.Logger) *QualityExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &QualityExporter{paths: paths, logger: logger}
}

// ExportJSON writes the quality report to paths.QualityJSON.
func (e *QualityExporter) ExportJSON(report *domain.QualityReport) error {
	if err := os.MkdirAll(filepath.Dir(e.paths.QualityJSON), 0755); err != nil {
		return fmt.Errorf("failed to create quality report directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal quality report: %w", err)
	}

	if err := os.WriteFile(e.paths.QualityJSON, data, 0644); err != nil {
		return fmt.Errorf("failed to write quality report: %w", err)
	}

	e.logger.Info("exported quality report JSON",
		slog.String("path", e.paths.QualityJSON),
		slog.Int("violations", len(report.Violations)))
	return nil
}

// ExportWorkbook writes the quality report as an Excel workbook with Summary,
// Violations and Completeness sheets at paths.QualityWorkbook.
func (e *QualityExporter) ExportWorkbook(report *domain.QualityReport) error {
	if err := os.MkdirAll(filepath.Dir(e.paths.QualityWorkbook), 0755); err != nil {
		return fmt.Errorf("failed to create quality report directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := e.writeSummarySheet(f, report); err != nil {
		return err
	}
	if err := e.writeViolationsSheet(f, report); err != nil {
		return err
	}
	if err := e.writeCompletenessSheet(f, report); err != nil {
		return err
	}

	if err := f.SaveAs(e.paths.QualityWorkbook); err != nil {
		return fmt.Errorf("failed to save quality workbook: %w", err)
	}

	e.logger.Info("exported quality workbook",
		slog.String("path", e.paths.QualityWorkbook))
	return nil
}

func (e *QualityExporter) writeSummarySheet(f *excelize.File, report *domain.QualityReport) error {
	const sheet = "Summary"
	// Rename the default sheet rather than leaving an empty Sheet1 around.
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	iqrOutliers := 0
	for _, n := range report.IQROutliers {
		iqrOutliers += n
	}

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Generated at", report.GeneratedAt.Format(config.DateFormat + " 15:04:05")},
		{"Total records", report.TotalRecords},
		{"Reservoirs", report.Reservoirs},
		{"Overall completeness", report.Completeness},
		{"Range violations", report.RangeViolations},
		{"Ordering violations", report.OrderViolations},
		{"Outliers flagged", report.OutliersFlagged},
		{"IQR outliers", iqrOutliers},
		{"Duplicate dates", report.DuplicateDates},
	}
	return writeSheetRows(f, sheet, rows)
}

func (e *QualityExporter) writeViolationsSheet(f *excelize.File, report *domain.QualityReport) error {
	const sheet = "Violations"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create violations sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Reservoir", "Date", "Field", "Type", "Value"},
	}
	for _, v := range report.Violations {
		rows = append(rows, []interface{}{
			v.Key.ReservoirCode, v.Key.Date, v.Field, string(v.Type), v.Value,
		})
	}
	return writeSheetRows(f, sheet, rows)
}

func (e *QualityExporter) writeCompletenessSheet(f *excelize.File, report *domain.QualityReport) error {
	const sheet = "Completeness"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create completeness sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Reservoir", "Start", "End", "Expected days", "Present days", "Missing cells", "Completeness", "Max gap (days)"},
	}

	codes := make([]string, 0, len(report.PerReservoir))
	for code := range report.PerReservoir {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		c := report.PerReservoir[code]
		rows = append(rows, []interface{}{
			c.ReservoirCode,
			c.StartDate.Format(config.DateFormat),
			c.EndDate.Format(config.DateFormat),
			c.ExpectedDays,
			c.PresentDays,
			c.MissingCells,
			c.Completeness,
			c.MaxGapDays,
		})
	}
	return writeSheetRows(f, sheet, rows)
}

// writeSheetRows fills a sheet row by row starting at A1.
func writeSheetRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to compute cell for row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
