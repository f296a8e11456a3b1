// Package exporter writes the pipeline's output artifacts.
//
// This package contains four main components:
//
// CSVWriter: Core CSV writing functionality with support for headers,
// streaming, and UTF-8 BOM for Excel compatibility.
//
// DatasetExporter: Writes the cleaned dataset back to disk, both as one
// combined CSV across all reservoirs and as one clean CSV per reservoir, in
// the input column layout extended with quality flags.
//
// QualityExporter: Persists the validation report as JSON and as an Excel
// workbook with Summary, Violations and Completeness sheets.
//
// SummaryExporter: Writes the per-reservoir descriptive statistics and
// reserve-volume trends produced by the analysis stage as JSON.
//
// Example usage:
//
//	datasets := exporter.NewDatasetExporter(paths, logger)
//	if err := datasets.ExportCombined(ctx, dataset); err != nil {
//		return err
//	}
//
//	quality := exporter.NewQualityExporter(paths, logger)
//	err := quality.ExportWorkbook(report)
package exporter
