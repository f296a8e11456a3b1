package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"embalsescli/internal/config"
	"embalsescli/pkg/contracts/domain"
)

// DatasetExporter writes cleaned observation data back to disk: one combined
// CSV across all reservoirs plus one clean CSV per reservoir. The column
// layout matches the input files, extended with provenance and quality flags
// so a cleaned file can be told apart from a raw one.
type DatasetExporter struct {
	csv    *CSVWriter
	paths  *config.Paths
	logger *slog.Logger
}

// NewDatasetExporter creates a dataset exporter.
func NewDatasetExporter(paths *config.Paths, logger *slog.Logger) *DatasetExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetExporter{
		csv:    NewCSVWriter(paths),
		paths:  paths,
		logger: logger,
	}
}

// datasetHeaders returns the combined-CSV column layout: input schema first,
// then provenance and cleaner annotations.
func datasetHeaders() []string {
	headers := []string{"date", "embalse_codigo", "embalse_nombre", "embalse_provincia"}
	for _, f := range domain.MeasurementFields() {
		headers = append(headers, string(f))
	}
	return append(headers,
		"meteo_num_estaciones",
		"estaciones_usadas",
		"source_reservoir",
		"interpolado",
		"relleno",
		"atipico",
	)
}

// observationRecord renders one observation into the combined-CSV layout.
func observationRecord(obs *domain.Observation) []string {
	record := []string{
		formatDate(obs.Date),
		obs.ReservoirCode,
		obs.ReservoirName,
		obs.Province,
	}
	for _, f := range domain.MeasurementFields() {
		record = append(record, formatMeasurement(f, obs.Value(f)))
	}
	return append(record,
		formatInt(obs.StationsAveraged),
		strings.Join(obs.StationsUsed, config.StationListSeparator),
		obs.SourceReservoir,
		formatBool(obs.Interpolated),
		formatBool(obs.Filled),
		strings.Join(obs.OutlierFields, config.StationListSeparator),
	)
}

// ExportCombined streams the whole dataset into the combined CSV at
// paths.CombinedDataCSV. Observations are written in dataset order, so the
// caller is expected to have sorted first.
func (e *DatasetExporter) ExportCombined(ctx context.Context, dataset *domain.Dataset) error {
	e.logger.Info("exporting combined dataset",
		slog.String("path", e.paths.CombinedDataCSV),
		slog.Int("rows", dataset.Len()))

	stream, err := e.csv.CreateStreamWriter(e.paths.CombinedDataCSV, datasetHeaders())
	if err != nil {
		return fmt.Errorf("failed to create combined CSV: %w", err)
	}

	for i := range dataset.Observations {
		if err := ctx.Err(); err != nil {
			stream.Close()
			return err
		}
		if err := stream.WriteRecord(observationRecord(&dataset.Observations[i])); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	return stream.Close()
}

// ExportPerReservoir writes one clean CSV per reservoir under the reservoir
// reports directory. Returns the paths written, keyed by reservoir code.
func (e *DatasetExporter) ExportPerReservoir(ctx context.Context, dataset *domain.Dataset) (map[string]string, error) {
	written := make(map[string]string)

	for _, code := range dataset.Reservoirs() {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		subset := dataset.FilterReservoir(code)
		path := e.paths.GetReservoirReportPath(code)

		records := make([][]string, 0, subset.Len())
		for i := range subset.Observations {
			records = append(records, observationRecord(&subset.Observations[i]))
		}

		if err := e.csv.WriteSimpleCSV(path, datasetHeaders(), records); err != nil {
			return written, fmt.Errorf("failed to export reservoir %s: %w", code, err)
		}
		written[code] = path

		e.logger.Info("exported reservoir CSV",
			slog.String("reservoir", code),
			slog.String("path", path),
			slog.Int("rows", subset.Len()))
	}

	return written, nil
}
