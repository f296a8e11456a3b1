package dataprocessing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"embalsescli/internal/config"
	apperrors "embalsescli/internal/errors"
	"embalsescli/internal/files"
	"embalsescli/pkg/contracts/domain"
)

// requiredColumns must be present in every input file. Measurement columns
// may be absent; absent columns load as missing values.
var requiredColumns = []string{"date", "embalse_codigo", "embalse_nombre"}

// Loader reads per-reservoir CSV files into a Dataset.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger falls back to slog.Default.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With(slog.String("component", "loader"))}
}

// LoadFile reads a single reservoir CSV. File-level problems (missing file,
// malformed header) fail with a LoadError; cell-level problems (bad date,
// garbage numeric text) fail with a FormatError naming the offending row.
// Empty cells are legal and become missing values.
func (l *Loader) LoadFile(ctx context.Context, path string) (*domain.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewLoadError(filepath.Base(path), "cannot open input file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewLoadError(filepath.Base(path), "cannot read header row", err)
	}

	columns, err := mapColumns(filepath.Base(path), header)
	if err != nil {
		return nil, err
	}

	var observations []domain.Observation
	row := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewFormatError(filepath.Base(path), row+1, "malformed CSV record", err)
		}
		row++

		obs, err := parseObservation(filepath.Base(path), row, record, columns)
		if err != nil {
			return nil, err
		}
		observations = append(observations, obs)
	}

	l.logger.DebugContext(ctx, "loaded input file",
		slog.String("file", filepath.Base(path)),
		slog.Int("rows", len(observations)))

	return domain.NewDataset(observations), nil
}

// LoadDirectory discovers the reservoir CSVs in dir and merges them into one
// dataset sorted by (reservoir, date). include, when non-empty, restricts the
// load to the named reservoir codes. Each observation is tagged with the
// reservoir file it came from.
func (l *Loader) LoadDirectory(ctx context.Context, dir string, include []string) (*domain.Dataset, error) {
	discovery := files.NewDiscovery(dir)
	inputs, err := discovery.FindReservoirFiles(".")
	if err != nil {
		return nil, apperrors.NewLoadError(dir, "cannot discover input files", err)
	}

	wanted := make(map[string]bool, len(include))
	for _, code := range include {
		wanted[strings.ToLower(code)] = true
	}

	var selected []files.ReservoirFile
	for _, input := range inputs {
		if len(wanted) > 0 && !wanted[input.ReservoirCode] {
			continue
		}
		selected = append(selected, input)
	}
	if len(selected) == 0 {
		return nil, apperrors.NewLoadError(dir, "no reservoir input files found", nil)
	}

	var mu sync.Mutex
	merged := make([]domain.Observation, 0)

	g, gctx := errgroup.WithContext(ctx)
	for _, input := range selected {
		input := input
		g.Go(func() error {
			ds, err := l.LoadFile(gctx, input.Path)
			if err != nil {
				return err
			}
			for i := range ds.Observations {
				ds.Observations[i].SourceReservoir = input.ReservoirCode
			}
			mu.Lock()
			merged = append(merged, ds.Observations...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dataset := domain.NewDataset(merged)
	dataset.Sort()

	l.logger.InfoContext(ctx, "loaded reservoir data",
		slog.Int("files", len(selected)),
		slog.Int("rows", dataset.Len()))

	return dataset, nil
}

// mapColumns resolves header names to positions and checks the required set.
func mapColumns(file string, header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == 0 {
			// Some exports carry a UTF-8 BOM on the first header cell.
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		columns[strings.ToLower(name)] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewLoadError(file,
			fmt.Sprintf("header is missing required columns: %s", strings.Join(missing, ", ")), nil)
	}

	return columns, nil
}

// parseObservation converts one CSV record into an Observation.
func parseObservation(file string, row int, record []string, columns map[string]int) (domain.Observation, error) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var obs domain.Observation

	dateText := cell("date")
	date, err := parseDate(dateText)
	if err != nil {
		return obs, apperrors.NewFormatError(file, row,
			fmt.Sprintf("invalid date %q", dateText), err)
	}
	obs.Date = date

	obs.ReservoirCode = cell("embalse_codigo")
	obs.ReservoirName = cell("embalse_nombre")
	obs.Province = cell("embalse_provincia")

	for _, field := range domain.MeasurementFields() {
		text := cell(string(field))
		value, err := parseMeasurement(text)
		if err != nil {
			return obs, apperrors.NewFormatError(file, row,
				fmt.Sprintf("invalid value %q for %s", text, field), err)
		}
		obs.SetValue(field, value)
	}

	if text := cell("meteo_num_estaciones"); text != "" {
		count, err := strconv.Atoi(text)
		if err != nil {
			return obs, apperrors.NewFormatError(file, row,
				fmt.Sprintf("invalid station count %q", text), err)
		}
		obs.StationsAveraged = count
	}

	if text := cell("estaciones_usadas"); text != "" {
		for _, station := range strings.Split(text, config.StationListSeparator) {
			if station = strings.TrimSpace(station); station != "" {
				obs.StationsUsed = append(obs.StationsUsed, station)
			}
		}
	}

	return obs, nil
}

// parseDate parses an ISO 8601 calendar date. A timestamp suffix, as produced
// by some spreadsheet exports, is tolerated and truncated to the date.
func parseDate(text string) (time.Time, error) {
	if t, err := time.Parse(config.DateFormat, text); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02 15:04:05", text)
	if err != nil {
		return time.Time{}, err
	}
	return t.Truncate(24 * time.Hour), nil
}

// parseMeasurement parses a numeric cell. Empty and NA-style cells are
// missing values, not errors.
func parseMeasurement(text string) (float64, error) {
	switch strings.ToLower(text) {
	case "", "na", "nan", "null":
		return domain.Missing(), nil
	}
	return strconv.ParseFloat(text, 64)
}
