package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// This is the single source of truth for file locations in the application.
type Paths struct {
	BaseDir    string
	DataDir    string
	ReportsDir string
	LogsDir    string

	// Report subdirectories
	ReservoirReportsDir string
	CombinedReportsDir  string
	QualityReportsDir   string
	SummaryReportsDir   string

	// Well-known report files
	CombinedDataCSV  string
	QualityJSON      string
	QualityWorkbook  string
	SummaryJSON      string
}

// GetPaths returns the application paths relative to the executable location,
// so the pipeline behaves identically regardless of the working directory.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return NewPaths(filepath.Dir(exe)), nil
}

// NewPaths builds the path set rooted at baseDir. The CLI uses this when the
// user overrides directories; tests use it with t.TempDir().
//
// Directory structure:
//
//	base/
//	  ├── data/
//	  │   ├── reservoir-weather/  (input CSV files, one per reservoir)
//	  │   └── reports/            (generated artifacts)
//	  │       ├── reservoir/      (per-reservoir cleaned CSVs)
//	  │       ├── combined/       (merged dataset CSV)
//	  │       ├── quality/        (quality report JSON + workbook)
//	  │       └── summary/        (statistics summaries)
//	  └── logs/
func NewPaths(baseDir string) *Paths {
	dataDir := filepath.Join(baseDir, "data", "reservoir-weather")
	reportsDir := filepath.Join(baseDir, "data", "reports")

	reservoirDir := filepath.Join(reportsDir, "reservoir")
	combinedDir := filepath.Join(reportsDir, "combined")
	qualityDir := filepath.Join(reportsDir, "quality")
	summaryDir := filepath.Join(reportsDir, "summary")

	return &Paths{
		BaseDir:    baseDir,
		DataDir:    dataDir,
		ReportsDir: reportsDir,
		LogsDir:    filepath.Join(baseDir, "logs"),

		ReservoirReportsDir: reservoirDir,
		CombinedReportsDir:  combinedDir,
		QualityReportsDir:   qualityDir,
		SummaryReportsDir:   summaryDir,

		CombinedDataCSV: filepath.Join(combinedDir, "embalses_combined.csv"),
		QualityJSON:     filepath.Join(qualityDir, "quality_report.json"),
		QualityWorkbook: filepath.Join(qualityDir, "quality_report.xlsx"),
		SummaryJSON:     filepath.Join(summaryDir, "statistics_summary.json"),
	}
}

// EnsureDirectories creates all required directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.ReportsDir,
		p.ReservoirReportsDir,
		p.CombinedReportsDir,
		p.QualityReportsDir,
		p.SummaryReportsDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// GetDataPath returns the path of an input file inside the data directory.
func (p *Paths) GetDataPath(filename string) string {
	return filepath.Join(p.DataDir, filename)
}

// GetReportPath returns the path of a file inside the reports directory.
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetReservoirReportPath returns the cleaned-CSV path for one reservoir.
func (p *Paths) GetReservoirReportPath(code string) string {
	return filepath.Join(p.ReservoirReportsDir, fmt.Sprintf("%s_clean.csv", code))
}

// GetLogPath returns the path of a log file inside the logs directory.
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}
