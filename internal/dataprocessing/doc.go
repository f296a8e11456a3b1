// Package dataprocessing implements the ingestion half of the reservoir
// weather pipeline: loading the per-reservoir CSV files, cleaning the merged
// dataset and validating it.
//
// # Architecture
//
// The package is organized into three main components:
//
// 1. Loader: reads reservoir CSVs into an in-memory Dataset
// 2. Cleaner: rounds, deduplicates, materializes the daily calendar and fills gaps
// 3. Validator: checks physical ranges and ordering and measures completeness
//
// # Usage
//
// Basic loading example:
//
//	loader := dataprocessing.NewLoader(logger)
//	dataset, err := loader.LoadDirectory(ctx, "data/reservoir-weather", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Cleaning and validation:
//
//	cleaner := dataprocessing.NewCleaner(cfg.Cleaning, logger)
//	cleanReport, _ := cleaner.Clean(ctx, dataset)
//
//	validator := dataprocessing.NewValidator(logger)
//	quality, _ := validator.Validate(ctx, dataset)
//
// # Data Flow
//
// The typical data flow through this package:
//
//	CSV files → Loader → Dataset → Cleaner → cleaned Dataset → Validator → QualityReport
//
// # Error Handling
//
// File-level input problems surface as load errors, cell-level problems as
// format errors naming the offending row. Quality violations are never
// errors: the validator accumulates them in the report and the run continues.
//
// # Testing
//
// The package includes comprehensive tests for all components.
// Use table-driven tests when adding new functionality.
package dataprocessing
