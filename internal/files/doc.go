// Package files provides file system operations and discovery utilities
// for the reservoir weather pipeline.
//
// This package contains two main components:
//
// Discovery: Provides file discovery operations such as finding the
// per-reservoir input CSVs, CSV files in general, and files matching specific
// patterns. It also includes utilities for filtering files by date range and
// finding the latest file.
//
// Manager: Provides basic file management operations such as copying, moving,
// deleting files, and ensuring directories exist. All operations are relative
// to a base path to maintain portability.
//
// Example usage:
//
//	// Create a discovery instance
//	discovery := files.NewDiscovery("/path/to/base")
//
//	// Find the reservoir input files
//	inputs, err := discovery.FindReservoirFiles("data/reservoir-weather")
//
//	// Create a manager instance
//	manager := files.NewManager(paths)
//
//	// Check if file exists
//	if manager.FileExists("casasola.csv") {
//	    // Process file
//	}
package files
