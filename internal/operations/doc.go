// Package operations orchestrates the data pipeline: load, clean, validate,
// analyze, export.
//
// A run is described by an OperationRequest and executed by the Manager,
// either synchronously (Execute) or in the background (ExecuteAsync). Steps
// run strictly in pipeline order; requesting a single step runs the pipeline
// prefix ending at that step, so every step always sees the artifacts of its
// predecessors. A failed step aborts the run and the remaining steps are
// marked skipped.
//
// Steps communicate through the typed Artifacts struct on OperationState:
// the load step fills the dataset, cleaning and validation attach their
// reports, analysis attaches the statistics summary, and export records the
// files it wrote. The manager publishes per-step durations and domain
// counters to Prometheus after each step completes.
package operations
