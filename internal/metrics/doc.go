// Package metrics provides lock-free counters for storeauth observability.
//
// # Design
//
// Counters are stored in a fixed array of atomic uint64 slots indexed by
// [MetricID]. Increments are allocation-free; [Metrics.Snapshot] deep-copies
// the non-zero values for exporters.
//
// # Architecture boundaries
//
// This package owns metric storage and snapshot creation. Metric export
// (Prometheus, OTel) lives in metrics/export/ and reads Snapshot values.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Import storeauth or any sibling package.
//   - Expose global metric registries.
package metrics
