// Package metrics aggregates completed region measurements by qualified name.
//
// Metric bundles flush one [Observation] per region execution at stop time;
// the [Recorder] folds observations into per-region aggregates backed by an
// HDR histogram of wall times.
//
//	rec := metrics.NewRecorder()
//	rec.Record(metrics.Observation{Name: "kokkos/dev0/saxpy", Wall: 3 * time.Millisecond})
//
//	report := rec.Stats()
//
// The [Report] snapshot carries rows sorted by total wall time, each with
// call counts, min/max/mean, P50/P90/P99 percentiles and resource sums.
//
// # Thread Safety
//
// Recorder is safe for concurrent use: observations may be flushed from any
// goroutine. Session registries stay lock-free; only this terminal sink
// takes a mutex.
package metrics
