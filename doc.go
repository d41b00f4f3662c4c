// Package kokkoprof is a profiling connector for Kokkos-style parallel
// runtimes: it receives kernel and region lifecycle callbacks and
// aggregates per-region timing and resource usage.
//
// The runtime drives the connector through begin/end pairs correlated by
// numeric handles:
//
//	conn := kokkoprof.New()
//	conn.Init(0, 1, 0, nil)
//
//	h := conn.BeginParallelFor("saxpy", 0)
//	// ... kernel executes ...
//	conn.EndParallelFor(h)
//
//	conn.PushRegion("solver")
//	conn.PopRegion()
//
//	id := conn.CreateSection("phase1")
//	conn.StartSection(id)
//	conn.StopSection(id)
//	conn.DestroySection(id)
//
//	conn.Finalize() // sweeps leaked sessions, emits the report
//
// Handles are allocated per thread and must be ended on the thread that
// began them; each thread's registry is isolated, which keeps the event
// path free of locks. Unknown handles, double ends and pops of an empty
// stack are tolerated as silent no-ops (counted in the connector's own
// telemetry), because the runtime has no channel to receive an error.
//
// # Configuration
//
// Behavior is resolved from the environment once at Init:
//
//   - KOKKOS_TIMEMORY_COMPONENTS selects instruments (wall_clock,
//     cpu_clock, peak_rss, heap_alloc; semicolon-delimited). The default
//     is "wall_clock;peak_rss", or nothing when KOKKOS_ROOFLINE is set.
//   - KOKKOPROF_OUTPUT_DIR writes a JSON report file at finalize;
//     KOKKOPROF_JSON switches console output to JSON; KOKKOPROF_QUIET
//     suppresses the banner and the console report.
//   - KOKKOPROF_PROM_ADDR serves the connector's health counters for
//     Prometheus scraping; KOKKOPROF_TRACE_ENDPOINT exports one
//     OpenTelemetry span per measured region over OTLP.
//
// When the resolved component set is empty and tracing is off, Init
// installs a no-op event router: callbacks cost a single atomic load and
// no sessions are ever created.
package kokkoprof
