package instrument

import (
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/hpctools/kokkoprof/internal/metrics"
)

// componentAliases maps accepted component-list spellings to kinds. The
// canonical names follow the timemory component vocabulary so existing
// KOKKOS_TIMEMORY_COMPONENTS settings keep working.
var componentAliases = map[string]Kind{
	"wall_clock":  KindWallClock,
	"wall-clock":  KindWallClock,
	"wallclock":   KindWallClock,
	"real_clock":  KindWallClock,
	"cpu_clock":   KindCPUTime,
	"cpu_time":    KindCPUTime,
	"cpu":         KindCPUTime,
	"peak_rss":    KindPeakRSS,
	"peakrss":     KindPeakRSS,
	"heap_alloc":  KindHeapAlloc,
	"alloc":       KindHeapAlloc,
	"allocations": KindHeapAlloc,
}

// Factory builds bundles for a fixed, init-time resolved component set.
type Factory struct {
	kinds  []Kind
	sink   *metrics.Recorder
	tracer trace.Tracer
}

// NewFactory resolves component names into a bundle factory. Unrecognized
// names are skipped, never fatal, and returned for diagnostics. Duplicate
// names collapse to one instrument.
func NewFactory(components []string, sink *metrics.Recorder, tracer trace.Tracer) (*Factory, []string) {
	f := &Factory{sink: sink, tracer: tracer}

	var skipped []string
	seen := make(map[Kind]bool)
	for _, raw := range components {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		kind, ok := componentAliases[name]
		if !ok {
			skipped = append(skipped, name)
			continue
		}
		if seen[kind] {
			continue
		}
		seen[kind] = true
		f.kinds = append(f.kinds, kind)
	}
	return f, skipped
}

// Empty reports whether bundles from this factory would measure nothing.
// The router uses this once at init to select its no-op implementation.
func (f *Factory) Empty() bool {
	return len(f.kinds) == 0 && f.tracer == nil
}

// Kinds returns the resolved instrument kinds in configuration order.
func (f *Factory) Kinds() []Kind {
	out := make([]Kind, len(f.kinds))
	copy(out, f.kinds)
	return out
}

// New constructs a bundle measuring the factory's component set for name.
func (f *Factory) New(name string) *Bundle {
	b := &Bundle{
		name:   name,
		sink:   f.sink,
		tracer: f.tracer,
	}
	for _, kind := range f.kinds {
		if ins := newInstrument(kind); ins != nil {
			b.instruments = append(b.instruments, ins)
		}
	}
	return b
}
