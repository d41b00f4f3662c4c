package instrument

import (
	"github.com/hpctools/kokkoprof/internal/metrics"
)

// Kind identifies one measurement capability.
type Kind string

const (
	KindWallClock Kind = "wall_clock"
	KindCPUTime   Kind = "cpu_time"
	KindPeakRSS   Kind = "peak_rss"
	KindHeapAlloc Kind = "heap_alloc"
)

// Instrument measures one quantity over a start/stop bracket.
// Instruments are single-use within a bracket: Start arms the baseline,
// Stop captures the delta, Apply writes the result into an observation.
type Instrument interface {
	Kind() Kind
	Start()
	Stop()
	Apply(obs *metrics.Observation)
}

// newInstrument constructs the instrument for a known kind.
func newInstrument(kind Kind) Instrument {
	switch kind {
	case KindWallClock:
		return &wallClock{}
	case KindCPUTime:
		return &cpuTime{}
	case KindPeakRSS:
		return &peakRSS{}
	case KindHeapAlloc:
		return &heapAlloc{}
	}
	return nil
}
