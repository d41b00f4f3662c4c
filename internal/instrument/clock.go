package instrument

import (
	"runtime"
	"time"

	"github.com/hpctools/kokkoprof/internal/metrics"
)

// wallClock measures elapsed monotonic time across the bracket.
type wallClock struct {
	begin   time.Time
	elapsed time.Duration
}

func (w *wallClock) Kind() Kind { return KindWallClock }

func (w *wallClock) Start() {
	w.begin = time.Now()
}

func (w *wallClock) Stop() {
	if !w.begin.IsZero() {
		w.elapsed = time.Since(w.begin)
	}
}

func (w *wallClock) Apply(obs *metrics.Observation) {
	obs.Wall = w.elapsed
}

// heapAlloc measures bytes allocated on the heap during the bracket.
// ReadMemStats is process-wide, so concurrent allocators bleed into the
// figure; it is an attribution hint, not an exact per-region cost.
type heapAlloc struct {
	begin uint64
	delta int64
}

func (h *heapAlloc) Kind() Kind { return KindHeapAlloc }

func (h *heapAlloc) Start() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	h.begin = ms.TotalAlloc
}

func (h *heapAlloc) Stop() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.TotalAlloc >= h.begin {
		h.delta = int64(ms.TotalAlloc - h.begin)
	}
}

func (h *heapAlloc) Apply(obs *metrics.Observation) {
	obs.Alloc = h.delta
}
