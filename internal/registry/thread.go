package registry

import (
	"github.com/hpctools/kokkoprof/internal/instrument"
	"github.com/hpctools/kokkoprof/internal/telemetry"
)

// ThreadState is one goroutine's session registry. All methods except
// close are invoked only by the owning goroutine, so no locking is needed
// beyond the table lookup that produced the state.
type ThreadState struct {
	nextID   uint64
	kernels  map[uint64]*instrument.Bundle
	sections map[uint32]*instrument.Bundle
	stack    []*instrument.Bundle

	factory  *instrument.Factory
	counters *telemetry.Counters
}

func newThreadState(factory *instrument.Factory, counters *telemetry.Counters) *ThreadState {
	return &ThreadState{
		kernels:  make(map[uint64]*instrument.Bundle),
		sections: make(map[uint32]*instrument.Bundle),
		factory:  factory,
		counters: counters,
	}
}

// NextHandle returns this thread's next correlation id. Values start at 0
// and strictly increase for the life of the thread; wraparound at 2^64 is
// not guarded. Section ids share the same sequence, truncated to 32 bits.
func (t *ThreadState) NextHandle() uint64 {
	h := t.nextID
	t.nextID++
	return h
}

// CreateKernel registers a new bundle for name under handle. A live
// session already holding the handle is discarded and overwritten; the
// collision is counted but not treated as an error.
func (t *ThreadState) CreateKernel(name string, handle uint64) *instrument.Bundle {
	if old, ok := t.kernels[handle]; ok {
		if t.counters != nil {
			t.counters.DuplicateHandles.Inc()
		}
		old.Discard()
	}
	b := t.factory.New(name)
	t.kernels[handle] = b
	if t.counters != nil {
		t.counters.SessionsOpened.Inc()
	}
	return b
}

// StartKernel starts the session under handle; no-op when absent.
func (t *ThreadState) StartKernel(handle uint64) {
	if b, ok := t.kernels[handle]; ok {
		b.Start()
	} else {
		t.unknown("start")
	}
}

// StopKernel stops the session under handle; no-op when absent.
func (t *ThreadState) StopKernel(handle uint64) {
	if b, ok := t.kernels[handle]; ok {
		b.Stop()
	} else {
		t.unknown("stop")
	}
}

// DestroyKernel removes the session under handle, releasing its bundle.
// No implicit stop: an open bracket's measurements are dropped.
func (t *ThreadState) DestroyKernel(handle uint64) {
	b, ok := t.kernels[handle]
	if !ok {
		t.unknown("destroy")
		return
	}
	delete(t.kernels, handle)
	b.Discard()
	if t.counters != nil {
		t.counters.SessionsClosed.Inc()
	}
}

// CreateSection registers a bundle for name under the 32-bit section id
// without starting it. Collision semantics match CreateKernel.
func (t *ThreadState) CreateSection(name string, id uint32) *instrument.Bundle {
	if old, ok := t.sections[id]; ok {
		if t.counters != nil {
			t.counters.DuplicateHandles.Inc()
		}
		old.Discard()
	}
	b := t.factory.New(name)
	t.sections[id] = b
	if t.counters != nil {
		t.counters.SessionsOpened.Inc()
	}
	return b
}

// StartSection starts the section's bundle; no-op when absent.
func (t *ThreadState) StartSection(id uint32) {
	if b, ok := t.sections[id]; ok {
		b.Start()
	} else {
		t.unknown("start_section")
	}
}

// StopSection stops the section's bundle; no-op when absent.
func (t *ThreadState) StopSection(id uint32) {
	if b, ok := t.sections[id]; ok {
		b.Stop()
	} else {
		t.unknown("stop_section")
	}
}

// DestroySection removes the section, discarding its bundle without an
// implicit stop.
func (t *ThreadState) DestroySection(id uint32) {
	b, ok := t.sections[id]
	if !ok {
		t.unknown("destroy_section")
		return
	}
	delete(t.sections, id)
	b.Discard()
	if t.counters != nil {
		t.counters.SessionsClosed.Inc()
	}
}

// Push creates and starts a bundle for name and appends it to the region
// stack.
func (t *ThreadState) Push(name string) {
	b := t.factory.New(name)
	b.Start()
	t.stack = append(t.stack, b)
	if t.counters != nil {
		t.counters.SessionsOpened.Inc()
	}
}

// Pop stops and removes the top of the region stack. Popping an empty
// stack is a counted no-op.
func (t *ThreadState) Pop() {
	if len(t.stack) == 0 {
		if t.counters != nil {
			t.counters.EmptyPops.Inc()
		}
		return
	}
	top := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	top.Stop()
	if t.counters != nil {
		t.counters.SessionsClosed.Inc()
	}
}

// LiveKernels returns the number of live kernel sessions.
func (t *ThreadState) LiveKernels() int { return len(t.kernels) }

// LiveSections returns the number of live section sessions.
func (t *ThreadState) LiveSections() int { return len(t.sections) }

// StackDepth returns the current region stack depth.
func (t *ThreadState) StackDepth() int { return len(t.stack) }

// close stops and discards everything still live, returning the number of
// leaked sessions cleaned up.
func (t *ThreadState) close() int {
	leaked := 0
	for h, b := range t.kernels {
		b.Stop()
		b.Discard()
		delete(t.kernels, h)
		leaked++
	}
	for id, b := range t.sections {
		b.Stop()
		b.Discard()
		delete(t.sections, id)
		leaked++
	}
	for _, b := range t.stack {
		b.Stop()
		leaked++
	}
	t.stack = nil
	if t.counters != nil {
		t.counters.SessionsClosed.Add(float64(leaked))
	}
	return leaked
}

func (t *ThreadState) unknown(op string) {
	if t.counters != nil {
		t.counters.UnknownHandles.WithLabelValues(op).Inc()
	}
}
