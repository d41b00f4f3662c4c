// Package registry holds the per-thread measurement session state: handle
// allocation, the kernel and section maps, and the push/pop region stack.
//
// The host runtime calls back on arbitrary threads with no context object,
// so state is keyed by goroutine identity in a shared table. Each entry is
// touched only by its owning goroutine on the hot path; the table itself
// is the only shared structure.
package registry

import (
	"sync"

	"github.com/petermattis/goid"

	"github.com/hpctools/kokkoprof/internal/instrument"
	"github.com/hpctools/kokkoprof/internal/telemetry"
)

// Registry is the goroutine-identity-keyed table of thread states.
type Registry struct {
	threads  sync.Map // int64 goroutine id -> *ThreadState
	factory  *instrument.Factory
	counters *telemetry.Counters
}

// New creates a Registry producing bundles from factory. counters may be
// nil, in which case anomalies go uncounted.
func New(factory *instrument.Factory, counters *telemetry.Counters) *Registry {
	return &Registry{factory: factory, counters: counters}
}

// Current returns the calling goroutine's thread state, creating it on
// first use. Handles allocated here are invisible to other goroutines.
func (r *Registry) Current() *ThreadState {
	id := goid.Get()
	if v, ok := r.threads.Load(id); ok {
		return v.(*ThreadState)
	}
	ts := newThreadState(r.factory, r.counters)
	actual, _ := r.threads.LoadOrStore(id, ts)
	return actual.(*ThreadState)
}

// Sweep stops and discards every still-live session across all thread
// states, then clears the table. Called at library finalize, when the
// runtime guarantees no callbacks are in flight.
func (r *Registry) Sweep() (leaked int) {
	r.threads.Range(func(key, value any) bool {
		leaked += value.(*ThreadState).close()
		r.threads.Delete(key)
		return true
	})
	return leaked
}
