package instrument

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/hpctools/kokkoprof/internal/metrics"
	"github.com/hpctools/kokkoprof/internal/tracing"
)

// Bundle is a named, startable/stoppable set of instruments for one
// measurement session. A Bundle belongs to the thread that created it and
// is not safe for concurrent use; the terminal flush into the shared
// Recorder is.
//
// Start and Stop are idempotent: a second Start while running and a Stop
// while idle are no-ops. Each completed start/stop bracket flushes one
// observation, so a section started and stopped N times contributes N
// observations under its qualified name.
type Bundle struct {
	name        string
	instruments []Instrument
	sink        *metrics.Recorder
	tracer      trace.Tracer

	running     bool
	everStarted bool
	span        trace.Span
}

// Name returns the qualified region name this bundle measures.
func (b *Bundle) Name() string { return b.name }

// Empty reports whether the bundle carries no instruments.
func (b *Bundle) Empty() bool { return len(b.instruments) == 0 }

// Running reports whether a bracket is currently open.
func (b *Bundle) Running() bool { return b.running }

// Start opens a measurement bracket. No-op while already running.
func (b *Bundle) Start() {
	if b.running {
		return
	}
	b.running = true
	b.everStarted = true

	if b.tracer != nil {
		_, b.span = tracing.StartRegionSpan(context.Background(), b.tracer, b.name)
	}
	for _, ins := range b.instruments {
		ins.Start()
	}
}

// Stop closes the bracket and flushes one observation. No-op while idle.
func (b *Bundle) Stop() {
	if !b.running {
		return
	}
	b.running = false

	// Stop in reverse so the wall clock brackets the other instruments
	// the same way it did on start.
	for i := len(b.instruments) - 1; i >= 0; i-- {
		b.instruments[i].Stop()
	}

	obs := metrics.Observation{Name: b.name}
	for _, ins := range b.instruments {
		ins.Apply(&obs)
	}
	if b.sink != nil {
		b.sink.Record(obs)
	}

	if b.span != nil {
		tracing.EndSpan(b.span)
		b.span = nil
	}
}

// Discard releases the bundle without closing an open bracket. A running
// bracket's measurements are lost, mirroring a section destroyed before
// its stop. A bundle that was never started at all is recorded as an
// unstarted session so the region still shows up in the report.
func (b *Bundle) Discard() {
	if b.span != nil {
		tracing.AbandonSpan(b.span)
		b.span = nil
	}
	if !b.everStarted && b.sink != nil {
		b.sink.Record(metrics.Observation{Name: b.name, Unstarted: true})
	}
	b.running = false
}
