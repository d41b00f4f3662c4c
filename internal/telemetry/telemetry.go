// Package telemetry exposes the connector's own health counters.
//
// These are not the region measurements (see internal/metrics); they count
// protocol anomalies the tolerant callback contract absorbs silently:
// duplicate handles, operations on unknown handles, pops of an empty stack.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Counters holds the connector self-observability metrics.
type Counters struct {
	registry *prometheus.Registry

	SessionsOpened   prometheus.Counter
	SessionsClosed   prometheus.Counter
	DuplicateHandles prometheus.Counter
	UnknownHandles   *prometheus.CounterVec
	EmptyPops        prometheus.Counter
}

// New creates the counter set registered on a private registry.
func New() *Counters {
	c := &Counters{
		registry: prometheus.NewRegistry(),

		SessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kokkoprof",
			Name:      "sessions_opened_total",
			Help:      "Total measurement sessions created",
		}),
		SessionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kokkoprof",
			Name:      "sessions_closed_total",
			Help:      "Total measurement sessions destroyed",
		}),
		DuplicateHandles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kokkoprof",
			Name:      "duplicate_handles_total",
			Help:      "Create calls that overwrote a live handle",
		}),
		UnknownHandles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kokkoprof",
			Name:      "unknown_handles_total",
			Help:      "Operations addressed to a handle with no live session",
		}, []string{"op"}),
		EmptyPops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kokkoprof",
			Name:      "empty_pops_total",
			Help:      "Pop operations issued against an empty region stack",
		}),
	}

	c.registry.MustRegister(
		c.SessionsOpened,
		c.SessionsClosed,
		c.DuplicateHandles,
		c.UnknownHandles,
		c.EmptyPops,
	)
	return c
}

// Registry returns the underlying Prometheus registry.
func (c *Counters) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}
