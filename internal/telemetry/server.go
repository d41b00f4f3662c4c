package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the counter registry over HTTP for scraping.
type Server struct {
	addr     string
	counters *Counters
	server   *http.Server
	mu       sync.Mutex // protects server field
}

// NewServer creates a metrics server bound to addr. A nil Server is a no-op.
func NewServer(addr string, counters *Counters) *Server {
	if addr == "" {
		return nil
	}
	return &Server{addr: addr, counters: counters}
}

// Start begins serving /metrics in a background goroutine.
func (s *Server) Start() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("telemetry server already running on %s", s.addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.counters.Registry(), promhttp.HandlerOpts{}))

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		_ = s.server.ListenAndServe()
	}()
	return nil
}

// Stop shuts the server down, waiting for in-flight scrapes.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)
	s.server = nil
	return err
}
