package kokkoprof

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hpctools/kokkoprof/internal/config"
	"github.com/hpctools/kokkoprof/internal/instrument"
	"github.com/hpctools/kokkoprof/internal/metrics"
	"github.com/hpctools/kokkoprof/internal/output"
	"github.com/hpctools/kokkoprof/internal/registry"
	"github.com/hpctools/kokkoprof/internal/telemetry"
	"github.com/hpctools/kokkoprof/internal/tracing"
)

const spacer = "#---------------------------------------------------------------------------#"

const shutdownTimeout = 5 * time.Second

// Connector is the callback surface handed to the host runtime. All
// methods are safe to call from any thread the runtime chooses and never
// return errors: the runtime has no channel to receive one.
type Connector struct {
	writer     io.Writer
	configFile string

	// router is swapped atomically at init/finalize so the hot-path
	// callbacks stay lock-free.
	router atomic.Pointer[router]

	mu        sync.Mutex
	cfg       *config.Config
	recorder  *metrics.Recorder
	provider  *tracing.Provider
	counters  *telemetry.Counters
	server    *telemetry.Server
	runID     string
	active    bool
	finalized bool
	report    metrics.Report
}

// Option configures a Connector before Init.
type Option func(*Connector)

// WithWriter redirects banner and report output. Defaults to stdout.
func WithWriter(w io.Writer) Option {
	return func(c *Connector) { c.writer = w }
}

// WithConfigFile overlays a YAML or JSON config file on top of the
// environment at Init time. Mainly for the replay CLI; embedded use
// configures through the environment alone.
func WithConfigFile(path string) Option {
	return func(c *Connector) { c.configFile = path }
}

// New creates an idle Connector. Callbacks before Init are no-ops.
func New(opts ...Option) *Connector {
	c := &Connector{
		writer: os.Stdout,
	}
	c.setRouter(nopRouter{})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Connector) setRouter(r router) {
	c.router.Store(&r)
}

func (c *Connector) currentRouter() router {
	return *c.router.Load()
}

// Init handles the library-init lifecycle event: it resolves
// configuration, brings up the measurement subsystem and selects the
// router implementation. Calling Init on an already-initialized Connector
// is a no-op. Malformed configuration never fails the host process.
func (c *Connector) Init(loadSeq int32, interfaceVer uint64, devInfoCount uint32, deviceInfo any) {
	_ = deviceInfo // opaque runtime payload, unused

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return
	}

	cfg, err := config.Load(c.configFile)
	if err != nil {
		fmt.Fprintf(c.writer, "# KokkosP: config file ignored: %v\n", err)
		cfg = config.FromEnv()
	}
	c.cfg = cfg
	c.runID = output.NewRunID()

	if !cfg.Quiet {
		fmt.Fprintln(c.writer, spacer)
		fmt.Fprintf(c.writer, "# KokkosP: kokkoprof connector (sequence is %d, version: %d)\n", loadSeq, interfaceVer)
		fmt.Fprintln(c.writer, spacer)
	}

	provider, err := tracing.Init(context.Background(), cfg.Tracing)
	if err != nil {
		// Span export is an extra; measurement proceeds without it.
		if !cfg.Quiet {
			fmt.Fprintf(c.writer, "# KokkosP: tracing disabled: %v\n", err)
		}
		provider = nil
	}
	c.provider = provider

	c.recorder = metrics.NewRecorder()
	factory, skipped := instrument.NewFactory(cfg.Components, c.recorder, provider.Tracer())
	if len(skipped) > 0 && !cfg.Quiet {
		fmt.Fprintf(c.writer, "# KokkosP: skipping unrecognized components: %s\n", strings.Join(skipped, ", "))
	}
	if len(cfg.PapiEvents) > 0 && !cfg.Quiet {
		fmt.Fprintf(c.writer, "# KokkosP: hardware counter events not supported, ignoring: %s\n", strings.Join(cfg.PapiEvents, ", "))
	}

	c.counters = telemetry.New()
	c.server = telemetry.NewServer(cfg.PromAddr, c.counters)
	if err := c.server.Start(); err != nil && !cfg.Quiet {
		fmt.Fprintf(c.writer, "# KokkosP: telemetry server not started: %v\n", err)
	}

	if factory.Empty() {
		// Zero metrics configured: every subsequent event is a complete
		// no-op, decided here rather than per call.
		c.setRouter(nopRouter{})
	} else {
		c.setRouter(&activeRouter{reg: registry.New(factory, c.counters)})
	}

	c.active = true
	c.finalized = false
}

// Finalize handles the library-finalize event: it sweeps still-live
// sessions, emits the report and tears the subsystem down. Idempotent.
func (c *Connector) Finalize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || c.finalized {
		return
	}
	c.finalized = true
	c.active = false

	leaked := c.currentRouter().sweep()

	report := c.recorder.Stats()
	report.RunID = c.runID
	c.report = report

	if c.cfg.JSONOutput {
		_ = output.PrintJSONReport(c.writer, report)
	} else if !c.cfg.Quiet {
		output.PrintReport(c.writer, report)
		if leaked > 0 {
			fmt.Fprintf(c.writer, "\nSwept %d unterminated session(s) at finalize.\n", leaked)
		}
		fmt.Fprintf(c.writer, "\n%s\n", spacer)
		fmt.Fprintln(c.writer, "# KokkosP: kokkoprof connector finalized.")
		fmt.Fprintln(c.writer, spacer)
	}

	if c.cfg.OutputDir != "" {
		if path, err := output.WriteJSONReport(c.cfg.OutputDir, report); err != nil {
			if !c.cfg.Quiet {
				fmt.Fprintf(c.writer, "# KokkosP: report not written: %v\n", err)
			}
		} else if !c.cfg.Quiet {
			fmt.Fprintf(c.writer, "# KokkosP: report written to %s\n", path)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = c.provider.Shutdown(ctx)
	_ = c.server.Stop(ctx)

	c.setRouter(nopRouter{})
}

// Report returns the region report computed by the last Finalize. The
// zero Report is returned before finalization.
func (c *Connector) Report() metrics.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report
}

// BeginParallelFor handles the begin event of a parallel-for kernel and
// returns the correlation handle for the matching end event.
func (c *Connector) BeginParallelFor(name string, deviceID uint32) uint64 {
	return c.currentRouter().beginKernel(name, deviceID)
}

// EndParallelFor stops and destroys the session begun under handle.
func (c *Connector) EndParallelFor(handle uint64) {
	c.currentRouter().endKernel(handle)
}

// BeginParallelReduce handles the begin event of a parallel-reduce kernel.
func (c *Connector) BeginParallelReduce(name string, deviceID uint32) uint64 {
	return c.currentRouter().beginKernel(name, deviceID)
}

// EndParallelReduce stops and destroys the session begun under handle.
func (c *Connector) EndParallelReduce(handle uint64) {
	c.currentRouter().endKernel(handle)
}

// BeginParallelScan handles the begin event of a parallel-scan kernel.
func (c *Connector) BeginParallelScan(name string, deviceID uint32) uint64 {
	return c.currentRouter().beginKernel(name, deviceID)
}

// EndParallelScan stops and destroys the session begun under handle.
func (c *Connector) EndParallelScan(handle uint64) {
	c.currentRouter().endKernel(handle)
}

// PushRegion starts a named region and pushes it onto the calling
// thread's region stack.
func (c *Connector) PushRegion(name string) {
	c.currentRouter().pushRegion(name)
}

// PopRegion stops and removes the top of the region stack. Tolerant of an
// empty stack.
func (c *Connector) PopRegion() {
	c.currentRouter().popRegion()
}

// CreateSection registers a profile section and returns its id. The
// section is not started; StartSection begins measurement.
func (c *Connector) CreateSection(name string) uint32 {
	return c.currentRouter().createSection(name)
}

// DestroySection discards the section. No implicit stop is performed: a
// section destroyed mid-measurement loses that bracket.
func (c *Connector) DestroySection(id uint32) {
	c.currentRouter().destroySection(id)
}

// StartSection begins a measurement bracket for the section.
func (c *Connector) StartSection(id uint32) {
	c.currentRouter().startSection(id)
}

// StopSection closes the section's measurement bracket.
func (c *Connector) StopSection(id uint32) {
	c.currentRouter().stopSection(id)
}
