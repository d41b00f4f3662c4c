//go:build unix

package instrument

import (
	"runtime"
	"time"

	"golang.org/x/sys/unix"

	"github.com/hpctools/kokkoprof/internal/metrics"
)

func processRusage() (cpu time.Duration, peakRSS int64, ok bool) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, 0, false
	}
	cpu = time.Duration(ru.Utime.Nano()) + time.Duration(ru.Stime.Nano())
	peakRSS = ru.Maxrss
	// Linux reports ru_maxrss in kilobytes, darwin in bytes.
	if runtime.GOOS != "darwin" {
		peakRSS *= 1024
	}
	return cpu, peakRSS, true
}

// cpuTime measures user+system CPU time consumed by the process across
// the bracket.
type cpuTime struct {
	begin time.Duration
	delta time.Duration
}

func (c *cpuTime) Kind() Kind { return KindCPUTime }

func (c *cpuTime) Start() {
	if cpu, _, ok := processRusage(); ok {
		c.begin = cpu
	}
}

func (c *cpuTime) Stop() {
	if cpu, _, ok := processRusage(); ok && cpu >= c.begin {
		c.delta = cpu - c.begin
	}
}

func (c *cpuTime) Apply(obs *metrics.Observation) {
	obs.CPU = c.delta
}

// peakRSS samples the resident-set high-water mark at stop time. The
// kernel counter is monotonic, so the stop sample is the peak observed
// up to and including the bracket.
type peakRSS struct {
	value int64
}

func (p *peakRSS) Kind() Kind { return KindPeakRSS }

func (p *peakRSS) Start() {}

func (p *peakRSS) Stop() {
	if _, rss, ok := processRusage(); ok {
		p.value = rss
	}
}

func (p *peakRSS) Apply(obs *metrics.Observation) {
	obs.PeakRSS = p.value
}
