//go:build !unix

package instrument

import (
	"time"

	"github.com/hpctools/kokkoprof/internal/metrics"
)

func processRusage() (cpu time.Duration, peakRSS int64, ok bool) {
	return 0, 0, false
}

type cpuTime struct{}

func (c *cpuTime) Kind() Kind                     { return KindCPUTime }
func (c *cpuTime) Start()                         {}
func (c *cpuTime) Stop()                          {}
func (c *cpuTime) Apply(obs *metrics.Observation) {}

type peakRSS struct{}

func (p *peakRSS) Kind() Kind                     { return KindPeakRSS }
func (p *peakRSS) Start()                         {}
func (p *peakRSS) Stop()                          {}
func (p *peakRSS) Apply(obs *metrics.Observation) {}
