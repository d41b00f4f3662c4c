package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Observation is one completed region measurement flushed by a metric bundle.
type Observation struct {
	Name      string
	Wall      time.Duration
	CPU       time.Duration
	Alloc     int64 // heap bytes allocated during the region
	PeakRSS   int64 // resident-set high-water mark in bytes, 0 when not sampled
	Unstarted bool  // session destroyed without ever being started
}

// regionStats accumulates measurements for a single qualified region name.
type regionStats struct {
	hist      *hdrhistogram.Histogram
	count     int64
	unstarted int64
	minWall   time.Duration
	maxWall   time.Duration
	sumWall   time.Duration
	sumCPU    time.Duration
	sumAlloc  int64
	peakRSS   int64
}

// Recorder aggregates region observations in a thread-safe manner.
// Bundles on any goroutine flush into the same Recorder at stop time;
// the per-thread session registries stay lock-free, only the terminal
// flush contends here.
type Recorder struct {
	mu      sync.Mutex
	regions map[string]*regionStats
	start   time.Time
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		regions: make(map[string]*regionStats),
		start:   time.Now(),
	}
}

// Record folds one observation into the named region's aggregate.
func (r *Recorder) Record(obs Observation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, ok := r.regions[obs.Name]
	if !ok {
		// Track wall times from 1µs up to 1h with 3 significant figures.
		rs = &regionStats{hist: hdrhistogram.New(1, 3_600_000_000, 3)}
		r.regions[obs.Name] = rs
	}

	if obs.Unstarted {
		rs.unstarted++
		return
	}

	rs.count++

	us := obs.Wall.Microseconds()
	if us < rs.hist.LowestTrackableValue() {
		us = rs.hist.LowestTrackableValue()
	}
	if us > rs.hist.HighestTrackableValue() {
		us = rs.hist.HighestTrackableValue()
	}
	_ = rs.hist.RecordValue(us)

	rs.sumWall += obs.Wall
	if rs.minWall == 0 || obs.Wall < rs.minWall {
		rs.minWall = obs.Wall
	}
	if obs.Wall > rs.maxWall {
		rs.maxWall = obs.Wall
	}

	rs.sumCPU += obs.CPU
	rs.sumAlloc += obs.Alloc
	if obs.PeakRSS > rs.peakRSS {
		rs.peakRSS = obs.PeakRSS
	}
}

// RegionCount returns the number of distinct region names observed so far.
func (r *Recorder) RegionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.regions)
}
