package metrics

import (
	"sort"
	"time"
)

// RegionStats is an aggregated snapshot for one qualified region name.
type RegionStats struct {
	Name      string        `json:"name"`
	Count     int64         `json:"count"`
	Unstarted int64         `json:"unstarted,omitempty"`
	MinWall   time.Duration `json:"-"`
	MaxWall   time.Duration `json:"-"`
	MeanWall  time.Duration `json:"-"`
	TotalWall time.Duration `json:"-"`
	P50Wall   time.Duration `json:"-"`
	P90Wall   time.Duration `json:"-"`
	P99Wall   time.Duration `json:"-"`
	TotalCPU  time.Duration `json:"-"`

	// JSON-friendly millisecond fields.
	MinWallMs   float64 `json:"min_wall_ms"`
	MaxWallMs   float64 `json:"max_wall_ms"`
	MeanWallMs  float64 `json:"mean_wall_ms"`
	TotalWallMs float64 `json:"total_wall_ms"`
	P50WallMs   float64 `json:"p50_wall_ms"`
	P90WallMs   float64 `json:"p90_wall_ms"`
	P99WallMs   float64 `json:"p99_wall_ms"`
	TotalCPUMs  float64 `json:"total_cpu_ms"`

	AllocBytes   int64 `json:"alloc_bytes"`
	PeakRSSBytes int64 `json:"peak_rss_bytes"`
}

// Report is a full snapshot of every region aggregated by a Recorder.
type Report struct {
	RunID     string        `json:"run_id,omitempty"`
	Elapsed   time.Duration `json:"-"`
	ElapsedMs float64       `json:"elapsed_ms"`
	Regions   []RegionStats `json:"regions"`
}

// Stats computes and returns a snapshot of all region aggregates,
// sorted by total wall time descending.
func (r *Recorder) Stats() Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([]RegionStats, 0, len(r.regions))
	for name, rs := range r.regions {
		row := RegionStats{
			Name:      name,
			Count:     rs.count,
			Unstarted: rs.unstarted,
			MinWall:   rs.minWall,
			MaxWall:   rs.maxWall,
			TotalWall: rs.sumWall,
			TotalCPU:  rs.sumCPU,

			AllocBytes:   rs.sumAlloc,
			PeakRSSBytes: rs.peakRSS,
		}
		if rs.count > 0 {
			row.MeanWall = time.Duration(int64(rs.sumWall) / rs.count)
		}
		if rs.hist.TotalCount() > 0 {
			row.P50Wall = time.Duration(rs.hist.ValueAtQuantile(50)) * time.Microsecond
			row.P90Wall = time.Duration(rs.hist.ValueAtQuantile(90)) * time.Microsecond
			row.P99Wall = time.Duration(rs.hist.ValueAtQuantile(99)) * time.Microsecond
		}

		row.MinWallMs = toMs(row.MinWall)
		row.MaxWallMs = toMs(row.MaxWall)
		row.MeanWallMs = toMs(row.MeanWall)
		row.TotalWallMs = toMs(row.TotalWall)
		row.P50WallMs = toMs(row.P50Wall)
		row.P90WallMs = toMs(row.P90Wall)
		row.P99WallMs = toMs(row.P99Wall)
		row.TotalCPUMs = toMs(row.TotalCPU)

		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalWall == rows[j].TotalWall {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].TotalWall > rows[j].TotalWall
	})

	elapsed := time.Since(r.start)
	return Report{
		Elapsed:   elapsed,
		ElapsedMs: toMs(elapsed),
		Regions:   rows,
	}
}

func toMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
