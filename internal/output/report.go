// Package output renders finalize-time region reports.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/oklog/ulid/v2"

	"github.com/hpctools/kokkoprof/internal/metrics"
)

// NewRunID mints a lexicographically sortable run identifier used to name
// report files, so repeated runs into a shared output directory never
// collide.
func NewRunID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// PrintReport writes a human-readable region summary.
func PrintReport(w io.Writer, report metrics.Report) {
	fmt.Fprintln(w, "\n--- Kokkos Region Profile ---")
	fmt.Fprintf(w, "Regions:           %d\n", len(report.Regions))
	fmt.Fprintf(w, "Elapsed:           %s\n", report.Elapsed)
	if report.RunID != "" {
		fmt.Fprintf(w, "Run ID:            %s\n", report.RunID)
	}

	for _, row := range report.Regions {
		fmt.Fprintf(w, "\n%s\n", row.Name)
		fmt.Fprintf(w, "  Calls:           %d\n", row.Count)
		if row.Unstarted > 0 {
			fmt.Fprintf(w, "  Never started:   %d\n", row.Unstarted)
		}
		if row.Count == 0 {
			continue
		}
		fmt.Fprintf(w, "  Total wall:      %s\n", row.TotalWall)
		fmt.Fprintf(w, "  Min/Mean/Max:    %s / %s / %s\n", row.MinWall, row.MeanWall, row.MaxWall)
		fmt.Fprintf(w, "  P50/P90/P99:     %s / %s / %s\n", row.P50Wall, row.P90Wall, row.P99Wall)
		if row.TotalCPU > 0 {
			fmt.Fprintf(w, "  Total CPU:       %s\n", row.TotalCPU)
		}
		if row.AllocBytes > 0 {
			fmt.Fprintf(w, "  Heap alloc:      %s\n", formatBytes(row.AllocBytes))
		}
		if row.PeakRSSBytes > 0 {
			fmt.Fprintf(w, "  Peak RSS:        %s\n", formatBytes(row.PeakRSSBytes))
		}
	}
}

// PrintJSONReport writes the report as indented JSON.
func PrintJSONReport(w io.Writer, report metrics.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// WriteJSONReport writes the report to <dir>/kokkoprof-<runID>.json. The
// directory is created if missing, and a directory-level lock file
// serializes writers from concurrent ranks sharing the same output
// directory.
func WriteJSONReport(dir string, report metrics.Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	lock := flock.New(filepath.Join(dir, "kokkoprof.lock"))
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("lock output dir: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	runID := report.RunID
	if runID == "" {
		runID = NewRunID()
		report.RunID = runID
	}

	path := filepath.Join(dir, fmt.Sprintf("kokkoprof-%s.json", runID))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	if err := PrintJSONReport(f, report); err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return path, nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
