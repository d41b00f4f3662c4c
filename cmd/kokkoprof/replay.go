package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/hpctools/kokkoprof"
	"github.com/hpctools/kokkoprof/internal/threshold"
)

// replayStats summarizes one replay pass.
type replayStats struct {
	events  int
	skipped int
}

func runReplay(w io.Writer, tracePath, cfgFile string, eventsPerSec float64, thresholdExprs []string) error {
	thresholds, err := threshold.ParseMultiple(thresholdExprs)
	if err != nil {
		return err
	}

	f, err := os.Open(tracePath)
	if err != nil {
		return fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()

	var limiter *rate.Limiter
	if eventsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(eventsPerSec), 1)
	}

	conn := kokkoprof.New(
		kokkoprof.WithWriter(w),
		kokkoprof.WithConfigFile(cfgFile),
	)
	conn.Init(0, 1, 0, nil)

	stats, err := replayEvents(context.Background(), conn, f, limiter)

	// Finalize regardless: a truncated trace still yields a report for
	// everything replayed so far.
	conn.Finalize()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\nReplayed %d event(s)", stats.events)
	if stats.skipped > 0 {
		fmt.Fprintf(w, ", skipped %d unrecognized line(s)", stats.skipped)
	}
	fmt.Fprintln(w)

	if len(thresholds) > 0 {
		results := threshold.Evaluate(thresholds, conn.Report())
		fmt.Fprintln(w, "\nThresholds:")
		for _, r := range results {
			fmt.Fprintf(w, "  %s\n", r.Message)
		}
		if !threshold.AllPassed(results) {
			return fmt.Errorf("threshold check failed")
		}
	}
	return nil
}

// replayEvents drives conn with each trace line in order. Handles and
// section ids recorded in the trace are remapped to the ones the live
// connector allocates.
func replayEvents(ctx context.Context, conn *kokkoprof.Connector, r io.Reader, limiter *rate.Limiter) (replayStats, error) {
	var stats replayStats
	handles := make(map[int64]uint64)
	sections := make(map[int64]uint32)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !gjson.Valid(line) {
			stats.skipped++
			continue
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return stats, err
			}
		}

		event := gjson.Get(line, "event").String()
		name := gjson.Get(line, "name").String()
		device := uint32(gjson.Get(line, "device").Uint())
		traceHandle := gjson.Get(line, "handle").Int()
		traceSection := gjson.Get(line, "section").Int()

		switch event {
		case "begin_for":
			handles[traceHandle] = conn.BeginParallelFor(name, device)
		case "begin_reduce":
			handles[traceHandle] = conn.BeginParallelReduce(name, device)
		case "begin_scan":
			handles[traceHandle] = conn.BeginParallelScan(name, device)
		case "end_for":
			if h, ok := handles[traceHandle]; ok {
				conn.EndParallelFor(h)
				delete(handles, traceHandle)
			}
		case "end_reduce":
			if h, ok := handles[traceHandle]; ok {
				conn.EndParallelReduce(h)
				delete(handles, traceHandle)
			}
		case "end_scan":
			if h, ok := handles[traceHandle]; ok {
				conn.EndParallelScan(h)
				delete(handles, traceHandle)
			}
		case "push_region":
			conn.PushRegion(name)
		case "pop_region":
			conn.PopRegion()
		case "create_section":
			sections[traceSection] = conn.CreateSection(name)
		case "start_section":
			if id, ok := sections[traceSection]; ok {
				conn.StartSection(id)
			}
		case "stop_section":
			if id, ok := sections[traceSection]; ok {
				conn.StopSection(id)
			}
		case "destroy_section":
			if id, ok := sections[traceSection]; ok {
				conn.DestroySection(id)
				delete(sections, traceSection)
			}
		default:
			stats.skipped++
			continue
		}
		stats.events++
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read trace: %w", err)
	}
	return stats, nil
}
