package kokkoprof_test

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpctools/kokkoprof"
)

type reportRegion struct {
	Name      string `json:"name"`
	Count     int64  `json:"count"`
	Unstarted int64  `json:"unstarted"`
}

type report struct {
	RunID   string         `json:"run_id"`
	Regions []reportRegion `json:"regions"`
}

// newJSONConnector builds an initialized connector whose only output is
// the JSON report, captured in the returned buffer at Finalize.
func newJSONConnector(t *testing.T) (*kokkoprof.Connector, *bytes.Buffer) {
	t.Helper()
	t.Setenv("KOKKOS_TIMEMORY_COMPONENTS", "wall_clock")
	t.Setenv("KOKKOS_ROOFLINE", "")
	t.Setenv("KOKKOPROF_QUIET", "true")
	t.Setenv("KOKKOPROF_JSON", "true")
	t.Setenv("KOKKOPROF_OUTPUT_DIR", "")
	t.Setenv("KOKKOPROF_PROM_ADDR", "")
	t.Setenv("KOKKOPROF_TRACE_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	var buf bytes.Buffer
	conn := kokkoprof.New(kokkoprof.WithWriter(&buf))
	conn.Init(0, 1, 0, nil)
	return conn, &buf
}

func decodeReport(t *testing.T, buf *bytes.Buffer) report {
	t.Helper()
	var r report
	if err := json.Unmarshal(buf.Bytes(), &r); err != nil {
		t.Fatalf("decode report: %v\noutput: %s", err, buf.String())
	}
	return r
}

func TestKernelRegionName(t *testing.T) {
	if got := kokkoprof.KernelRegionName(2, "saxpy"); got != "kokkos/dev2/saxpy" {
		t.Errorf("KernelRegionName = %q, want kokkos/dev2/saxpy", got)
	}
	if got := kokkoprof.SectionRegionName(7, "phase1"); got != "kokkos/section7/phase1" {
		t.Errorf("SectionRegionName = %q, want kokkos/section7/phase1", got)
	}
}

func TestBeginEndRecordsQualifiedName(t *testing.T) {
	conn, buf := newJSONConnector(t)

	h := conn.BeginParallelFor("saxpy", 2)
	conn.EndParallelFor(h)
	conn.Finalize()

	r := decodeReport(t, buf)
	if len(r.Regions) != 1 {
		t.Fatalf("regions = %d, want 1", len(r.Regions))
	}
	if r.Regions[0].Name != "kokkos/dev2/saxpy" {
		t.Errorf("region name = %q, want kokkos/dev2/saxpy", r.Regions[0].Name)
	}
	if r.Regions[0].Count != 1 {
		t.Errorf("count = %d, want 1", r.Regions[0].Count)
	}
	if r.RunID == "" {
		t.Error("report should carry a run id")
	}
}

func TestEndWithoutExplicitStartStop(t *testing.T) {
	conn, buf := newJSONConnector(t)

	// The end event issues stop-then-destroy internally; the caller
	// never touches start/stop for kernels.
	h := conn.BeginParallelFor("init_kernel", 0)
	conn.EndParallelFor(h)
	conn.Finalize()

	r := decodeReport(t, buf)
	if len(r.Regions) != 1 || r.Regions[0].Count != 1 {
		t.Errorf("unexpected report: %+v", r.Regions)
	}
}

func TestReduceAndScanVariants(t *testing.T) {
	conn, buf := newJSONConnector(t)

	hr := conn.BeginParallelReduce("dot", 0)
	conn.EndParallelReduce(hr)
	hs := conn.BeginParallelScan("prefix", 1)
	conn.EndParallelScan(hs)
	conn.Finalize()

	r := decodeReport(t, buf)
	names := make(map[string]bool)
	for _, row := range r.Regions {
		names[row.Name] = true
	}
	if !names["kokkos/dev0/dot"] || !names["kokkos/dev1/prefix"] {
		t.Errorf("unexpected region names: %v", names)
	}
}

func TestSectionLifecycle(t *testing.T) {
	conn, buf := newJSONConnector(t)

	id := conn.CreateSection("phase1")
	conn.StartSection(id)
	conn.StopSection(id)
	conn.DestroySection(id)
	conn.Finalize()

	r := decodeReport(t, buf)
	if len(r.Regions) != 1 {
		t.Fatalf("regions = %d, want 1", len(r.Regions))
	}
	want := kokkoprof.SectionRegionName(id, "phase1")
	if r.Regions[0].Name != want {
		t.Errorf("section region = %q, want %q", r.Regions[0].Name, want)
	}
	if r.Regions[0].Count != 1 {
		t.Errorf("count = %d, want 1", r.Regions[0].Count)
	}
}

func TestStopSectionStopsRatherThanStarts(t *testing.T) {
	conn, buf := newJSONConnector(t)

	id := conn.CreateSection("phase1")
	conn.StartSection(id)
	conn.StopSection(id)
	// A stop on an already-stopped section must not open a new bracket:
	// a second stop and the destroy contribute no further observations.
	conn.StopSection(id)
	conn.DestroySection(id)
	conn.Finalize()

	r := decodeReport(t, buf)
	if r.Regions[0].Count != 1 {
		t.Errorf("count = %d, want exactly 1 bracket", r.Regions[0].Count)
	}
}

func TestPushPopRegions(t *testing.T) {
	conn, buf := newJSONConnector(t)

	conn.PushRegion("outer")
	conn.PushRegion("inner")
	conn.PopRegion()
	conn.PopRegion()
	conn.PopRegion() // empty stack: tolerated
	conn.Finalize()

	r := decodeReport(t, buf)
	names := make(map[string]int64)
	for _, row := range r.Regions {
		names[row.Name] = row.Count
	}
	// Push/pop regions report under their raw name, no namespace prefix.
	if names["outer"] != 1 || names["inner"] != 1 {
		t.Errorf("unexpected regions: %v", names)
	}
}

func TestUnknownHandleOperationsTolerated(t *testing.T) {
	conn, buf := newJSONConnector(t)

	conn.EndParallelFor(9999)
	conn.StartSection(9999)
	conn.StopSection(9999)
	conn.DestroySection(9999)
	conn.Finalize()

	r := decodeReport(t, buf)
	if len(r.Regions) != 0 {
		t.Errorf("unknown-handle operations created regions: %+v", r.Regions)
	}
}

func TestZeroMetricConfigurationIsNoop(t *testing.T) {
	t.Setenv("KOKKOS_TIMEMORY_COMPONENTS", "")
	t.Setenv("KOKKOS_ROOFLINE", "true")
	t.Setenv("KOKKOPROF_QUIET", "true")
	t.Setenv("KOKKOPROF_JSON", "true")
	t.Setenv("KOKKOPROF_OUTPUT_DIR", "")
	t.Setenv("KOKKOPROF_PROM_ADDR", "")
	t.Setenv("KOKKOPROF_TRACE_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	var buf bytes.Buffer
	conn := kokkoprof.New(kokkoprof.WithWriter(&buf))
	conn.Init(0, 1, 0, nil)

	h := conn.BeginParallelFor("saxpy", 0)
	conn.EndParallelFor(h)
	conn.PushRegion("r")
	conn.PopRegion()
	id := conn.CreateSection("s")
	conn.StartSection(id)
	conn.DestroySection(id)
	conn.Finalize()

	r := decodeReport(t, &buf)
	if len(r.Regions) != 0 {
		t.Errorf("zero-metric run recorded regions: %+v", r.Regions)
	}
}

func TestCallbacksBeforeInitAreNoops(t *testing.T) {
	var buf bytes.Buffer
	conn := kokkoprof.New(kokkoprof.WithWriter(&buf))

	h := conn.BeginParallelFor("early", 0)
	conn.EndParallelFor(h)
	conn.PopRegion()
	conn.Finalize() // never initialized: nothing to do

	if buf.Len() != 0 {
		t.Errorf("uninitialized connector produced output: %s", buf.String())
	}
}

func TestReportAccessor(t *testing.T) {
	conn, _ := newJSONConnector(t)

	if got := conn.Report(); len(got.Regions) != 0 {
		t.Errorf("report before finalize = %+v, want zero value", got)
	}

	h := conn.BeginParallelFor("saxpy", 0)
	conn.EndParallelFor(h)
	conn.Finalize()

	got := conn.Report()
	if len(got.Regions) != 1 || got.Regions[0].Name != "kokkos/dev0/saxpy" {
		t.Errorf("report after finalize = %+v", got.Regions)
	}
	if got.RunID == "" {
		t.Error("finalized report should carry the run id")
	}
}

func TestFinalizeIdempotent(t *testing.T) {
	conn, buf := newJSONConnector(t)

	h := conn.BeginParallelFor("k", 0)
	conn.EndParallelFor(h)
	conn.Finalize()
	first := buf.String()
	conn.Finalize()

	if buf.String() != first {
		t.Error("second Finalize produced additional output")
	}
}

func TestFinalizeSweepsLeakedSessions(t *testing.T) {
	conn, buf := newJSONConnector(t)

	conn.BeginParallelFor("leaked", 0) // no matching end
	conn.PushRegion("leaked-region")   // no matching pop
	conn.Finalize()

	r := decodeReport(t, buf)
	counts := make(map[string]int64)
	for _, row := range r.Regions {
		counts[row.Name] = row.Count
	}
	if counts["kokkos/dev0/leaked"] != 1 || counts["leaked-region"] != 1 {
		t.Errorf("sweep did not flush leaked sessions: %v", counts)
	}
}

func TestUnrecognizedComponentsSkippedWithNote(t *testing.T) {
	t.Setenv("KOKKOS_TIMEMORY_COMPONENTS", "wall_clock;made_up_metric")
	t.Setenv("KOKKOS_ROOFLINE", "")
	t.Setenv("KOKKOPROF_QUIET", "")
	t.Setenv("KOKKOPROF_JSON", "")
	t.Setenv("KOKKOPROF_OUTPUT_DIR", "")
	t.Setenv("KOKKOPROF_PROM_ADDR", "")
	t.Setenv("KOKKOPROF_TRACE_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	var buf bytes.Buffer
	conn := kokkoprof.New(kokkoprof.WithWriter(&buf))
	conn.Init(3, 20210623, 0, nil)

	if !strings.Contains(buf.String(), "made_up_metric") {
		t.Error("expected a note about the skipped component")
	}
	if !strings.Contains(buf.String(), "sequence is 3") {
		t.Error("expected init banner with load sequence")
	}

	// The recognized component still measures.
	h := conn.BeginParallelFor("k", 0)
	conn.EndParallelFor(h)
	conn.Finalize()
	if !strings.Contains(buf.String(), "kokkos/dev0/k") {
		t.Error("recognized component should still produce a report row")
	}
}

func TestReportFileWritten(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("KOKKOS_TIMEMORY_COMPONENTS", "wall_clock")
	t.Setenv("KOKKOS_ROOFLINE", "")
	t.Setenv("KOKKOPROF_QUIET", "true")
	t.Setenv("KOKKOPROF_JSON", "")
	t.Setenv("KOKKOPROF_OUTPUT_DIR", dir)
	t.Setenv("KOKKOPROF_PROM_ADDR", "")
	t.Setenv("KOKKOPROF_TRACE_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	var buf bytes.Buffer
	conn := kokkoprof.New(kokkoprof.WithWriter(&buf))
	conn.Init(0, 1, 0, nil)
	h := conn.BeginParallelFor("k", 0)
	conn.EndParallelFor(h)
	conn.Finalize()

	matches, err := filepath.Glob(filepath.Join(dir, "kokkoprof-*.json"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("report files = %v, want exactly one", matches)
	}
}
