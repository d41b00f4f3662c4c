package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpctools/kokkoprof"
)

func setConnectorEnv(t *testing.T) {
	t.Helper()
	t.Setenv("KOKKOS_TIMEMORY_COMPONENTS", "wall_clock")
	t.Setenv("KOKKOS_ROOFLINE", "")
	t.Setenv("KOKKOPROF_QUIET", "true")
	t.Setenv("KOKKOPROF_JSON", "true")
	t.Setenv("KOKKOPROF_OUTPUT_DIR", "")
	t.Setenv("KOKKOPROF_PROM_ADDR", "")
	t.Setenv("KOKKOPROF_TRACE_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
}

const sampleTrace = `# captured trace
{"event":"begin_for","name":"saxpy","device":0,"handle":1}
{"event":"end_for","handle":1}
{"event":"begin_reduce","name":"dot","device":2,"handle":2}
{"event":"end_reduce","handle":2}
{"event":"push_region","name":"solver"}
{"event":"pop_region"}
{"event":"create_section","name":"phase1","section":1}
{"event":"start_section","section":1}
{"event":"stop_section","section":1}
{"event":"destroy_section","section":1}
`

func TestReplayEvents(t *testing.T) {
	setConnectorEnv(t)

	var buf bytes.Buffer
	conn := kokkoprof.New(kokkoprof.WithWriter(&buf))
	conn.Init(0, 1, 0, nil)

	stats, err := replayEvents(context.Background(), conn, strings.NewReader(sampleTrace), nil)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if stats.events != 10 {
		t.Errorf("events = %d, want 10", stats.events)
	}
	if stats.skipped != 0 {
		t.Errorf("skipped = %d, want 0", stats.skipped)
	}

	conn.Finalize()

	var report struct {
		Regions []struct {
			Name string `json:"name"`
		} `json:"regions"`
	}
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, buf.String())
	}
	names := make(map[string]bool)
	for _, r := range report.Regions {
		names[r.Name] = true
	}
	for _, want := range []string{"kokkos/dev0/saxpy", "kokkos/dev2/dot", "solver"} {
		if !names[want] {
			t.Errorf("report missing region %q (have %v)", want, names)
		}
	}
	// Section region names embed the id the connector allocated.
	found := false
	for name := range names {
		if strings.HasPrefix(name, "kokkos/section") && strings.HasSuffix(name, "/phase1") {
			found = true
		}
	}
	if !found {
		t.Errorf("report missing section region (have %v)", names)
	}
}

func TestReplaySkipsGarbageLines(t *testing.T) {
	setConnectorEnv(t)

	trace := `not json at all
{"event":"teleport","name":"x"}
{"event":"push_region","name":"ok"}
{"event":"pop_region"}
`
	var buf bytes.Buffer
	conn := kokkoprof.New(kokkoprof.WithWriter(&buf))
	conn.Init(0, 1, 0, nil)

	stats, err := replayEvents(context.Background(), conn, strings.NewReader(trace), nil)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	conn.Finalize()

	if stats.events != 2 {
		t.Errorf("events = %d, want 2", stats.events)
	}
	if stats.skipped != 2 {
		t.Errorf("skipped = %d, want 2", stats.skipped)
	}
}

func TestReplayUnmatchedEndsTolerated(t *testing.T) {
	setConnectorEnv(t)

	trace := `{"event":"end_for","handle":99}
{"event":"stop_section","section":42}
{"event":"push_region","name":"r"}
{"event":"pop_region"}
`
	var buf bytes.Buffer
	conn := kokkoprof.New(kokkoprof.WithWriter(&buf))
	conn.Init(0, 1, 0, nil)

	if _, err := replayEvents(context.Background(), conn, strings.NewReader(trace), nil); err != nil {
		t.Fatalf("replay: %v", err)
	}
	conn.Finalize()
}

func TestRunReplayEndToEnd(t *testing.T) {
	setConnectorEnv(t)
	t.Setenv("KOKKOPROF_JSON", "")

	dir := t.TempDir()
	tracePath := filepath.Join(dir, "trace.jsonl")
	if err := os.WriteFile(tracePath, []byte(sampleTrace), 0o644); err != nil {
		t.Fatalf("write trace: %v", err)
	}

	var buf bytes.Buffer
	if err := runReplay(&buf, tracePath, "", 0, nil); err != nil {
		t.Fatalf("runReplay: %v", err)
	}
	if !strings.Contains(buf.String(), "Replayed 10 event(s)") {
		t.Errorf("missing replay summary:\n%s", buf.String())
	}
}

func TestRunReplayThresholds(t *testing.T) {
	setConnectorEnv(t)
	t.Setenv("KOKKOPROF_JSON", "")
	t.Setenv("KOKKOPROF_QUIET", "true")

	dir := t.TempDir()
	tracePath := filepath.Join(dir, "trace.jsonl")
	if err := os.WriteFile(tracePath, []byte(sampleTrace), 0o644); err != nil {
		t.Fatalf("write trace: %v", err)
	}

	var buf bytes.Buffer
	passing := []string{"kokkos/dev0/saxpy:count == 1", "solver:total < 60000"}
	if err := runReplay(&buf, tracePath, "", 0, passing); err != nil {
		t.Fatalf("runReplay with passing thresholds: %v\n%s", err, buf.String())
	}
	if !strings.Contains(buf.String(), "Thresholds:") {
		t.Errorf("missing threshold section:\n%s", buf.String())
	}

	buf.Reset()
	failing := []string{"kokkos/dev0/saxpy:count == 7"}
	if err := runReplay(&buf, tracePath, "", 0, failing); err == nil {
		t.Error("expected error for failing threshold")
	}

	buf.Reset()
	if err := runReplay(&buf, tracePath, "", 0, []string{"garbage"}); err == nil {
		t.Error("expected error for malformed threshold")
	}
}

func TestRunReplayMissingTrace(t *testing.T) {
	var buf bytes.Buffer
	if err := runReplay(&buf, "/does/not/exist.jsonl", "", 0, nil); err == nil {
		t.Error("expected error for missing trace file")
	}
}

func TestReplayCommandFlags(t *testing.T) {
	setConnectorEnv(t)

	dir := t.TempDir()
	tracePath := filepath.Join(dir, "trace.jsonl")
	if err := os.WriteFile(tracePath, []byte(sampleTrace), 0o644); err != nil {
		t.Fatalf("write trace: %v", err)
	}

	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"replay", "--quiet", "--json", tracePath})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
}
