package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RowanDark/gstr/config"
	"github.com/RowanDark/gstr/ingest"
	"github.com/RowanDark/gstr/intern"
	"github.com/RowanDark/gstr/logging"
	"github.com/RowanDark/gstr/output"
	"github.com/RowanDark/gstr/stats"
)

func validConfig(t *testing.T, cfg *config.Config) *config.Config {
	t.Helper()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid config: %v", err)
	}
	return cfg
}

func TestRunWritesJSONReport(t *testing.T) {
	cfg := validConfig(t, &config.Config{Format: config.FormatJSON, Top: 2, Threads: 1})
	var out bytes.Buffer

	if err := run(context.Background(), cfg, logging.Discard(), strings.NewReader("a\nb\na\n"), &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var report output.Report
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decoding report: %v (%s)", err, out.String())
	}
	if report.Tokens != 3 || report.Unique != 2 || report.Sources != 1 {
		t.Fatalf("unexpected totals: %+v", report)
	}
	if len(report.Top) != 2 || report.Top[0].Value != "a" || report.Top[0].Count != 2 {
		t.Fatalf("unexpected top values: %+v", report.Top)
	}
	if report.Policy != "retain" || report.Shards != 1 {
		t.Fatalf("unexpected pool settings: %+v", report)
	}
	if report.BytesRetained != 2 || report.SavedBytes != 1 {
		t.Fatalf("unexpected byte accounting: %+v", report)
	}
}

func TestRunRefCountedWritesMetrics(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig(t, &config.Config{
		Format:      config.FormatCSV,
		Policy:      "refcount",
		Shards:      4,
		Split:       config.SplitWords,
		OutputPath:  filepath.Join(dir, "report.csv"),
		MetricsFile: filepath.Join(dir, "gstr.prom"),
	})

	if err := run(context.Background(), cfg, logging.Discard(), strings.NewReader("x y x z x"), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if !strings.Contains(string(report), "summary,policy,refcount") || !strings.Contains(string(report), "top,x,3") {
		t.Fatalf("unexpected csv report: %s", report)
	}

	metrics, err := os.ReadFile(cfg.MetricsFile)
	if err != nil {
		t.Fatalf("reading metrics: %v", err)
	}
	if !strings.Contains(string(metrics), `gstr_pool_entries{policy="refcount"} 3`) {
		t.Fatalf("expected entries sampled before release, got:\n%s", metrics)
	}
}

func TestRunMissingInput(t *testing.T) {
	cfg := validConfig(t, &config.Config{Inputs: []string{filepath.Join(t.TempDir(), "absent.txt")}})
	if err := run(context.Background(), cfg, logging.Discard(), strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for missing input file")
	}
}

func TestRunRejectsBadPattern(t *testing.T) {
	cfg := validConfig(t, &config.Config{Include: []string{"[unterminated"}})
	if err := run(context.Background(), cfg, logging.Discard(), strings.NewReader("a\n"), &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for invalid glob")
	}
}

func TestGatherSources(t *testing.T) {
	cfg := &config.Config{}
	if sources := gatherSources(cfg, strings.NewReader("")); len(sources) != 1 || sources[0].Name != "stdin" {
		t.Fatalf("expected stdin source, got %+v", sources)
	}

	cfg.Inputs = []string{"one.txt", "-", "two.txt"}
	sources := gatherSources(cfg, strings.NewReader(""))
	if len(sources) != 3 || sources[0].Name != "one.txt" || sources[1].Name != "stdin" {
		t.Fatalf("unexpected sources: %+v", sources)
	}
}

func TestDescribeInputs(t *testing.T) {
	cases := []struct {
		inputs []string
		want   string
	}{
		{nil, "stdin"},
		{[]string{"-"}, "stdin"},
		{[]string{"access.log"}, "access.log"},
		{[]string{"a", "b"}, "2 inputs"},
	}
	for _, tc := range cases {
		if got := describeInputs(&config.Config{Inputs: tc.inputs}); got != tc.want {
			t.Fatalf("describeInputs(%v) = %q, want %q", tc.inputs, got, tc.want)
		}
	}
}

func TestBuildReport(t *testing.T) {
	pool := intern.NewPool(intern.Options{Shards: 2})
	result, err := ingest.Run(context.Background(), []ingest.Source{ingest.ReaderSource("s", strings.NewReader("k\nk\nv\n"))}, ingest.Options{Pool: pool})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snapshot := stats.Snapshot{Tokens: 3, BytesIn: 3, Pool: pool.Stats()}

	report := buildReport(&config.Config{Top: 1}, result, snapshot)
	if len(report.Top) != 1 || report.Top[0].Value != "k" || report.Top[0].Count != 2 {
		t.Fatalf("unexpected top: %+v", report.Top)
	}
	if report.Unique != 2 || report.DedupRatio != 1.5 || report.Shards != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Duration != "0s" {
		t.Fatalf("expected zero duration, got %q", report.Duration)
	}
}

func TestVersionFlag(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-V"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "gstr version: dev") {
		t.Fatalf("unexpected version output: %s", out.String())
	}
}

func TestRootCommandReadsStdin(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "gstr.yaml")
	if err := os.WriteFile(configPath, []byte("profiles: {}\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader("one\ntwo\none\n"))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"--format", "json", "--silent", "--config", configPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var report output.Report
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decoding report: %v (%s)", err, out.String())
	}
	if report.Tokens != 3 || report.Unique != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if errOut.Len() != 0 {
		t.Fatalf("expected silent console, got %s", errOut.String())
	}
}
