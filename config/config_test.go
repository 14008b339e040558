package config

import (
	"testing"

	"github.com/RowanDark/gstr/intern"
)

func TestValidateDefaults(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Split != SplitLines {
		t.Fatalf("expected default split lines, got %s", cfg.Split)
	}
	if cfg.Format != FormatTXT {
		t.Fatalf("expected default format txt, got %s", cfg.Format)
	}
	if cfg.Threads <= 0 || cfg.Shards != 1 {
		t.Fatalf("unexpected worker defaults: threads=%d shards=%d", cfg.Threads, cfg.Shards)
	}
	if cfg.PoolOptions().Policy != intern.RetainForever {
		t.Fatalf("expected retain policy by default")
	}
	if !cfg.ReadStdin() {
		t.Fatalf("expected stdin input without files")
	}
}

func TestValidateNormalises(t *testing.T) {
	cfg := &Config{
		Split:   " Words ",
		Format:  "JSON",
		Policy:  "RefCounted",
		Shards:  8,
		Inputs:  []string{" a.txt ", "", "b.txt"},
		Include: []string{"  "},
		Top:     -1,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Split != SplitWords || cfg.Format != FormatJSON || cfg.Policy != "refcount" {
		t.Fatalf("unexpected normalisation: %+v", cfg)
	}
	if len(cfg.Inputs) != 2 || cfg.Inputs[0] != "a.txt" || len(cfg.Include) != 0 {
		t.Fatalf("unexpected inputs: %v include=%v", cfg.Inputs, cfg.Include)
	}
	if cfg.Top != 0 {
		t.Fatalf("expected negative top to clamp to 0")
	}
	opts := cfg.PoolOptions()
	if opts.Policy != intern.RefCounted || opts.Shards != 8 {
		t.Fatalf("unexpected pool options: %+v", opts)
	}
	if cfg.ReadStdin() {
		t.Fatalf("expected file input")
	}
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	cases := []*Config{
		{Split: "paragraphs"},
		{Format: "xml"},
		{Policy: "weekly"},
		{Silent: true, Verbose: true},
	}
	for _, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

func TestLiveOutput(t *testing.T) {
	cfg := &Config{}
	if !cfg.LiveOutput() {
		t.Fatalf("expected live output when path empty")
	}
	cfg.OutputPath = "report.json"
	if cfg.LiveOutput() {
		t.Fatalf("expected file output when path set")
	}
}
