package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/beatbridge/internal/config"
)

func TestApplyRunOverridesOnlyDefinedKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tune.toml")
	content := `
ticks = 250
sink_ready_duty = 0.5
disable_at = [100]
enable_at = [120]
trace_out = " local/run.trace "
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write overrides: %v", err)
	}

	base := config.DefaultSimConfig()
	cfg, err := applyRunOverrides(base, path)
	if err != nil {
		t.Fatalf("apply overrides: %v", err)
	}
	if cfg.Run.Ticks != 250 {
		t.Fatalf("unexpected ticks: %d", cfg.Run.Ticks)
	}
	if cfg.Run.SinkReadyDuty != 0.5 {
		t.Fatalf("unexpected sink duty: %v", cfg.Run.SinkReadyDuty)
	}
	if len(cfg.Run.DisableAt) != 1 || cfg.Run.DisableAt[0] != 100 {
		t.Fatalf("unexpected disable_at: %+v", cfg.Run.DisableAt)
	}
	if len(cfg.Run.EnableAt) != 1 || cfg.Run.EnableAt[0] != 120 {
		t.Fatalf("unexpected enable_at: %+v", cfg.Run.EnableAt)
	}
	if cfg.Run.TraceOut != "local/run.trace" {
		t.Fatalf("unexpected trace_out: %q", cfg.Run.TraceOut)
	}
	// Untouched keys keep their defaults.
	if cfg.Run.Seed != base.Run.Seed {
		t.Fatalf("seed changed unexpectedly: %d", cfg.Run.Seed)
	}
	if cfg.Run.SourceValidDuty != base.Run.SourceValidDuty {
		t.Fatalf("source duty changed unexpectedly: %v", cfg.Run.SourceValidDuty)
	}
}

func TestApplyRunOverridesRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tune.toml")
	content := `
sink_ready_duty = 1.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write overrides: %v", err)
	}

	if _, err := applyRunOverrides(config.DefaultSimConfig(), path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestApplyRunOverridesMissingFile(t *testing.T) {
	if _, err := applyRunOverrides(config.DefaultSimConfig(), "does/not/exist.toml"); err == nil {
		t.Fatalf("expected load error")
	}
}
