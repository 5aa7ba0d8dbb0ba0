package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/beatbridge/internal/config"
)

// runOverrides is the subset of run settings that can be tuned per
// invocation without editing the main simulation config. Only keys
// actually present in the overlay file are applied.
type runOverrides struct {
	Ticks           int     `toml:"ticks"`
	Seed            int64   `toml:"seed"`
	SinkReadyDuty   float64 `toml:"sink_ready_duty"`
	SinkPeriod      int     `toml:"sink_period"`
	SourceValidDuty float64 `toml:"source_valid_duty"`
	HoleRatio       float64 `toml:"hole_ratio"`
	ZeroRatio       float64 `toml:"zero_ratio"`
	DisableAt       []int   `toml:"disable_at"`
	EnableAt        []int   `toml:"enable_at"`
	MetricsAddr     string  `toml:"metrics_addr"`
	TraceIn         string  `toml:"trace_in"`
	TraceOut        string  `toml:"trace_out"`
}

func applyRunOverrides(cfg config.SimConfig, path string) (config.SimConfig, error) {
	var raw runOverrides
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config.SimConfig{}, fmt.Errorf("load run overrides: %w", err)
	}

	if meta.IsDefined("ticks") {
		cfg.Run.Ticks = raw.Ticks
	}
	if meta.IsDefined("seed") {
		cfg.Run.Seed = raw.Seed
	}
	if meta.IsDefined("sink_ready_duty") {
		cfg.Run.SinkReadyDuty = raw.SinkReadyDuty
	}
	if meta.IsDefined("sink_period") {
		cfg.Run.SinkPeriod = raw.SinkPeriod
	}
	if meta.IsDefined("source_valid_duty") {
		cfg.Run.SourceValidDuty = raw.SourceValidDuty
	}
	if meta.IsDefined("hole_ratio") {
		cfg.Run.HoleRatio = raw.HoleRatio
	}
	if meta.IsDefined("zero_ratio") {
		cfg.Run.ZeroRatio = raw.ZeroRatio
	}
	if meta.IsDefined("disable_at") {
		cfg.Run.DisableAt = raw.DisableAt
	}
	if meta.IsDefined("enable_at") {
		cfg.Run.EnableAt = raw.EnableAt
	}
	if meta.IsDefined("metrics_addr") {
		cfg.Run.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("trace_in") {
		cfg.Run.TraceIn = strings.TrimSpace(raw.TraceIn)
	}
	if meta.IsDefined("trace_out") {
		cfg.Run.TraceOut = strings.TrimSpace(raw.TraceOut)
	}

	if err := config.ValidateSimConfig(cfg); err != nil {
		return config.SimConfig{}, err
	}
	return cfg, nil
}
