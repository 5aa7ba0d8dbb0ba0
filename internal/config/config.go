package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/danmuck/beatbridge/internal/bridge"
	"github.com/danmuck/beatbridge/internal/harness"
)

// BridgeConfig fixes the engine geometry and control policies.
type BridgeConfig struct {
	BeatBytes      int  `toml:"beat_bytes"`
	SegmentBytes   int  `toml:"segment_bytes"`
	FifoDepth      int  `toml:"fifo_depth"`
	AlmostFull     int  `toml:"almost_full"`
	StrictMode     bool `toml:"strict_mode"`
	AbortOnDisable bool `toml:"abort_on_disable"`
}

// RunConfig shapes one simulation run.
type RunConfig struct {
	Ticks           int     `toml:"ticks"`
	Seed            int64   `toml:"seed"`
	SinkReadyDuty   float64 `toml:"sink_ready_duty"`
	SinkPeriod      int     `toml:"sink_period"`
	SourceValidDuty float64 `toml:"source_valid_duty"`
	MinFrameBeats   int     `toml:"min_frame_beats"`
	MaxFrameBeats   int     `toml:"max_frame_beats"`
	HoleRatio       float64 `toml:"hole_ratio"`
	ZeroRatio       float64 `toml:"zero_ratio"`
	DisableAt       []int   `toml:"disable_at"`
	EnableAt        []int   `toml:"enable_at"`
	MetricsAddr     string  `toml:"metrics_addr"`
	TraceIn         string  `toml:"trace_in"`
	TraceOut        string  `toml:"trace_out"`
}

type SimConfig struct {
	Bridge BridgeConfig `toml:"bridge"`
	Run    RunConfig    `toml:"run"`
}

func DefaultSimConfig() SimConfig {
	return SimConfig{
		Bridge: BridgeConfig{
			BeatBytes:      32,
			SegmentBytes:   8,
			FifoDepth:      8,
			AlmostFull:     6,
			AbortOnDisable: true,
		},
		Run: RunConfig{
			Ticks:           10000,
			Seed:            1,
			SinkReadyDuty:   1.0,
			SourceValidDuty: 1.0,
			MinFrameBeats:   1,
			MaxFrameBeats:   8,
		},
	}
}

func LoadSimConfig(path string) (SimConfig, error) {
	cfg := DefaultSimConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return SimConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return SimConfig{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := ValidateSimConfig(cfg); err != nil {
		return SimConfig{}, err
	}
	return cfg, nil
}

func ValidateSimConfig(cfg SimConfig) error {
	if err := cfg.Params().Validate(); err != nil {
		return err
	}
	if cfg.Bridge.AlmostFull < 0 || cfg.Bridge.AlmostFull > cfg.Bridge.FifoDepth {
		return fmt.Errorf("config: almost_full %d outside [0, %d]",
			cfg.Bridge.AlmostFull, cfg.Bridge.FifoDepth)
	}
	if cfg.Run.Ticks < 1 {
		return fmt.Errorf("config: ticks must be positive, got %d", cfg.Run.Ticks)
	}
	if cfg.Run.SinkReadyDuty <= 0 || cfg.Run.SinkReadyDuty > 1 {
		return fmt.Errorf("config: sink_ready_duty %v outside (0, 1]", cfg.Run.SinkReadyDuty)
	}
	if cfg.Run.SinkPeriod < 0 {
		return fmt.Errorf("config: sink_period must be non-negative, got %d", cfg.Run.SinkPeriod)
	}
	if cfg.Run.SourceValidDuty <= 0 || cfg.Run.SourceValidDuty > 1 {
		return fmt.Errorf("config: source_valid_duty %v outside (0, 1]", cfg.Run.SourceValidDuty)
	}
	if cfg.Run.MinFrameBeats < 1 || cfg.Run.MaxFrameBeats < cfg.Run.MinFrameBeats {
		return fmt.Errorf("config: frame beat range [%d, %d] invalid",
			cfg.Run.MinFrameBeats, cfg.Run.MaxFrameBeats)
	}
	if cfg.Run.HoleRatio < 0 || cfg.Run.HoleRatio > 1 || cfg.Run.ZeroRatio < 0 || cfg.Run.ZeroRatio > 1 {
		return fmt.Errorf("config: hole_ratio/zero_ratio must be within [0, 1]")
	}
	return nil
}

// Params maps the bridge table onto engine construction parameters.
func (c SimConfig) Params() bridge.Params {
	return bridge.Params{
		BeatBytes: c.Bridge.BeatBytes,
		SegBytes:  c.Bridge.SegmentBytes,
		FifoDepth: c.Bridge.FifoDepth,
	}
}

// Controls maps the bridge table onto the per-tick control inputs.
func (c SimConfig) Controls() bridge.Controls {
	return bridge.Controls{
		Enable:         true,
		StrictMode:     c.Bridge.StrictMode,
		AbortOnDisable: c.Bridge.AbortOnDisable,
		AlmostFull:     c.Bridge.AlmostFull,
	}
}

// HarnessConfig maps the run table onto a harness run.
func (c SimConfig) HarnessConfig() harness.RunConfig {
	return harness.RunConfig{
		Ticks:         c.Run.Ticks,
		SinkSeed:      c.Run.Seed + 1,
		SinkReadyDuty: c.Run.SinkReadyDuty,
		SinkPeriod:    c.Run.SinkPeriod,
		Driver: harness.DriverConfig{
			Seed:          c.Run.Seed,
			MinFrameBeats: c.Run.MinFrameBeats,
			MaxFrameBeats: c.Run.MaxFrameBeats,
			ValidDuty:     c.Run.SourceValidDuty,
			HoleRatio:     c.Run.HoleRatio,
			ZeroRatio:     c.Run.ZeroRatio,
		},
		Ctrl:      c.Controls(),
		DisableAt: c.Run.DisableAt,
		EnableAt:  c.Run.EnableAt,
	}
}
