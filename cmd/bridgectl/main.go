package main

import (
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/beatbridge/internal/bridge"
	"github.com/danmuck/beatbridge/internal/config"
	"github.com/danmuck/beatbridge/internal/harness"
	"github.com/danmuck/beatbridge/internal/observability"
	"github.com/danmuck/beatbridge/internal/trace"
)

func main() {
	configPath := flag.String("config", "cmd/bridgectl/config.toml", "simulation config path")
	tunePath := flag.String("tune", "", "optional run-tuning overlay (toml)")
	flag.Parse()

	observability.InitLogger("bridge")

	cfg, err := config.LoadSimConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load sim config")
	}
	if *tunePath != "" {
		cfg, err = applyRunOverrides(cfg, *tunePath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to apply run overrides")
		}
	}
	log.Info().Str("path", *configPath).
		Int("beat_bytes", cfg.Bridge.BeatBytes).
		Int("segment_bytes", cfg.Bridge.SegmentBytes).
		Int("fifo_depth", cfg.Bridge.FifoDepth).
		Msg("loaded sim config")

	b, err := bridge.New(cfg.Params())
	if err != nil {
		log.Fatal().Err(err).Msg("bridge construction failed")
	}

	hcfg := cfg.HarnessConfig()
	hcfg.CaptureBeats = cfg.Run.TraceOut != ""

	if cfg.Run.MetricsAddr != "" {
		srv := observability.NewMetricsServer(cfg.Run.MetricsAddr, wireSnapshot(&hcfg), log.Logger)
		go func() {
			if err := srv.Serve(); err != nil {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	var report harness.Report
	if cfg.Run.TraceIn != "" {
		beats, err := readTrace(cfg.Run.TraceIn, cfg.Params())
		if err != nil {
			log.Fatal().Err(err).Msg("trace load failed")
		}
		log.Info().Str("path", cfg.Run.TraceIn).Int("beats", len(beats)).Msg("replaying trace")
		report = harness.Replay(b, beats, hcfg)
	} else {
		report = harness.Run(b, hcfg)
	}

	if cfg.Run.TraceOut != "" {
		if err := writeTrace(cfg.Run.TraceOut, cfg.Params(), report.Beats); err != nil {
			log.Fatal().Err(err).Msg("trace write failed")
		}
		log.Info().Str("path", cfg.Run.TraceOut).Int("beats", len(report.Beats)).Msg("wrote stimulus trace")
	}

	log.Info().
		Int("ticks", report.Ticks).
		Int("beats_offered", report.BeatsOffered).
		Int("beats_admitted", report.BeatsAdmitted).
		Int("segments_accepted", report.SegmentsAccepted).
		Uint64("frames_total", report.Telemetry.FramesTotal).
		Uint64("bytes_total", report.Telemetry.BytesTotal).
		Uint64("stall_cycles", report.Telemetry.StallCycles).
		Uint64("illegal_masks", report.Telemetry.IllegalMasks).
		Uint64("overflows", report.Telemetry.Overflows).
		Uint64("aborts", report.Telemetry.Aborts).
		Msg("run complete")

	if report.Failed() {
		for _, msg := range report.Errors {
			log.Error().Msg(msg)
		}
		log.Fatal().Int("errors", len(report.Errors)).Msg("scoreboard reported mismatches")
	}
}

// wireSnapshot installs an Observe hook on the run config and returns a
// telemetry source safe to poll from the metrics server goroutine. The
// bridge itself only ever ticks on the main goroutine.
func wireSnapshot(hcfg *harness.RunConfig) func() bridge.Telemetry {
	var mu sync.RWMutex
	var snap bridge.Telemetry
	hcfg.Observe = func(t bridge.Telemetry) {
		mu.Lock()
		snap = t
		mu.Unlock()
	}
	return func() bridge.Telemetry {
		mu.RLock()
		defer mu.RUnlock()
		return snap
	}
}

func readTrace(path string, p bridge.Params) ([]bridge.Beat, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	hdr, beats, err := trace.Read(f, trace.DefaultLimits())
	if err != nil {
		return nil, err
	}
	if hdr.BeatBytes != p.BeatBytes {
		return nil, fmt.Errorf("trace beat width %d does not match configured %d",
			hdr.BeatBytes, p.BeatBytes)
	}
	return beats, nil
}

func writeTrace(path string, p bridge.Params, beats []bridge.Beat) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	hdr := trace.Header{BeatBytes: p.BeatBytes, SegBytes: p.SegBytes, Count: len(beats)}
	return trace.Write(f, hdr, beats)
}
