package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danmuck/beatbridge/internal/bridge"
)

var registerOnce sync.Once

// RegisterBridge exposes a bridge's telemetry counters to prometheus. The
// source func is sampled on scrape, so the engine pays nothing per tick.
func RegisterBridge(source func() bridge.Telemetry) {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			counterFunc("frames_total", "Completed frames (eop segments accepted downstream).",
				func(t bridge.Telemetry) uint64 { return t.FramesTotal }, source),
			counterFunc("bytes_total", "Valid payload bytes admitted from upstream.",
				func(t bridge.Telemetry) uint64 { return t.BytesTotal }, source),
			counterFunc("stall_cycles_total", "Ticks a segment was presented but not accepted.",
				func(t bridge.Telemetry) uint64 { return t.StallCycles }, source),
			counterFunc("illegal_masks_total", "Strict-mode byte-valid violations on admitted beats.",
				func(t bridge.Telemetry) uint64 { return t.IllegalMasks }, source),
			counterFunc("overflows_total", "Pushes attempted against a full queue.",
				func(t bridge.Telemetry) uint64 { return t.Overflows }, source),
			counterFunc("aborts_total", "Mid-disable drops of pending work.",
				func(t bridge.Telemetry) uint64 { return t.Aborts }, source),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Namespace: "beatbridge",
					Subsystem: "bridge",
					Name:      "queue_level",
					Help:      "Current beat queue occupancy.",
				},
				func() float64 { return float64(source().QueueLevel) },
			),
		)
	})
}

func counterFunc(name, help string, field func(bridge.Telemetry) uint64,
	source func() bridge.Telemetry) prometheus.CounterFunc {
	return prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: "beatbridge",
			Subsystem: "bridge",
			Name:      name,
			Help:      help,
		},
		func() float64 { return float64(field(source())) },
	)
}
