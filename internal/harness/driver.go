// Package harness drives a bridge against pseudo-random stimulus and checks
// the emitted segment stream against a reference model. It is the software
// counterpart of the original stimulus driver, monitor, and scoreboard.
package harness

import (
	"math/rand"

	"github.com/danmuck/beatbridge/internal/bridge"
)

// DriverConfig shapes the pseudo-random beat source.
type DriverConfig struct {
	Seed          int64
	MinFrameBeats int
	MaxFrameBeats int
	// ValidDuty is the probability that the driver presents a beat on an
	// otherwise idle tick (gaps model a slow upstream).
	ValidDuty float64
	// HoleRatio is the fraction of non-last beats given a one-byte hole in
	// the valid mask, which is illegal under strict mode.
	HoleRatio float64
	// ZeroRatio is the fraction of non-last beats carrying no valid bytes.
	// Last beats always carry at least one byte so every frame closes.
	ZeroRatio float64
}

func DefaultDriverConfig() DriverConfig {
	return DriverConfig{
		Seed:          1,
		MinFrameBeats: 1,
		MaxFrameBeats: 8,
		ValidDuty:     1.0,
	}
}

// Driver produces handshake-correct upstream stimulus: a presented beat stays
// bit-stable until it is admitted.
type Driver struct {
	params bridge.Params
	cfg    DriverConfig
	rng    *rand.Rand

	pending   *bridge.Beat
	frameLeft int
	nextMeta  uint64

	Offered  int
	Admitted int
}

func NewDriver(params bridge.Params, cfg DriverConfig) *Driver {
	if cfg.MinFrameBeats < 1 {
		cfg.MinFrameBeats = 1
	}
	if cfg.MaxFrameBeats < cfg.MinFrameBeats {
		cfg.MaxFrameBeats = cfg.MinFrameBeats
	}
	if cfg.ValidDuty <= 0 {
		cfg.ValidDuty = 1.0
	}
	return &Driver{
		params: params,
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Next returns the beat presented this tick, or ok=false for an upstream
// valid gap.
func (d *Driver) Next() (bridge.Beat, bool) {
	if d.pending != nil {
		return *d.pending, true
	}
	if d.rng.Float64() > d.cfg.ValidDuty {
		return bridge.Beat{}, false
	}
	b := d.generate()
	d.pending = &b
	d.Offered++
	return b, true
}

// Accept marks the presented beat as transferred upstream->bridge.
func (d *Driver) Accept() {
	if d.pending == nil {
		return
	}
	d.pending = nil
	d.Admitted++
}

func (d *Driver) generate() bridge.Beat {
	if d.frameLeft == 0 {
		span := d.cfg.MaxFrameBeats - d.cfg.MinFrameBeats + 1
		d.frameLeft = d.cfg.MinFrameBeats + d.rng.Intn(span)
		d.nextMeta++
	}
	last := d.frameLeft == 1
	d.frameLeft--

	payload := make([]byte, d.params.BeatBytes)
	d.rng.Read(payload)

	beat := bridge.Beat{
		Payload: payload,
		Last:    last,
		Meta:    d.nextMeta,
	}
	switch {
	case last:
		// Contiguous prefix of at least one byte.
		n := 1 + d.rng.Intn(d.params.BeatBytes)
		beat.ByteValid = prefixMask(n)
	case d.rng.Float64() < d.cfg.ZeroRatio:
		beat.ByteValid = 0
	case d.rng.Float64() < d.cfg.HoleRatio:
		m := prefixMask(d.params.BeatBytes)
		beat.ByteValid = m &^ (uint64(1) << uint(d.rng.Intn(d.params.BeatBytes)))
	default:
		beat.ByteValid = prefixMask(d.params.BeatBytes)
	}
	return beat
}

func prefixMask(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(n)) - 1
}
