package harness

import (
	"fmt"

	"github.com/danmuck/beatbridge/internal/bridge"
)

// RunConfig describes one harness run.
type RunConfig struct {
	Ticks         int
	SinkSeed      int64
	SinkReadyDuty float64
	// SinkPeriod, when positive, replaces the duty-cycle sink with one that
	// accepts every nth tick.
	SinkPeriod int
	Driver     DriverConfig
	Ctrl       bridge.Controls
	// DisableAt / EnableAt drive the enable control low or high at the
	// given tick indices, exercising pause and abort behavior.
	DisableAt []int
	EnableAt  []int
	// CaptureBeats records every admitted beat in the report, so a run can
	// be written out as a replayable trace.
	CaptureBeats bool
	// Observe, when set, receives a telemetry snapshot after every tick.
	// The harness itself stays single-threaded; this is the hook an
	// external poller (the metrics endpoint) hangs off.
	Observe func(bridge.Telemetry)
}

// Report summarizes a harness run.
type Report struct {
	Ticks            int
	BeatsOffered     int
	BeatsAdmitted    int
	SegmentsAccepted int
	Telemetry        bridge.Telemetry
	Errors           []string
	// Beats holds the admitted stimulus when RunConfig.CaptureBeats is set.
	Beats []bridge.Beat
}

func (r Report) Failed() bool { return len(r.Errors) > 0 }

// Run ticks the bridge against the driver, sink, and scoreboard for
// cfg.Ticks steps, then drains whatever is still in flight. The returned
// report carries every scoreboard mismatch plus telemetry cross-checks.
func Run(b *bridge.Bridge, cfg RunConfig) Report {
	driver := NewDriver(b.Params(), cfg.Driver)
	sink := newConfiguredSink(cfg)
	board := NewScoreboard(b.Params())

	ctrl := cfg.Ctrl
	disable := tickSet(cfg.DisableAt)
	enable := tickSet(cfg.EnableAt)

	report := Report{Ticks: cfg.Ticks}
	for tick := 0; tick < cfg.Ticks; tick++ {
		if disable[tick] {
			ctrl.Enable = false
		}
		if enable[tick] {
			ctrl.Enable = true
		}

		beat, valid := driver.Next()
		in := bridge.TickInput{
			InValid:  valid,
			In:       beat,
			OutReady: sink.Ready(),
			Ctrl:     ctrl,
		}
		out := b.Tick(in)
		step(driver, board, in, out)
		if in.InValid && out.InReady && !out.Overflow && cfg.CaptureBeats {
			report.Beats = append(report.Beats, in.In)
		}
		if out.OutValid && in.OutReady {
			report.SegmentsAccepted++
		}
		if cfg.Observe != nil {
			cfg.Observe(b.Telemetry())
		}
	}

	// Drain: enable the pipeline with an always-ready sink until it goes
	// quiet so the scoreboard can account for everything admitted.
	ctrl.Enable = true
	for extra := 0; extra < 4*cfg.Ticks+64 && b.Pending(); extra++ {
		out := b.Tick(bridge.TickInput{OutReady: true, Ctrl: ctrl})
		step(driver, board, bridge.TickInput{OutReady: true, Ctrl: ctrl}, out)
		if out.OutValid {
			report.SegmentsAccepted++
		}
		if cfg.Observe != nil {
			cfg.Observe(b.Telemetry())
		}
	}

	report.BeatsOffered = driver.Offered
	report.BeatsAdmitted = driver.Admitted
	report.Telemetry = b.Telemetry()
	report.Errors = append(report.Errors, board.Errors()...)

	if !board.Drained() {
		report.Errors = append(report.Errors,
			fmt.Sprintf("scoreboard: %d expected segments never emitted", board.Outstanding()))
	}
	if report.Telemetry.BytesTotal != board.BytesExpected {
		report.Errors = append(report.Errors,
			fmt.Sprintf("bytes_total=%d want %d", report.Telemetry.BytesTotal, board.BytesExpected))
	}
	if report.Telemetry.FramesTotal != board.FramesExpected {
		report.Errors = append(report.Errors,
			fmt.Sprintf("frames_total=%d want %d", report.Telemetry.FramesTotal, board.FramesExpected))
	}
	return report
}

// Replay feeds a fixed beat sequence through the bridge instead of the
// random driver, checking it against the scoreboard the same way Run does.
// Sink timing and controls still come from cfg; Driver settings are ignored.
func Replay(b *bridge.Bridge, beats []bridge.Beat, cfg RunConfig) Report {
	sink := newConfiguredSink(cfg)
	board := NewScoreboard(b.Params())

	ctrl := cfg.Ctrl
	report := Report{}

	// Worst case every beat expands to a full set of segments and the sink
	// stalls most ticks; the cap just keeps a wedged bridge from hanging.
	limit := 256 + 8*len(beats)*(b.Params().BeatBytes/b.Params().SegBytes)

	next := 0
	for tick := 0; tick < limit; tick++ {
		in := bridge.TickInput{
			OutReady: sink.Ready(),
			Ctrl:     ctrl,
		}
		if next < len(beats) {
			in.InValid = true
			in.In = beats[next]
		}
		out := b.Tick(in)
		report.Ticks++
		if out.Abort {
			board.OnAbort()
		}
		if in.InValid && out.InReady {
			report.BeatsAdmitted++
			next++
			if !out.Overflow {
				board.OnAdmit(in.In)
			}
		}
		if out.OutValid && in.OutReady {
			report.SegmentsAccepted++
			board.OnAccept(out.Out)
		}
		if cfg.Observe != nil {
			cfg.Observe(b.Telemetry())
		}
		if next == len(beats) && !b.Pending() {
			break
		}
	}

	report.BeatsOffered = len(beats)
	report.Telemetry = b.Telemetry()
	report.Errors = append(report.Errors, board.Errors()...)
	if next < len(beats) {
		report.Errors = append(report.Errors,
			fmt.Sprintf("replay: %d of %d beats never admitted", len(beats)-next, len(beats)))
	}
	if !board.Drained() {
		report.Errors = append(report.Errors,
			fmt.Sprintf("scoreboard: %d expected segments never emitted", board.Outstanding()))
	}
	return report
}

func step(driver *Driver, board *Scoreboard, in bridge.TickInput, out bridge.TickOutput) {
	if out.Abort {
		board.OnAbort()
	}
	if in.InValid && out.InReady {
		driver.Accept()
		if !out.Overflow {
			board.OnAdmit(in.In)
		}
	}
	if out.OutValid && in.OutReady {
		board.OnAccept(out.Out)
	}
}

func newConfiguredSink(cfg RunConfig) *Sink {
	if cfg.SinkPeriod > 0 {
		return NewPeriodicSink(cfg.SinkPeriod)
	}
	return NewSink(cfg.SinkSeed, cfg.SinkReadyDuty)
}

func tickSet(ticks []int) map[int]bool {
	set := make(map[int]bool, len(ticks))
	for _, t := range ticks {
		set[t] = true
	}
	return set
}
