package bridge

// Telemetry accumulates the engine's counters and the continuously updated
// queue-level snapshot. All counters are wrapping unsigned values; none
// saturate. Accumulation never exerts backpressure on the data path.
type Telemetry struct {
	FramesTotal  uint64
	BytesTotal   uint64
	StallCycles  uint64
	QueueLevel   int
	IllegalMasks uint64
	Overflows    uint64
	Aborts       uint64
}

func (t *Telemetry) observe(out TickOutput, bytes int, level int) {
	if out.FrameDone {
		t.FramesTotal++
	}
	t.BytesTotal += uint64(bytes)
	if out.Stall {
		t.StallCycles++
	}
	if out.IllegalMask {
		t.IllegalMasks++
	}
	if out.Overflow {
		t.Overflows++
	}
	if out.Abort {
		t.Aborts++
	}
	t.QueueLevel = level
}

func (t *Telemetry) reset() {
	*t = Telemetry{}
}
