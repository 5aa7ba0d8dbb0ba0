package bridge

// Emitter holds one loaded beat and presents one fixed-width segment per
// accepted handshake. While a presented segment awaits downstream acceptance
// none of its fields change; disabling pauses output without losing progress,
// flushing discards everything.
type Emitter struct {
	params Params

	active      bool
	buf         []byte
	segIndex    int
	numSegments int
	lastBytes   int
	lastBeat    bool

	inFrame   bool
	frameMeta uint64
}

// Pulses are the one-tick events the emitter raises toward telemetry.
type Pulses struct {
	BeatDone  bool
	FrameDone bool
}

func NewEmitter(p Params) *Emitter {
	return &Emitter{
		params: p,
		buf:    make([]byte, p.BeatBytes),
	}
}

// Active reports whether a beat is occupying the output slot.
func (e *Emitter) Active() bool { return e.active }

// InFrame reports whether a frame is open on the segment stream: true from an
// accepted sop segment until the matching eop segment is accepted.
func (e *Emitter) InFrame() bool { return e.inFrame }

// Load installs a beat and its segmentation plan. Frame metadata is latched
// only when no frame is open, so it stays fixed across a frame's beats.
// Callers must not load while the emitter is active.
func (e *Emitter) Load(b Beat, plan SegPlan) {
	e.active = true
	copy(e.buf, b.Payload)
	e.segIndex = 0
	e.numSegments = plan.NumSegments
	e.lastBytes = plan.LastSegmentBytes
	e.lastBeat = b.Last
	if !e.inFrame {
		e.frameMeta = b.Meta
	}
}

// Present materializes the segment currently offered downstream. Repeated
// calls without an intervening Accept yield identical field values.
func (e *Emitter) Present() (Segment, bool) {
	if !e.active {
		return Segment{}, false
	}
	payload := make([]byte, e.params.SegBytes)
	copy(payload, e.buf[e.segIndex*e.params.SegBytes:])
	return Segment{
		Payload: payload,
		Keep:    e.keepAt(e.segIndex),
		Meta:    e.frameMeta,
		Sop:     !e.inFrame && e.segIndex == 0,
		Eop:     e.lastBeat && e.segIndex == e.numSegments-1,
	}, true
}

// Accept records downstream acceptance of the presented segment: frame state
// advances, the shift offset moves on, and the final segment of a beat frees
// the output slot. Reports completion pulses and whether the beat finished.
func (e *Emitter) Accept() (Pulses, bool) {
	if !e.active {
		return Pulses{}, false
	}
	var p Pulses
	final := e.segIndex == e.numSegments-1
	sop := !e.inFrame && e.segIndex == 0
	eop := e.lastBeat && final
	if sop {
		e.inFrame = true
	}
	// eop closes the frame even when the same segment opened it.
	if eop {
		e.inFrame = false
		p.FrameDone = true
	}
	if final {
		e.active = false
		e.segIndex = 0
		e.numSegments = 0
		e.lastBytes = 0
		e.lastBeat = false
		p.BeatDone = true
		return p, true
	}
	e.segIndex++
	return p, false
}

// Flush discards all progress: the output slot, the shift state, and the open
// frame. Used by the abort protocol, never by plain backpressure.
func (e *Emitter) Flush() {
	e.active = false
	e.segIndex = 0
	e.numSegments = 0
	e.lastBytes = 0
	e.lastBeat = false
	e.inFrame = false
	e.frameMeta = 0
}

// keepAt derives the keep bitmap for segment i: all non-final segments are
// fully valid; the final segment marks exactly the tail byte count unless
// that count is zero or a full segment.
func (e *Emitter) keepAt(i int) uint64 {
	full := maskBytes(e.params.SegBytes)
	if i < e.numSegments-1 {
		return full
	}
	if e.lastBytes == 0 || e.lastBytes == e.params.SegBytes {
		return full
	}
	return maskBytes(e.lastBytes)
}
