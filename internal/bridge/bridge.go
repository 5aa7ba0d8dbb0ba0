package bridge

import "fmt"

// TickInput carries everything the bridge samples in one tick: the upstream
// valid/beat pair, the downstream ready level, and the control inputs.
type TickInput struct {
	InValid  bool
	In       Beat
	OutReady bool
	Ctrl     Controls
}

// TickOutput carries the handshake results and the one-tick event pulses
// produced by the same tick.
type TickOutput struct {
	// InReady is the upstream ready signal; a transfer happened iff the
	// caller presented InValid together with InReady here.
	InReady bool

	OutValid bool
	Out      Segment

	IllegalMask bool
	Overflow    bool
	Abort       bool

	BeatDone  bool
	FrameDone bool
	Stall     bool
}

// Bridge is the width-conversion engine: it admits variable-content beats
// from a wide upstream and re-emits them as fixed-width segments downstream,
// preserving frame boundaries, byte validity counts, and sideband metadata.
// The whole pipeline advances in discrete ticks on a single control thread;
// Tick is the only way state moves.
type Bridge struct {
	params Params

	queue    *BeatQueue
	acceptor Acceptor
	loader   Loader
	emitter  *Emitter
	abort    *AbortCoordinator

	telem Telemetry
}

func New(p Params) (*Bridge, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("bridge params: %w", err)
	}
	return &Bridge{
		params:   p,
		queue:    NewBeatQueue(p.FifoDepth),
		acceptor: NewAcceptor(p),
		loader:   NewLoader(p),
		emitter:  NewEmitter(p),
		abort:    NewAbortCoordinator(),
	}, nil
}

func (b *Bridge) Params() Params { return b.params }

// Telemetry returns a copy of the accumulated counters with the queue level
// as of the last completed tick.
func (b *Bridge) Telemetry() Telemetry { return b.telem }

// QueueLevel is the current queue occupancy.
func (b *Bridge) QueueLevel() int { return b.queue.Len() }

// Pending reports whether any work is in flight: an open frame, a buffered
// beat, a pending segment, or queued entries.
func (b *Bridge) Pending() bool {
	return b.emitter.InFrame() || b.loader.Buffered() || b.emitter.Active() || !b.queue.Empty()
}

// Reset clears all state as a process restart would. No abort event is
// raised; aborts are reserved for a controlled disable with work pending.
func (b *Bridge) Reset() {
	b.queue.Clear()
	b.loader.Flush()
	b.emitter.Flush()
	b.abort.Reset()
	b.telem.reset()
}

// Tick advances the pipeline by one step. Within the tick the order is:
// abort edge detection and flush first, then a load into an idle emitter,
// then segment presentation and acceptance, then a back-to-back reload when
// a beat completed, then ingress admission against the tick-start occupancy,
// and finally the telemetry snapshot.
func (b *Bridge) Tick(in TickInput) TickOutput {
	var out TickOutput
	startLevel := b.queue.Len()

	if b.abort.Observe(in.Ctrl.Enable, in.Ctrl.AbortOnDisable, b.Pending()) {
		b.loader.Flush()
		b.emitter.Flush()
		b.queue.Clear()
		out.Abort = true
	}

	b.loader.TryLoad(b.queue, b.emitter, in.Ctrl.Enable)

	if in.Ctrl.Enable {
		if seg, ok := b.emitter.Present(); ok {
			out.OutValid = true
			out.Out = seg
			if in.OutReady {
				pulses, done := b.emitter.Accept()
				out.BeatDone = pulses.BeatDone
				out.FrameDone = pulses.FrameDone
				if done {
					b.loader.Release()
					b.loader.TryLoad(b.queue, b.emitter, true)
				}
			} else {
				out.Stall = true
			}
		}
	}

	var bytes int
	out.InReady = b.acceptor.Ready(startLevel, b.queue, in.Ctrl)
	if in.InValid {
		res := b.acceptor.Offer(b.queue, in.In, startLevel, in.Ctrl)
		out.InReady = res.Admitted
		out.Overflow = res.Overflow
		out.IllegalMask = res.Illegal
		bytes = res.Bytes
	}

	b.telem.observe(out, bytes, b.queue.Len())
	return out
}
