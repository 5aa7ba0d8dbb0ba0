package bridge

// SegPlan is the segmentation geometry computed once per loaded beat.
type SegPlan struct {
	ValidBytes       int
	NumSegments      int
	LastSegmentBytes int
}

// PlanBeat derives the segmentation plan for one beat. A beat with no valid
// bytes yields a zero plan and produces no segments.
func PlanBeat(b Beat, p Params) SegPlan {
	v := b.ValidBytes()
	if v == 0 {
		return SegPlan{}
	}
	n := (v + p.SegBytes - 1) / p.SegBytes
	return SegPlan{
		ValidBytes:       v,
		NumSegments:      n,
		LastSegmentBytes: v - (n-1)*p.SegBytes,
	}
}

// Loader pulls one beat at a time from the queue using the show-ahead read,
// computes its segmentation plan, and hands it to the emitter. It is a
// two-state machine: idle, or holding a beat until the emitter accepts the
// beat's final segment.
type Loader struct {
	params Params
	loaded bool
}

func NewLoader(p Params) Loader {
	return Loader{params: p}
}

// Buffered reports whether a beat is held awaiting full emission.
func (l *Loader) Buffered() bool { return l.loaded }

// TryLoad pops at most one beat from the queue when the loader is idle and
// the emitter has room. Zero-valid beats are consumed silently without ever
// occupying the loader. Reports whether a beat was handed to the emitter.
func (l *Loader) TryLoad(q *BeatQueue, em *Emitter, enable bool) bool {
	if !enable || l.loaded || em.Active() {
		return false
	}
	head, ok := q.Peek()
	if !ok {
		return false
	}
	plan := PlanBeat(*head, l.params)
	beat, _ := q.Pop()
	if plan.NumSegments == 0 {
		return false
	}
	em.Load(beat, plan)
	l.loaded = true
	return true
}

// Release returns the loader to idle; called when the emitter accepts the
// held beat's final segment. The loader may load again in the same tick.
func (l *Loader) Release() { l.loaded = false }

// Flush discards the held beat immediately, regardless of emission progress.
func (l *Loader) Flush() { l.loaded = false }
