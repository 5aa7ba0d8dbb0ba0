package bridge

// Acceptor gates beat admission from upstream. Admission is decided against
// the queue occupancy sampled at the start of the tick, so a pop happening in
// the same tick never widens the gate retroactively.
type Acceptor struct {
	params Params
}

func NewAcceptor(p Params) Acceptor {
	return Acceptor{params: p}
}

// AdmitResult reports what happened to one offered beat.
type AdmitResult struct {
	// Admitted mirrors the upstream ready signal: the beat was consumed.
	Admitted bool
	// Overflow marks the push-while-full case; the beat was
	// consumed but dropped without corrupting the queue.
	Overflow bool
	// Illegal marks a strict-mode byte-valid violation on an admitted beat.
	Illegal bool
	// Bytes is the valid-byte count of the admitted beat.
	Bytes int
}

// Ready is the admission gate evaluated every tick:
// enable, queue not full, and occupancy below the almost-full threshold.
func (a Acceptor) Ready(level int, q *BeatQueue, ctrl Controls) bool {
	threshold := ctrl.AlmostFull
	if threshold < 0 {
		threshold = 0
	}
	if threshold > q.Cap() {
		threshold = q.Cap()
	}
	return ctrl.Enable && level < q.Cap() && level < threshold
}

// Offer attempts to admit one beat. The payload is copied so the caller may
// reuse its buffer; the stored beat is immutable from here on.
func (a Acceptor) Offer(q *BeatQueue, beat Beat, level int, ctrl Controls) AdmitResult {
	if !a.Ready(level, q, ctrl) {
		return AdmitResult{}
	}
	res := AdmitResult{Admitted: true}

	stored := beat
	stored.ByteValid &= maskBytes(a.params.BeatBytes)
	stored.Payload = make([]byte, a.params.BeatBytes)
	copy(stored.Payload, beat.Payload)

	if !q.Push(stored) {
		// Unreachable through the gate above; report rather than ignore.
		res.Overflow = true
		return res
	}
	res.Bytes = stored.ValidBytes()
	if ctrl.StrictMode && IllegalMask(stored.ByteValid, a.params.BeatBytes, stored.Last) {
		res.Illegal = true
	}
	return res
}
