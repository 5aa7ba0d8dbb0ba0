package bridge

// AbortCoordinator watches for a falling edge on the enable control using a
// one-tick-delayed sample. When the abort-on-disable policy is active and
// work is pending at the moment enable falls, it demands a synchronized flush
// for exactly one tick. A plain Reset clears the edge detector without ever
// raising the abort event.
type AbortCoordinator struct {
	prevEnable bool
}

func NewAbortCoordinator() *AbortCoordinator {
	return &AbortCoordinator{}
}

// Observe samples enable once per tick and reports whether the flush must
// fire this tick.
func (a *AbortCoordinator) Observe(enable, policy, pending bool) bool {
	fell := a.prevEnable && !enable
	a.prevEnable = enable
	return policy && fell && pending
}

func (a *AbortCoordinator) Reset() {
	a.prevEnable = false
}
