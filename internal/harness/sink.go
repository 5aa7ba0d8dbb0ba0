package harness

import "math/rand"

// Sink models the downstream consumer's ready signal. Duty 1.0 is an
// always-ready sink; lower values inject seeded random backpressure; a
// periodic sink is ready on every nth tick only.
type Sink struct {
	rng    *rand.Rand
	duty   float64
	period int
	tick   int
}

func NewSink(seed int64, duty float64) *Sink {
	if duty <= 0 || duty > 1 {
		duty = 1.0
	}
	return &Sink{rng: rand.New(rand.NewSource(seed)), duty: duty}
}

// NewPeriodicSink accepts one segment every n ticks, starting at the first.
func NewPeriodicSink(n int) *Sink {
	if n < 1 {
		n = 1
	}
	return &Sink{duty: 1.0, period: n}
}

func (s *Sink) Ready() bool {
	if s.period > 0 {
		ready := s.tick%s.period == 0
		s.tick++
		return ready
	}
	if s.duty >= 1 {
		return true
	}
	return s.rng.Float64() < s.duty
}
