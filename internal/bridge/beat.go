package bridge

import (
	"errors"
	"fmt"
	"math/bits"
)

// MaxBeatBytes bounds the beat width so that byte-valid and keep masks fit a
// single uint64 bitmap.
const MaxBeatBytes = 64

var (
	ErrBeatWidth     = errors.New("bridge: beat width must be in [1, 64] bytes")
	ErrSegWidth      = errors.New("bridge: segment width must be in [1, beat width] bytes")
	ErrWidthRatio    = errors.New("bridge: beat width must be a whole number of segments")
	ErrFifoDepth     = errors.New("bridge: fifo depth must be at least 1")
	ErrPayloadLength = errors.New("bridge: beat payload length does not match beat width")
)

// Params fixes the geometry of one bridge instance. Widths are byte counts,
// validated once at construction time.
type Params struct {
	BeatBytes int
	SegBytes  int
	FifoDepth int
}

func (p Params) Validate() error {
	if p.BeatBytes < 1 || p.BeatBytes > MaxBeatBytes {
		return fmt.Errorf("%w: got %d", ErrBeatWidth, p.BeatBytes)
	}
	if p.SegBytes < 1 || p.SegBytes > p.BeatBytes {
		return fmt.Errorf("%w: got %d (beat %d)", ErrSegWidth, p.SegBytes, p.BeatBytes)
	}
	if p.BeatBytes%p.SegBytes != 0 {
		return fmt.Errorf("%w: %d/%d", ErrWidthRatio, p.BeatBytes, p.SegBytes)
	}
	if p.FifoDepth < 1 {
		return fmt.Errorf("%w: got %d", ErrFifoDepth, p.FifoDepth)
	}
	return nil
}

// SegmentsPerBeat is the maximum number of segments a fully valid beat yields.
func (p Params) SegmentsPerBeat() int {
	return p.BeatBytes / p.SegBytes
}

// Beat is one wide unit of upstream data: payload bytes, a per-byte validity
// bitmap (bit i covers Payload[i]), a last-of-frame flag, and sideband
// metadata. A Beat is immutable once admitted into the queue.
type Beat struct {
	Payload   []byte
	ByteValid uint64
	Last      bool
	Meta      uint64
}

// ValidBytes counts the set bits of the byte-valid bitmap.
func (b Beat) ValidBytes() int {
	return bits.OnesCount64(b.ByteValid)
}

// Segment is one fixed-width unit of downstream data with its own keep bitmap
// and frame markers. Segments live only inside the emitter's output slot.
type Segment struct {
	Payload []byte
	Keep    uint64
	Meta    uint64
	Sop     bool
	Eop     bool
}

// Controls are the external configuration inputs, polled every tick.
type Controls struct {
	Enable         bool
	StrictMode     bool
	AbortOnDisable bool
	// AlmostFull is the queue occupancy at or above which admission stops.
	// Values outside [0, FifoDepth] are clamped.
	AlmostFull int
}

// maskBytes returns a bitmap with the low n bits set.
func maskBytes(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(n)) - 1
}
