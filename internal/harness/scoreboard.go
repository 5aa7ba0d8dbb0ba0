package harness

import (
	"bytes"
	"fmt"

	"github.com/danmuck/beatbridge/internal/bridge"
)

const maxReportedErrors = 16

// Scoreboard holds a reference model of the segmentation engine: admitted
// beats are expanded into the exact segment stream the bridge must produce,
// and accepted segments are matched against it in order. An abort drops all
// expectations still in flight, mirroring the engine's flush.
type Scoreboard struct {
	params bridge.Params

	inFrame   bool
	frameMeta uint64

	expected []bridge.Segment

	FramesExpected uint64
	BytesExpected  uint64
	Matched        int

	errs      []string
	errsTotal int
}

func NewScoreboard(p bridge.Params) *Scoreboard {
	return &Scoreboard{params: p}
}

// OnAdmit expands one admitted beat into its expected segments.
func (s *Scoreboard) OnAdmit(beat bridge.Beat) {
	v := beat.ValidBytes()
	s.BytesExpected += uint64(v)
	if v == 0 {
		return
	}
	n := (v + s.params.SegBytes - 1) / s.params.SegBytes
	lastBytes := v - (n-1)*s.params.SegBytes
	if !s.inFrame {
		s.frameMeta = beat.Meta
	}
	for i := 0; i < n; i++ {
		payload := make([]byte, s.params.SegBytes)
		copy(payload, beat.Payload[i*s.params.SegBytes:])
		keep := prefixMask(s.params.SegBytes)
		if i == n-1 && lastBytes != s.params.SegBytes {
			keep = prefixMask(lastBytes)
		}
		seg := bridge.Segment{
			Payload: payload,
			Keep:    keep,
			Meta:    s.frameMeta,
			Sop:     !s.inFrame && i == 0,
			Eop:     beat.Last && i == n-1,
		}
		if seg.Sop {
			s.inFrame = true
		}
		if seg.Eop {
			s.inFrame = false
			s.FramesExpected++
		}
		s.expected = append(s.expected, seg)
	}
}

// OnAccept matches one accepted segment against the head expectation.
func (s *Scoreboard) OnAccept(seg bridge.Segment) {
	if len(s.expected) == 0 {
		s.fail("unexpected segment: keep=%#x sop=%v eop=%v", seg.Keep, seg.Sop, seg.Eop)
		return
	}
	want := s.expected[0]
	s.expected = s.expected[1:]
	if !bytes.Equal(seg.Payload, want.Payload) {
		s.fail("segment %d payload: got %x want %x", s.Matched, seg.Payload, want.Payload)
	}
	if seg.Keep != want.Keep {
		s.fail("segment %d keep: got %#x want %#x", s.Matched, seg.Keep, want.Keep)
	}
	if seg.Meta != want.Meta {
		s.fail("segment %d meta: got %#x want %#x", s.Matched, seg.Meta, want.Meta)
	}
	if seg.Sop != want.Sop || seg.Eop != want.Eop {
		s.fail("segment %d markers: got sop=%v eop=%v want sop=%v eop=%v",
			s.Matched, seg.Sop, seg.Eop, want.Sop, want.Eop)
	}
	s.Matched++
}

// OnAbort discards every expectation still in flight and closes the frame,
// exactly as the engine's flush does.
func (s *Scoreboard) OnAbort() {
	for _, seg := range s.expected {
		if seg.Eop {
			s.FramesExpected--
		}
	}
	s.expected = s.expected[:0]
	s.inFrame = false
	s.frameMeta = 0
}

// Drained reports whether every expected segment has been matched.
func (s *Scoreboard) Drained() bool { return len(s.expected) == 0 }

// Outstanding is the number of expected segments not yet matched.
func (s *Scoreboard) Outstanding() int { return len(s.expected) }

func (s *Scoreboard) Errors() []string { return s.errs }

func (s *Scoreboard) fail(format string, args ...any) {
	s.errsTotal++
	if len(s.errs) < maxReportedErrors {
		s.errs = append(s.errs, fmt.Sprintf(format, args...))
	}
}
