package bridge

import (
	"bytes"
	"testing"
)

func loadBeat(t *testing.T, em *Emitter, p Params, b Beat) {
	t.Helper()
	if len(b.Payload) == 0 {
		b.Payload = make([]byte, p.BeatBytes)
	}
	plan := PlanBeat(b, p)
	if plan.NumSegments == 0 {
		t.Fatal("test beat has no segments")
	}
	em.Load(b, plan)
}

func TestEmitterFullBeatSegmentation(t *testing.T) {
	p := testParams(t)
	em := NewEmitter(p)
	payload := make([]byte, p.BeatBytes)
	for i := range payload {
		payload[i] = byte(i)
	}
	loadBeat(t, em, p, Beat{Payload: payload, ByteValid: 0xFFFFFFFF, Last: true, Meta: 0xCAFE})

	for i := 0; i < 4; i++ {
		seg, ok := em.Present()
		if !ok {
			t.Fatalf("segment %d not presented", i)
		}
		if !bytes.Equal(seg.Payload, payload[i*8:(i+1)*8]) {
			t.Fatalf("segment %d payload mismatch: %x", i, seg.Payload)
		}
		if seg.Keep != 0xFF {
			t.Fatalf("segment %d keep=%#x want 0xFF", i, seg.Keep)
		}
		if seg.Sop != (i == 0) || seg.Eop != (i == 3) {
			t.Fatalf("segment %d sop=%v eop=%v", i, seg.Sop, seg.Eop)
		}
		if seg.Meta != 0xCAFE {
			t.Fatalf("segment %d meta=%#x", i, seg.Meta)
		}
		_, done := em.Accept()
		if done != (i == 3) {
			t.Fatalf("segment %d done=%v", i, done)
		}
	}
	if em.Active() || em.InFrame() {
		t.Fatalf("emitter should be idle after eop: active=%v inFrame=%v", em.Active(), em.InFrame())
	}
}

func TestEmitterPartialTailKeep(t *testing.T) {
	p := testParams(t)
	em := NewEmitter(p)
	loadBeat(t, em, p, Beat{ByteValid: 0b00000111, Last: true})

	seg, ok := em.Present()
	if !ok {
		t.Fatal("segment not presented")
	}
	if seg.Keep != 0b00000111 {
		t.Fatalf("keep=%#b want 0b111", seg.Keep)
	}
	if !seg.Sop || !seg.Eop {
		t.Fatalf("single-segment frame must carry sop and eop: sop=%v eop=%v", seg.Sop, seg.Eop)
	}
	pulses, done := em.Accept()
	if !done || !pulses.BeatDone || !pulses.FrameDone {
		t.Fatalf("pulses=%+v done=%v", pulses, done)
	}
	if em.InFrame() {
		t.Fatal("eop must close the frame even when the segment also carried sop")
	}
}

func TestEmitterStabilityUnderBackpressure(t *testing.T) {
	p := testParams(t)
	em := NewEmitter(p)
	payload := make([]byte, p.BeatBytes)
	payload[3] = 0x5A
	loadBeat(t, em, p, Beat{Payload: payload, ByteValid: 0xFFFFFFFF, Last: true, Meta: 9})

	first, _ := em.Present()
	for i := 0; i < 5; i++ {
		again, ok := em.Present()
		if !ok {
			t.Fatalf("re-present %d failed", i)
		}
		if !bytes.Equal(again.Payload, first.Payload) || again.Keep != first.Keep ||
			again.Meta != first.Meta || again.Sop != first.Sop || again.Eop != first.Eop {
			t.Fatalf("re-present %d changed fields: %+v vs %+v", i, again, first)
		}
	}
}

func TestEmitterFrameMetaLatchedAtFrameStart(t *testing.T) {
	p := testParams(t)
	em := NewEmitter(p)

	// First beat opens the frame; meta 0xA1 rides the whole frame.
	loadBeat(t, em, p, Beat{ByteValid: 0xFF, Last: false, Meta: 0xA1})
	seg, _ := em.Present()
	if seg.Meta != 0xA1 || !seg.Sop {
		t.Fatalf("first segment meta=%#x sop=%v", seg.Meta, seg.Sop)
	}
	em.Accept()
	if !em.InFrame() {
		t.Fatal("accepted sop must open the frame")
	}

	// Second beat carries different meta; the latched value must win.
	loadBeat(t, em, p, Beat{ByteValid: 0xFF, Last: true, Meta: 0xB2})
	seg, _ = em.Present()
	if seg.Meta != 0xA1 {
		t.Fatalf("mid-frame meta re-latched: %#x", seg.Meta)
	}
	if seg.Sop {
		t.Fatal("mid-frame beat must not carry sop")
	}
	if !seg.Eop {
		t.Fatal("final segment of last beat must carry eop")
	}
	em.Accept()

	// Next frame re-latches.
	loadBeat(t, em, p, Beat{ByteValid: 0xFF, Last: true, Meta: 0xC3})
	seg, _ = em.Present()
	if seg.Meta != 0xC3 || !seg.Sop {
		t.Fatalf("new frame meta=%#x sop=%v", seg.Meta, seg.Sop)
	}
}

func TestEmitterFlushDiscardsProgressAndFrame(t *testing.T) {
	p := testParams(t)
	em := NewEmitter(p)
	loadBeat(t, em, p, Beat{ByteValid: 0xFFFFFFFF, Last: false, Meta: 1})
	em.Accept() // opens the frame, three segments left

	em.Flush()
	if em.Active() || em.InFrame() {
		t.Fatalf("flush left state: active=%v inFrame=%v", em.Active(), em.InFrame())
	}
	if _, ok := em.Present(); ok {
		t.Fatal("flushed emitter must not present")
	}

	// The next beat starts a clean frame.
	loadBeat(t, em, p, Beat{ByteValid: 0xFF, Last: true, Meta: 2})
	seg, _ := em.Present()
	if !seg.Sop || seg.Meta != 2 {
		t.Fatalf("post-flush frame: sop=%v meta=%#x", seg.Sop, seg.Meta)
	}
}
