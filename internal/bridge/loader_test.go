package bridge

import "testing"

func testParams(t *testing.T) Params {
	t.Helper()
	p := Params{BeatBytes: 32, SegBytes: 8, FifoDepth: 8}
	if err := p.Validate(); err != nil {
		t.Fatalf("test params invalid: %v", err)
	}
	return p
}

func TestPlanBeatGeometry(t *testing.T) {
	p := Params{BeatBytes: 32, SegBytes: 8, FifoDepth: 8}
	cases := []struct {
		name      string
		mask      uint64
		segments  int
		lastBytes int
	}{
		{"full beat", 0xFFFFFFFF, 4, 8},
		{"three bytes", 0b111, 1, 3},
		{"nine bytes", 0x1FF, 2, 1},
		{"exact two segments", 0xFFFF, 2, 8},
		{"sparse counts by popcount", 0x8000_0001, 1, 2},
		{"empty", 0, 0, 0},
	}
	for _, tc := range cases {
		plan := PlanBeat(Beat{ByteValid: tc.mask}, p)
		if plan.NumSegments != tc.segments || plan.LastSegmentBytes != tc.lastBytes {
			t.Fatalf("%s: plan=%+v want segments=%d lastBytes=%d",
				tc.name, plan, tc.segments, tc.lastBytes)
		}
	}
}

func TestLoaderHandsBeatToEmitter(t *testing.T) {
	p := testParams(t)
	q := NewBeatQueue(p.FifoDepth)
	em := NewEmitter(p)
	ld := NewLoader(p)

	payload := make([]byte, p.BeatBytes)
	payload[0] = 0xAB
	q.Push(Beat{Payload: payload, ByteValid: 0xFFFFFFFF, Last: true, Meta: 5})

	if !ld.TryLoad(q, em, true) {
		t.Fatal("load should succeed with queued beat and idle emitter")
	}
	if !ld.Buffered() || !em.Active() {
		t.Fatalf("loader buffered=%v emitter active=%v", ld.Buffered(), em.Active())
	}
	if q.Len() != 0 {
		t.Fatalf("beat not consumed from queue: level=%d", q.Len())
	}
	if ld.TryLoad(q, em, true) {
		t.Fatal("second load must wait for release")
	}
}

func TestLoaderDisabledDoesNotPop(t *testing.T) {
	p := testParams(t)
	q := NewBeatQueue(p.FifoDepth)
	em := NewEmitter(p)
	ld := NewLoader(p)
	q.Push(Beat{Payload: make([]byte, p.BeatBytes), ByteValid: 1})

	if ld.TryLoad(q, em, false) {
		t.Fatal("load must not fire while disabled")
	}
	if q.Len() != 1 {
		t.Fatalf("disabled load consumed the beat: level=%d", q.Len())
	}
}

func TestLoaderDiscardsZeroValidBeat(t *testing.T) {
	p := testParams(t)
	q := NewBeatQueue(p.FifoDepth)
	em := NewEmitter(p)
	ld := NewLoader(p)
	q.Push(Beat{Payload: make([]byte, p.BeatBytes), ByteValid: 0})

	if ld.TryLoad(q, em, true) {
		t.Fatal("zero-valid beat must not reach the emitter")
	}
	if q.Len() != 0 {
		t.Fatal("zero-valid beat must still be consumed")
	}
	if ld.Buffered() || em.Active() {
		t.Fatal("loader and emitter must stay idle after a zero-valid beat")
	}
}

func TestLoaderReleaseEnablesSameTickReload(t *testing.T) {
	p := testParams(t)
	q := NewBeatQueue(p.FifoDepth)
	em := NewEmitter(p)
	ld := NewLoader(p)
	q.Push(Beat{Payload: make([]byte, p.BeatBytes), ByteValid: 0xFF, Last: true})
	q.Push(Beat{Payload: make([]byte, p.BeatBytes), ByteValid: 0xFF, Last: true})

	if !ld.TryLoad(q, em, true) {
		t.Fatal("first load failed")
	}
	// Drain the single segment of the first beat.
	if _, done := em.Accept(); !done {
		t.Fatal("one-segment beat should complete on first accept")
	}
	ld.Release()
	if !ld.TryLoad(q, em, true) {
		t.Fatal("reload after release in the same tick failed")
	}
}
