package bridge

// BeatQueue is a fixed-capacity FIFO of whole beats, the only structure the
// ingress side and the load side both touch within one tick. Pushing while
// full is a reportable no-op; a push and a pop in the same tick leave the
// occupancy unchanged.
type BeatQueue struct {
	buf   []Beat
	head  int
	count int
}

func NewBeatQueue(depth int) *BeatQueue {
	if depth < 1 {
		depth = 1
	}
	return &BeatQueue{buf: make([]Beat, depth)}
}

func (q *BeatQueue) Cap() int { return len(q.buf) }

func (q *BeatQueue) Len() int { return q.count }

func (q *BeatQueue) Empty() bool { return q.count == 0 }

func (q *BeatQueue) Full() bool { return q.count == len(q.buf) }

// Push appends a beat at the tail. It reports false, leaving the queue
// untouched, when the queue is already full.
func (q *BeatQueue) Push(b Beat) bool {
	if q.count == len(q.buf) {
		return false
	}
	q.buf[(q.head+q.count)%len(q.buf)] = b
	q.count++
	return true
}

// Pop removes and returns the head beat.
func (q *BeatQueue) Pop() (Beat, bool) {
	if q.count == 0 {
		return Beat{}, false
	}
	b := q.buf[q.head]
	q.buf[q.head] = Beat{}
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return b, true
}

// Peek exposes the head beat without consuming it (show-ahead read).
func (q *BeatQueue) Peek() (*Beat, bool) {
	if q.count == 0 {
		return nil, false
	}
	return &q.buf[q.head], true
}

// Clear discards all contents in one step. Storage is not scrubbed beyond
// what dropping the references requires.
func (q *BeatQueue) Clear() {
	for i := range q.buf {
		q.buf[i] = Beat{}
	}
	q.head = 0
	q.count = 0
}
