package muxengine

import "github.com/brimtide/vlesstund/internal/shared/constants"

// writeQueue is the per-tunnel FIFO of outbound frame bytes waiting for
// the WebSocket writer. It advances a head index instead of shifting the
// backing slice on every dequeue, compacting only once the head has
// drifted past a threshold, per spec.md §4.3.
type writeQueue struct {
	buf  [][]byte
	head int
}

func newWriteQueue() *writeQueue {
	return &writeQueue{}
}

// enqueue appends frame to the queue. It fails (returns false) once the
// live length exceeds the soft cap; the caller treats that as an
// explicit dropped-frame back-pressure signal, never blocking.
func (q *writeQueue) enqueue(frame []byte) bool {
	if q.len() >= constants.WriteQueueSoftCap {
		return false
	}
	q.buf = append(q.buf, frame)
	return true
}

func (q *writeQueue) len() int {
	return len(q.buf) - q.head
}

func (q *writeQueue) empty() bool {
	return q.len() == 0
}

// dequeue pops the oldest frame, compacting the backing slice once the
// head has advanced past the compaction threshold.
func (q *writeQueue) dequeue() ([]byte, bool) {
	if q.empty() {
		return nil, false
	}
	frame := q.buf[q.head]
	q.head++

	if q.head >= constants.WriteQueueCompactThreshold {
		q.compact()
	}
	return frame, true
}

func (q *writeQueue) compact() {
	remaining := q.buf[q.head:]
	q.buf = append(q.buf[:0], remaining...)
	q.head = 0
}
