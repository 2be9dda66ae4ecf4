package muxengine

import (
	"net"
	"sync"

	"github.com/brimtide/vlesstund/internal/wire"
)

// subConn is one Mux sub-connection's mutable state. The engine's
// dispatch path and the sub's own remote->WebSocket pump goroutine both
// touch it, so every field is guarded by mu. conn is only ever written
// to either by the connect-time flush (while ready is still false) or,
// once ready is true, by handleKeep on the engine's single dispatch
// goroutine after readyConnForWrite has released mu; the ready flip
// under mu keeps the two from overlapping — see setReadyOrQueue.
type subConn struct {
	id      uint16
	network wire.MuxNetwork

	mu      sync.Mutex
	conn    net.Conn
	ready   bool
	closed  bool
	pending [][]byte
}

// enqueuePending appends data to the pending queue. Callers must already
// hold mu; this is the one place the queue grows, used by
// readyConnForWrite's not-yet-ready path.
func (s *subConn) enqueuePending(data []byte) {
	if len(data) == 0 {
		return
	}
	s.pending = append(s.pending, data)
}

// attach installs conn as the sub's connection. ready stays false until
// the connect-time flush has drained pending to empty, per
// setReadyOrQueue.
func (s *subConn) attach(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = conn
}

// setReadyOrQueue is the sole place ready ever flips to true. Called
// once the connect-time flush believes pending is empty: if a Keep
// frame raced in after the caller's last drain, this appends data to
// the same pending queue instead and returns it so the caller loops
// around and flushes again, atomically with the check — so a frame can
// never arrive between "pending looked empty" and "ready became true"
// and be silently stranded or reordered past a direct write.
func (s *subConn) setReadyOrQueue() (queued []byte, becameReady bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) > 0 {
		queued = s.pending[0]
		s.pending = s.pending[1:]
		return queued, false
	}
	s.ready = true
	return nil, true
}

// readyConnForWrite reports whether the sub is ready for a direct
// write, and if so returns its conn. If not ready, data is queued
// instead so the connect-time flush picks it up.
func (s *subConn) readyConnForWrite(data []byte) (conn net.Conn, ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return s.conn, true
	}
	s.enqueuePending(data)
	return nil, false
}

func (s *subConn) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// close marks the sub closed and returns its connection (if any) so the
// caller can close it outside the lock.
func (s *subConn) close() net.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	conn := s.conn
	s.conn = nil
	return conn
}
