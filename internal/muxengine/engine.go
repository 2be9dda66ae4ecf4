// Package muxengine implements the Mux.Cool sub-connection table: frame
// dispatch by status, the TCP/DNS sub-connection lifecycles, the
// per-tunnel write queue, and the host-imposed sub-request budget.
package muxengine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/brimtide/vlesstund/internal/metrics"
	"github.com/brimtide/vlesstund/internal/outbound"
	"github.com/brimtide/vlesstund/internal/shared/constants"
	"github.com/brimtide/vlesstund/internal/wire"
)

// Sender writes one complete WebSocket message. The engine guarantees
// only its own writer goroutine ever calls it, so it does not need to
// be safe for concurrent use by itself.
type Sender func([]byte) error

// Engine is one tunnel's Mux sub-connection table. One Engine serves
// exactly one tunnel; it is not shared across tunnels.
type Engine struct {
	logger         *zap.Logger
	doh            *outbound.DoHClient
	maxSubrequests int
	responsePrefix []byte
	send           Sender

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	subs         map[uint16]*subConn
	ended        *endedSet
	queue        *writeQueue
	residue      []byte
	totalTCP     int
	limitReached bool
	sentPrefix   bool
	lastActivity time.Time
	closed       bool

	notify chan struct{}
	stopCh chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	stats engineStats
}

// New builds an Engine. maxSubrequests <= 0 falls back to the spec
// default of 48. responsePrefix is prepended to the first frame this
// engine ever sends, matching the tunnel's single response-prefix rule.
func New(maxSubrequests int, responsePrefix []byte, send Sender, doh *outbound.DoHClient, logger *zap.Logger) *Engine {
	if maxSubrequests <= 0 {
		maxSubrequests = constants.DefaultMaxSubrequests
	}
	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		logger:         logger,
		doh:            doh,
		maxSubrequests: maxSubrequests,
		responsePrefix: responsePrefix,
		send:           send,
		ctx:            ctx,
		cancel:         cancel,
		subs:           make(map[uint16]*subConn),
		ended:          newEndedSet(),
		queue:          newWriteQueue(),
		lastActivity:   time.Now(),
		notify:         make(chan struct{}, 1),
		stopCh:         make(chan struct{}),
	}

	e.wg.Add(1)
	go e.writerLoop()
	return e
}

// Dispatch feeds one incoming WebSocket chunk into the engine. The
// residue buffer absorbs whatever trailing bytes didn't form a complete
// frame; a per-chunk iteration cap guards against malformed streams
// that never advance.
func (e *Engine) Dispatch(chunk []byte) error {
	e.mu.Lock()
	e.lastActivity = time.Now()

	var buf []byte
	if len(e.residue) == 0 {
		buf = chunk
	} else {
		buf = append(e.residue, chunk...)
		e.residue = nil
	}
	e.mu.Unlock()

	offset := 0
	for iterations := 0; iterations < constants.MuxParseIterationCap; iterations++ {
		if offset >= len(buf) {
			return nil
		}
		frame, n, err := wire.ParseMuxFrame(buf, offset)
		if err == wire.ErrIncomplete || err == wire.ErrShortBuffer {
			e.mu.Lock()
			e.residue = append([]byte{}, buf[offset:]...)
			e.mu.Unlock()
			return nil
		}
		if err != nil {
			return err
		}
		if n <= 0 {
			return wire.ErrMalformedFrame
		}
		e.handleFrame(frame)
		offset += n
	}
	return nil
}

func (e *Engine) handleFrame(f *wire.MuxFrame) {
	switch f.Status {
	case wire.MuxStatusNew:
		e.handleNew(f)
	case wire.MuxStatusKeep:
		e.handleKeep(f)
	case wire.MuxStatusEnd:
		e.handleEnd(f)
	case wire.MuxStatusKeepAlive:
		// lastActivity already bumped in Dispatch; payload discarded.
	}
}

func (e *Engine) handleNew(f *wire.MuxFrame) {
	e.mu.Lock()
	e.ended.remove(f.SubID)

	if f.Network != wire.MuxNetworkUDP {
		if e.limitReached || e.totalTCP >= e.maxSubrequests {
			e.limitReached = true
			e.mu.Unlock()
			metrics.SubrequestBudgetRejections.Inc()
			e.endSub(f.SubID)
			return
		}
		e.totalTCP++
		sub := &subConn{id: f.SubID, network: f.Network}
		e.subs[f.SubID] = sub
		e.mu.Unlock()

		metrics.SubConnectionsTotal.WithLabelValues("tcp").Inc()
		metrics.SubConnectionsActive.WithLabelValues("tcp").Inc()
		e.wg.Add(1)
		go e.dialTCP(sub, f.Address, f.Port, f.Data)
		return
	}

	if f.Port != constants.DNSPort {
		e.mu.Unlock()
		e.endSub(f.SubID)
		return
	}
	sub := &subConn{id: f.SubID, network: f.Network, ready: true}
	e.subs[f.SubID] = sub
	e.mu.Unlock()

	metrics.SubConnectionsTotal.WithLabelValues("udp").Inc()
	metrics.SubConnectionsActive.WithLabelValues("udp").Inc()
	if len(f.Data) > 0 {
		e.stats.addReceived(len(f.Data))
		e.wg.Add(1)
		go e.queryDNS(sub, f.Data)
	}
}

func (e *Engine) handleKeep(f *wire.MuxFrame) {
	e.mu.Lock()
	sub, found := e.subs[f.SubID]
	if !found {
		already := e.ended.contains(f.SubID)
		if !already {
			e.ended.mark(f.SubID)
		}
		e.mu.Unlock()
		if !already {
			e.sendEnd(f.SubID)
		}
		return
	}
	e.mu.Unlock()

	if sub.isClosed() {
		return
	}

	if sub.network == wire.MuxNetworkUDP {
		if len(f.Data) > 0 {
			e.stats.addReceived(len(f.Data))
			e.wg.Add(1)
			go e.queryDNS(sub, f.Data)
		}
		return
	}

	if len(f.Data) == 0 {
		return
	}

	conn, ready := sub.readyConnForWrite(f.Data)
	if !ready {
		return
	}

	e.stats.addReceived(len(f.Data))
	if err := outbound.WriteChunked(conn, f.Data); err != nil {
		e.logger.Debug("sub write failed", zap.Uint16("sub_id", f.SubID), zap.Error(err))
		e.removeSub(f.SubID, true)
	}
}

func (e *Engine) handleEnd(f *wire.MuxFrame) {
	e.mu.Lock()
	sub, found := e.subs[f.SubID]
	if found {
		delete(e.subs, f.SubID)
	}
	e.ended.mark(f.SubID)
	e.mu.Unlock()

	if found {
		if conn := sub.close(); conn != nil {
			conn.Close()
		}
		e.decrementActive(sub.network)
	}
}

// removeSub closes and forgets a sub, optionally emitting an End frame
// (e.g. after a local write error the client hasn't heard about yet).
func (e *Engine) removeSub(id uint16, sendEnd bool) {
	e.mu.Lock()
	sub, found := e.subs[id]
	if found {
		delete(e.subs, id)
	}
	e.mu.Unlock()

	if !found {
		return
	}
	if conn := sub.close(); conn != nil {
		conn.Close()
	}
	e.decrementActive(sub.network)
	if sendEnd {
		e.endSub(id)
	}
}

// endSub marks id ended and emits an End frame, used for the paths that
// never registered a subConn (budget rejection, bad UDP port).
func (e *Engine) endSub(id uint16) {
	e.mu.Lock()
	e.ended.mark(id)
	e.mu.Unlock()
	e.sendEnd(id)
}

func (e *Engine) decrementActive(network wire.MuxNetwork) {
	label := "tcp"
	if network == wire.MuxNetworkUDP {
		label = "udp"
	}
	metrics.SubConnectionsActive.WithLabelValues(label).Dec()
}

func (e *Engine) sendEnd(id uint16) {
	e.enqueueFrame(wire.BuildEnd(id))
}

// enqueueFrame appends frame to the write queue and wakes the writer
// loop. A full queue is a back-pressure signal: the frame is dropped,
// never blocked on.
func (e *Engine) enqueueFrame(frame []byte) {
	e.mu.Lock()
	ok := e.queue.enqueue(frame)
	e.mu.Unlock()

	if !ok {
		e.logger.Debug("mux write queue full, dropping frame")
		return
	}
	select {
	case e.notify <- struct{}{}:
	default:
	}
}

func (e *Engine) writerLoop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.stopCh:
			return
		case <-e.notify:
			for {
				e.mu.Lock()
				frame, ok := e.queue.dequeue()
				e.mu.Unlock()
				if !ok {
					break
				}
				e.sendFrame(frame)
			}
		}
	}
}

func (e *Engine) sendFrame(frame []byte) {
	e.mu.Lock()
	first := !e.sentPrefix
	e.sentPrefix = true
	e.mu.Unlock()

	msg := frame
	if first {
		msg = make([]byte, 0, len(e.responsePrefix)+len(frame))
		msg = append(msg, e.responsePrefix...)
		msg = append(msg, frame...)
	}

	if err := e.send(msg); err != nil {
		e.logger.Debug("tunnel write failed, closing engine", zap.Error(err))
		e.Close()
		return
	}
	e.stats.addSent(len(frame))
}

// IsIdle reports whether the engine has no active subs and has seen no
// traffic for longer than threshold.
func (e *Engine) IsIdle(threshold time.Duration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs) == 0 && time.Since(e.lastActivity) > threshold
}

// Stats returns the engine's own framed-traffic counters.
func (e *Engine) Stats() (uplink, downlink uint64) {
	return e.stats.snapshot()
}

// Close tears down every sub-connection and stops the writer loop. It
// is idempotent.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		subs := e.subs
		e.subs = make(map[uint16]*subConn)
		e.ended.clear()
		e.mu.Unlock()

		for _, sub := range subs {
			if conn := sub.close(); conn != nil {
				conn.Close()
			}
			e.decrementActive(sub.network)
		}

		e.cancel()
		close(e.stopCh)
	})
}

// Wait blocks until every sub-connection goroutine and the writer loop
// have exited, for tests and clean shutdown.
func (e *Engine) Wait() {
	e.wg.Wait()
}
