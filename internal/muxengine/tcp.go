package muxengine

import (
	"net"

	"go.uber.org/zap"

	"github.com/brimtide/vlesstund/internal/outbound"
	"github.com/brimtide/vlesstund/internal/wire"
)

// dialTCP runs the TCP sub-connection lifecycle from spec.md §4.3:
// connect (racing the 3s ceiling baked into outbound.Connect), flush the
// New frame's initial payload and anything queued while connecting,
// then spawn the remote->WebSocket pump.
//
// The flush and the "ready" flip happen as one loop guarded by the
// sub's own lock (setReadyOrQueue), so a Keep frame that races in
// mid-connect can never take the direct-write path in handleKeep while
// this goroutine is still writing — it either lands in pending and
// gets flushed here, or arrives after ready is set and is written
// directly, never both at once. That keeps the sub's conn behind a
// single writer for its whole life, per the exclusive-writer/FIFO
// invariant.
func (e *Engine) dialTCP(sub *subConn, address string, port uint16, initialData []byte) {
	defer e.wg.Done()

	conn, err := outbound.Connect(e.ctx, address, port)
	if err != nil {
		e.logger.Debug("sub connect failed",
			zap.Uint16("sub_id", sub.id), zap.String("address", address), zap.Error(err))
		e.removeSub(sub.id, true)
		return
	}
	sub.attach(conn)

	data := initialData
	for {
		if len(data) > 0 {
			e.stats.addReceived(len(data))
			if err := outbound.WriteChunked(conn, data); err != nil {
				e.removeSub(sub.id, true)
				return
			}
		}
		next, becameReady := sub.setReadyOrQueue()
		if becameReady {
			break
		}
		data = next
	}

	e.wg.Add(1)
	go e.pumpTCP(sub, conn)
}

// pumpTCP forwards conn's bytes downstream as Keep frames until the
// remote closes or errors, then removes the sub. An End is sent only if
// the sub is still registered, so a sub the client already ended gets none.
func (e *Engine) pumpTCP(sub *subConn, conn net.Conn) {
	defer e.wg.Done()

	err := outbound.Bridge(conn, func(data []byte) error {
		frame := wire.BuildKeep(sub.id, data)
		e.enqueueFrame(frame)
		return nil
	})
	if err != nil {
		e.logger.Debug("sub read failed", zap.Uint16("sub_id", sub.id), zap.Error(err))
	}
	e.removeSub(sub.id, true)
}
