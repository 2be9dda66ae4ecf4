package muxengine

import (
	"go.uber.org/zap"

	"github.com/brimtide/vlesstund/internal/wire"
)

// queryDNS answers one Mux UDP sub's query over the shared DoH client.
// The sub-connection itself has no persistent socket, so a query
// failure ends only this sub — it does not affect the tunnel or other
// sub-connections.
func (e *Engine) queryDNS(sub *subConn, query []byte) {
	defer e.wg.Done()

	resp, err := e.doh.Query(e.ctx, query)
	if err != nil {
		e.logger.Debug("DoH query failed", zap.Uint16("sub_id", sub.id), zap.Error(err))
		e.removeSub(sub.id, true)
		return
	}

	e.enqueueFrame(wire.BuildKeep(sub.id, resp))
}
