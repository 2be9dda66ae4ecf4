package tunnel

import (
	"go.uber.org/zap"

	"github.com/brimtide/vlesstund/internal/outbound"
)

// handleDNS answers one non-Mux DNS-mode chunk per spec.md §4.4: the
// client frames each query as `[u16 length][bytes]`, and a single
// framed query is assumed not to straddle WebSocket messages — a
// documented limitation of the reference implementation, preserved
// rather than papered over with reassembly.
func (d *Dispatcher) handleDNS(chunk []byte) error {
	query, ok := outbound.SplitFramedQuery(chunk)
	if !ok {
		d.logger.Debug("dropping malformed DNS-mode chunk", zap.Int("len", len(chunk)))
		return nil
	}

	d.acc.addUplink(len(chunk))

	resp, err := d.doh.Query(d.ctx, query)
	if err != nil {
		d.logger.Debug("DoH query failed", zap.Error(err))
		return nil
	}

	framed := outbound.BuildFramedResponse(resp)
	d.acc.addDownlink(len(framed))
	return d.sendPrefixed(framed)
}
