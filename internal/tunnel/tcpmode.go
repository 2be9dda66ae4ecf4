package tunnel

import (
	"errors"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/brimtide/vlesstund/internal/outbound"
	"github.com/brimtide/vlesstund/internal/shared/constants"
	"github.com/brimtide/vlesstund/internal/shared/netutil"
	"github.com/brimtide/vlesstund/internal/shared/pool"
)

// errEmptyFirstRead signals the one retryable condition spec.md §4.2
// names: the connect succeeded but the remote closed before sending any
// bytes back.
var errEmptyFirstRead = errors.New("tunnel: upstream closed before any bytes")

// runTCP implements spec.md §4.2's TCP-mode first-write contract. When
// the greeting carries no embedded payload there is nothing to probe
// or retry against, so the socket is attached immediately and pumped;
// retry only ever applies to the greeting's own initial payload, never
// to bytes the client sends afterward.
func (d *Dispatcher) runTCP(initialPayload []byte) error {
	address := d.greeting.Address
	port := d.greeting.Port

	conn, err := outbound.Connect(d.ctx, address, port)
	if err != nil {
		return err
	}

	if len(initialPayload) == 0 {
		d.attachTCPConn(conn)
		go d.pumpTCP(d.tcpConn.(net.Conn))
		return nil
	}

	conn, first, err := d.writeAndProbe(conn, address, port, initialPayload)
	if err != nil {
		return err
	}
	if conn == nil {
		// Both attempts closed cleanly with nothing to relay.
		return nil
	}

	d.attachTCPConn(conn)
	if len(first) > 0 {
		if sendErr := d.sendPrefixed(first); sendErr != nil {
			conn.Close()
			return sendErr
		}
		d.acc.addDownlink(len(first))
	}

	go d.pumpTCP(d.tcpConn.(net.Conn))
	return nil
}

// attachTCPConn commits conn as the tunnel's outbound socket, wrapping
// it in netutil.CountingConn so every byte relayed after this point —
// client writes via writeTCP, upstream reads via pumpTCP — accumulates
// into the dispatcher's accounting without each call site doing it by
// hand. The probe write in writeAndRead happens before commitment and
// accounts for itself directly, once per attempt, so a retried attempt
// counts the replayed initial payload again.
func (d *Dispatcher) attachTCPConn(conn net.Conn) {
	d.tcpConn = netutil.NewCountingConn(conn,
		func(n int64) { d.acc.addDownlink(int(n)) },
		func(n int64) { d.acc.addUplink(int(n)) },
	)
}

// writeAndProbe writes initialPayload to conn and reads one response
// chunk under a bounded deadline to classify the attempt:
//   - data back: conn and the chunk are returned, no retry.
//   - clean EOF with nothing back: the single retry fires against
//     retryHost, replaying initialPayload once more.
//   - probe deadline exceeded: proceeds without retrying: the upstream
//     just hasn't answered yet, which is not the retry condition.
func (d *Dispatcher) writeAndProbe(conn net.Conn, address string, port uint16, initialPayload []byte) (net.Conn, []byte, error) {
	first, err := d.writeAndRead(conn, initialPayload)
	if err == nil {
		return conn, first, nil
	}
	if !errors.Is(err, errEmptyFirstRead) {
		conn.Close()
		return nil, nil, err
	}

	conn.Close()
	host := retryHost(address, d.cfg.ProxyIP)
	retryConn, dialErr := outbound.Connect(d.ctx, host, port)
	if dialErr != nil {
		return nil, nil, dialErr
	}

	first, err = d.writeAndRead(retryConn, initialPayload)
	if err == nil {
		return retryConn, first, nil
	}
	retryConn.Close()
	if errors.Is(err, errEmptyFirstRead) {
		return nil, nil, nil
	}
	return nil, nil, err
}

// writeAndRead writes initialPayload, then reads once under a bounded
// deadline. A deadline timeout is reported as a zero-length, nil-error
// result: the caller should proceed without retrying.
func (d *Dispatcher) writeAndRead(conn net.Conn, initialPayload []byte) ([]byte, error) {
	if err := outbound.WriteChunked(conn, initialPayload); err != nil {
		return nil, err
	}
	d.acc.addUplink(len(initialPayload))

	_ = conn.SetReadDeadline(time.Now().Add(constants.TCPConnectTimeout))
	defer conn.SetReadDeadline(time.Time{})

	buf := pool.GetBuffer(pool.SizeLarge)
	defer pool.PutBuffer(buf)

	n, err := conn.Read(*buf)
	if n > 0 {
		return append([]byte{}, (*buf)[:n]...), nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return nil, errEmptyFirstRead
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return nil, nil
	}
	return nil, err
}

// pumpTCP drains conn (already a netutil.CountingConn ticking downlink
// accounting on every read) for the rest of the tunnel's life, sending
// each chunk as a WebSocket message. Per spec.md §4.2 a clean upstream
// close does not close the WebSocket; the client owns that decision.
func (d *Dispatcher) pumpTCP(conn net.Conn) {
	err := outbound.Bridge(conn, d.sendPrefixed)
	if err != nil {
		d.logger.Debug("tcp pump ended with error", zap.Error(err))
		d.abort()
	}
}

// writeTCP forwards one inbound WebSocket chunk to the outbound socket.
// d.tcpConn is a netutil.CountingConn, so the write itself ticks uplink
// accounting.
func (d *Dispatcher) writeTCP(chunk []byte) error {
	if d.tcpConn == nil {
		return nil
	}
	conn, ok := d.tcpConn.(net.Conn)
	if !ok {
		return nil
	}
	return outbound.WriteChunked(conn, chunk)
}
