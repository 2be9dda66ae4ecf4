// Package outbound implements the TCP and DNS-over-HTTPS primitives the
// tunnel dispatcher and the Mux engine both proxy payload through. It has
// no awareness of Mux or the tunnel's wire framing; each sub-connection
// and the non-Mux TCP pipe re-use the same connect/write/bridge calls.
package outbound

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/brimtide/vlesstund/internal/shared/constants"
	"github.com/brimtide/vlesstund/internal/shared/pool"
	"github.com/brimtide/vlesstund/internal/shared/qos"
)

// newSafetyValve builds a fixed, internal-only per-sub-connection bandwidth
// ceiling — not exposed through configuration — that keeps one abusive
// tunnel from saturating the host NIC for every other tunnel.
func newSafetyValve() *qos.Limiter {
	return qos.NewLimiter(qos.Config{
		Bandwidth: constants.OutboundBandwidthSafetyValve,
	})
}

// Connect dials host:port with the 3s hard ceiling spec.md §5 mandates
// for every outbound TCP connect, Mux sub-connection or otherwise. The
// returned conn is wrapped with the internal bandwidth safety valve.
func Connect(ctx context.Context, host string, port uint16) (net.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, constants.TCPConnectTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("connect %s:%d: %w", host, port, err)
	}
	return qos.NewLimitedConn(ctx, conn, newSafetyValve()), nil
}

// WriteChunked splits data into ChunkSize slices before handing each to
// conn, bounding any single write-call's payload per spec.md §4.3.
func WriteChunked(conn net.Conn, data []byte) error {
	for len(data) > 0 {
		n := constants.ChunkSize
		if n > len(data) {
			n = len(data)
		}
		if _, err := conn.Write(data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// Bridge drains conn, handing each read chunk to sink, until EOF or a
// read error. A clean EOF returns nil; any other error is returned so
// the caller can distinguish "remote closed" from "remote misbehaved".
func Bridge(conn net.Conn, sink func([]byte) error) error {
	buf := pool.GetBuffer(pool.SizeLarge)
	defer pool.PutBuffer(buf)

	for {
		n, err := conn.Read(*buf)
		if n > 0 {
			if sinkErr := sink((*buf)[:n]); sinkErr != nil {
				return sinkErr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
