package muxengine

import (
	"net"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/brimtide/vlesstund/internal/wire"
)

// fakeSender records every WebSocket message the engine would have sent.
type fakeSender struct {
	mu       sync.Mutex
	messages [][]byte
}

func (f *fakeSender) send(msg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte{}, msg...)
	f.messages = append(f.messages, cp)
	return nil
}

func (f *fakeSender) all() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.messages))
	copy(out, f.messages)
	return out
}

func startEchoListener(t *testing.T) (host string, port uint16, closeFn func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 4096)
				for {
					n, err := c.Read(buf)
					if n > 0 {
						c.Write(buf[:n])
					}
					if err != nil {
						return
					}
				}
			}(conn)
		}
	}()
	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", uint16(addr.Port), func() { ln.Close() }
}

func TestEngineNewKeepTCP(t *testing.T) {
	host, port, closeLn := startEchoListener(t)
	defer closeLn()

	sender := &fakeSender{}
	e := New(48, []byte{0x00, 0x00}, sender.send, nil, zap.NewNop())
	defer e.Close()

	newMeta := []byte{
		0x00, 0x07,
		byte(wire.MuxStatusNew),
		0x01, // data bit
		byte(wire.MuxNetworkTCP),
		byte(port >> 8), byte(port),
		byte(wire.AddressTypeIPv4),
	}
	newMeta = append(newMeta, ipv4Bytes(host)...)
	newFrame := frameWithData(newMeta, []byte("ABC"))

	if err := e.Dispatch(newFrame); err != nil {
		t.Fatalf("dispatch New: %v", err)
	}

	keepFrame := wire.BuildKeep(7, []byte("XYZ"))
	if err := e.Dispatch(keepFrame); err != nil {
		t.Fatalf("dispatch Keep: %v", err)
	}

	// Give the goroutines time to connect, write, echo, and pump back.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(sender.all()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	msgs := sender.all()
	if len(msgs) == 0 {
		t.Fatal("expected at least one downstream message")
	}
	if msgs[0][0] != 0x00 || msgs[0][1] != 0x00 {
		t.Errorf("first message should carry the response prefix, got %v", msgs[0][:2])
	}
}

func TestEngineKeepForUnknownIDSendsExactlyOneEnd(t *testing.T) {
	sender := &fakeSender{}
	e := New(48, []byte{0x00, 0x00}, sender.send, nil, zap.NewNop())
	defer e.Close()

	keep := wire.BuildKeep(99, nil)
	if err := e.Dispatch(keep); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if err := e.Dispatch(keep); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	msgs := sender.all()

	endCount := 0
	for i, m := range msgs {
		body := m
		if i == 0 {
			body = m[2:] // only the first downstream message carries the response prefix
		}
		f, _, err := wire.ParseMuxFrame(body, 0)
		if err == nil && f.SubID == 99 && f.Status == wire.MuxStatusEnd {
			endCount++
		}
	}
	if endCount != 1 {
		t.Errorf("End(99) emitted %d times, want exactly 1", endCount)
	}
}

func TestEngineSubrequestBudget(t *testing.T) {
	sender := &fakeSender{}
	e := New(2, []byte{0x00, 0x00}, sender.send, nil, zap.NewNop())
	defer e.Close()

	for id := uint16(1); id <= 3; id++ {
		meta := []byte{
			byte(id >> 8), byte(id),
			byte(wire.MuxStatusNew),
			0x00,
			byte(wire.MuxNetworkTCP),
			0x01, 0xbb,
			byte(wire.AddressTypeIPv4),
			127, 0, 0, 1,
		}
		buf := make([]byte, 2+len(meta))
		buf[0] = byte(len(meta) >> 8)
		buf[1] = byte(len(meta))
		copy(buf[2:], meta)
		if err := e.Dispatch(buf); err != nil {
			t.Fatalf("dispatch New(%d): %v", id, err)
		}
	}

	e.mu.Lock()
	total := e.totalTCP
	limitReached := e.limitReached
	e.mu.Unlock()

	if total != 2 {
		t.Errorf("totalTCP = %d, want 2", total)
	}
	if !limitReached {
		t.Error("limitReached should be true after the budget is exceeded")
	}
}

func ipv4Bytes(host string) []byte {
	ip := net.ParseIP(host).To4()
	return []byte(ip)
}

func frameWithData(meta []byte, data []byte) []byte {
	out := make([]byte, 2+len(meta)+2+len(data))
	out[0] = byte(len(meta) >> 8)
	out[1] = byte(len(meta))
	copy(out[2:], meta)
	off := 2 + len(meta)
	out[off] = byte(len(data) >> 8)
	out[off+1] = byte(len(data))
	copy(out[off+2:], data)
	return out
}
