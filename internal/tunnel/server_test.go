package tunnel

import (
	"crypto/rand"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/brimtide/vlesstund/internal/auth"
	"github.com/brimtide/vlesstund/internal/config"
	"github.com/brimtide/vlesstund/internal/outbound"
)

// dohEchoHandler stands in for a DNS-over-HTTPS resolver: it returns
// the POSTed query body as the response, so the test can assert the
// dispatcher relayed it end to end without depending on a real resolver.
func dohEchoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/dns-message")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}
}

func newTestAuthStore(t *testing.T, uuids ...string) *auth.Store {
	t.Helper()
	store, err := auth.NewStore([]auth.Provider{auth.NewStaticProvider(uuids...)}, time.Minute, "", zap.NewNop())
	if err != nil {
		t.Fatalf("auth.NewStore: %v", err)
	}
	return store
}

func dialTunnel(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newZeroUUID() string { return "00000000-0000-0000-0000-000000000000" }

func buildGreeting(uuid string, command byte, port uint16, addr [4]byte) []byte {
	buf := make([]byte, 0, 24)
	buf = append(buf, 0x00) // version
	buf = append(buf, rawUUID(uuid)...)
	buf = append(buf, 0x00) // optLen
	buf = append(buf, command)
	if command != 0x03 {
		buf = append(buf, byte(port>>8), byte(port))
		buf = append(buf, 0x01) // AddressTypeIPv4
		buf = append(buf, addr[:]...)
	}
	return buf
}

func rawUUID(s string) []byte {
	s = strings.ReplaceAll(s, "-", "")
	out := make([]byte, 16)
	for i := 0; i < 16; i++ {
		hi := hexNibble(s[i*2])
		lo := hexNibble(s[i*2+1])
		out[i] = hi<<4 | lo
	}
	return out
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

func randomUUID(t *testing.T) string {
	t.Helper()
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return formatUUID(b)
}

func formatUUID(b []byte) string {
	const hexdigits = "0123456789abcdef"
	var sb strings.Builder
	for i, c := range b {
		if i == 4 || i == 6 || i == 8 || i == 10 {
			sb.WriteByte('-')
		}
		sb.WriteByte(hexdigits[c>>4])
		sb.WriteByte(hexdigits[c&0x0f])
	}
	return sb.String()
}

func TestServerClosesUnauthorizedGreeting(t *testing.T) {
	store := newTestAuthStore(t, randomUUID(t))
	defer store.Close()

	server := NewServer(&config.Config{MuxEnabled: true}, store, outbound.NewDoHClient("https://example.invalid/dns-query"), nil, zap.NewNop())
	httpSrv := httptest.NewServer(server)
	defer httpSrv.Close()

	ws := dialTunnel(t, wsURL(httpSrv))
	defer ws.Close()

	greeting := buildGreeting(randomUUID(t), 0x01, 80, [4]byte{1, 1, 1, 1})
	if err := ws.WriteMessage(websocket.BinaryMessage, greeting); err != nil {
		t.Fatalf("write greeting: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := ws.ReadMessage()
	if err == nil {
		t.Fatal("expected the tunnel to close without responding to an unauthorized greeting")
	}
}

func TestServerTCPRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
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

	uuid := randomUUID(t)
	store := newTestAuthStore(t, uuid)
	defer store.Close()

	server := NewServer(&config.Config{MuxEnabled: true}, store, outbound.NewDoHClient("https://example.invalid/dns-query"), nil, zap.NewNop())
	httpSrv := httptest.NewServer(server)
	defer httpSrv.Close()

	ws := dialTunnel(t, wsURL(httpSrv))
	defer ws.Close()

	var portBytes [4]byte
	ipv4 := [4]byte{127, 0, 0, 1}
	_ = portBytes
	greeting := buildGreeting(uuid, 0x01, uint16(addr.Port), ipv4)
	greeting = append(greeting, []byte("hello")...)

	if err := ws.WriteMessage(websocket.BinaryMessage, greeting); err != nil {
		t.Fatalf("write greeting: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, resp, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if len(resp) < 2 || resp[0] != 0x00 || resp[1] != 0x00 {
		t.Fatalf("response missing 2-byte prefix: %v", resp)
	}
	if string(resp[2:]) != "hello" {
		t.Errorf("echoed payload = %q, want %q", resp[2:], "hello")
	}
}

func TestServerDNSRoundTrip(t *testing.T) {
	dohSrv := httptest.NewServer(dohEchoHandler())
	defer dohSrv.Close()

	uuid := randomUUID(t)
	store := newTestAuthStore(t, uuid)
	defer store.Close()

	server := NewServer(&config.Config{MuxEnabled: true}, store, outbound.NewDoHClient(dohSrv.URL), nil, zap.NewNop())
	httpSrv := httptest.NewServer(server)
	defer httpSrv.Close()

	ws := dialTunnel(t, wsURL(httpSrv))
	defer ws.Close()

	greeting := buildGreeting(uuid, 0x02, 53, [4]byte{8, 8, 8, 8})
	query := []byte("dns-query-bytes")
	framed := append([]byte{0x00, byte(len(query))}, query...)
	greeting = append(greeting, framed...)

	if err := ws.WriteMessage(websocket.BinaryMessage, greeting); err != nil {
		t.Fatalf("write greeting: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, resp, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if len(resp) < 2 || resp[0] != 0x00 {
		t.Fatalf("response missing prefix: %v", resp)
	}
	body := resp[2:]
	if len(body) < 2 {
		t.Fatalf("response too short: %v", body)
	}
	n := int(body[0])<<8 | int(body[1])
	if string(body[2:2+n]) != string(query) {
		t.Errorf("DNS response = %q, want echo of %q", body[2:2+n], query)
	}
}
