// Package tunnel implements the dispatcher described in spec.md §4.2: it
// consumes the WebSocket byte stream, classifies the first frame, and
// drives the tunnel until closure.
package tunnel

import (
	"encoding/base64"
	"errors"
	"io"

	"github.com/gorilla/websocket"
)

// ErrEarlyDataDecode means the Sec-WebSocket-Protocol header did not
// carry valid base64url early data.
var ErrEarlyDataDecode = errors.New("tunnel: invalid early-data header")

// wsStream adapts a *websocket.Conn into a single-producer byte stream:
// the first chunk is the base64url-decoded early-data header, if any,
// followed by each subsequent message's payload. It has no notion of
// the greeting or Mux framing above it.
type wsStream struct {
	conn      *websocket.Conn
	earlyData []byte
	sentEarly bool
}

// newWSStream decodes protocolHeader (the raw Sec-WebSocket-Protocol
// value) as early data. An empty header is not an error; it simply
// means there is no early data to deliver before the first message.
func newWSStream(conn *websocket.Conn, protocolHeader string) (*wsStream, error) {
	s := &wsStream{conn: conn}
	if protocolHeader == "" {
		s.sentEarly = true
		return s, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(protocolHeader)
	if err != nil {
		return nil, ErrEarlyDataDecode
	}
	s.earlyData = decoded
	return s, nil
}

// next returns the next chunk in the stream: the early-data payload
// exactly once, then each WebSocket binary/text message in turn. It
// blocks on the underlying connection's ReadMessage.
func (s *wsStream) next() ([]byte, error) {
	if !s.sentEarly {
		s.sentEarly = true
		if len(s.earlyData) > 0 {
			return s.earlyData, nil
		}
	}

	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return data, nil
}

// send writes one WebSocket binary message, used for both the non-Mux
// downstream bridge and the Mux engine's sender callback.
func (s *wsStream) send(data []byte) error {
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (s *wsStream) close() error {
	return s.conn.Close()
}

// isCleanClose reports whether err is an ordinary, expected end of the
// read loop rather than a genuine transport failure.
func isCleanClose(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) {
		return true
	}
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	)
}
