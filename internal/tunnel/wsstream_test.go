package tunnel

import (
	"encoding/base64"
	"errors"
	"io"
	"testing"

	"github.com/gorilla/websocket"
)

func TestNewWSStreamNoProtocolHeader(t *testing.T) {
	s, err := newWSStream(nil, "")
	if err != nil {
		t.Fatalf("newWSStream: %v", err)
	}
	if !s.sentEarly {
		t.Error("sentEarly should be true when there is no protocol header")
	}
	if s.earlyData != nil {
		t.Error("earlyData should be nil with no protocol header")
	}
}

func TestNewWSStreamDecodesEarlyData(t *testing.T) {
	payload := []byte{0x00, 0x01, 0x02, 0xff}
	header := base64.RawURLEncoding.EncodeToString(payload)

	s, err := newWSStream(nil, header)
	if err != nil {
		t.Fatalf("newWSStream: %v", err)
	}
	if s.sentEarly {
		t.Error("sentEarly should be false until the early data is consumed")
	}

	chunk, err := s.next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if string(chunk) != string(payload) {
		t.Errorf("chunk = %v, want %v", chunk, payload)
	}
	if !s.sentEarly {
		t.Error("sentEarly should flip true after the first next() call")
	}
}

func TestNewWSStreamRejectsInvalidBase64(t *testing.T) {
	_, err := newWSStream(nil, "not valid base64url!!")
	if !errors.Is(err, ErrEarlyDataDecode) {
		t.Errorf("err = %v, want ErrEarlyDataDecode", err)
	}
}

func TestIsCleanClose(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, true},
		{io.EOF, true},
		{&websocket.CloseError{Code: websocket.CloseNormalClosure}, true},
		{&websocket.CloseError{Code: websocket.CloseGoingAway}, true},
		{&websocket.CloseError{Code: websocket.CloseNoStatusReceived}, true},
		{&websocket.CloseError{Code: websocket.CloseProtocolError}, false},
		{errors.New("boom"), false},
	}
	for _, c := range cases {
		if got := isCleanClose(c.err); got != c.want {
			t.Errorf("isCleanClose(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}
