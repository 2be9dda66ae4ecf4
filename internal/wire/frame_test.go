package wire

import (
	"bytes"
	"testing"
)

func TestBuildParseKeepRoundTrip(t *testing.T) {
	data := []byte("XYZ")
	frame := BuildKeep(7, data)

	f, n, err := ParseMuxFrame(frame, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(frame) {
		t.Errorf("consumed = %d, want %d", n, len(frame))
	}
	if f.SubID != 7 || f.Status != MuxStatusKeep {
		t.Errorf("got SubID=%d Status=%v", f.SubID, f.Status)
	}
	if !bytes.Equal(f.Data, data) {
		t.Errorf("Data = %q, want %q", f.Data, data)
	}
}

func TestBuildParseEndRoundTrip(t *testing.T) {
	frame := BuildEnd(42)
	f, n, err := ParseMuxFrame(frame, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(frame) {
		t.Errorf("consumed = %d, want %d", n, len(frame))
	}
	if f.SubID != 42 || f.Status != MuxStatusEnd {
		t.Errorf("got SubID=%d Status=%v", f.SubID, f.Status)
	}
	if f.HasData {
		t.Errorf("End frame should not carry data")
	}
}

func TestBuildKeepAliveRoundTrip(t *testing.T) {
	frame := BuildKeepAlive()
	f, n, err := ParseMuxFrame(frame, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(frame) {
		t.Errorf("consumed = %d, want %d", n, len(frame))
	}
	if f.Status != MuxStatusKeepAlive {
		t.Errorf("Status = %v, want KeepAlive", f.Status)
	}
}

func TestParseMuxFrameShortMetadataLength(t *testing.T) {
	buf := []byte{0x00, 0x03, 0x00, 0x00, 0x01, 0x00}
	_, _, err := ParseMuxFrame(buf, 0)
	if err != ErrMalformedFrame {
		t.Fatalf("err = %v, want ErrMalformedFrame", err)
	}
}

func TestParseMuxFrameIncompleteMetadata(t *testing.T) {
	buf := []byte{0x00, 0x04, 0x00, 0x01}
	_, _, err := ParseMuxFrame(buf, 0)
	if err != ErrIncomplete {
		t.Fatalf("err = %v, want ErrIncomplete", err)
	}
}

func TestParseMuxFrameDataExceedsAvailable(t *testing.T) {
	frame := BuildKeep(1, []byte("hello"))
	truncated := frame[:len(frame)-2]
	_, _, err := ParseMuxFrame(truncated, 0)
	if err != ErrIncomplete {
		t.Fatalf("err = %v, want ErrIncomplete", err)
	}
}

func TestParseMuxFrameUnknownStatus(t *testing.T) {
	buf := []byte{0x00, 0x04, 0x00, 0x01, 0x09, 0x00}
	_, _, err := ParseMuxFrame(buf, 0)
	if err != ErrMalformedFrame {
		t.Fatalf("err = %v, want ErrMalformedFrame", err)
	}
}

func TestParseMuxFrameNewTCP(t *testing.T) {
	meta := []byte{
		0x00, 0x07, // subID
		byte(MuxStatusNew),
		0x00, // option, no data
		byte(MuxNetworkTCP),
		0x01, 0xbb, // port 443
		byte(AddressTypeIPv4),
		1, 1, 1, 1,
	}
	buf := make([]byte, 2+len(meta))
	buf[0] = byte(len(meta) >> 8)
	buf[1] = byte(len(meta))
	copy(buf[2:], meta)

	f, n, err := ParseMuxFrame(buf, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(buf) {
		t.Errorf("consumed = %d, want %d", n, len(buf))
	}
	if f.Network != MuxNetworkTCP || f.Port != 443 || f.Address != "1.1.1.1" {
		t.Errorf("got Network=%v Port=%d Address=%q", f.Network, f.Port, f.Address)
	}
}

func TestParseMuxFrameSequenceAdvancesPositively(t *testing.T) {
	buf := append(BuildKeep(1, []byte("a")), BuildEnd(1)...)
	offset := 0
	count := 0
	for offset < len(buf) {
		_, n, err := ParseMuxFrame(buf, offset)
		if err != nil {
			t.Fatalf("unexpected error at offset %d: %v", offset, err)
		}
		if n <= 0 {
			t.Fatalf("non-positive advance at offset %d", offset)
		}
		offset += n
		count++
	}
	if count != 2 {
		t.Errorf("parsed %d frames, want 2", count)
	}
}
