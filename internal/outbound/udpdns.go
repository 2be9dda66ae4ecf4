package outbound

import "encoding/binary"

// SplitFramedQuery extracts one `[u16 length][bytes]` framed DNS query
// from a non-Mux DNS-mode chunk. Per spec.md §4.4 this assumes the
// length-prefixed unit never straddles a WebSocket message — a known
// limitation of the reference implementation, preserved here rather
// than papered over with ad hoc reassembly.
func SplitFramedQuery(chunk []byte) (query []byte, ok bool) {
	if len(chunk) < 2 {
		return nil, false
	}
	n := int(binary.BigEndian.Uint16(chunk[0:2]))
	if len(chunk) < 2+n {
		return nil, false
	}
	return chunk[2 : 2+n], true
}

// BuildFramedResponse re-frames a DoH response as `[u16 length][bytes]`
// for the non-Mux DNS-mode downlink.
func BuildFramedResponse(resp []byte) []byte {
	out := make([]byte, 2+len(resp))
	binary.BigEndian.PutUint16(out[0:2], uint16(len(resp)))
	copy(out[2:], resp)
	return out
}
