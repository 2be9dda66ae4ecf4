// Package wire implements the VLESS-style greeting header and the Mux.Cool
// frame codec described in spec.md §3–§4.1. Parsing never copies payload
// bytes; frames and greetings are views into the caller's buffer.
package wire

import (
	"encoding/hex"
)

// minGreetingLen is the minimum number of bytes a greeting can be:
// version(1) + uuid(16) + optLen(1) + command(1) + port(2) + addrType(1)
// + shortest address (1 byte domain length, itself invalid, but the byte
// must be present) = 23, rounded up to the 24 spec.md §8 requires.
const minGreetingLen = 24

// UUIDValidator reports whether a canonical lowercase-hyphenated UUID string
// is authorized.
type UUIDValidator func(uuid string) bool

// Greeting is the parsed result of a tunnel's first bytes.
type Greeting struct {
	Version      byte
	UUID         string
	Command      Command
	Port         uint16
	AddressType  AddressType
	Address      string
	RawDataIndex int
}

// ParseGreeting parses buf per spec.md §4.1. validate is applied to the
// canonicalized UUID; a rejection yields ErrUnauthorized without leaking
// how far parsing otherwise got.
func ParseGreeting(buf []byte, validate UUIDValidator) (*Greeting, error) {
	if len(buf) < minGreetingLen {
		return nil, ErrShortBuffer
	}

	g := &Greeting{Version: buf[0]}

	uuidBytes := buf[1:17]
	g.UUID = canonicalUUID(uuidBytes)
	if validate != nil && !validate(g.UUID) {
		return nil, ErrUnauthorized
	}

	off := 17
	optLen := int(buf[off])
	off++
	off += optLen
	if len(buf) < off+1 {
		return nil, ErrShortBuffer
	}

	g.Command = Command(buf[off])
	off++

	switch g.Command {
	case CommandMux:
		g.Address = MuxCoolAddress
		g.RawDataIndex = off
		return g, nil

	case CommandTCP, CommandUDP:
		if len(buf) < off+2 {
			return nil, ErrShortBuffer
		}
		g.Port = uint16(buf[off])<<8 | uint16(buf[off+1])
		off += 2

		if len(buf) < off+1 {
			return nil, ErrShortBuffer
		}
		g.AddressType = AddressType(buf[off])
		off++

		addr, n, err := parseAddress(buf, off, g.AddressType)
		if err != nil {
			return nil, err
		}
		off += n
		g.Address = addr
		g.RawDataIndex = off

		// spec.md §4.1: a TCP/UDP command whose address equals the Mux.Cool
		// sentinel must be re-classified as Mux, keeping rawDataIndex as-is
		// (SPEC_FULL.md Open Question decision).
		if g.Address == MuxCoolSentinel {
			g.Command = CommandMux
			g.Address = MuxCoolAddress
		}

		return g, nil

	default:
		return nil, ErrUnsupportedCommand
	}
}

// canonicalUUID renders 16 raw bytes as a lowercase, hyphenated UUID string.
func canonicalUUID(b []byte) string {
	buf := make([]byte, 36)
	hex.Encode(buf[0:8], b[0:4])
	buf[8] = '-'
	hex.Encode(buf[9:13], b[4:6])
	buf[13] = '-'
	hex.Encode(buf[14:18], b[6:8])
	buf[18] = '-'
	hex.Encode(buf[19:23], b[8:10])
	buf[23] = '-'
	hex.Encode(buf[24:36], b[10:16])
	return string(buf)
}

// ResponsePrefix returns the 2-byte server greeting response, written at
// most once per tunnel, always before any other server-to-client bytes.
func ResponsePrefix(version byte) []byte {
	return []byte{version, 0x00}
}
