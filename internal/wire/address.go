package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is the greeting's requested tunnel mode.
type Command byte

const (
	CommandTCP Command = 0x01
	CommandUDP Command = 0x02
	CommandMux Command = 0x03
)

func (c Command) String() string {
	switch c {
	case CommandTCP:
		return "TCP"
	case CommandUDP:
		return "UDP"
	case CommandMux:
		return "MUX"
	default:
		return fmt.Sprintf("Command(0x%02x)", byte(c))
	}
}

// AddressType is the greeting/Mux-New address encoding.
type AddressType byte

const (
	AddressTypeIPv4   AddressType = 0x01
	AddressTypeDomain AddressType = 0x02
	AddressTypeIPv6   AddressType = 0x03
)

// MuxCoolSentinel is the address value that reclassifies a TCP/UDP greeting
// as a Mux tunnel (see spec.md §4.1 / §9 "Ambiguity").
const MuxCoolSentinel = "v1.mux.cool"

// MuxCoolAddress is the synthetic address recorded for a greeting whose
// command byte is already MUX (no address field on the wire).
const MuxCoolAddress = "mux.cool"

// parseAddress reads one address value from buf[off:] according to atype.
// It returns the decoded address string and the number of bytes consumed
// (not including the address-type byte itself, which the caller already
// consumed). ErrShortBuffer is returned if buf does not contain enough
// bytes to know how much to read; ErrEmptyAddress/ErrUnsupportedAddressType
// are non-recoverable.
func parseAddress(buf []byte, off int, atype AddressType) (string, int, error) {
	switch atype {
	case AddressTypeIPv4:
		if len(buf) < off+4 {
			return "", 0, ErrShortBuffer
		}
		b := buf[off : off+4]
		return fmt.Sprintf("%d.%d.%d.%d", b[0], b[1], b[2], b[3]), 4, nil

	case AddressTypeDomain:
		if len(buf) < off+1 {
			return "", 0, ErrShortBuffer
		}
		n := int(buf[off])
		if n == 0 {
			return "", 0, ErrEmptyAddress
		}
		if len(buf) < off+1+n {
			return "", 0, ErrShortBuffer
		}
		return string(buf[off+1 : off+1+n]), 1 + n, nil

	case AddressTypeIPv6:
		if len(buf) < off+16 {
			return "", 0, ErrShortBuffer
		}
		b := buf[off : off+16]
		groups := make([]string, 8)
		for i := 0; i < 8; i++ {
			groups[i] = strconv.FormatUint(uint64(b[2*i])<<8|uint64(b[2*i+1]), 16)
		}
		return strings.Join(groups, ":"), 16, nil

	default:
		return "", 0, ErrUnsupportedAddressType
	}
}
