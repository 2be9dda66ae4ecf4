package wire

import (
	"encoding/binary"
	"math/rand"
)

// MuxStatus is the Mux.Cool frame's status byte.
type MuxStatus byte

const (
	MuxStatusNew       MuxStatus = 1
	MuxStatusKeep      MuxStatus = 2
	MuxStatusEnd       MuxStatus = 3
	MuxStatusKeepAlive MuxStatus = 4
)

func (s MuxStatus) String() string {
	switch s {
	case MuxStatusNew:
		return "New"
	case MuxStatusKeep:
		return "Keep"
	case MuxStatusEnd:
		return "End"
	case MuxStatusKeepAlive:
		return "KeepAlive"
	default:
		return "Unknown"
	}
}

// MuxNetwork is the New frame's requested network.
type MuxNetwork byte

const (
	MuxNetworkTCP MuxNetwork = 1
	MuxNetworkUDP MuxNetwork = 2
)

const optionDataBit = 0x01

// MuxFrame is one parsed Mux.Cool frame. Data is a view into the caller's
// buffer; the codec never copies payload bytes.
type MuxFrame struct {
	SubID       uint16
	Status      MuxStatus
	HasData     bool
	Network     MuxNetwork
	Port        uint16
	AddressType AddressType
	Address     string
	GlobalID    []byte
	Data        []byte
}

// ParseMuxFrame parses one frame starting at buf[offset:]. On success it
// returns the frame and the number of bytes consumed (always > 0). On a
// recoverable shortage it returns ErrIncomplete; on a wire violation it
// returns ErrMalformedFrame — both terminate parsing differently, see
// spec.md §4.1 and §7.
func ParseMuxFrame(buf []byte, offset int) (*MuxFrame, int, error) {
	if len(buf) < offset+2 {
		return nil, 0, ErrIncomplete
	}
	metaLen := int(binary.BigEndian.Uint16(buf[offset : offset+2]))
	if metaLen < 4 {
		return nil, 0, ErrMalformedFrame
	}
	metaStart := offset + 2
	if len(buf) < metaStart+metaLen {
		return nil, 0, ErrIncomplete
	}
	meta := buf[metaStart : metaStart+metaLen]

	f := &MuxFrame{
		SubID:  binary.BigEndian.Uint16(meta[0:2]),
		Status: MuxStatus(meta[2]),
	}
	option := meta[3]
	f.HasData = option&optionDataBit != 0
	rest := meta[4:]

	switch f.Status {
	case MuxStatusNew:
		if len(rest) < 4 {
			return nil, 0, ErrMalformedFrame
		}
		f.Network = MuxNetwork(rest[0])
		f.Port = binary.BigEndian.Uint16(rest[1:3])
		f.AddressType = AddressType(rest[3])

		addr, n, err := parseAddress(rest, 4, f.AddressType)
		if err != nil {
			// rest is fully materialized (metadata already arrived in
			// full); running out of declared bytes here is malformed,
			// not a signal to wait for more.
			return nil, 0, ErrMalformedFrame
		}
		f.Address = addr

		leftover := rest[4+n:]
		switch len(leftover) {
		case 0:
		case 8:
			f.GlobalID = leftover
		default:
			return nil, 0, ErrMalformedFrame
		}

	case MuxStatusKeep:
		if len(rest) > 0 {
			if len(rest) < 3 {
				return nil, 0, ErrMalformedFrame
			}
			f.Port = binary.BigEndian.Uint16(rest[0:2])
			f.AddressType = AddressType(rest[2])
			addr, n, err := parseAddress(rest, 3, f.AddressType)
			if err != nil {
				return nil, 0, ErrMalformedFrame
			}
			f.Address = addr
			if len(rest) != 3+n {
				return nil, 0, ErrMalformedFrame
			}
		}

	case MuxStatusEnd, MuxStatusKeepAlive:
		if len(rest) != 0 {
			return nil, 0, ErrMalformedFrame
		}

	default:
		return nil, 0, ErrMalformedFrame
	}

	consumed := 2 + metaLen

	if f.HasData {
		if len(buf) < offset+consumed+2 {
			return nil, 0, ErrIncomplete
		}
		dataLen := int(binary.BigEndian.Uint16(buf[offset+consumed : offset+consumed+2]))
		consumed += 2
		if len(buf) < offset+consumed+dataLen {
			return nil, 0, ErrIncomplete
		}
		f.Data = buf[offset+consumed : offset+consumed+dataLen]
		consumed += dataLen
	}

	return f, consumed, nil
}

// BuildKeep encodes a Keep frame. The data option bit is set iff data is
// non-empty.
func BuildKeep(subID uint16, data []byte) []byte {
	return buildFrame(subID, MuxStatusKeep, data)
}

// BuildEnd encodes an End frame.
func BuildEnd(subID uint16) []byte {
	return buildFrame(subID, MuxStatusEnd, nil)
}

// BuildKeepAlive encodes a KeepAlive frame with a random sub-id, per
// spec.md §4.1 ("sub-id is any value").
func BuildKeepAlive() []byte {
	return buildFrame(uint16(rand.Intn(1<<16)), MuxStatusKeepAlive, nil)
}

func buildFrame(subID uint16, status MuxStatus, data []byte) []byte {
	const metaLen = 4
	var option byte
	if len(data) > 0 {
		option = optionDataBit
	}

	total := 2 + metaLen
	if len(data) > 0 {
		total += 2 + len(data)
	}
	out := make([]byte, total)

	binary.BigEndian.PutUint16(out[0:2], uint16(metaLen))
	binary.BigEndian.PutUint16(out[2:4], subID)
	out[4] = byte(status)
	out[5] = option

	if len(data) > 0 {
		binary.BigEndian.PutUint16(out[6:8], uint16(len(data)))
		copy(out[8:], data)
	}
	return out
}
