package wire

import "errors"

// Sentinel errors for the greeting parser and the Mux.Cool frame codec.
//
// ShortBuffer/Incomplete are recoverable: the caller should buffer more bytes
// and retry. Everything else terminates parsing on the tunnel.
var (
	// ErrShortBuffer means the input does not yet contain a full greeting.
	ErrShortBuffer = errors.New("wire: short buffer")

	// ErrIncomplete means the input does not yet contain a full Mux frame.
	ErrIncomplete = errors.New("wire: incomplete frame")

	// ErrMalformedFrame means the input violates the wire format and can
	// never become valid by reading more bytes.
	ErrMalformedFrame = errors.New("wire: malformed frame")

	// ErrUnauthorized means the UUID validator rejected the greeting's user.
	ErrUnauthorized = errors.New("wire: unauthorized user")

	// ErrUnsupportedCommand means the greeting's command byte is not one of
	// TCP/UDP/Mux.
	ErrUnsupportedCommand = errors.New("wire: unsupported command")

	// ErrEmptyAddress means a domain address carried a zero-length value.
	ErrEmptyAddress = errors.New("wire: empty address")

	// ErrUnsupportedAddressType means the address-type byte is not one of
	// IPv4/Domain/IPv6.
	ErrUnsupportedAddressType = errors.New("wire: unsupported address type")
)

// IsRecoverable reports whether err signals that the caller should wait for
// more bytes rather than abort the tunnel.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrShortBuffer) || errors.Is(err, ErrIncomplete)
}
