package wire

import "testing"

func allowAll(string) bool { return true }
func allowNone(string) bool { return false }

func buildGreeting(uuid [16]byte, command Command, port uint16, atype AddressType, addr []byte) []byte {
	buf := []byte{0x00}
	buf = append(buf, uuid[:]...)
	buf = append(buf, 0x00) // optLen
	buf = append(buf, byte(command))
	if command != CommandMux {
		buf = append(buf, byte(port>>8), byte(port))
		buf = append(buf, byte(atype))
		buf = append(buf, addr...)
	}
	return buf
}

func TestParseGreetingIPv4TCP(t *testing.T) {
	buf := buildGreeting([16]byte{}, CommandTCP, 443, AddressTypeIPv4, []byte{1, 1, 1, 1})
	g, err := ParseGreeting(buf, allowAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Command != CommandTCP {
		t.Errorf("Command = %v, want TCP", g.Command)
	}
	if g.Address != "1.1.1.1" {
		t.Errorf("Address = %q, want 1.1.1.1", g.Address)
	}
	if g.Port != 443 {
		t.Errorf("Port = %d, want 443", g.Port)
	}
	if g.RawDataIndex != len(buf) {
		t.Errorf("RawDataIndex = %d, want %d", g.RawDataIndex, len(buf))
	}
}

func TestParseGreetingUnauthorized(t *testing.T) {
	buf := buildGreeting([16]byte{}, CommandTCP, 443, AddressTypeIPv4, []byte{1, 1, 1, 1})
	_, err := ParseGreeting(buf, allowNone)
	if err != ErrUnauthorized {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestParseGreetingShortBuffer(t *testing.T) {
	buf := []byte{0x00, 0x01, 0x02}
	_, err := ParseGreeting(buf, allowAll)
	if err != ErrShortBuffer {
		t.Fatalf("err = %v, want ErrShortBuffer", err)
	}
}

func TestParseGreetingBadAddressType(t *testing.T) {
	// Four trailing bytes lift the greeting past the 24-byte minimum so the
	// address-type check is what rejects it.
	buf := buildGreeting([16]byte{}, CommandTCP, 443, AddressType(0x09), []byte{1, 1, 1, 1})
	_, err := ParseGreeting(buf, allowAll)
	if err != ErrUnsupportedAddressType {
		t.Fatalf("err = %v, want ErrUnsupportedAddressType", err)
	}
}

func TestParseGreetingEmptyDomain(t *testing.T) {
	// Zero-length domain, plus one trailing byte to reach the 24-byte minimum.
	buf := buildGreeting([16]byte{}, CommandTCP, 443, AddressTypeDomain, []byte{0x00, 0x00})
	_, err := ParseGreeting(buf, allowAll)
	if err != ErrEmptyAddress {
		t.Fatalf("err = %v, want ErrEmptyAddress", err)
	}
}

func TestParseGreetingIPv6NoCompression(t *testing.T) {
	addr := []byte{
		0x20, 0x01, 0x0d, 0xb8, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01,
	}
	buf := buildGreeting([16]byte{}, CommandUDP, 53, AddressTypeIPv6, addr)
	g, err := ParseGreeting(buf, allowAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "2001:db8:0:0:0:0:0:1"
	if g.Address != want {
		t.Errorf("Address = %q, want %q", g.Address, want)
	}
}

func TestParseGreetingMuxCommand(t *testing.T) {
	// A Mux greeting is followed by its first Mux frame, which brings the
	// buffer past the 24-byte minimum.
	greeting := buildGreeting([16]byte{}, CommandMux, 0, 0, nil)
	buf := append(greeting, BuildEnd(1)...)
	g, err := ParseGreeting(buf, allowAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Command != CommandMux {
		t.Errorf("Command = %v, want Mux", g.Command)
	}
	if g.Address != MuxCoolAddress {
		t.Errorf("Address = %q, want %q", g.Address, MuxCoolAddress)
	}
	if g.RawDataIndex != len(greeting) {
		t.Errorf("RawDataIndex = %d, want %d", g.RawDataIndex, len(greeting))
	}
}

func TestParseGreetingReclassifiesMuxSentinel(t *testing.T) {
	domain := []byte(MuxCoolSentinel)
	addr := append([]byte{byte(len(domain))}, domain...)
	buf := buildGreeting([16]byte{}, CommandTCP, 443, AddressTypeDomain, addr)
	g, err := ParseGreeting(buf, allowAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Command != CommandMux {
		t.Errorf("Command = %v, want Mux after reclassification", g.Command)
	}
	if g.Address != MuxCoolAddress {
		t.Errorf("Address = %q, want %q", g.Address, MuxCoolAddress)
	}
}

func TestResponsePrefix(t *testing.T) {
	got := ResponsePrefix(0x00)
	want := []byte{0x00, 0x00}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ResponsePrefix = %v, want %v", got, want)
	}
}
