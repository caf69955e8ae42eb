package link

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/denisbrodbeck/machineid"
)

// AddrLen is the size of a hardware address.
const AddrLen = 6

// Addr is the 6-byte hardware address of an endpoint.
type Addr [AddrLen]byte

// ParseAddr parses "AA:BB:CC:DD:EE:FF", the same with '-' separators,
// or 12 bare hex digits.
func ParseAddr(s string) (Addr, error) {
	var a Addr
	str := strings.TrimSpace(s)
	digits := make([]byte, 0, AddrLen*2)
	switch len(str) {
	case AddrLen * 2:
		digits = append(digits, str...)
	case AddrLen*3 - 1:
		sep := str[2]
		if sep != ':' && sep != '-' {
			return a, fmt.Errorf("%w: %q", ErrInvalidAddr, s)
		}
		for i := 0; i < len(str); i += 3 {
			if i > 0 && str[i-1] != sep {
				return a, fmt.Errorf("%w: %q", ErrInvalidAddr, s)
			}
			digits = append(digits, str[i:i+2]...)
		}
	default:
		return a, fmt.Errorf("%w: %q", ErrInvalidAddr, s)
	}
	if _, err := hex.Decode(a[:], digits); err != nil {
		return a, fmt.Errorf("%w: %q", ErrInvalidAddr, s)
	}
	return a, nil
}

// MustParseAddr parses an address and panics on error.
func MustParseAddr(s string) Addr {
	a, err := ParseAddr(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddrFromBytes converts the wire form of an address.
func AddrFromBytes(b []byte) (a Addr, err error) {
	if len(b) != AddrLen {
		return a, fmt.Errorf("%w: %d bytes", ErrInvalidAddr, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// String formats the address as "AA:BB:CC:DD:EE:FF".
func (a Addr) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}

// Hex formats the address as 12 hex digits, suitable for topics and paths.
func (a Addr) Hex() string {
	return strings.ToUpper(hex.EncodeToString(a[:]))
}

// IsZero reports whether the address is unset.
func (a Addr) IsZero() bool {
	return a == Addr{}
}

// Bytes returns the wire form of the address.
func (a Addr) Bytes() []byte {
	return append([]byte(nil), a[:]...)
}

const localAddrAppID = "morse.go"

// LocalAddr derives a stable, locally administered unicast address
// from the machine ID.
func LocalAddr() (Addr, error) {
	var a Addr
	id, err := machineid.ProtectedID(localAddrAppID)
	if err != nil {
		return a, fmt.Errorf("machine id: %v", err)
	}
	raw, err := hex.DecodeString(id)
	if err != nil || len(raw) < AddrLen {
		return a, fmt.Errorf("machine id: unexpected format")
	}
	copy(a[:], raw)
	a[0] = (a[0] | 0x02) &^ 0x01
	return a, nil
}
