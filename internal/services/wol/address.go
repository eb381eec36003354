package wol

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ErrInvalidAddress is returned when a MAC string does not decode to 6 bytes.
var ErrInvalidAddress = errors.New("invalid MAC address")

// HardwareAddress is an EUI-48 hardware address.
type HardwareAddress [6]byte

// ParseHardwareAddress decodes a ':' or '-' separated hex MAC string.
//
// Groups that are not a valid hex byte are skipped; only the number of
// groups that do decode matters. "AA:BB:CC:DD:EE:FF" and "aa-bb-cc-dd-ee-ff"
// both parse, "AA:BB:CC" and "" do not.
func ParseHardwareAddress(mac string) (HardwareAddress, error) {
	var addr HardwareAddress

	groups := strings.FieldsFunc(mac, func(r rune) bool {
		return r == ':' || r == '-'
	})

	decoded := make([]byte, 0, len(addr))
	for _, g := range groups {
		b, err := strconv.ParseUint(g, 16, 8)
		if err != nil {
			continue
		}
		decoded = append(decoded, byte(b))
	}

	if len(decoded) != len(addr) {
		return addr, fmt.Errorf("%w %q: decoded %d bytes, want %d", ErrInvalidAddress, mac, len(decoded), len(addr))
	}

	copy(addr[:], decoded)
	return addr, nil
}

// HardwareAddr converts the address to the net package representation.
func (a HardwareAddress) HardwareAddr() net.HardwareAddr {
	return net.HardwareAddr(a[:])
}

func (a HardwareAddress) String() string {
	return a.HardwareAddr().String()
}
