package wol

import (
	"bytes"
	"fmt"

	"github.com/mdlayher/wol"
)

const (
	// Port is the UDP port magic packets are sent to (discard protocol).
	Port = 9

	syncStreamLen = 6
	repetitions   = 16

	// MagicPacketSize is 6 bytes of 0xFF followed by 16 copies of the address.
	MagicPacketSize = syncStreamLen + repetitions*len(HardwareAddress{})
)

// MagicPacket is the Wake-on-LAN payload.
type MagicPacket []byte

// BuildMagicPacket assembles the magic packet for addr.
func BuildMagicPacket(addr HardwareAddress) MagicPacket {
	p := make(MagicPacket, 0, MagicPacketSize)
	p = append(p, bytes.Repeat([]byte{0xFF}, syncStreamLen)...)
	for i := 0; i < repetitions; i++ {
		p = append(p, addr[:]...)
	}
	return p
}

// DecodeMagicPacket validates a received payload and returns its target.
// Payloads carrying a SecureOn password are rejected.
func DecodeMagicPacket(b []byte) (HardwareAddress, error) {
	var addr HardwareAddress

	var mp wol.MagicPacket
	if err := mp.UnmarshalBinary(b); err != nil {
		return addr, fmt.Errorf("decoding magic packet: %w", err)
	}
	if len(mp.Password) != 0 {
		return addr, fmt.Errorf("decoding magic packet: password packets are not supported")
	}
	if len(mp.Target) != len(addr) {
		return addr, fmt.Errorf("decoding magic packet: %w: %d byte target", ErrInvalidAddress, len(mp.Target))
	}

	copy(addr[:], mp.Target)
	return addr, nil
}
