//go:build windows

package tray

import (
	"bytes"
	"encoding/binary"
)

// encodeIcon wraps a PNG into a single-image ICO container.
func encodeIcon(pngData []byte) []byte {
	const headerLen = 6 + 16

	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, struct {
		Reserved, Type, Count uint16
	}{0, 1, 1})
	_ = binary.Write(&buf, binary.LittleEndian, struct {
		Width, Height, Colors, Reserved uint8
		Planes, BitCount                uint16
		Size, Offset                    uint32
	}{iconSize, iconSize, 0, 0, 1, 32, uint32(len(pngData)), headerLen})
	buf.Write(pngData)
	return buf.Bytes()
}
