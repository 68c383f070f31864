package decoder

import "encoding/binary"

// Field extracts the width-bit unsigned value starting at bit position pos
// of b. Bits are numbered from the least significant bit of b[0] upward, so
// a field continues into the low bits of the following byte. ok is false if
// the field does not lie entirely within b. width must be at most 32.
//
//	Field([]byte{0xFF, 0x03}, 0, 10) // 0x3FF
//	Field([]byte{0xC0, 0xFF}, 6, 10) // 0x3FF
func Field(b []byte, pos, width int) (v uint32, ok bool) {
	if pos < 0 || width <= 0 || width > 32 {
		return 0, false
	}
	first, last := pos/8, (pos+width-1)/8
	if last >= len(b) {
		return 0, false
	}

	var acc uint64
	for i := last; i >= first; i-- {
		acc = acc<<8 | uint64(b[i])
	}
	acc >>= uint(pos % 8)
	return uint32(acc & (1<<uint(width) - 1)), true
}

// int16At returns the little-endian signed 16-bit value at off.
func int16At(b []byte, off int) int {
	return int(int16(binary.LittleEndian.Uint16(b[off:])))
}
