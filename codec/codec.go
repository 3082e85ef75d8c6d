// Package codec packs and unpacks the fixed-width integers used in device
// registers and transaction frame headers.
//
// Register values are big-endian on the device. Frame addresses are sent low
// byte first.
package codec

import "encoding/binary"

// Uint16 decodes a big-endian 16-bit value from the first two bytes of b.
func Uint16(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

// Uint32 decodes a big-endian 32-bit value from the first four bytes of b.
func Uint32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

// PutUint16 encodes v big-endian into the first two bytes of b.
func PutUint16(b []byte, v uint16) {
	binary.BigEndian.PutUint16(b, v)
}

// PutUint32 encodes v big-endian into the first four bytes of b.
func PutUint32(b []byte, v uint32) {
	binary.BigEndian.PutUint32(b, v)
}

// EncodeUint16 returns v as two big-endian bytes.
func EncodeUint16(v uint16) []byte {
	return binary.BigEndian.AppendUint16(nil, v)
}

// EncodeUint32 returns v as four big-endian bytes.
func EncodeUint32(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

// EncodeUint encodes v into a big-endian register image of width 1, 2 or 4
// bytes. Higher bits that do not fit the width are dropped.
func EncodeUint(v uint32, width int) []byte {
	switch width {
	case 1:
		return []byte{byte(v)}
	case 2:
		return EncodeUint16(uint16(v)) //nolint:gosec // register width truncation
	default:
		return EncodeUint32(v)
	}
}

// DecodeUint decodes a big-endian register image of up to four bytes.
// Longer images decode their first four bytes.
func DecodeUint(b []byte) uint32 {
	if len(b) >= 4 {
		return Uint32(b)
	}

	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}

	return v
}

// SplitAddress returns the low and high byte of a 16-bit device address, in
// the order they appear on the wire.
func SplitAddress(addr int) (lo byte, hi byte) {
	return byte(addr & 0xFF), byte((addr >> 8) & 0xFF)
}

// JoinAddress is the inverse of SplitAddress.
func JoinAddress(lo, hi byte) int {
	return int(lo) | int(hi)<<8
}
