package codec

// CRC16Residue is the value CRC16 yields over a buffer followed by its own
// inverted little-endian CRC.
const CRC16Residue uint16 = 0xB001

var crc16Table = func() [256]uint16 {
	var t [256]uint16
	for i := range t {
		crc := uint16(i) //nolint:gosec // i < 256
		for j := 0; j < 8; j++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ 0xA001
			} else {
				crc >>= 1
			}
		}
		t[i] = crc
	}
	return t
}()

// CRC16Update continues the 1-Wire CRC-16 (x^16 + x^15 + x^2 + 1, reflected)
// over b starting from seed.
func CRC16Update(seed uint16, b []byte) uint16 {
	crc := seed
	for _, v := range b {
		crc = crc>>8 ^ crc16Table[byte(crc)^v]
	}
	return crc
}

// CRC16 computes the 1-Wire CRC-16 of b with a zero seed.
func CRC16(b []byte) uint16 {
	return CRC16Update(0, b)
}

// AppendCRC16 appends the inverted CRC-16 of b, low byte first, the way
// devices transmit it.
func AppendCRC16(b []byte) []byte {
	crc := ^CRC16(b)
	return append(b, byte(crc), byte(crc>>8))
}

// CheckCRC16 reports whether b ends with a valid inverted CRC-16 over the
// preceding bytes.
func CheckCRC16(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	return CRC16(b) == CRC16Residue
}
