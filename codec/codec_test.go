package codec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint16_RoundTrip(t *testing.T) {
	for v := 0; v <= math.MaxUint16; v++ {
		b := EncodeUint16(uint16(v))
		require.Len(t, b, 2)
		require.Equal(t, uint16(v), Uint16(b))
	}
}

func TestUint32_RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 0x7F, 0x80, 0xFF, 0x100, 0xFFFF, 0x10000, 0x12345678, 0x7FFFFFFF, 0x80000000, math.MaxUint32}
	for i := uint32(0); i < 1<<16; i++ {
		values = append(values, i*65537+i)
	}

	for _, v := range values {
		b := EncodeUint32(v)
		require.Len(t, b, 4)
		require.Equal(t, v, Uint32(b))
	}
}

func TestEncodeUint_Widths(t *testing.T) {
	tests := []struct {
		name  string
		value uint32
		width int
		want  []byte
	}{
		{"8bit", 0x7F, 1, []byte{0x7F}},
		{"8bit truncates", 0x1FF, 1, []byte{0xFF}},
		{"16bit", 0x0A0B, 2, []byte{0x0A, 0x0B}},
		{"32bit", 0x01020304, 4, []byte{0x01, 0x02, 0x03, 0x04}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := EncodeUint(tt.value, tt.width)
			assert.Equal(t, tt.want, b)
			assert.Equal(t, DecodeUint(tt.want), DecodeUint(b))
		})
	}

	for v := 0; v <= 0xFF; v++ {
		assert.Equal(t, uint32(v), DecodeUint(EncodeUint(uint32(v), 1)))
	}
}

func TestDecodeUint_Lengths(t *testing.T) {
	tests := []struct {
		in   []byte
		want uint32
	}{
		{nil, 0},
		{[]byte{0x7F}, 0x7F},
		{[]byte{0x0A, 0x0B}, 0x0A0B},
		{[]byte{0x01, 0x02, 0x03}, 0x010203},
		{[]byte{0x01, 0x02, 0x03, 0x04}, 0x01020304},
		{[]byte{0x01, 0x02, 0x03, 0x04, 0x05}, 0x01020304},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DecodeUint(tt.in), "% X", tt.in)
	}
}

func TestPutUint_BigEndian(t *testing.T) {
	b := make([]byte, 4)
	PutUint16(b, 0xBEEF)
	assert.Equal(t, []byte{0xBE, 0xEF, 0, 0}, b)

	PutUint32(b, 0xDEADBEEF)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, b)
}

func TestSplitAddress(t *testing.T) {
	lo, hi := SplitAddress(0xE400)
	assert.Equal(t, byte(0x00), lo)
	assert.Equal(t, byte(0xE4), hi)

	lo, hi = SplitAddress(0x1234)
	assert.Equal(t, byte(0x34), lo)
	assert.Equal(t, byte(0x12), hi)
	assert.Equal(t, 0x1234, JoinAddress(lo, hi))
}

func TestCRC16(t *testing.T) {
	// CRC-16/ARC check value.
	assert.Equal(t, uint16(0xBB3D), CRC16([]byte("123456789")))

	frame := []byte{0x14, 0x00, 0xE0, 0x04, 0x01, 0x02, 0x03, 0x04}
	withCRC := AppendCRC16(append([]byte(nil), frame...))
	require.Len(t, withCRC, len(frame)+2)
	assert.True(t, CheckCRC16(withCRC))
	assert.Equal(t, CRC16Residue, CRC16(withCRC))

	withCRC[3] ^= 0x01
	assert.False(t, CheckCRC16(withCRC))

	assert.False(t, CheckCRC16([]byte{0x01}))
}

func TestCRC16Update_Incremental(t *testing.T) {
	data := []byte{0x15, 0x30, 0x00, 0x01, 0x7F}
	whole := CRC16(data)
	part := CRC16Update(CRC16(data[:2]), data[2:])
	assert.Equal(t, whole, part)
}
