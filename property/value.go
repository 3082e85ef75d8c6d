package property

import "time"

// Value is the typed content of one property element. Only the field that
// matches the property format is meaningful.
type Value struct {
	// U holds unsigned values.
	U uint32
	// I holds integer values.
	I int32
	// F holds float and temperature values.
	F float64
	// Y holds yes/no values and single bits.
	Y bool
	// D holds dates.
	D time.Time
	// B holds binary and ASCII content.
	B []byte
}
