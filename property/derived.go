package property

import (
	"fmt"
	"math"
	"time"

	"github.com/arloliu/go-owfs/errs"
)

// compose computes a derived value from the sibling's unsigned value u.
func compose(kind DeriveKind, u uint32) Value {
	switch kind {
	case DeriveHexPair:
		return Value{B: hexPair(u)}
	case DeriveHighByte:
		return Value{U: (u >> 8) & 0xFF}
	case DeriveLowByte:
		return Value{U: u & 0xFF}
	case DeriveUnixDate:
		return Value{D: time.Unix(int64(u), 0).UTC()}
	}

	return Value{}
}

// decompose is the inverse of compose: it returns the sibling value that
// makes the derived property read as v. current is the sibling's present
// value, needed by the byte sub-fields.
func decompose(kind DeriveKind, v Value, current uint32) (uint32, error) {
	switch kind {
	case DeriveHexPair:
		return parseHexPair(v.B)

	case DeriveHighByte:
		if v.U > 0xFF {
			return 0, fmt.Errorf("property: byte value %d out of range: %w", v.U, errs.ErrInvalidArgument)
		}
		return current&^0xFF00 | v.U<<8, nil

	case DeriveLowByte:
		if v.U > 0xFF {
			return 0, fmt.Errorf("property: byte value %d out of range: %w", v.U, errs.ErrInvalidArgument)
		}
		return current&^0xFF | v.U, nil

	case DeriveUnixDate:
		secs := v.D.Unix()
		if secs < 0 || secs > math.MaxUint32 {
			return 0, fmt.Errorf("property: date %v not representable: %w", v.D, errs.ErrInvalidArgument)
		}
		return uint32(secs), nil
	}

	return 0, fmt.Errorf("property: unknown derivation %s: %w", kind, errs.ErrInvalidArgument)
}

// needsCurrent reports whether decompose reads the sibling first.
func needsCurrent(kind DeriveKind) bool {
	return kind == DeriveHighByte || kind == DeriveLowByte
}
