package property

import (
	"fmt"
	"strings"
)

// Format is the presentation type of a property.
type Format int

const (
	FormatBinary Format = iota
	FormatASCII
	FormatUnsigned
	FormatInteger
	FormatFloat
	FormatTemperature
	FormatDate
	FormatYesNo
	FormatBitfield
	FormatSubdir
)

// Canonical rendered widths.
const (
	LengthYesNo     = 1
	LengthUnsigned  = 12
	LengthInteger   = 12
	LengthFloat     = 12
	LengthDate      = 24
	LengthBitByte   = 12
	LengthDirectory = 8
	LengthStructure = 30
)

var formatNames = map[Format]string{
	FormatBinary:      "binary",
	FormatASCII:       "ascii",
	FormatUnsigned:    "unsigned",
	FormatInteger:     "integer",
	FormatFloat:       "float",
	FormatTemperature: "temperature",
	FormatDate:        "date",
	FormatYesNo:       "yesno",
	FormatBitfield:    "bitfield",
	FormatSubdir:      "subdir",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}

	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, name := range formatNames {
		if name == s {
			return f, nil
		}
	}

	return 0, fmt.Errorf("property: unknown format %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	v, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = v

	return nil
}

// IsNumeric reports whether values of f are carried in Value.U, Value.I or Value.F.
func (f Format) IsNumeric() bool {
	switch f {
	case FormatUnsigned, FormatInteger, FormatFloat, FormatTemperature:
		return true
	}

	return false
}

// IsRaw reports whether the file view of f is the raw bytes of the value.
func (f Format) IsRaw() bool {
	return f == FormatBinary || f == FormatASCII
}

// Volatility classifies how long a read value may be cached by a caller.
type Volatility int

const (
	VolatilityVolatile Volatility = iota
	VolatilityStable
	VolatilityReadStable
	VolatilitySecond
	VolatilityLink
)

var volatilityNames = map[Volatility]string{
	VolatilityVolatile:   "volatile",
	VolatilityStable:     "stable",
	VolatilityReadStable: "read-stable",
	VolatilitySecond:     "second",
	VolatilityLink:       "link",
}

func (v Volatility) String() string {
	if name, ok := volatilityNames[v]; ok {
		return name
	}

	return fmt.Sprintf("Volatility(%d)", int(v))
}

// ParseVolatility returns the Volatility named s.
func ParseVolatility(s string) (Volatility, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for v, name := range volatilityNames {
		if name == s {
			return v, nil
		}
	}

	return 0, fmt.Errorf("property: unknown volatility %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Volatility) UnmarshalText(text []byte) error {
	p, err := ParseVolatility(string(text))
	if err != nil {
		return err
	}
	*v = p

	return nil
}
