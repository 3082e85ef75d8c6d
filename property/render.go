package property

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arloliu/go-owfs/errs"
)

// dateLayout is the 24-character ctime layout of date files.
const dateLayout = "Mon Jan _2 15:04:05 2006"

// appendValue renders v in the text form of format f.
func appendValue(buf *bytes.Buffer, f Format, v Value) {
	switch f {
	case FormatUnsigned:
		fmt.Fprintf(buf, "%*d", LengthUnsigned, v.U)
	case FormatInteger:
		fmt.Fprintf(buf, "%*d", LengthInteger, v.I)
	case FormatFloat, FormatTemperature:
		fmt.Fprintf(buf, "%*G", LengthFloat, v.F)
	case FormatDate:
		buf.WriteString(v.D.UTC().Format(dateLayout))
	case FormatYesNo, FormatBitfield:
		if v.Y {
			buf.WriteByte('1')
		} else {
			buf.WriteByte('0')
		}
	default:
		buf.Write(v.B)
	}
}

// parseValue parses the text form of one element of format f.
func parseValue(f Format, text []byte) (Value, error) {
	if f.IsRaw() {
		return Value{B: text}, nil
	}

	s := strings.TrimSpace(string(text))

	switch f {
	case FormatUnsigned:
		u, err := strconv.ParseUint(s, 0, 32)
		if err != nil {
			return Value{}, invalidText(f, s)
		}
		return Value{U: uint32(u)}, nil

	case FormatInteger:
		i, err := strconv.ParseInt(s, 0, 32)
		if err != nil {
			return Value{}, invalidText(f, s)
		}
		return Value{I: int32(i)}, nil

	case FormatFloat, FormatTemperature:
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, invalidText(f, s)
		}
		return Value{F: x}, nil

	case FormatDate:
		return parseDate(s)

	case FormatYesNo, FormatBitfield:
		y, ok := parseYesNo(s)
		if !ok {
			return Value{}, invalidText(f, s)
		}
		return Value{Y: y}, nil
	}

	return Value{}, invalidText(f, s)
}

func invalidText(f Format, s string) error {
	return fmt.Errorf("property: %q is not a valid %s value: %w", s, f, errs.ErrInvalidArgument)
}

func parseYesNo(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "1", "y", "yes", "t", "true", "on":
		return true, true
	case "0", "n", "no", "f", "false", "off":
		return false, true
	}

	return false, false
}

// parseDate accepts the ctime layout, RFC 3339 or a count of Unix seconds.
func parseDate(s string) (Value, error) {
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Value{D: time.Unix(secs, 0).UTC()}, nil
	}
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return Value{D: t}, nil
		}
	}

	return Value{}, invalidText(FormatDate, s)
}

// hexPair renders a 16-bit value as "HH.LL", high byte first.
func hexPair(u uint32) []byte {
	return []byte(fmt.Sprintf("%02X.%02X", (u>>8)&0xFF, u&0xFF))
}

// parseHexPair is the inverse of hexPair.
func parseHexPair(b []byte) (uint32, error) {
	s := strings.TrimSpace(string(b))
	hi, lo, ok := strings.Cut(s, ".")
	if !ok || len(hi) != 2 || len(lo) != 2 {
		return 0, invalidText(FormatASCII, s)
	}
	h, err := strconv.ParseUint(hi, 16, 8)
	if err != nil {
		return 0, invalidText(FormatASCII, s)
	}
	l, err := strconv.ParseUint(lo, 16, 8)
	if err != nil {
		return 0, invalidText(FormatASCII, s)
	}

	return uint32(h)<<8 | uint32(l), nil
}
