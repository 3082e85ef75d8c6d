package property

// SizeContext is the view a file size is computed for.
type SizeContext struct {
	Extension Extension
	// Structure selects the structural listing of the property rather than
	// its content.
	Structure bool
}

// Size returns the byte length of the virtual file of p in context sc.
// Size never fails.
func Size(p *Property, sc SizeContext) int {
	if sc.Structure {
		return LengthStructure
	}
	if p.IsDir() {
		return LengthDirectory
	}

	if sc.Extension == ExtAll && p.Aggregate != nil {
		n, l := p.Aggregate.Elements, elementSize(p, ExtNone)
		if p.Format == FormatBinary {
			return n * l
		}

		return n*(l+1) - 1
	}

	return elementSize(p, sc.Extension)
}

// Size returns the file size of the handle.
func (h Handle) Size() int {
	return Size(h.Property, SizeContext{Extension: h.Extension})
}

func elementSize(p *Property, ext Extension) int {
	switch p.Format {
	case FormatYesNo:
		return LengthYesNo
	case FormatInteger:
		return LengthInteger
	case FormatUnsigned:
		return LengthUnsigned
	case FormatFloat, FormatTemperature:
		return LengthFloat
	case FormatDate:
		return LengthDate
	case FormatBitfield:
		if ext == ExtByte {
			return LengthBitByte
		}
		return LengthYesNo
	case FormatSubdir:
		return LengthDirectory
	}

	return p.Length
}
