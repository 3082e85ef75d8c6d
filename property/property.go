package property

import "strings"

// Condition makes a property visible only when the named sibling renders to
// Equals (surrounding spaces ignored).
type Condition struct {
	Sibling string
	Equals  string
}

// Visibility decides whether a property is listed for a device.
type Visibility struct {
	Hidden bool
	When   *Condition
}

// Property describes one named property of a device.
type Property struct {
	// Name is the property path relative to the device, e.g. "eeprom/page".
	Name string
	// Length is the declared byte length of one element; for rendered formats
	// it is the suggested length of the text.
	Length int
	Format Format
	// Aggregate is nil for single-element properties.
	Aggregate *Aggregate

	// Read and Write are nil when the property cannot be read or written.
	Read  Behavior
	Write Behavior

	Visibility Visibility
	Volatility Volatility
}

// Dir returns the directory part of the property name, "" at the device root.
func (p *Property) Dir() string {
	if i := strings.LastIndexByte(p.Name, '/'); i >= 0 {
		return p.Name[:i]
	}

	return ""
}

// Base returns the last path element of the property name.
func (p *Property) Base() string {
	return p.Name[strings.LastIndexByte(p.Name, '/')+1:]
}

// IsDir reports whether the property is a sub-directory marker.
func (p *Property) IsDir() bool { return p.Format == FormatSubdir }

// Elements returns the aggregate element count, 1 for single properties.
func (p *Property) Elements() int {
	if p.Aggregate == nil {
		return 1
	}

	return p.Aggregate.Elements
}

// Readable reports whether the property has a read behavior.
func (p *Property) Readable() bool { return p.Read != nil }

// Writable reports whether the property has a write behavior.
func (p *Property) Writable() bool { return p.Write != nil }
