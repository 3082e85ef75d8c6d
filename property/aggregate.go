package property

import (
	"fmt"
	"strconv"
)

// Naming selects how aggregate elements are addressed in a path.
type Naming int

const (
	// NamingNumbers addresses elements as .0, .1, ...
	NamingNumbers Naming = iota
	// NamingLetters addresses elements as .A, .B, ...
	NamingLetters
)

// Layout selects how aggregate elements are stored on the device.
type Layout int

const (
	// LayoutSeparate elements are accessed one at a time, element i at
	// i times the element size.
	LayoutSeparate Layout = iota
	// LayoutJoined elements are read and written together in one access.
	LayoutJoined
)

// Aggregate describes a property made of several like elements.
type Aggregate struct {
	Elements int
	Naming   Naming
	Layout   Layout
}

// ElementName returns the path suffix of element i.
func (a *Aggregate) ElementName(i int) string {
	if a.Naming == NamingLetters {
		return string(rune('A' + i))
	}

	return strconv.Itoa(i)
}

// ParseElement returns the index of the element named s.
func (a *Aggregate) ParseElement(s string) (int, error) {
	var i int
	switch a.Naming {
	case NamingLetters:
		if len(s) != 1 || s[0] < 'A' || s[0] > 'Z' {
			return 0, fmt.Errorf("property: bad element %q", s)
		}
		i = int(s[0] - 'A')
	default:
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("property: bad element %q", s)
		}
		i = n
	}

	if i < 0 || i >= a.Elements {
		return 0, fmt.Errorf("property: element %q out of range [0, %d)", s, a.Elements)
	}

	return i, nil
}

// Extension selects the part of a property addressed by a handle: an element
// index (>= 0) or one of the special views.
type Extension int

const (
	// ExtNone addresses a non-aggregate property.
	ExtNone Extension = -1
	// ExtAll addresses all elements of an aggregate at once.
	ExtAll Extension = -2
	// ExtByte addresses a bit-field as its raw register value.
	ExtByte Extension = -3
)

// IsElement reports whether e is a single element index.
func (e Extension) IsElement() bool { return e >= 0 }

func (e Extension) String() string {
	switch e {
	case ExtNone:
		return ""
	case ExtAll:
		return "ALL"
	case ExtByte:
		return "BYTE"
	}

	return strconv.Itoa(int(e))
}
