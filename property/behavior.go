package property

import (
	"fmt"

	"github.com/arloliu/go-owfs/txn"
)

// Behavior is the tagged read or write implementation of a property. The
// concrete types below are the only behaviors; each carries the typed data it
// needs.
type Behavior interface {
	Kind() string
	isBehavior()
}

// Memory accesses a block of device memory at Base. For separate aggregates
// element i lives at Base + i*Length.
type Memory struct {
	Base int
}

// Register accesses an unsigned big-endian register of Width bytes at
// Address. For separate aggregates element i lives at Address + i*Width; a
// bit-field aggregate maps element i to bit i of the register.
type Register struct {
	Address int
	Width   int
}

// QueryKind selects one of the dialect's two-byte queries.
type QueryKind int

const (
	QueryVersion QueryKind = iota
	QueryType
)

var queryNames = map[QueryKind]string{
	QueryVersion: "version",
	QueryType:    "type",
}

func (k QueryKind) String() string { return queryNames[k] }

// ParseQueryKind returns the QueryKind named s.
func ParseQueryKind(s string) (QueryKind, error) {
	for k, name := range queryNames {
		if name == s {
			return k, nil
		}
	}

	return 0, fmt.Errorf("property: unknown query %q", s)
}

// Query reads a two-byte value with the dialect opcode selected by Query.
type Query struct {
	Query QueryKind
}

// opcode resolves the query opcode through d.
func (q Query) opcode(d txn.Dialect) byte {
	if q.Query == QueryType {
		return d.QueryType
	}

	return d.QueryVersion
}

// DeriveKind selects how a derived value is computed from its sibling.
type DeriveKind int

const (
	// DeriveHexPair renders the sibling's 16-bit value as "HH.LL".
	DeriveHexPair DeriveKind = iota
	// DeriveHighByte takes bits 8-15 of the sibling.
	DeriveHighByte
	// DeriveLowByte takes bits 0-7 of the sibling.
	DeriveLowByte
	// DeriveUnixDate interprets the sibling as seconds since the Unix epoch.
	DeriveUnixDate
)

var deriveNames = map[DeriveKind]string{
	DeriveHexPair:  "hexpair",
	DeriveHighByte: "high_byte",
	DeriveLowByte:  "low_byte",
	DeriveUnixDate: "unix_date",
}

func (k DeriveKind) String() string {
	if name, ok := deriveNames[k]; ok {
		return name
	}

	return fmt.Sprintf("DeriveKind(%d)", int(k))
}

// ParseDeriveKind returns the DeriveKind named s.
func ParseDeriveKind(s string) (DeriveKind, error) {
	for k, name := range deriveNames {
		if name == s {
			return k, nil
		}
	}

	return 0, fmt.Errorf("property: unknown derive kind %q", s)
}

// Derived computes its value from the unsigned sibling property Sibling of
// the same device.
type Derived struct {
	Sibling string
	Derive  DeriveKind
}

// Command sends the written bytes as one extended command.
type Command struct{}

// WriteByte writes one byte: the written unsigned value carries the address
// in bits 8-23 and the data in bits 0-7.
type WriteByte struct{}

// Flash programs the written bytes as a firmware image into the device flash
// region.
type Flash struct{}

// Erase erases the page at Base + i*Stride when element i is written with yes.
// Writing no is a no-op.
type Erase struct {
	Base   int
	Stride int
}

func (Memory) Kind() string    { return "memory" }
func (Register) Kind() string  { return "register" }
func (Query) Kind() string     { return "query" }
func (Derived) Kind() string   { return "derived" }
func (Command) Kind() string   { return "command" }
func (WriteByte) Kind() string { return "writebyte" }
func (Flash) Kind() string     { return "flash" }
func (Erase) Kind() string     { return "erase" }

func (Memory) isBehavior()    {}
func (Register) isBehavior()  {}
func (Query) isBehavior()     {}
func (Derived) isBehavior()   {}
func (Command) isBehavior()   {}
func (WriteByte) isBehavior() {}
func (Flash) isBehavior()     {}
func (Erase) isBehavior()     {}
