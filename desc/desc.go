// Package desc loads device descriptions from YAML into property tables.
//
// A description names the family code, the transaction dialect, transfer
// limits, an optional flash region and the property list. Each property
// declares its format, length, aggregate shape, visibility, volatility and
// its read and write behaviors:
//
//	properties:
//	  - name: 910/duty1
//	    format: unsigned
//	    volatility: read-stable
//	    rw: {kind: register, address: 14, width: 2}
//
// "rw" sets the same behavior for reading and writing; "read" and "write"
// set them separately.
package desc

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/go-owfs/errs"
	"github.com/arloliu/go-owfs/flash"
	"github.com/arloliu/go-owfs/property"
	"github.com/arloliu/go-owfs/txn"
)

// RawDevice is a device description as written in YAML.
type RawDevice struct {
	Family     uint8         `yaml:"family"`
	Name       string        `yaml:"name"`
	Dialect    txn.Dialect   `yaml:"dialect"`
	Transfer   RawTransfer   `yaml:"transfer"`
	Flash      *flash.Region `yaml:"flash"`
	Properties []RawProperty `yaml:"properties"`
}

// RawTransfer holds the transfer limits.
type RawTransfer struct {
	ReadGulp      int           `yaml:"read_gulp"`
	WriteGulp     int           `yaml:"write_gulp"`
	CommandGulp   int           `yaml:"command_gulp"`
	CommandSettle time.Duration `yaml:"command_settle"`
}

// RawProperty is one property entry.
type RawProperty struct {
	Name       string        `yaml:"name"`
	Format     string        `yaml:"format"`
	Length     int           `yaml:"length"` // defaults to the format width
	Aggregate  *RawAggregate `yaml:"aggregate"`
	Hidden     bool          `yaml:"hidden"`
	When       *RawCondition `yaml:"visible_when"`
	Volatility string        `yaml:"volatility"` // defaults to volatile
	Read       *RawBehavior  `yaml:"read"`
	Write      *RawBehavior  `yaml:"write"`
	RW         *RawBehavior  `yaml:"rw"`
}

// RawAggregate is the aggregate shape of a property.
type RawAggregate struct {
	Elements int    `yaml:"elements"`
	Naming   string `yaml:"naming"` // "numbers" (default) or "letters"
	Layout   string `yaml:"layout"` // "separate" (default) or "joined"
}

// RawCondition is a visibility condition.
type RawCondition struct {
	Sibling string `yaml:"sibling"`
	Equals  string `yaml:"equals"`
}

// RawBehavior is a tagged behavior; Kind selects which fields apply.
type RawBehavior struct {
	Kind    string `yaml:"kind"`
	Base    int    `yaml:"base"`    // memory, erase
	Stride  int    `yaml:"stride"`  // erase
	Address int    `yaml:"address"` // register
	Width   int    `yaml:"width"`   // register
	Query   string `yaml:"query"`   // query: "version" or "type"
	Sibling string `yaml:"sibling"` // derived
	Derive  string `yaml:"derive"`  // derived
}

// Parse parses a YAML device description.
func Parse(data []byte) (*property.Device, error) {
	var raw RawDevice
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("desc: parsing device: %w: %w", errs.ErrInvalidArgument, err)
	}

	return raw.Device()
}

// Load reads and parses a YAML device description file.
func Load(path string) (*property.Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("desc: reading %s: %w", path, err)
	}

	return Parse(data)
}

// Device converts the raw description into a property table. The result
// still has to be registered to be validated in full.
func (r *RawDevice) Device() (*property.Device, error) {
	if r.Name == "" {
		return nil, fmt.Errorf("desc: device description missing name: %w", errs.ErrInvalidArgument)
	}

	dev := &property.Device{
		Family:  r.Family,
		Name:    r.Name,
		Dialect: r.Dialect,
		Transfer: property.Transfer{
			ReadGulp:      r.Transfer.ReadGulp,
			WriteGulp:     r.Transfer.WriteGulp,
			CommandGulp:   r.Transfer.CommandGulp,
			CommandSettle: r.Transfer.CommandSettle,
		},
		Flash:      r.Flash,
		Properties: make([]*property.Property, 0, len(r.Properties)),
	}

	for i := range r.Properties {
		p, err := r.Properties[i].property()
		if err != nil {
			return nil, fmt.Errorf("desc: %s: %w", r.Name, err)
		}
		dev.Properties = append(dev.Properties, p)
	}

	return dev, nil
}

func (rp *RawProperty) property() (*property.Property, error) {
	if rp.Name == "" {
		return nil, fmt.Errorf("property without name: %w", errs.ErrInvalidArgument)
	}

	format, err := property.ParseFormat(rp.Format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", rp.Name, err, errs.ErrInvalidArgument)
	}

	p := &property.Property{
		Name:       rp.Name,
		Format:     format,
		Length:     rp.Length,
		Visibility: property.Visibility{Hidden: rp.Hidden},
		Volatility: property.VolatilityVolatile,
	}
	if p.Length == 0 {
		p.Length = defaultLength(format)
	}

	if rp.Volatility != "" {
		if p.Volatility, err = property.ParseVolatility(rp.Volatility); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", rp.Name, err, errs.ErrInvalidArgument)
		}
	}

	if rp.When != nil {
		p.Visibility.When = &property.Condition{Sibling: rp.When.Sibling, Equals: rp.When.Equals}
	}

	if rp.Aggregate != nil {
		if p.Aggregate, err = rp.Aggregate.aggregate(); err != nil {
			return nil, fmt.Errorf("%s: %w", rp.Name, err)
		}
	}

	read, write := rp.Read, rp.Write
	if rp.RW != nil {
		if read != nil || write != nil {
			return nil, fmt.Errorf("%s: rw combined with read or write: %w", rp.Name, errs.ErrInvalidArgument)
		}
		read, write = rp.RW, rp.RW
	}

	if read != nil {
		if p.Read, err = read.behavior(); err != nil {
			return nil, fmt.Errorf("%s: read: %w", rp.Name, err)
		}
	}
	if write != nil {
		if p.Write, err = write.behavior(); err != nil {
			return nil, fmt.Errorf("%s: write: %w", rp.Name, err)
		}
	}

	return p, nil
}

func defaultLength(f property.Format) int {
	switch f {
	case property.FormatYesNo, property.FormatBitfield:
		return property.LengthYesNo
	case property.FormatUnsigned:
		return property.LengthUnsigned
	case property.FormatInteger:
		return property.LengthInteger
	case property.FormatFloat, property.FormatTemperature:
		return property.LengthFloat
	case property.FormatDate:
		return property.LengthDate
	}

	return 0
}

func (ra *RawAggregate) aggregate() (*property.Aggregate, error) {
	a := &property.Aggregate{Elements: ra.Elements}

	switch ra.Naming {
	case "", "numbers":
		a.Naming = property.NamingNumbers
	case "letters":
		a.Naming = property.NamingLetters
	default:
		return nil, fmt.Errorf("unknown aggregate naming %q: %w", ra.Naming, errs.ErrInvalidArgument)
	}

	switch ra.Layout {
	case "", "separate":
		a.Layout = property.LayoutSeparate
	case "joined":
		a.Layout = property.LayoutJoined
	default:
		return nil, fmt.Errorf("unknown aggregate layout %q: %w", ra.Layout, errs.ErrInvalidArgument)
	}

	return a, nil
}

func (rb *RawBehavior) behavior() (property.Behavior, error) {
	switch rb.Kind {
	case "memory":
		return property.Memory{Base: rb.Base}, nil
	case "register":
		return property.Register{Address: rb.Address, Width: rb.Width}, nil
	case "query":
		q, err := property.ParseQueryKind(rb.Query)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", err, errs.ErrInvalidArgument)
		}
		return property.Query{Query: q}, nil
	case "derived":
		kind, err := property.ParseDeriveKind(rb.Derive)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", err, errs.ErrInvalidArgument)
		}
		return property.Derived{Sibling: rb.Sibling, Derive: kind}, nil
	case "command":
		return property.Command{}, nil
	case "writebyte":
		return property.WriteByte{}, nil
	case "flash":
		return property.Flash{}, nil
	case "erase":
		return property.Erase{Base: rb.Base, Stride: rb.Stride}, nil
	}

	return nil, fmt.Errorf("unknown behavior kind %q: %w", rb.Kind, errs.ErrInvalidArgument)
}
