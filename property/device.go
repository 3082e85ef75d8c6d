package property

import (
	"fmt"
	"time"

	"github.com/arloliu/go-owfs/chunk"
	"github.com/arloliu/go-owfs/errs"
	"github.com/arloliu/go-owfs/flash"
	"github.com/arloliu/go-owfs/logger"
	"github.com/arloliu/go-owfs/txn"
)

// Transfer holds the transfer limits of a device. Zero values select the
// chunk package defaults.
type Transfer struct {
	ReadGulp      int
	WriteGulp     int
	CommandGulp   int
	CommandSettle time.Duration
}

// Device is the property table of one device family.
//
// A Device is immutable once registered.
type Device struct {
	Family     byte
	Name       string
	Dialect    txn.Dialect
	Transfer   Transfer
	Flash      *flash.Region
	Properties []*Property

	byName   map[string]*Property
	siblings map[string]*Property
	engine   *txn.Engine
	chunks   *chunk.Controller
	flasher  *flash.Controller
}

// Property returns the property named name.
func (d *Device) Property(name string) (*Property, bool) {
	p, ok := d.byName[name]
	return p, ok
}

// Engine returns the transaction engine of the device, nil before registration.
func (d *Device) Engine() *txn.Engine { return d.engine }

// Chunks returns the chunked transfer controller of the device, nil before
// registration.
func (d *Device) Chunks() *chunk.Controller { return d.chunks }

// Flasher returns the flash controller, nil when the device has no flash region.
func (d *Device) Flasher() *flash.Controller { return d.flasher }

// prepare validates the table and builds the controllers.
func (d *Device) prepare(log logger.Logger) error {
	if d.Name == "" {
		return fmt.Errorf("property: device 0x%02X: empty name: %w", d.Family, errs.ErrInvalidArgument)
	}

	d.byName = make(map[string]*Property, len(d.Properties))
	for _, p := range d.Properties {
		if p == nil || p.Name == "" {
			return d.invalid("", "empty property")
		}
		if _, dup := d.byName[p.Name]; dup {
			return d.invalid(p.Name, "duplicate property")
		}
		d.byName[p.Name] = p
	}

	d.siblings = make(map[string]*Property)
	for _, p := range d.Properties {
		if err := d.check(p); err != nil {
			return err
		}
	}

	d.engine = txn.NewEngine(d.Dialect)

	opts := []chunk.Option{chunk.WithLogger(log)}
	if d.Transfer.ReadGulp > 0 {
		opts = append(opts, chunk.WithReadGulp(d.Transfer.ReadGulp))
	}
	if d.Transfer.WriteGulp > 0 {
		opts = append(opts, chunk.WithWriteGulp(d.Transfer.WriteGulp))
	}
	if d.Transfer.CommandGulp > 0 {
		opts = append(opts, chunk.WithCommandGulp(d.Transfer.CommandGulp))
	}
	if d.Transfer.CommandSettle > 0 {
		opts = append(opts, chunk.WithCommandSettle(d.Transfer.CommandSettle))
	}

	ctrl, err := chunk.New(d.engine, opts...)
	if err != nil {
		return fmt.Errorf("property: device %s: %w", d.Name, err)
	}
	d.chunks = ctrl

	if d.Flash != nil {
		f, err := flash.New(d.engine, *d.Flash, flash.WithLogger(log))
		if err != nil {
			return fmt.Errorf("property: device %s: %w", d.Name, err)
		}
		d.flasher = f
	}

	return nil
}

func (d *Device) invalid(name string, format string, args ...any) error {
	return fmt.Errorf("property: device %s: %q: %s: %w", d.Name, name, fmt.Sprintf(format, args...), errs.ErrInvalidArgument)
}

func (d *Device) check(p *Property) error {
	if p.Aggregate != nil {
		if p.Aggregate.Elements < 1 {
			return d.invalid(p.Name, "aggregate with %d elements", p.Aggregate.Elements)
		}
		if p.Aggregate.Naming == NamingLetters && p.Aggregate.Elements > 26 {
			return d.invalid(p.Name, "too many lettered elements")
		}
	}
	if p.Format == FormatBitfield && (p.Aggregate == nil || p.Aggregate.Layout != LayoutJoined) {
		return d.invalid(p.Name, "bit-field needs a joined aggregate")
	}

	if p.IsDir() {
		if p.Read != nil || p.Write != nil || p.Aggregate != nil {
			return d.invalid(p.Name, "directory with behaviors")
		}
		return nil
	}
	if dir := p.Dir(); dir != "" {
		if parent, ok := d.byName[dir]; !ok || !parent.IsDir() {
			return d.invalid(p.Name, "missing directory %q", dir)
		}
	}
	if p.Read == nil && p.Write == nil {
		return d.invalid(p.Name, "neither readable nor writable")
	}

	if p.Read != nil {
		if err := d.checkBehavior(p, p.Read, false); err != nil {
			return err
		}
	}
	if p.Write != nil {
		if err := d.checkBehavior(p, p.Write, true); err != nil {
			return err
		}
	}

	if p.Visibility.When != nil {
		s, ok := d.byName[p.Visibility.When.Sibling]
		if !ok || s == p || !s.Readable() {
			return d.invalid(p.Name, "visibility depends on unreadable %q", p.Visibility.When.Sibling)
		}
	}

	return nil
}

func (d *Device) checkBehavior(p *Property, b Behavior, write bool) error {
	switch b := b.(type) {
	case Memory:
		if p.Format != FormatBinary && p.Format != FormatASCII {
			return d.invalid(p.Name, "memory behavior needs binary or ascii format")
		}
		if p.Length < 1 || b.Base < 0 || b.Base+p.Length*p.Elements()-1 > txn.MaxAddress {
			return d.invalid(p.Name, "memory 0x%X+%d outside the address space", b.Base, p.Length*p.Elements())
		}

	case Register:
		switch b.Width {
		case 1, 2, 4:
		default:
			return d.invalid(p.Name, "register width %d not in {1, 2, 4}", b.Width)
		}
		switch p.Format {
		case FormatUnsigned, FormatInteger, FormatYesNo, FormatBitfield:
		default:
			return d.invalid(p.Name, "register behavior with %s format", p.Format)
		}
		if p.Format == FormatBitfield && p.Aggregate.Elements > 8*b.Width {
			return d.invalid(p.Name, "%d bits in a %d-byte register", p.Aggregate.Elements, b.Width)
		}
		if p.Aggregate != nil && p.Aggregate.Layout == LayoutJoined && p.Format != FormatBitfield {
			return d.invalid(p.Name, "joined register aggregate must be a bit-field")
		}
		if b.Address < 0 || b.Address+b.Width*p.Elements()-1 > txn.MaxAddress {
			return d.invalid(p.Name, "register 0x%X outside the address space", b.Address)
		}

	case Query:
		if p.Format != FormatUnsigned || p.Aggregate != nil {
			return d.invalid(p.Name, "query behavior needs a single unsigned property")
		}

	case Derived:
		if p.Aggregate != nil {
			return d.invalid(p.Name, "derived aggregate")
		}
		s, ok := d.byName[b.Sibling]
		if !ok {
			return d.invalid(p.Name, "unknown sibling %q", b.Sibling)
		}
		if _, derived := s.Read.(Derived); derived {
			return d.invalid(p.Name, "sibling %q is itself derived", b.Sibling)
		}
		if s.Format != FormatUnsigned || s.Aggregate != nil || !s.Readable() {
			return d.invalid(p.Name, "sibling %q is not a readable unsigned property", b.Sibling)
		}
		want := map[DeriveKind]Format{
			DeriveHexPair:  FormatASCII,
			DeriveHighByte: FormatUnsigned,
			DeriveLowByte:  FormatUnsigned,
			DeriveUnixDate: FormatDate,
		}[b.Derive]
		if p.Format != want {
			return d.invalid(p.Name, "%s derivation needs %s format", b.Derive, want)
		}
		d.siblings[p.Name] = s

	case Command:
		if p.Format != FormatBinary || p.Aggregate != nil || !write {
			return d.invalid(p.Name, "command must be a write-only binary property")
		}

	case WriteByte:
		if p.Format != FormatUnsigned || p.Aggregate != nil || !write {
			return d.invalid(p.Name, "writebyte must be a write-only unsigned property")
		}

	case Flash:
		if d.Flash == nil {
			return d.invalid(p.Name, "flash behavior without a flash region")
		}
		if p.Format != FormatBinary || p.Aggregate != nil || !write {
			return d.invalid(p.Name, "flash must write a binary property")
		}

	case Erase:
		if p.Format != FormatYesNo || !write || b.Stride < 0 {
			return d.invalid(p.Name, "erase must write a yes/no property")
		}

	default:
		return d.invalid(p.Name, "unsupported behavior %T", b)
	}

	return nil
}
