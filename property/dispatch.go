package property

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/arloliu/go-owfs/bus"
	"github.com/arloliu/go-owfs/codec"
	"github.com/arloliu/go-owfs/errs"
	"github.com/arloliu/go-owfs/internal/pool"
	"github.com/arloliu/go-owfs/internal/util"
	"github.com/arloliu/go-owfs/logger"
	"github.com/arloliu/go-owfs/txn"
)

// Dispatcher executes property reads and writes over a bus.
type Dispatcher struct {
	registry *Registry
	logger   logger.Logger
}

// NewDispatcher creates a Dispatcher resolving paths in reg.
func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{registry: reg, logger: reg.logger}
}

// Resolve resolves path on the device registered for family.
func (d *Dispatcher) Resolve(family byte, path string) (Handle, error) {
	return d.registry.Resolve(family, path)
}

// Read reads a single element or non-aggregate property.
func (d *Dispatcher) Read(ctx context.Context, b *bus.Bus, h Handle) (Value, error) {
	var v Value
	err := d.do(ctx, b, h, "read", func(conn *bus.Conn) error {
		var err error
		v, err = d.read(ctx, conn, h)

		return err
	})

	return v, err
}

// ReadAll reads every element of an aggregate.
func (d *Dispatcher) ReadAll(ctx context.Context, b *bus.Bus, h Handle) ([]Value, error) {
	var vs []Value
	err := d.do(ctx, b, h, "read", func(conn *bus.Conn) error {
		var err error
		vs, err = d.readAll(ctx, conn, h)

		return err
	})

	return vs, err
}

// Write writes a single element or non-aggregate property.
func (d *Dispatcher) Write(ctx context.Context, b *bus.Bus, h Handle, v Value) error {
	return d.do(ctx, b, h, "write", func(conn *bus.Conn) error {
		return d.write(ctx, conn, h, v)
	})
}

// WriteAll writes every element of an aggregate.
func (d *Dispatcher) WriteAll(ctx context.Context, b *bus.Bus, h Handle, vs []Value) error {
	return d.do(ctx, b, h, "write", func(conn *bus.Conn) error {
		return d.writeAll(ctx, conn, h, vs)
	})
}

// ReadBytes reads up to size bytes of a binary or ASCII property starting at
// offset. A negative size reads to the end; an offset at or past the end
// yields no bytes.
func (d *Dispatcher) ReadBytes(ctx context.Context, b *bus.Bus, h Handle, offset int, size int) ([]byte, error) {
	var out []byte
	err := d.do(ctx, b, h, "read", func(conn *bus.Conn) error {
		var err error
		out, err = d.readBytes(ctx, conn, h, offset, size)

		return err
	})

	return out, err
}

// WriteBytes writes data into a binary or ASCII property at offset.
func (d *Dispatcher) WriteBytes(ctx context.Context, b *bus.Bus, h Handle, offset int, data []byte) error {
	return d.do(ctx, b, h, "write", func(conn *bus.Conn) error {
		return d.writeBytes(ctx, conn, h, offset, data)
	})
}

// ReadFile returns the virtual file content of h, sliced by offset and size.
// Numeric, date and yes/no values are rendered as text; ALL views of
// non-binary aggregates are comma separated.
func (d *Dispatcher) ReadFile(ctx context.Context, b *bus.Bus, h Handle, offset int, size int) ([]byte, error) {
	if h.Property.Format.IsRaw() {
		return d.ReadBytes(ctx, b, h, offset, size)
	}

	var out []byte
	err := d.do(ctx, b, h, "read", func(conn *bus.Conn) error {
		var err error
		out, err = d.readFile(ctx, conn, h, offset, size)

		return err
	})

	return out, err
}

// WriteFile parses data as the text form of h and writes it. Rendered
// formats accept only offset 0.
func (d *Dispatcher) WriteFile(ctx context.Context, b *bus.Bus, h Handle, offset int, data []byte) error {
	if h.Property.Format.IsRaw() {
		return d.WriteBytes(ctx, b, h, offset, data)
	}
	if offset != 0 {
		return fmt.Errorf("property: %s: text write at offset %d: %w", h, offset, errs.ErrOffsetNotSupported)
	}

	if h.Extension == ExtAll {
		fields := strings.Split(string(data), ",")
		vs := make([]Value, len(fields))
		for i, f := range fields {
			v, err := parseValue(h.Property.Format, []byte(f))
			if err != nil {
				return err
			}
			vs[i] = v
		}

		return d.WriteAll(ctx, b, h, vs)
	}

	format := h.Property.Format
	if h.Extension == ExtByte {
		format = FormatUnsigned
	}
	v, err := parseValue(format, data)
	if err != nil {
		return err
	}

	return d.Write(ctx, b, h, v)
}

// Visible reports whether h is listed for its device.
func (d *Dispatcher) Visible(ctx context.Context, b *bus.Bus, h Handle) (bool, error) {
	vis := h.Property.Visibility
	if vis.Hidden {
		return false, nil
	}
	if vis.When == nil {
		return true, nil
	}

	s := h.Device.byName[vis.When.Sibling]
	text, err := d.ReadFile(ctx, b, Handle{Device: h.Device, Property: s, Extension: ExtNone}, 0, -1)
	if err != nil {
		return false, err
	}

	return strings.TrimSpace(string(text)) == vis.When.Equals, nil
}

// List returns the visible entries of directory dir ("" for the device
// root): sub-directories, single properties and, for aggregates, every
// element followed by ALL (and BYTE for bit-fields).
func (d *Dispatcher) List(ctx context.Context, b *bus.Bus, dev *Device, dir string) ([]string, error) {
	var out []string
	for _, p := range dev.Properties {
		if p.Dir() != dir {
			continue
		}
		ok, err := d.Visible(ctx, b, Handle{Device: dev, Property: p, Extension: ExtNone})
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		base := p.Base()
		if p.Aggregate == nil {
			out = append(out, base)
			continue
		}
		for i := 0; i < p.Aggregate.Elements; i++ {
			out = append(out, base+"."+p.Aggregate.ElementName(i))
		}
		out = append(out, base+".ALL")
		if p.Format == FormatBitfield {
			out = append(out, base+".BYTE")
		}
	}

	return out, nil
}

func (d *Dispatcher) do(ctx context.Context, b *bus.Bus, h Handle, dir string, fn func(conn *bus.Conn) error) error {
	if h.Property == nil || h.Device == nil {
		return fmt.Errorf("property: empty handle: %w", errs.ErrInvalidArgument)
	}
	if h.Property.IsDir() {
		return fmt.Errorf("property: %s is a directory: %w", h, errs.ErrInvalidArgument)
	}

	err := b.Do(ctx, fn)
	if err != nil {
		d.logger.Debug("property: access failed", "device", h.Device.Name, "property", h.String(), "dir", dir, "error", err)
	}

	return err
}

func (d *Dispatcher) read(ctx context.Context, conn *bus.Conn, h Handle) (Value, error) {
	p, dev := h.Property, h.Device
	if h.Extension == ExtAll {
		return Value{}, fmt.Errorf("property: %s: ALL needs ReadAll: %w", h, errs.ErrInvalidArgument)
	}
	if p.Read == nil {
		return Value{}, fmt.Errorf("property: %s: %w", h, errs.ErrWriteOnly)
	}

	switch beh := p.Read.(type) {
	case Memory:
		data, err := dev.chunks.ReadConn(ctx, conn, beh.Base+h.Index()*p.Length, p.Length)
		if err != nil {
			return Value{}, err
		}
		return Value{B: data}, nil

	case Register:
		if p.Format == FormatBitfield {
			u, err := d.readRegister(ctx, conn, dev, beh.Address, beh.Width)
			if err != nil {
				return Value{}, err
			}
			if h.Extension == ExtByte {
				return Value{U: u}, nil
			}
			return Value{Y: u>>uint(h.Index())&1 == 1}, nil
		}

		u, err := d.readRegister(ctx, conn, dev, beh.Address+h.Index()*beh.Width, beh.Width)
		if err != nil {
			return Value{}, err
		}
		return registerValue(p.Format, beh.Width, u), nil

	case Query:
		u, err := dev.engine.Query(ctx, conn, beh.opcode(dev.Dialect))
		if err != nil {
			return Value{}, err
		}
		return Value{U: uint32(u)}, nil

	case Derived:
		sv, err := d.read(ctx, conn, Handle{Device: dev, Property: dev.siblings[p.Name], Extension: ExtNone})
		if err != nil {
			return Value{}, fmt.Errorf("property: %s from %s: %w", h, beh.Sibling, err)
		}
		return compose(beh.Derive, sv.U), nil
	}

	return Value{}, fmt.Errorf("property: %s: %s is not readable: %w", h, p.Read.Kind(), errs.ErrWriteOnly)
}

func (d *Dispatcher) readAll(ctx context.Context, conn *bus.Conn, h Handle) ([]Value, error) {
	p := h.Property
	if p.Aggregate == nil {
		v, err := d.read(ctx, conn, h)
		if err != nil {
			return nil, err
		}
		return []Value{v}, nil
	}
	if p.Read == nil {
		return nil, fmt.Errorf("property: %s: %w", h, errs.ErrWriteOnly)
	}

	n := p.Aggregate.Elements
	out := make([]Value, 0, n)

	switch beh := p.Read.(type) {
	case Register:
		if p.Format == FormatBitfield {
			u, err := d.readRegister(ctx, conn, h.Device, beh.Address, beh.Width)
			if err != nil {
				return nil, err
			}
			for i := 0; i < n; i++ {
				out = append(out, Value{Y: u>>uint(i)&1 == 1})
			}
			return out, nil
		}

	case Memory:
		data, err := h.Device.chunks.ReadConn(ctx, conn, beh.Base, n*p.Length)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			out = append(out, Value{B: data[i*p.Length : (i+1)*p.Length]})
		}
		return out, nil
	}

	for i := 0; i < n; i++ {
		v, err := d.read(ctx, conn, Handle{Device: h.Device, Property: p, Extension: Extension(i)})
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	return out, nil
}

func (d *Dispatcher) write(ctx context.Context, conn *bus.Conn, h Handle, v Value) error {
	p, dev := h.Property, h.Device
	if h.Extension == ExtAll {
		return fmt.Errorf("property: %s: ALL needs WriteAll: %w", h, errs.ErrInvalidArgument)
	}
	if p.Write == nil {
		return fmt.Errorf("property: %s: %w", h, errs.ErrReadOnly)
	}

	switch beh := p.Write.(type) {
	case Memory:
		return d.writeBytes(ctx, conn, h, 0, v.B)

	case Register:
		if p.Format == FormatBitfield {
			return d.writeBit(ctx, conn, h, beh, v)
		}
		u, err := registerRaw(p.Format, beh.Width, v)
		if err != nil {
			return fmt.Errorf("property: %s: %w", h, err)
		}
		return d.writeRegister(ctx, conn, dev, beh.Address+h.Index()*beh.Width, beh.Width, u)

	case Derived:
		s := dev.siblings[p.Name]
		sh := Handle{Device: dev, Property: s, Extension: ExtNone}

		var current uint32
		if needsCurrent(beh.Derive) {
			sv, err := d.read(ctx, conn, sh)
			if err != nil {
				return err
			}
			current = sv.U
		}
		u, err := decompose(beh.Derive, v, current)
		if err != nil {
			return fmt.Errorf("property: %s: %w", h, err)
		}
		return d.write(ctx, conn, sh, Value{U: u})

	case Command:
		return dev.chunks.CommandConn(ctx, conn, v.B)

	case WriteByte:
		addr := int(v.U >> 8)
		if addr > txn.MaxAddress {
			return fmt.Errorf("property: %s: address 0x%X out of range: %w", h, addr, errs.ErrInvalidArgument)
		}
		return dev.chunks.WriteConn(ctx, conn, addr, []byte{byte(v.U)})

	case Flash:
		_, err := dev.flasher.FlashConn(ctx, conn, v.B, 0)
		return err

	case Erase:
		if !v.Y {
			return nil
		}
		return dev.engine.EraseAddress(ctx, conn, beh.Base+h.Index()*beh.Stride)
	}

	return fmt.Errorf("property: %s: %s is not writable: %w", h, p.Write.Kind(), errs.ErrReadOnly)
}

func (d *Dispatcher) writeAll(ctx context.Context, conn *bus.Conn, h Handle, vs []Value) error {
	p := h.Property
	if p.Aggregate == nil {
		if len(vs) != 1 {
			return fmt.Errorf("property: %s: %d values for a single property: %w", h, len(vs), errs.ErrInvalidArgument)
		}
		return d.write(ctx, conn, h, vs[0])
	}
	if len(vs) != p.Aggregate.Elements {
		return fmt.Errorf("property: %s: %d values for %d elements: %w", h, len(vs), p.Aggregate.Elements, errs.ErrInvalidArgument)
	}
	if p.Write == nil {
		return fmt.Errorf("property: %s: %w", h, errs.ErrReadOnly)
	}

	if beh, ok := p.Write.(Register); ok && p.Format == FormatBitfield {
		var u uint32
		for i, v := range vs {
			if v.Y {
				u |= 1 << uint(i)
			}
		}
		return d.writeRegister(ctx, conn, h.Device, beh.Address, beh.Width, u)
	}

	for i, v := range vs {
		if err := d.write(ctx, conn, Handle{Device: h.Device, Property: p, Extension: Extension(i)}, v); err != nil {
			return err
		}
	}

	return nil
}

// span returns the first address and byte length addressed by a memory handle.
func span(h Handle, beh Memory) (int, int) {
	if h.Extension == ExtAll {
		return beh.Base, h.Property.Elements() * h.Property.Length
	}

	return beh.Base + h.Index()*h.Property.Length, h.Property.Length
}

func (d *Dispatcher) readBytes(ctx context.Context, conn *bus.Conn, h Handle, offset int, size int) ([]byte, error) {
	p := h.Property
	if !p.Format.IsRaw() {
		return nil, fmt.Errorf("property: %s: byte access to %s: %w", h, p.Format, errs.ErrInvalidArgument)
	}
	if offset < 0 {
		return nil, fmt.Errorf("property: %s: negative offset: %w", h, errs.ErrInvalidArgument)
	}

	if beh, ok := p.Read.(Memory); ok {
		start, length := span(h, beh)
		if offset >= length {
			return []byte{}, nil
		}
		if size < 0 || offset+size > length {
			size = length - offset
		}
		return h.Device.chunks.ReadConn(ctx, conn, start+offset, size)
	}

	var data []byte
	if h.Extension == ExtAll {
		vs, err := d.readAll(ctx, conn, h)
		if err != nil {
			return nil, err
		}
		for _, v := range vs {
			data = append(data, v.B...)
		}
	} else {
		v, err := d.read(ctx, conn, h)
		if err != nil {
			return nil, err
		}
		data = v.B
	}

	return util.CloneSlice(util.Window(data, offset, size), 0), nil
}

func (d *Dispatcher) writeBytes(ctx context.Context, conn *bus.Conn, h Handle, offset int, data []byte) error {
	p := h.Property
	if !p.Format.IsRaw() {
		return fmt.Errorf("property: %s: byte access to %s: %w", h, p.Format, errs.ErrInvalidArgument)
	}
	if p.Write == nil {
		return fmt.Errorf("property: %s: %w", h, errs.ErrReadOnly)
	}
	if offset < 0 {
		return fmt.Errorf("property: %s: negative offset: %w", h, errs.ErrInvalidArgument)
	}
	if len(data) == 0 {
		return fmt.Errorf("property: %s: zero-length write: %w", h, errs.ErrInvalidArgument)
	}

	switch beh := p.Write.(type) {
	case Memory:
		start, length := span(h, beh)
		if offset >= length {
			return fmt.Errorf("property: %s: offset %d outside %d bytes: %w", h, offset, length, errs.ErrInvalidArgument)
		}
		if offset+len(data) > length {
			return fmt.Errorf("property: %s: %d bytes at offset %d exceed %d: %w", h, len(data), offset, length, errs.ErrSizeExceeded)
		}
		return h.Device.chunks.WriteConn(ctx, conn, start+offset, data)

	case Flash:
		_, err := h.Device.flasher.FlashConn(ctx, conn, data, offset)
		return err
	}

	if offset != 0 {
		return fmt.Errorf("property: %s: write at offset %d: %w", h, offset, errs.ErrOffsetNotSupported)
	}
	if h.Extension == ExtAll {
		l := p.Length
		if len(data) != p.Elements()*l {
			return fmt.Errorf("property: %s: %d bytes for %d elements of %d: %w", h, len(data), p.Elements(), l, errs.ErrInvalidArgument)
		}
		vs := make([]Value, p.Elements())
		for i := range vs {
			vs[i] = Value{B: data[i*l : (i+1)*l]}
		}
		return d.writeAll(ctx, conn, h, vs)
	}

	return d.write(ctx, conn, h, Value{B: data})
}

func (d *Dispatcher) readFile(ctx context.Context, conn *bus.Conn, h Handle, offset int, size int) ([]byte, error) {
	var vs []Value
	if h.Extension == ExtAll {
		var err error
		if vs, err = d.readAll(ctx, conn, h); err != nil {
			return nil, err
		}
	} else {
		v, err := d.read(ctx, conn, h)
		if err != nil {
			return nil, err
		}
		vs = []Value{v}
	}

	format := h.Property.Format
	if h.Extension == ExtByte {
		format = FormatUnsigned
	}

	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	for i, v := range vs {
		if i > 0 {
			buf.WriteByte(',')
		}
		appendValue(buf, format, v)
	}

	return util.CloneSlice(util.Window(buf.Bytes(), offset, size), 0), nil
}

func (d *Dispatcher) readRegister(ctx context.Context, conn *bus.Conn, dev *Device, addr int, width int) (uint32, error) {
	data, err := dev.chunks.ReadConn(ctx, conn, addr, width)
	if err != nil {
		return 0, err
	}

	return codec.DecodeUint(data), nil
}

func (d *Dispatcher) writeRegister(ctx context.Context, conn *bus.Conn, dev *Device, addr int, width int, u uint32) error {
	return dev.chunks.WriteConn(ctx, conn, addr, codec.EncodeUint(u, width))
}

func (d *Dispatcher) writeBit(ctx context.Context, conn *bus.Conn, h Handle, beh Register, v Value) error {
	if h.Extension == ExtByte {
		if err := checkWidth(v.U, beh.Width); err != nil {
			return fmt.Errorf("property: %s: %w", h, err)
		}
		return d.writeRegister(ctx, conn, h.Device, beh.Address, beh.Width, v.U)
	}

	u, err := d.readRegister(ctx, conn, h.Device, beh.Address, beh.Width)
	if err != nil {
		return err
	}
	bit := uint32(1) << uint(h.Index())
	if v.Y {
		u |= bit
	} else {
		u &^= bit
	}

	return d.writeRegister(ctx, conn, h.Device, beh.Address, beh.Width, u)
}

func maxForWidth(width int) uint32 {
	if width >= 4 {
		return math.MaxUint32
	}

	return 1<<(8*uint(width)) - 1
}

func checkWidth(u uint32, width int) error {
	if u > maxForWidth(width) {
		return fmt.Errorf("value %d does not fit %d bytes: %w", u, width, errs.ErrInvalidArgument)
	}

	return nil
}

// registerValue converts a raw register to the Value of format f.
func registerValue(f Format, width int, u uint32) Value {
	switch f {
	case FormatInteger:
		shift := uint(32 - 8*width)
		return Value{I: int32(u<<shift) >> shift}
	case FormatYesNo:
		return Value{Y: u != 0}
	}

	return Value{U: u}
}

// registerRaw converts v to the raw register of format f, checking range.
func registerRaw(f Format, width int, v Value) (uint32, error) {
	switch f {
	case FormatInteger:
		bits := 8 * width
		lo, hi := -(int64(1) << (bits - 1)), int64(1)<<(bits-1)-1
		if int64(v.I) < lo || int64(v.I) > hi {
			return 0, fmt.Errorf("value %d does not fit %d bytes: %w", v.I, width, errs.ErrInvalidArgument)
		}
		return uint32(v.I) & maxForWidth(width), nil
	case FormatYesNo:
		if v.Y {
			return 1, nil
		}
		return 0, nil
	}

	if err := checkWidth(v.U, width); err != nil {
		return 0, err
	}

	return v.U, nil
}
