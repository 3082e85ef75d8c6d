package property

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-owfs/errs"
	"github.com/arloliu/go-owfs/logger"
)

// Registry holds registered devices by family code. It is safe for
// concurrent use.
type Registry struct {
	devices *xsync.MapOf[byte, *Device]
	logger  logger.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger handed to device controllers.
func WithRegistryLogger(l logger.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		devices: xsync.NewMapOf[byte, *Device](),
		logger:  logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register validates dev and adds it under its family code. Sibling
// references are resolved here; a device that fails validation is not added.
func (r *Registry) Register(dev *Device) error {
	if dev == nil {
		return errors.New("property: nil device")
	}
	if err := dev.prepare(r.logger.With("device", dev.Name)); err != nil {
		return err
	}

	if _, loaded := r.devices.LoadOrStore(dev.Family, dev); loaded {
		return fmt.Errorf("property: family 0x%02X already registered: %w", dev.Family, errs.ErrInvalidArgument)
	}
	r.logger.Debug("property: device registered", "family", dev.Family, "device", dev.Name, "properties", len(dev.Properties))

	return nil
}

// Device returns the device registered for family.
func (r *Registry) Device(family byte) (*Device, error) {
	dev, ok := r.devices.Load(family)
	if !ok {
		return nil, fmt.Errorf("property: family 0x%02X: %w", family, errs.ErrNotFound)
	}

	return dev, nil
}

// Families returns the registered family codes in ascending order.
func (r *Registry) Families() []byte {
	out := make([]byte, 0, r.devices.Size())
	r.devices.Range(func(family byte, _ *Device) bool {
		out = append(out, family)
		return true
	})
	slices.Sort(out)

	return out
}

// Resolve looks up path on the device registered for family.
func (r *Registry) Resolve(family byte, path string) (Handle, error) {
	dev, err := r.Device(family)
	if err != nil {
		return Handle{}, err
	}

	return dev.Resolve(path)
}

// Handle is a resolved property access target.
type Handle struct {
	Device    *Device
	Property  *Property
	Extension Extension
}

func (h Handle) String() string {
	if h.Extension == ExtNone {
		return h.Property.Name
	}

	return h.Property.Name + "." + h.extName()
}

func (h Handle) extName() string {
	if h.Extension.IsElement() {
		return h.Property.Aggregate.ElementName(int(h.Extension))
	}

	return h.Extension.String()
}

// Index returns the element index addressed by h, 0 for non-aggregate handles.
func (h Handle) Index() int {
	if h.Extension.IsElement() {
		return int(h.Extension)
	}

	return 0
}

// Resolve maps a property path with an optional extension (".3", ".B",
// ".ALL", ".BYTE") to a Handle.
func (d *Device) Resolve(path string) (Handle, error) {
	name, ext, hasExt := path, "", false
	if i := strings.LastIndexByte(path, '.'); i > strings.LastIndexByte(path, '/') {
		name, ext, hasExt = path[:i], path[i+1:], true
	}

	p, ok := d.byName[name]
	if !ok {
		return Handle{}, fmt.Errorf("property: %s has no %q: %w", d.Name, name, errs.ErrNotFound)
	}

	h := Handle{Device: d, Property: p, Extension: ExtNone}

	switch {
	case p.Aggregate == nil && hasExt:
		return Handle{}, fmt.Errorf("property: %s is not an aggregate: %w", path, errs.ErrNotFound)
	case p.Aggregate == nil:
		return h, nil
	case !hasExt:
		return Handle{}, fmt.Errorf("property: %s needs an element: %w", path, errs.ErrNotFound)
	case ext == "ALL":
		h.Extension = ExtAll
	case ext == "BYTE":
		if p.Format != FormatBitfield {
			return Handle{}, fmt.Errorf("property: %s is not a bit-field: %w", path, errs.ErrNotFound)
		}
		h.Extension = ExtByte
	default:
		i, err := p.Aggregate.ParseElement(ext)
		if err != nil {
			return Handle{}, fmt.Errorf("%w: %w", err, errs.ErrNotFound)
		}
		h.Extension = Extension(i)
	}

	return h, nil
}
