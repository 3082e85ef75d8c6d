package bus

import (
	"errors"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-owfs/errs"
)

// Pool keeps named buses so every caller addressing the same channel shares
// one Bus and therefore one lock. Pool is safe for concurrent use.
type Pool struct {
	buses *xsync.MapOf[string, *Bus]
}

// NewPool creates an empty Pool.
func NewPool() *Pool {
	return &Pool{buses: xsync.NewMapOf[string, *Bus]()}
}

// Add registers b under its name. Adding a second bus with the same name fails.
func (p *Pool) Add(b *Bus) error {
	if b == nil {
		return fmt.Errorf("bus: add nil bus: %w", errs.ErrInvalidArgument)
	}

	if _, loaded := p.buses.LoadOrStore(b.Name(), b); loaded {
		return fmt.Errorf("bus: %q already registered: %w", b.Name(), errs.ErrInvalidArgument)
	}

	return nil
}

// Get returns the bus registered under name.
func (p *Pool) Get(name string) (*Bus, error) {
	b, ok := p.buses.Load(name)
	if !ok {
		return nil, fmt.Errorf("bus: %q: %w", name, errs.ErrNotFound)
	}

	return b, nil
}

// GetOrOpen returns the bus registered under name, calling open to create and
// register it when absent. open runs at most once per name.
func (p *Pool) GetOrOpen(name string, open func() (*Bus, error)) (*Bus, error) {
	var openErr error
	b, _ := p.buses.Compute(name, func(old *Bus, loaded bool) (*Bus, bool) {
		if loaded {
			return old, false
		}
		nb, err := open()
		if err != nil {
			openErr = err
			return nil, true
		}
		return nb, false
	})
	if openErr != nil {
		return nil, openErr
	}

	return b, nil
}

// Names returns the names of all registered buses, in no particular order.
func (p *Pool) Names() []string {
	names := make([]string, 0, p.buses.Size())
	p.buses.Range(func(name string, _ *Bus) bool {
		names = append(names, name)
		return true
	})

	return names
}

// Remove closes and unregisters the bus called name.
func (p *Pool) Remove(name string) error {
	b, ok := p.buses.LoadAndDelete(name)
	if !ok {
		return fmt.Errorf("bus: %q: %w", name, errs.ErrNotFound)
	}

	return b.Close()
}

// Close closes every registered bus and empties the pool.
func (p *Pool) Close() error {
	var errList []error
	p.buses.Range(func(name string, b *Bus) bool {
		p.buses.Delete(name)
		if err := b.Close(); err != nil {
			errList = append(errList, fmt.Errorf("bus %s: %w", name, err))
		}
		return true
	})

	return errors.Join(errList...)
}
