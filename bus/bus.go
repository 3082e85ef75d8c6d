package bus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-owfs/errs"
	"github.com/arloliu/go-owfs/internal/pool"
	"github.com/arloliu/go-owfs/logger"
)

// ErrLockTimeout indicates Do could not acquire the bus within the lock timeout.
var ErrLockTimeout = errors.New("bus: lock timeout")

// Bus is an exclusive-access handle to one physical channel.
type Bus struct {
	transport Transport
	cfg       *Config
	logger    logger.Logger

	// sem is a one-slot semaphore; holding the slot owns the bus.
	sem     chan struct{}
	closed  atomic.Bool
	metrics Metrics
}

// New creates a Bus over transport. A nil cfg uses the defaults.
func New(transport Transport, cfg *Config) (*Bus, error) {
	if transport == nil {
		return nil, fmt.Errorf("bus: transport is nil: %w", errs.ErrInvalidArgument)
	}
	if cfg == nil {
		var err error
		if cfg, err = NewConfig(); err != nil {
			return nil, err
		}
	}

	return &Bus{
		transport: transport,
		cfg:       cfg,
		logger:    cfg.GetLogger().With("bus", cfg.Name()),
		sem:       make(chan struct{}, 1),
	}, nil
}

// Dial connects to a TCP bus bridge at addr and returns a Bus using a
// StreamTransport over the connection.
func Dial(ctx context.Context, addr string, opts ...Option) (*Bus, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: cfg.DialTimeout()}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("bus: dial %s: %w: %w", addr, errs.ErrTransport, err)
	}

	cfg.GetLogger().Info("bus connected", "bus", cfg.Name(), "addr", addr)

	return New(NewStreamTransport(conn, cfg), cfg)
}

// Name returns the bus name.
func (b *Bus) Name() string { return b.cfg.Name() }

// Config returns the bus configuration.
func (b *Bus) Config() *Config { return b.cfg }

// Metrics returns the bus counters.
func (b *Bus) Metrics() *Metrics { return &b.metrics }

// Logger returns the bus logger, already carrying the bus name.
func (b *Bus) Logger() logger.Logger { return b.logger }

// Do acquires exclusive access to the bus, runs fn and releases the bus.
//
// Waiting for the bus honors ctx and the configured lock timeout; once fn runs
// it is not interrupted. The Conn passed to fn must not be retained after fn
// returns.
func (b *Bus) Do(ctx context.Context, fn func(c *Conn) error) error {
	if b.closed.Load() {
		return fmt.Errorf("bus %s: %w", b.Name(), errs.ErrBusClosed)
	}

	if err := b.acquire(ctx); err != nil {
		return err
	}
	defer b.release()

	// Close may have run while this call waited for the slot.
	if b.closed.Load() {
		return fmt.Errorf("bus %s: %w", b.Name(), errs.ErrBusClosed)
	}

	c := &Conn{bus: b}
	defer c.done.Store(true)

	return fn(c)
}

func (b *Bus) acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	default:
	}

	b.metrics.incLockWaitCount()

	timer := pool.GetTimer(b.cfg.LockTimeout())
	defer pool.PutTimer(timer)

	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("%w: %s after %v", ErrLockTimeout, b.Name(), b.cfg.LockTimeout())
	}
}

func (b *Bus) release() {
	<-b.sem
}

// Close marks the bus closed and closes the transport if it is an io.Closer.
// Close waits for the current holder to finish.
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	b.sem <- struct{}{}
	defer b.release()

	b.logger.Info("bus closed")

	if c, ok := b.transport.(io.Closer); ok {
		return c.Close()
	}

	return nil
}

// Conn is the view of a Bus while it is held by Do.
type Conn struct {
	bus  *Bus
	done atomic.Bool
}

// Bus returns the bus this Conn belongs to.
func (c *Conn) Bus() *Bus { return c.bus }

// Logger returns the bus logger.
func (c *Conn) Logger() logger.Logger { return c.bus.logger }

// Metrics returns the bus counters.
func (c *Conn) Metrics() *Metrics { return &c.bus.metrics }

// Exchange writes req and reads exactly replyLen bytes through the transport.
// Transport failures are wrapped with errs.ErrTransport.
func (c *Conn) Exchange(ctx context.Context, req []byte, replyLen int) ([]byte, error) {
	if c.done.Load() {
		return nil, fmt.Errorf("bus %s: conn used outside Do: %w", c.bus.Name(), errs.ErrInvalidArgument)
	}
	if replyLen < 0 {
		return nil, fmt.Errorf("bus: negative reply length %d: %w", replyLen, errs.ErrInvalidArgument)
	}

	c.bus.metrics.incExchangeCount()

	reply, err := c.bus.transport.Exchange(ctx, req, replyLen)
	if err != nil {
		c.bus.metrics.incExchangeErrCount()
		if errors.Is(err, errs.ErrTransport) {
			return nil, err
		}

		return nil, fmt.Errorf("bus %s: %w: %w", c.bus.Name(), errs.ErrTransport, err)
	}
	if len(reply) != replyLen {
		c.bus.metrics.incExchangeErrCount()
		return nil, fmt.Errorf("bus %s: short reply %d of %d bytes: %w", c.bus.Name(), len(reply), replyLen, errs.ErrTransport)
	}

	c.bus.metrics.addBytes(len(req), len(reply))

	return reply, nil
}

// Settle waits d with the bus still held, giving the device time to finish
// an operation such as an erase. It is never cut short.
func (c *Conn) Settle(d time.Duration) {
	pool.Sleep(d)
}
