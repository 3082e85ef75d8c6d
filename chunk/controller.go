package chunk

import (
	"context"
	"errors"
	"fmt"

	"github.com/arloliu/go-owfs/bus"
	"github.com/arloliu/go-owfs/errs"
	"github.com/arloliu/go-owfs/txn"
)

// Controller issues gulp-sized block transactions through an Engine.
type Controller struct {
	engine *txn.Engine
	cfg    *Config
}

// New creates a Controller for engine.
func New(engine *txn.Engine, opts ...Option) (*Controller, error) {
	if engine == nil {
		return nil, errors.New("chunk: engine must not be nil")
	}

	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &Controller{engine: engine, cfg: cfg}, nil
}

// Config returns the controller limits.
func (c *Controller) Config() *Config { return c.cfg }

// Engine returns the transaction engine used by the controller.
func (c *Controller) Engine() *txn.Engine { return c.engine }

func checkRange(addr int, length int) error {
	if addr < 0 || length < 0 || addr+length-1 > txn.MaxAddress {
		return fmt.Errorf("chunk: range 0x%X+%d outside the address space: %w", addr, length, errs.ErrInvalidArgument)
	}

	return nil
}

// Read reads length bytes starting at addr, holding b for the whole transfer.
func (c *Controller) Read(ctx context.Context, b *bus.Bus, addr int, length int) ([]byte, error) {
	var out []byte
	err := b.Do(ctx, func(conn *bus.Conn) error {
		var err error
		out, err = c.ReadConn(ctx, conn, addr, length)

		return err
	})

	return out, err
}

// ReadConn is Read for a caller that already holds the bus.
func (c *Controller) ReadConn(ctx context.Context, conn *bus.Conn, addr int, length int) ([]byte, error) {
	if err := checkRange(addr, length); err != nil {
		return nil, err
	}

	out := make([]byte, 0, length)
	for _, s := range Plan(length, c.cfg.readGulp) {
		data, err := c.engine.ReadBlock(ctx, conn, addr+s.Offset, s.Length)
		if err != nil {
			c.cfg.logger.Debug("chunk: read aborted", "addr", addr+s.Offset, "size", s.Length, "error", err)
			return nil, fmt.Errorf("chunk: read at 0x%X: %w", addr+s.Offset, err)
		}
		out = append(out, data...)
	}

	return out, nil
}

// Write writes data starting at addr, holding b for the whole transfer.
func (c *Controller) Write(ctx context.Context, b *bus.Bus, addr int, data []byte) error {
	return b.Do(ctx, func(conn *bus.Conn) error {
		return c.WriteConn(ctx, conn, addr, data)
	})
}

// WriteConn is Write for a caller that already holds the bus.
func (c *Controller) WriteConn(ctx context.Context, conn *bus.Conn, addr int, data []byte) error {
	if err := checkRange(addr, len(data)); err != nil {
		return err
	}

	for _, s := range Plan(len(data), c.cfg.writeGulp) {
		part := data[s.Offset : s.Offset+s.Length]
		if err := c.engine.WriteBlock(ctx, conn, addr+s.Offset, part); err != nil {
			c.cfg.logger.Debug("chunk: write aborted", "addr", addr+s.Offset, "size", s.Length, "error", err)
			return fmt.Errorf("chunk: write at 0x%X: %w", addr+s.Offset, err)
		}
	}

	return nil
}

// Command sends payload as one extended command. The payload must be
// non-empty and no longer than the command gulp.
func (c *Controller) Command(ctx context.Context, b *bus.Bus, payload []byte) error {
	if err := c.checkCommand(payload); err != nil {
		return err
	}

	return b.Do(ctx, func(conn *bus.Conn) error {
		return c.CommandConn(ctx, conn, payload)
	})
}

// CommandConn is Command for a caller that already holds the bus.
func (c *Controller) CommandConn(ctx context.Context, conn *bus.Conn, payload []byte) error {
	if err := c.checkCommand(payload); err != nil {
		return err
	}
	if err := c.engine.Extended(ctx, conn, payload, c.cfg.commandSettle); err != nil {
		return fmt.Errorf("chunk: command: %w", err)
	}

	return nil
}

func (c *Controller) checkCommand(payload []byte) error {
	if len(payload) == 0 || len(payload) > c.cfg.commandGulp {
		return fmt.Errorf("chunk: command length %d out of range [1, %d]: %w", len(payload), c.cfg.commandGulp, errs.ErrInvalidArgument)
	}

	return nil
}
