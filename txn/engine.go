package txn

import (
	"context"
	"fmt"
	"time"

	"github.com/arloliu/go-owfs/bus"
	"github.com/arloliu/go-owfs/codec"
	"github.com/arloliu/go-owfs/errs"
	"github.com/arloliu/go-owfs/internal/util"
)

// Engine executes transactions for one device family.
//
// Engine holds no mutable state and is safe for concurrent use; exclusivity
// comes from the bus.Conn each call runs under.
type Engine struct {
	dialect Dialect
}

// NewEngine creates an Engine speaking dialect d.
func NewEngine(d Dialect) *Engine {
	return &Engine{dialect: d}
}

// Dialect returns the engine opcodes.
func (e *Engine) Dialect() Dialect { return e.dialect }

// Execute runs t over c and returns the reply data without the CRC.
//
// Transport failures and CRC or confirmation mismatches are reported as
// errs.ErrProtocol; transport failures also keep errs.ErrTransport and the cause.
func (e *Engine) Execute(ctx context.Context, c *bus.Conn, t *Transaction) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	log := c.Logger()

	raw, err := c.Exchange(ctx, t.Frame, t.ReplyLen+crcSize)
	if err != nil {
		log.Debug("txn: exchange failed", "op", t.Op, "error", err)
		return nil, fmt.Errorf("txn: %s: %w: %w", t.Op, errs.ErrProtocol, err)
	}

	crc := codec.CRC16Update(codec.CRC16(t.Frame), raw)
	if crc != codec.CRC16Residue {
		c.Metrics().IncProtocolErrCount()
		log.Debug("txn: CRC mismatch", "op", t.Op, "frame", t.Frame, "reply", raw)
		return nil, fmt.Errorf("txn: %s: CRC16 mismatch (residue 0x%04X): %w", t.Op, crc, errs.ErrProtocol)
	}

	if t.Confirm != nil {
		if err := e.confirm(ctx, c, t.Op, *t.Confirm); err != nil {
			return nil, err
		}
	}

	if t.Settle > 0 {
		c.Settle(t.Settle)
	}

	return util.CloneSlice(raw[:t.ReplyLen], 0), nil
}

func (e *Engine) confirm(ctx context.Context, c *bus.Conn, op string, b byte) error {
	echo, err := c.Exchange(ctx, []byte{b}, 1)
	if err != nil {
		return fmt.Errorf("txn: %s confirm: %w: %w", op, errs.ErrProtocol, err)
	}
	if echo[0] != b {
		c.Metrics().IncProtocolErrCount()
		c.Logger().Debug("txn: confirmation not echoed", "op", op, "want", b, "got", echo[0])
		return fmt.Errorf("txn: %s confirm: want 0x%02X, got 0x%02X: %w", op, b, echo[0], errs.ErrProtocol)
	}

	return nil
}

// ReadBlock reads n bytes at addr in one transaction.
func (e *Engine) ReadBlock(ctx context.Context, c *bus.Conn, addr int, n int) ([]byte, error) {
	t, err := NewReadBlock(e.dialect, addr, n)
	if err != nil {
		return nil, err
	}

	return e.Execute(ctx, c, t)
}

// WriteBlock writes data at addr in one transaction.
func (e *Engine) WriteBlock(ctx context.Context, c *bus.Conn, addr int, data []byte) error {
	t, err := NewWriteBlock(e.dialect, addr, data)
	if err != nil {
		return err
	}

	_, err = e.Execute(ctx, c, t)

	return err
}

// Extended sends an extended command and waits settle afterwards.
func (e *Engine) Extended(ctx context.Context, c *bus.Conn, payload []byte, settle time.Duration) error {
	t, err := NewExtended(e.dialect, payload, settle)
	if err != nil {
		return err
	}

	_, err = e.Execute(ctx, c, t)

	return err
}

// EraseAddress erases the page containing addr.
func (e *Engine) EraseAddress(ctx context.Context, c *bus.Conn, addr int) error {
	t, err := NewEraseAddress(e.dialect, addr)
	if err != nil {
		return err
	}

	_, err = e.Execute(ctx, c, t)

	return err
}

// Query sends a one-byte query and decodes the reply as a big-endian uint16.
func (e *Engine) Query(ctx context.Context, c *bus.Conn, op byte) (uint16, error) {
	reply, err := e.Execute(ctx, c, NewQuery(op))
	if err != nil {
		return 0, err
	}

	return codec.Uint16(reply), nil
}
