package txn

import (
	"fmt"
	"time"

	"github.com/arloliu/go-owfs/codec"
	"github.com/arloliu/go-owfs/errs"
)

// Frame size limits.
const (
	// MaxBlockLength is the largest length encodable in a block header.
	MaxBlockLength = 0xFF
	// MaxExtendedPayload is the largest extended-command payload; the header
	// carries len-1 in one byte.
	MaxExtendedPayload = 0x100
	// MaxAddress is the highest 16-bit device address.
	MaxAddress = 0xFFFF
	// crcSize is the size of the CRC-16 trailer in bytes.
	crcSize = 2
)

// Transaction is one atomic exchange: the request frame, the expected reply
// length and the trailing declarative steps.
type Transaction struct {
	// Op names the transaction in logs and errors.
	Op string
	// Frame is the header plus payload, without CRC.
	Frame []byte
	// ReplyLen is the number of data bytes the device returns before the CRC.
	ReplyLen int
	// Confirm, when set, is written after the CRC and must be echoed back.
	Confirm *byte
	// Settle is waited after the exchange with the bus still held.
	Settle time.Duration
}

func checkAddress(addr int) error {
	if addr < 0 || addr > MaxAddress {
		return fmt.Errorf("txn: address 0x%X out of range [0, 0x%X]: %w", addr, MaxAddress, errs.ErrInvalidArgument)
	}
	return nil
}

// NewReadBlock builds a read of n bytes at addr.
func NewReadBlock(d Dialect, addr int, n int) (*Transaction, error) {
	if err := checkAddress(addr); err != nil {
		return nil, err
	}
	if n < 1 || n > MaxBlockLength {
		return nil, fmt.Errorf("txn: read length %d out of range [1, %d]: %w", n, MaxBlockLength, errs.ErrInvalidArgument)
	}

	lo, hi := codec.SplitAddress(addr)

	return &Transaction{
		Op:       "read_block",
		Frame:    []byte{d.ReadBlock, lo, hi, byte(n)},
		ReplyLen: n,
	}, nil
}

// NewWriteBlock builds a write of data at addr followed by a confirmation.
func NewWriteBlock(d Dialect, addr int, data []byte) (*Transaction, error) {
	if err := checkAddress(addr); err != nil {
		return nil, err
	}
	if len(data) < 1 || len(data) > MaxBlockLength {
		return nil, fmt.Errorf("txn: write length %d out of range [1, %d]: %w", len(data), MaxBlockLength, errs.ErrInvalidArgument)
	}

	lo, hi := codec.SplitAddress(addr)
	frame := make([]byte, 4, 4+len(data)+crcSize)
	frame[0], frame[1], frame[2], frame[3] = d.WriteBlock, lo, hi, byte(len(data))
	frame = append(frame, data...)
	confirm := d.Confirm

	return &Transaction{
		Op:      "write_block",
		Frame:   frame,
		Confirm: &confirm,
	}, nil
}

// NewExtended builds an extended command. The first payload byte is the
// device subcommand; the engine treats it as opaque data.
func NewExtended(d Dialect, payload []byte, settle time.Duration) (*Transaction, error) {
	if len(payload) < 1 || len(payload) > MaxExtendedPayload {
		return nil, fmt.Errorf("txn: extended payload %d out of range [1, %d]: %w", len(payload), MaxExtendedPayload, errs.ErrInvalidArgument)
	}

	frame := make([]byte, 2, 2+len(payload)+crcSize)
	frame[0], frame[1] = d.Extended, byte(len(payload)-1)
	frame = append(frame, payload...)
	confirm := d.Confirm

	return &Transaction{
		Op:      "extended",
		Frame:   frame,
		Confirm: &confirm,
		Settle:  settle,
	}, nil
}

// NewEraseAddress builds an erase of the page containing addr.
func NewEraseAddress(d Dialect, addr int) (*Transaction, error) {
	if err := checkAddress(addr); err != nil {
		return nil, err
	}

	lo, hi := codec.SplitAddress(addr)
	confirm := d.Confirm

	return &Transaction{
		Op:      "erase_address",
		Frame:   []byte{d.EraseAddress, lo, hi},
		Confirm: &confirm,
	}, nil
}

// NewQuery builds a two-byte query such as version or type.
func NewQuery(op byte) *Transaction {
	return &Transaction{
		Op:       "query",
		Frame:    []byte{op},
		ReplyLen: 2,
	}
}

// Validate checks the frame against the invariants of its layout: the length
// field in the header must match the payload carried.
func (t *Transaction) Validate() error {
	if len(t.Frame) == 0 {
		return fmt.Errorf("txn: %s: empty frame: %w", t.Op, errs.ErrInvalidArgument)
	}
	if t.ReplyLen < 0 {
		return fmt.Errorf("txn: %s: negative reply length: %w", t.Op, errs.ErrInvalidArgument)
	}

	switch t.Op {
	case "write_block":
		if len(t.Frame) < 4 || int(t.Frame[3]) != len(t.Frame)-4 {
			return fmt.Errorf("txn: write_block length field mismatch: %w", errs.ErrInvalidArgument)
		}
	case "extended":
		if len(t.Frame) < 3 || int(t.Frame[1]) != len(t.Frame)-3 {
			return fmt.Errorf("txn: extended length field mismatch: %w", errs.ErrInvalidArgument)
		}
	case "read_block":
		if len(t.Frame) != 4 || int(t.Frame[3]) != t.ReplyLen {
			return fmt.Errorf("txn: read_block length field mismatch: %w", errs.ErrInvalidArgument)
		}
	}

	return nil
}
