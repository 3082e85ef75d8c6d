// Package simdev simulates a register-mapped bus device that speaks the
// block/extended/query transaction dialect, for tests and examples.
//
// The device keeps a 64 KiB address space. Write-type frames are staged and
// only applied once the confirmation byte arrives, like the real firmware.
// CRC faults can be injected to exercise retry paths.
package simdev

import (
	"context"
	"fmt"
	"sync"

	"github.com/arloliu/go-owfs/bus"
	"github.com/arloliu/go-owfs/codec"
	"github.com/arloliu/go-owfs/txn"
)

// AddressSpace is the size of the simulated memory map.
const AddressSpace = 0x10000

// Config describes the simulated device.
type Config struct {
	Dialect txn.Dialect

	Version uint16
	Type    uint16

	// Firmware region written by the flash subcommands.
	FlashBase int
	FlashSize int
	// Extended subcommands that start and continue a firmware flash.
	EraseFirmware byte
	FlashFirmware byte

	// ErasePageSize is the size of a page cleared by an erase-address frame.
	ErasePageSize int
}

// Matcher selects request frames for fault injection.
type Matcher func(req []byte) bool

// MatchOpcode matches frames starting with op.
func MatchOpcode(op byte) Matcher {
	return func(req []byte) bool { return len(req) > 0 && req[0] == op }
}

// MatchExtended matches extended frames carrying subcommand sub.
func MatchExtended(ext byte, sub byte) Matcher {
	return func(req []byte) bool { return len(req) > 2 && req[0] == ext && req[2] == sub }
}

type fault struct {
	match Matcher
	times int
}

// Device is a simulated device implementing bus.Transport.
type Device struct {
	mu  sync.Mutex
	cfg Config
	mem []byte

	pending  func()
	flashPtr int
	faults   []*fault

	// Commands records the payload of every applied extended command.
	commands [][]byte
}

var _ bus.Transport = (*Device)(nil)

// New creates a device with zeroed memory.
func New(cfg Config) *Device {
	return &Device{
		cfg: cfg,
		mem: make([]byte, AddressSpace),
	}
}

// InjectCRCFaults makes the next times frames selected by match fail with a
// corrupted CRC. Faulted frames are not applied.
func (d *Device) InjectCRCFaults(match Matcher, times int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.faults = append(d.faults, &fault{match: match, times: times})
}

// Mem returns a copy of n bytes of device memory at addr.
func (d *Device) Mem(addr int, n int) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]byte, n)
	copy(out, d.mem[addr:addr+n])

	return out
}

// SetMem writes data into device memory at addr.
func (d *Device) SetMem(addr int, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	copy(d.mem[addr:], data)
}

// Commands returns the payloads of applied extended commands.
func (d *Device) Commands() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([][]byte, len(d.commands))
	copy(out, d.commands)

	return out
}

// Exchange implements bus.Transport.
func (d *Device) Exchange(_ context.Context, req []byte, replyLen int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(req) == 0 {
		return nil, fmt.Errorf("simdev: empty request")
	}

	op := d.cfg.Dialect

	// Confirmation of a staged command.
	if len(req) == 1 && req[0] == op.Confirm && replyLen == 1 {
		if d.pending == nil {
			// Nothing staged: the line idles high.
			return []byte{0xFF}, nil
		}
		d.pending()
		d.pending = nil
		return []byte{op.Confirm}, nil
	}
	d.pending = nil

	var (
		data  []byte
		stage func()
	)

	switch req[0] {
	case op.ReadBlock:
		if len(req) != 4 {
			return nil, fmt.Errorf("simdev: malformed read frame % X", req)
		}
		addr, n := codec.JoinAddress(req[1], req[2]), int(req[3])
		data = make([]byte, n)
		copy(data, d.mem[addr:min(addr+n, AddressSpace)])

	case op.WriteBlock:
		if len(req) < 4 || int(req[3]) != len(req)-4 {
			return nil, fmt.Errorf("simdev: malformed write frame % X", req)
		}
		addr := codec.JoinAddress(req[1], req[2])
		payload := append([]byte(nil), req[4:]...)
		stage = func() { copy(d.mem[addr:], payload) }

	case op.Extended:
		if len(req) < 3 || int(req[1]) != len(req)-3 {
			return nil, fmt.Errorf("simdev: malformed extended frame % X", req)
		}
		payload := append([]byte(nil), req[2:]...)
		stage = func() { d.applyExtended(payload) }

	case op.EraseAddress:
		if len(req) != 3 {
			return nil, fmt.Errorf("simdev: malformed erase frame % X", req)
		}
		addr := codec.JoinAddress(req[1], req[2])
		stage = func() { d.erasePage(addr) }

	case op.QueryVersion:
		data = codec.EncodeUint16(d.cfg.Version)

	case op.QueryType:
		data = codec.EncodeUint16(d.cfg.Type)

	default:
		return nil, fmt.Errorf("simdev: unknown opcode 0x%02X", req[0])
	}

	reply := append(data, 0, 0) //nolint:gocritic // reply owns data
	crc := ^codec.CRC16Update(codec.CRC16(req), data)
	reply[len(data)] = byte(crc)
	reply[len(data)+1] = byte(crc >> 8)

	if d.takeFault(req) {
		reply[len(reply)-1] ^= 0xFF
		stage = nil
	}
	d.pending = stage

	if len(reply) != replyLen {
		return nil, fmt.Errorf("simdev: reply length %d, host expects %d", len(reply), replyLen)
	}

	return reply, nil
}

func (d *Device) takeFault(req []byte) bool {
	for _, f := range d.faults {
		if f.times > 0 && f.match(req) {
			f.times--
			return true
		}
	}

	return false
}

func (d *Device) applyExtended(payload []byte) {
	d.commands = append(d.commands, payload)

	switch {
	case d.cfg.FlashSize > 0 && payload[0] == d.cfg.EraseFirmware:
		region := d.mem[d.cfg.FlashBase : d.cfg.FlashBase+d.cfg.FlashSize]
		for i := range region {
			region[i] = 0xFF
		}
		d.flashPtr = 0

	case d.cfg.FlashSize > 0 && payload[0] == d.cfg.FlashFirmware:
		chunk := payload[1:]
		if d.flashPtr+len(chunk) <= d.cfg.FlashSize {
			copy(d.mem[d.cfg.FlashBase+d.flashPtr:], chunk)
			d.flashPtr += len(chunk)
		}
	}
}

func (d *Device) erasePage(addr int) {
	size := d.cfg.ErasePageSize
	if size <= 0 {
		return
	}
	start := addr - addr%size
	for i := start; i < start+size && i < AddressSpace; i++ {
		d.mem[i] = 0xFF
	}
}
