// Package bae describes the BAE programmable 1-Wire device, family 0xFC.
//
// The property table lives in bae.yaml and is embedded in the binary. Use
// Register to add the device to a property.Registry.
package bae

import (
	_ "embed"
	"time"

	"github.com/arloliu/go-owfs/desc"
	"github.com/arloliu/go-owfs/property"
	"github.com/arloliu/go-owfs/txn"
)

// Family is the BAE 1-Wire family code.
const Family = 0xFC

// Wire opcodes.
const (
	OpReadVersion     = 0x11
	OpReadType        = 0x12
	OpExtended        = 0x13
	OpReadBlock       = 0x14
	OpWriteBlock      = 0x15
	OpEraseEEPROMPage = 0x16
	OpConfirm         = 0xBC

	// Extended subcommands.
	ExtEraseFirmware = 0xBB
	ExtFlashFirmware = 0xBA
)

// Memory map.
const (
	MemorySize     = 128
	FlashBase      = 0xE400
	FlashSize      = 0x1000
	FlashAlign     = 0x200
	EEPROMBase     = 0xE000
	EEPROMPageSize = 512
	EEPROMPages    = 2
)

// Transfer limits and delays.
const (
	ReadGulp    = 32
	WriteGulp   = 32
	CommandGulp = 255

	FlashEraseSettle = 180 * time.Millisecond
	FlashWriteSettle = 2 * time.Millisecond
	CommandSettle    = 2 * time.Millisecond
)

// Dialect is the BAE transaction dialect.
var Dialect = txn.Dialect{
	ReadBlock:    OpReadBlock,
	WriteBlock:   OpWriteBlock,
	Extended:     OpExtended,
	EraseAddress: OpEraseEEPROMPage,
	QueryVersion: OpReadVersion,
	QueryType:    OpReadType,
	Confirm:      OpConfirm,
}

//go:embed bae.yaml
var table []byte

// Table returns the embedded YAML description.
func Table() []byte {
	out := make([]byte, len(table))
	copy(out, table)

	return out
}

// New returns a fresh, unregistered BAE device table.
func New() (*property.Device, error) {
	return desc.Parse(table)
}

// Register adds the BAE device to reg.
func Register(reg *property.Registry) error {
	dev, err := New()
	if err != nil {
		return err
	}

	return reg.Register(dev)
}
