package property

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-owfs/bus"
	"github.com/arloliu/go-owfs/bus/bustest"
	"github.com/arloliu/go-owfs/flash"
	"github.com/arloliu/go-owfs/internal/simdev"
	"github.com/arloliu/go-owfs/txn"
)

const testFamily = 0xFC

var testDialect = txn.Dialect{
	ReadBlock:    0x14,
	WriteBlock:   0x15,
	Extended:     0x13,
	EraseAddress: 0x16,
	QueryVersion: 0x11,
	QueryType:    0x12,
	Confirm:      0xBC,
}

var testRegion = flash.Region{
	Base:         0xE400,
	Size:         0x1000,
	Align:        512,
	Chunk:        32,
	EraseCommand: 0xBB,
	WriteCommand: 0xBA,
}

func pages() *Aggregate {
	return &Aggregate{Elements: 2, Naming: NamingNumbers, Layout: LayoutSeparate}
}

// newTestDevice returns a device table exercising every behavior.
func newTestDevice() *Device {
	return &Device{
		Family:   testFamily,
		Name:     "TEST",
		Dialect:  testDialect,
		Transfer: Transfer{ReadGulp: 32, WriteGulp: 32, CommandGulp: 255},
		Flash:    &testRegion,
		Properties: []*Property{
			{Name: "memory", Length: 128, Format: FormatBinary, Read: Memory{Base: 0}, Write: Memory{Base: 0}, Volatility: VolatilityReadStable},
			{Name: "command", Length: 255, Format: FormatBinary, Write: Command{}},
			{Name: "writebyte", Length: LengthUnsigned, Format: FormatUnsigned, Write: WriteByte{}},
			{Name: "versionstate", Length: LengthUnsigned, Format: FormatUnsigned, Read: Query{Query: QueryVersion}, Visibility: Visibility{Hidden: true}},
			{Name: "version", Length: 5, Format: FormatASCII, Read: Derived{Sibling: "versionstate", Derive: DeriveHexPair}},
			{Name: "device_version", Length: LengthUnsigned, Format: FormatUnsigned, Read: Derived{Sibling: "versionstate", Derive: DeriveHighByte}},
			{Name: "bootstrap_version", Length: LengthUnsigned, Format: FormatUnsigned, Read: Derived{Sibling: "versionstate", Derive: DeriveLowByte}},
			{Name: "firmware", Format: FormatSubdir},
			{Name: "firmware/function", Length: 0x1000, Format: FormatBinary, Read: Memory{Base: 0xE400}, Write: Flash{}},
			{Name: "eeprom", Format: FormatSubdir},
			{Name: "eeprom/erase", Length: LengthYesNo, Format: FormatYesNo, Aggregate: pages(), Write: Erase{Base: 0xE000, Stride: 512}},
			{Name: "eeprom/memory", Length: 1024, Format: FormatBinary, Read: Memory{Base: 0xE000}, Write: Memory{Base: 0xE000}},
			{Name: "eeprom/page", Length: 512, Format: FormatBinary, Aggregate: pages(), Read: Memory{Base: 0xE000}, Write: Memory{Base: 0xE000}},
			{Name: "regs", Format: FormatSubdir},
			{Name: "regs/out", Length: LengthUnsigned, Format: FormatUnsigned, Read: Register{Address: 48, Width: 1}, Write: Register{Address: 48, Width: 1}},
			{Name: "regs/duty", Length: LengthUnsigned, Format: FormatUnsigned, Read: Register{Address: 14, Width: 2}, Write: Register{Address: 14, Width: 2}},
			{Name: "regs/adc", Length: LengthUnsigned, Format: FormatUnsigned, Read: Register{Address: 50, Width: 1}},
			{Name: "regs/udate", Length: LengthUnsigned, Format: FormatUnsigned, Read: Register{Address: 40, Width: 4}, Write: Register{Address: 40, Width: 4}, Volatility: VolatilitySecond},
			{Name: "regs/date", Length: LengthDate, Format: FormatDate, Read: Derived{Sibling: "regs/udate", Derive: DeriveUnixDate}, Write: Derived{Sibling: "regs/udate", Derive: DeriveUnixDate}},
			{Name: "regs/offset", Length: LengthInteger, Format: FormatInteger, Read: Register{Address: 60, Width: 2}, Write: Register{Address: 60, Width: 2}},
			{Name: "regs/pio", Length: LengthYesNo, Format: FormatBitfield, Aggregate: &Aggregate{Elements: 8, Layout: LayoutJoined}, Read: Register{Address: 49, Width: 1}, Write: Register{Address: 49, Width: 1}},
			{Name: "regs/user", Length: LengthUnsigned, Format: FormatUnsigned, Aggregate: &Aggregate{Elements: 4, Naming: NamingLetters}, Read: Register{Address: 96, Width: 1}, Write: Register{Address: 96, Width: 1}},
			{Name: "regs/enabled", Length: LengthYesNo, Format: FormatYesNo, Read: Register{Address: 52, Width: 1}, Write: Register{Address: 52, Width: 1}},
			{Name: "regs/special", Length: LengthUnsigned, Format: FormatUnsigned, Read: Register{Address: 53, Width: 1}, Visibility: Visibility{When: &Condition{Sibling: "version", Equals: "0A.0B"}}},
		},
	}
}

type testEnv struct {
	dev  *simdev.Device
	rec  *bustest.Recorder
	bus  *bus.Bus
	reg  *Registry
	disp *Dispatcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sim := simdev.New(simdev.Config{
		Dialect:       testDialect,
		Version:       0x0A0B,
		Type:          0x0910,
		FlashBase:     testRegion.Base,
		FlashSize:     testRegion.Size,
		EraseFirmware: testRegion.EraseCommand,
		FlashFirmware: testRegion.WriteCommand,
		ErasePageSize: 512,
	})
	rec := bustest.NewRecorder(sim)
	b, err := bus.New(rec, nil)
	require.NoError(t, err)

	reg := NewRegistry()
	require.NoError(t, reg.Register(newTestDevice()))

	return &testEnv{dev: sim, rec: rec, bus: b, reg: reg, disp: NewDispatcher(reg)}
}

func (e *testEnv) handle(t *testing.T, path string) Handle {
	t.Helper()

	h, err := e.reg.Resolve(testFamily, path)
	require.NoError(t, err)

	return h
}

func fixedTime() time.Time {
	return time.Date(2024, time.March, 5, 7, 8, 9, 0, time.UTC)
}
