package txn_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-owfs/bus"
	"github.com/arloliu/go-owfs/bus/bustest"
	"github.com/arloliu/go-owfs/internal/simdev"
	"github.com/arloliu/go-owfs/txn"
)

var testDialect = txn.Dialect{
	ReadBlock:    0x14,
	WriteBlock:   0x15,
	Extended:     0x13,
	EraseAddress: 0x16,
	QueryVersion: 0x11,
	QueryType:    0x12,
	Confirm:      0xBC,
}

func newTestDevice() *simdev.Device {
	return simdev.New(simdev.Config{
		Dialect:       testDialect,
		Version:       0x0A0B,
		Type:          0x0102,
		ErasePageSize: 512,
	})
}

// newTestBus returns a bus over a recorder wrapping tr.
func newTestBus(t *testing.T, tr bus.Transport) (*bus.Bus, *bustest.Recorder) {
	t.Helper()

	rec := bustest.NewRecorder(tr)
	b, err := bus.New(rec, nil)
	require.NoError(t, err)

	return b, rec
}

// do runs fn with the bus held, failing the test if the bus cannot be acquired.
func do(t *testing.T, b *bus.Bus, fn func(c *bus.Conn) error) error {
	t.Helper()

	return b.Do(context.Background(), fn)
}

// withCRC appends the device-side CRC trailer for req followed by data.
func withCRC(req []byte, data []byte) []byte {
	crc := ^crcOver(req, data)
	return append(append([]byte(nil), data...), byte(crc), byte(crc>>8))
}
