package chunk

import (
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

type testEnv struct {
	dev  *simdev.Device
	rec  *bustest.Recorder
	bus  *bus.Bus
	ctrl *Controller
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	dev := simdev.New(simdev.Config{Dialect: testDialect})
	rec := bustest.NewRecorder(dev)
	b, err := bus.New(rec, nil)
	require.NoError(t, err)

	ctrl, err := New(txn.NewEngine(testDialect), opts...)
	require.NoError(t, err)

	return &testEnv{dev: dev, rec: rec, bus: b, ctrl: ctrl}
}

// blockCalls returns the (addr, length) pairs of the recorded block frames
// with opcode op.
func (e *testEnv) blockCalls(op byte) [][2]int {
	var out [][2]int
	for _, c := range e.rec.Calls() {
		if c.Req[0] == op {
			out = append(out, [2]int{int(c.Req[1]) | int(c.Req[2])<<8, int(c.Req[3])})
		}
	}

	return out
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + 3)
	}

	return b
}
