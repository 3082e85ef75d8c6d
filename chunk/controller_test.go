package chunk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-owfs/errs"
	"github.com/arloliu/go-owfs/internal/simdev"
	"github.com/arloliu/go-owfs/txn"
)

func TestNew_Options(t *testing.T) {
	ctrl, err := New(txn.NewEngine(testDialect))
	require.NoError(t, err)
	assert.Equal(t, DefaultReadGulp, ctrl.Config().ReadGulp())
	assert.Equal(t, DefaultWriteGulp, ctrl.Config().WriteGulp())
	assert.Equal(t, DefaultCommandGulp, ctrl.Config().CommandGulp())

	ctrl, err = New(txn.NewEngine(testDialect), WithReadGulp(8), WithWriteGulp(4), WithCommandGulp(16), WithCommandSettle(time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 8, ctrl.Config().ReadGulp())
	assert.Equal(t, 4, ctrl.Config().WriteGulp())
	assert.Equal(t, 16, ctrl.Config().CommandGulp())
	assert.Equal(t, time.Millisecond, ctrl.Config().CommandSettle())

	_, err = New(nil)
	require.Error(t, err)

	for _, opt := range []Option{
		WithReadGulp(0), WithReadGulp(256),
		WithWriteGulp(0), WithWriteGulp(256),
		WithCommandGulp(0), WithCommandGulp(257),
		WithCommandSettle(-1), WithLogger(nil),
	} {
		_, err = New(txn.NewEngine(testDialect), opt)
		require.Error(t, err)
	}
}

func TestController_WriteChunkCount(t *testing.T) {
	const gulp = 32

	for _, tc := range []struct{ k, r int }{{0, 1}, {1, 5}, {3, 17}, {4, 31}} {
		env := newTestEnv(t, WithWriteGulp(gulp))
		data := pattern(tc.k*gulp + tc.r)

		require.NoError(t, env.ctrl.Write(context.Background(), env.bus, 0x100, data))

		calls := env.blockCalls(testDialect.WriteBlock)
		require.Len(t, calls, tc.k+1)
		for i, c := range calls {
			assert.Equal(t, 0x100+i*gulp, c[0], "ascending, non-overlapping")
		}
		assert.Equal(t, tc.r, calls[len(calls)-1][1])
		assert.Equal(t, data, env.dev.Mem(0x100, len(data)))
	}
}

func TestController_ReadReassembles(t *testing.T) {
	env := newTestEnv(t, WithReadGulp(32))
	data := pattern(100)
	env.dev.SetMem(0xE000, data)

	got, err := env.ctrl.Read(context.Background(), env.bus, 0xE000, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, [][2]int{{0xE000, 32}, {0xE020, 32}, {0xE040, 32}, {0xE060, 4}}, env.blockCalls(testDialect.ReadBlock))
}

func TestController_EmptyTransfer(t *testing.T) {
	env := newTestEnv(t)

	got, err := env.ctrl.Read(context.Background(), env.bus, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, env.ctrl.Write(context.Background(), env.bus, 0, nil))
	assert.Empty(t, env.rec.Calls())
}

func TestController_AbortsOnFirstFailure(t *testing.T) {
	env := newTestEnv(t, WithWriteGulp(8))

	var seen int
	env.dev.InjectCRCFaults(func(req []byte) bool {
		if req[0] != testDialect.WriteBlock {
			return false
		}
		seen++
		return seen == 2
	}, 1)

	data := pattern(32)
	err := env.ctrl.Write(context.Background(), env.bus, 0x200, data)
	require.ErrorIs(t, err, errs.ErrProtocol)

	assert.Len(t, env.blockCalls(testDialect.WriteBlock), 2, "no chunk after the failing one")
	assert.Equal(t, data[:8], env.dev.Mem(0x200, 8), "earlier chunks are not rolled back")
	assert.Equal(t, make([]byte, 24), env.dev.Mem(0x208, 24))
}

func TestController_RangeChecked(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ctrl.Read(context.Background(), env.bus, 0xFFF0, 0x20)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	err = env.ctrl.Write(context.Background(), env.bus, -1, []byte{1})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	assert.Empty(t, env.rec.Calls())
}

func TestController_Command(t *testing.T) {
	env := newTestEnv(t, WithCommandGulp(255))

	require.NoError(t, env.ctrl.Command(context.Background(), env.bus, []byte{0x42, 1, 2}))
	assert.Equal(t, [][]byte{{0x42, 1, 2}}, env.dev.Commands())

	err := env.ctrl.Command(context.Background(), env.bus, nil)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	err = env.ctrl.Command(context.Background(), env.bus, make([]byte, 256))
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	assert.Equal(t, 1, env.rec.CountOpcode(testDialect.Extended))
}

func TestController_CommandFailure(t *testing.T) {
	env := newTestEnv(t)
	env.dev.InjectCRCFaults(simdev.MatchOpcode(testDialect.Extended), 1)

	err := env.ctrl.Command(context.Background(), env.bus, []byte{0x42})
	require.ErrorIs(t, err, errs.ErrProtocol)
	assert.Empty(t, env.dev.Commands())
}
