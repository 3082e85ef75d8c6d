package bus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-owfs/errs"
)

func echoTransport() TransportFunc {
	return func(_ context.Context, req []byte, replyLen int) ([]byte, error) {
		reply := make([]byte, replyLen)
		copy(reply, req)
		return reply, nil
	}
}

func TestNew_NilTransport(t *testing.T) {
	_, err := New(nil, nil)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestBus_DoExchange(t *testing.T) {
	b, err := New(echoTransport(), newTestConfig(t))
	require.NoError(t, err)

	err = b.Do(context.Background(), func(c *Conn) error {
		reply, err := c.Exchange(context.Background(), []byte{0x11, 0x22}, 2)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x11, 0x22}, reply)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), b.Metrics().ExchangeCount.Load())
	assert.Equal(t, uint64(2), b.Metrics().BytesSent.Load())
	assert.Equal(t, uint64(2), b.Metrics().BytesRecv.Load())
}

func TestBus_ExchangeTransportError(t *testing.T) {
	cause := errors.New("adapter unplugged")
	b, err := New(TransportFunc(func(context.Context, []byte, int) ([]byte, error) {
		return nil, cause
	}), newTestConfig(t))
	require.NoError(t, err)

	err = b.Do(context.Background(), func(c *Conn) error {
		_, err := c.Exchange(context.Background(), []byte{0x11}, 2)
		return err
	})
	require.ErrorIs(t, err, errs.ErrTransport)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, uint64(1), b.Metrics().ExchangeErrCount.Load())
}

func TestBus_ExchangeShortReply(t *testing.T) {
	b, err := New(TransportFunc(func(context.Context, []byte, int) ([]byte, error) {
		return []byte{0x01}, nil
	}), newTestConfig(t))
	require.NoError(t, err)

	err = b.Do(context.Background(), func(c *Conn) error {
		_, err := c.Exchange(context.Background(), []byte{0x11}, 2)
		return err
	})
	require.ErrorIs(t, err, errs.ErrTransport)
}

func TestBus_ConnUnusableAfterDo(t *testing.T) {
	b, err := New(echoTransport(), newTestConfig(t))
	require.NoError(t, err)

	var leaked *Conn
	require.NoError(t, b.Do(context.Background(), func(c *Conn) error {
		leaked = c
		return nil
	}))

	_, err = leaked.Exchange(context.Background(), []byte{0x01}, 1)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestBus_DoIsExclusive(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	tr := TransportFunc(func(_ context.Context, _ []byte, replyLen int) ([]byte, error) {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		return make([]byte, replyLen), nil
	})

	b, err := New(tr, newTestConfig(t, WithLockTimeout(5*time.Second)))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := b.Do(context.Background(), func(c *Conn) error {
				// Two exchanges in one session must not interleave with others.
				if _, err := c.Exchange(context.Background(), []byte{0x15}, 0); err != nil {
					return err
				}
				_, err := c.Exchange(context.Background(), []byte{0xBC}, 1)
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight.Load())
	assert.Equal(t, uint64(16), b.Metrics().ExchangeCount.Load())
}

func TestBus_LockTimeout(t *testing.T) {
	b, err := New(echoTransport(), newTestConfig(t))
	require.NoError(t, err)

	hold := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = b.Do(context.Background(), func(*Conn) error {
			close(held)
			<-hold
			return nil
		})
	}()
	<-held

	err = b.Do(context.Background(), func(*Conn) error { return nil })
	require.ErrorIs(t, err, ErrLockTimeout)
	assert.Equal(t, uint64(1), b.Metrics().LockWaitCount.Load())

	close(hold)
}

func TestBus_LockContextCancel(t *testing.T) {
	b, err := New(echoTransport(), newTestConfig(t, WithLockTimeout(5*time.Second)))
	require.NoError(t, err)

	hold := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = b.Do(context.Background(), func(*Conn) error {
			close(held)
			<-hold
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = b.Do(ctx, func(*Conn) error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(hold)
}

func TestBus_Close(t *testing.T) {
	local, _ := newPipeConn(t)
	b, err := New(NewStreamTransport(local, newTestConfig(t)), newTestConfig(t))
	require.NoError(t, err)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close(), "second close is a no-op")

	err = b.Do(context.Background(), func(*Conn) error { return nil })
	require.ErrorIs(t, err, errs.ErrBusClosed)
}

func TestBus_CloseWhileWaiting(t *testing.T) {
	b, err := New(echoTransport(), newTestConfig(t, WithLockTimeout(5*time.Second)))
	require.NoError(t, err)

	hold := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = b.Do(context.Background(), func(*Conn) error {
			close(held)
			<-hold
			return nil
		})
	}()
	<-held

	var ran atomic.Bool
	waiterErr := make(chan error, 1)
	go func() {
		waiterErr <- b.Do(context.Background(), func(*Conn) error {
			ran.Store(true)
			return nil
		})
	}()
	require.Eventually(t, func() bool { return b.Metrics().LockWaitCount.Load() == 1 }, time.Second, time.Millisecond)

	closeErr := make(chan error, 1)
	go func() { closeErr <- b.Close() }()
	require.Eventually(t, b.closed.Load, time.Second, time.Millisecond)

	close(hold)

	require.ErrorIs(t, <-waiterErr, errs.ErrBusClosed)
	require.NoError(t, <-closeErr)
	assert.False(t, ran.Load(), "session must not run on a closed bus")
}

func TestConn_Settle(t *testing.T) {
	b, err := New(echoTransport(), newTestConfig(t))
	require.NoError(t, err)

	begin := time.Now()
	require.NoError(t, b.Do(context.Background(), func(c *Conn) error {
		c.Settle(15 * time.Millisecond)
		return nil
	}))
	assert.GreaterOrEqual(t, time.Since(begin), 15*time.Millisecond)
}
