package bus

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/arloliu/go-owfs/errs"
)

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// StreamTransport moves frames over a byte stream such as a TCP bridge or a
// serial port. It writes the request and reads exactly the reply length.
//
// When the stream supports read/write deadlines they are reset before every
// read and write call, so a silent device fails the exchange instead of
// blocking forever.
//
// This type is NOT goroutine-safe; the owning Bus serializes access.
type StreamTransport struct {
	rw           io.ReadWriter
	reader       *bufio.Reader
	readTimeout  time.Duration
	writeTimeout time.Duration
}

var _ Transport = (*StreamTransport)(nil)

// NewStreamTransport creates a StreamTransport over rw using the I/O timeouts
// from cfg. A nil cfg uses the defaults.
func NewStreamTransport(rw io.ReadWriter, cfg *Config) *StreamTransport {
	st := &StreamTransport{
		rw:           rw,
		reader:       bufio.NewReader(rw),
		readTimeout:  DefaultReadTimeout,
		writeTimeout: DefaultWriteTimeout,
	}
	if cfg != nil {
		st.readTimeout = cfg.ReadTimeout()
		st.writeTimeout = cfg.WriteTimeout()
	}

	return st
}

// Exchange implements Transport.
func (st *StreamTransport) Exchange(ctx context.Context, req []byte, replyLen int) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := st.writeAll(req); err != nil {
		return nil, fmt.Errorf("%w: write %d bytes: %w", errs.ErrTransport, len(req), err)
	}

	if replyLen == 0 {
		return []byte{}, nil
	}

	reply := make([]byte, replyLen)
	if err := st.readFull(reply); err != nil {
		return nil, fmt.Errorf("%w: read %d bytes: %w", errs.ErrTransport, replyLen, err)
	}

	return reply, nil
}

// Close closes the underlying stream if it is an io.Closer.
func (st *StreamTransport) Close() error {
	if c, ok := st.rw.(io.Closer); ok {
		return c.Close()
	}

	return nil
}

// writeAll writes all bytes in data to the stream.
func (st *StreamTransport) writeAll(data []byte) error {
	for written := 0; written < len(data); {
		if wd, ok := st.rw.(writeDeadliner); ok {
			if err := wd.SetWriteDeadline(time.Now().Add(st.writeTimeout)); err != nil {
				return err
			}
		}

		n, err := st.rw.Write(data[written:])
		written += n

		if err != nil {
			return err
		}
	}

	return nil
}

// readFull reads exactly len(buf) bytes, resetting the read deadline before
// each read call so the timeout bounds the gap between chunks of reply data.
func (st *StreamTransport) readFull(buf []byte) error {
	for read := 0; read < len(buf); {
		if rd, ok := st.rw.(readDeadliner); ok {
			if err := rd.SetReadDeadline(time.Now().Add(st.readTimeout)); err != nil {
				return err
			}
		}

		n, err := st.reader.Read(buf[read:])
		read += n

		if err != nil {
			return err
		}
	}

	return nil
}
