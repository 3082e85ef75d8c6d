// Package bustest provides Transport doubles for tests of code that talks to
// a bus.
package bustest

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/arloliu/go-owfs/bus"
	"github.com/arloliu/go-owfs/internal/util"
)

// MockTransport is a testify mock implementing bus.Transport.
type MockTransport struct {
	mock.Mock
}

var _ bus.Transport = (*MockTransport)(nil)

// NewMockTransport creates an empty MockTransport.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// Exchange records the call and returns the configured reply.
func (m *MockTransport) Exchange(ctx context.Context, req []byte, replyLen int) ([]byte, error) {
	args := m.Called(req, replyLen)
	reply, _ := args.Get(0).([]byte)

	return reply, args.Error(1)
}

// Call is one recorded exchange.
type Call struct {
	Req      []byte
	ReplyLen int
}

// Recorder wraps a Transport and records every exchange passed through it.
type Recorder struct {
	mu    sync.Mutex
	next  bus.Transport
	calls []Call
}

var _ bus.Transport = (*Recorder)(nil)

// NewRecorder creates a Recorder forwarding to next.
func NewRecorder(next bus.Transport) *Recorder {
	return &Recorder{next: next}
}

// Exchange records the call and forwards it.
func (r *Recorder) Exchange(ctx context.Context, req []byte, replyLen int) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Req: util.CloneSlice(req, 0), ReplyLen: replyLen})
	r.mu.Unlock()

	return r.next.Exchange(ctx, req, replyLen)
}

// Calls returns a copy of the recorded exchanges.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	return util.CloneSlice(r.calls, 0)
}

// Reset forgets the recorded exchanges.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

// CountOpcode returns how many recorded requests start with op.
func (r *Recorder) CountOpcode(op byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, c := range r.calls {
		if len(c.Req) > 0 && c.Req[0] == op {
			n++
		}
	}

	return n
}
