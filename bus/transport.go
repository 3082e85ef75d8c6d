package bus

import (
	"context"
)

// Transport is the adapter that moves bytes over the physical channel.
//
// Exchange writes req and then reads exactly replyLen bytes. A replyLen of
// zero means write-only. Implementations own electrical timing; they are NOT
// required to be goroutine-safe since the Bus serializes all calls.
type Transport interface {
	Exchange(ctx context.Context, req []byte, replyLen int) ([]byte, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req []byte, replyLen int) ([]byte, error)

// Exchange calls f(ctx, req, replyLen).
func (f TransportFunc) Exchange(ctx context.Context, req []byte, replyLen int) ([]byte, error) {
	return f(ctx, req, replyLen)
}
