// Package bus provides the Bus Handle: exclusive access to one half-duplex
// physical channel shared by every device attached to it.
//
// A Bus wraps a Transport, the adapter that actually moves bytes (TCP bridge,
// serial port, simulator). All traffic goes through Bus.Do, which holds the
// bus for the whole callback so multi-step exchanges, such as a write followed
// by its confirmation byte or an entire firmware flash session, are never
// interleaved with unrelated traffic:
//
//	err := b.Do(ctx, func(c *bus.Conn) error {
//		reply, err := c.Exchange(ctx, frame, 2)
//		...
//	})
//
// Different Bus values are independent and may be used fully in parallel.
// A Pool keeps named buses so callers that share a channel share its lock.
package bus
