// Package errs defines the error kinds shared by every go-owfs layer.
//
// Lower layers wrap these sentinels with context using fmt.Errorf and %w, so
// callers classify failures with errors.Is regardless of which layer produced
// them.
package errs

import "errors"

var (
	// ErrInvalidArgument indicates a malformed request: a zero-length write, an
	// offset outside the property bounds or a value the property cannot hold.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSizeExceeded indicates a payload larger than a hard protocol maximum,
	// or not a multiple of the required block size.
	ErrSizeExceeded = errors.New("size exceeded")

	// ErrOffsetNotSupported indicates an operation that must start at byte 0
	// was given a nonzero offset.
	ErrOffsetNotSupported = errors.New("offset not supported")

	// ErrProtocol indicates a CRC mismatch, a missing confirmation echo or an
	// otherwise malformed reply from the device.
	ErrProtocol = errors.New("protocol error")

	// ErrTransport indicates the bus channel itself failed.
	ErrTransport = errors.New("transport error")

	// ErrNotFound indicates an unresolvable device family or property path.
	ErrNotFound = errors.New("not found")
)

var (
	// ErrReadOnly indicates a write to a property without a write behavior.
	ErrReadOnly = errors.New("property is read-only")

	// ErrWriteOnly indicates a read of a property without a read behavior.
	ErrWriteOnly = errors.New("property is write-only")

	// ErrBusClosed indicates the bus handle was closed.
	ErrBusClosed = errors.New("bus closed")
)
