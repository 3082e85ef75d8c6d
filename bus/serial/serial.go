package serial

import "errors"

// Common errors
var (
	ErrClosed      = errors.New("serial: port closed")
	ErrBadBaudRate = errors.New("serial: unsupported baud rate")
	ErrUnsupported = errors.New("serial: platform not supported")
)

// DefaultBaudRate is the rate most 1-Wire serial masters power up at.
const DefaultBaudRate = 9600

// Config holds serial port configuration.
type Config struct {
	// Device path (e.g., /dev/ttyUSB0)
	Device string

	// Baud rate (default: 9600)
	BaudRate int
}
