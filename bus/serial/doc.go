// Package serial opens a raw serial port for a bus adapter attached over
// RS-232 or a USB serial bridge. The returned Port is an io.ReadWriteCloser
// with read deadlines, so it can back a bus.StreamTransport:
//
//	port, err := serial.Open(serial.Config{Device: "/dev/ttyUSB0"})
//	b, err := bus.New(bus.NewStreamTransport(port, cfg), cfg)
//
// Only Linux is supported; elsewhere Open returns ErrUnsupported.
package serial
