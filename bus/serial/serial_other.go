//go:build !linux

package serial

import "time"

// Port is unavailable on this platform; Open always fails.
type Port struct{}

// Open returns ErrUnsupported.
func Open(Config) (*Port, error) {
	return nil, ErrUnsupported
}

func (p *Port) Device() string                 { return "" }
func (p *Port) SetReadDeadline(time.Time) error { return ErrUnsupported }
func (p *Port) Read([]byte) (int, error)        { return 0, ErrUnsupported }
func (p *Port) Write([]byte) (int, error)       { return 0, ErrUnsupported }
func (p *Port) Flush() error                    { return ErrUnsupported }
func (p *Port) Close() error                    { return nil }
