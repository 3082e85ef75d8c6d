package chunk

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-owfs/logger"
	"github.com/arloliu/go-owfs/txn"
)

// Default gulp sizes.
const (
	DefaultReadGulp    = 32
	DefaultWriteGulp   = 32
	DefaultCommandGulp = 255
)

// Config holds the transfer limits of a Controller.
type Config struct {
	readGulp      int
	writeGulp     int
	commandGulp   int
	commandSettle time.Duration

	logger logger.Logger
}

func newConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		readGulp:    DefaultReadGulp,
		writeGulp:   DefaultWriteGulp,
		commandGulp: DefaultCommandGulp,
		logger:      logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// ReadGulp returns the largest single read.
func (cfg *Config) ReadGulp() int { return cfg.readGulp }

// WriteGulp returns the largest single write.
func (cfg *Config) WriteGulp() int { return cfg.writeGulp }

// CommandGulp returns the largest extended-command payload.
func (cfg *Config) CommandGulp() int { return cfg.commandGulp }

// CommandSettle returns the delay after an extended command.
func (cfg *Config) CommandSettle() time.Duration { return cfg.commandSettle }

// Option is a functional option for configuring a Controller.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithReadGulp sets the largest single read, in [1, 255] bytes.
func WithReadGulp(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < 1 || n > txn.MaxBlockLength {
			return fmt.Errorf("chunk: read gulp %d out of range [1, %d]", n, txn.MaxBlockLength)
		}
		cfg.readGulp = n

		return nil
	})
}

// WithWriteGulp sets the largest single write, in [1, 255] bytes.
func WithWriteGulp(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < 1 || n > txn.MaxBlockLength {
			return fmt.Errorf("chunk: write gulp %d out of range [1, %d]", n, txn.MaxBlockLength)
		}
		cfg.writeGulp = n

		return nil
	})
}

// WithCommandGulp sets the largest extended-command payload, in [1, 256] bytes.
func WithCommandGulp(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < 1 || n > txn.MaxExtendedPayload {
			return fmt.Errorf("chunk: command gulp %d out of range [1, %d]", n, txn.MaxExtendedPayload)
		}
		cfg.commandGulp = n

		return nil
	})
}

// WithCommandSettle sets the delay waited after each extended command.
func WithCommandSettle(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < 0 || d > time.Second {
			return fmt.Errorf("chunk: command settle %v out of range [0, 1s]", d)
		}
		cfg.commandSettle = d

		return nil
	})
}

// WithLogger sets the logger for the controller.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("chunk: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
