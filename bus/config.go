package bus

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-owfs/logger"
)

// Default timeout values.
const (
	DefaultReadTimeout  = 2 * time.Second // per-read deadline on stream transports
	DefaultWriteTimeout = 2 * time.Second // per-write deadline on stream transports
	DefaultLockTimeout  = 30 * time.Second
	DefaultDialTimeout  = 3 * time.Second
)

// Timeout range limits.
const (
	MinIOTimeout = 10 * time.Millisecond
	MaxIOTimeout = 60 * time.Second

	MinLockTimeout = 100 * time.Millisecond
	MaxLockTimeout = 10 * time.Minute
)

// Config holds the configuration of a Bus and of the stream transports
// created for it.
type Config struct {
	name string

	// I/O deadlines applied by StreamTransport to each read and write call.
	readTimeout  time.Duration
	writeTimeout time.Duration

	// lockTimeout bounds how long Do waits to acquire the bus.
	lockTimeout time.Duration

	dialTimeout time.Duration

	logger logger.Logger
}

// NewConfig creates a bus configuration. opts are applied in order.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		name:         "bus.0",
		readTimeout:  DefaultReadTimeout,
		writeTimeout: DefaultWriteTimeout,
		lockTimeout:  DefaultLockTimeout,
		dialTimeout:  DefaultDialTimeout,
		logger:       logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Name returns the bus name used in logs and as Pool key.
func (cfg *Config) Name() string { return cfg.name }

// ReadTimeout returns the per-read deadline.
func (cfg *Config) ReadTimeout() time.Duration { return cfg.readTimeout }

// WriteTimeout returns the per-write deadline.
func (cfg *Config) WriteTimeout() time.Duration { return cfg.writeTimeout }

// LockTimeout returns the maximum wait for exclusive bus access.
func (cfg *Config) LockTimeout() time.Duration { return cfg.lockTimeout }

// DialTimeout returns the TCP dial timeout used by Dial.
func (cfg *Config) DialTimeout() time.Duration { return cfg.dialTimeout }

// GetLogger returns the configured logger.
func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

// Option is a functional option for configuring a Config.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithName sets the bus name.
func WithName(name string) Option {
	return optFunc(func(cfg *Config) error {
		if name == "" {
			return errors.New("bus: name must not be empty")
		}
		cfg.name = name

		return nil
	})
}

// WithReadTimeout sets the per-read deadline of stream transports.
func WithReadTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < MinIOTimeout || d > MaxIOTimeout {
			return fmt.Errorf("bus: read timeout %v out of range [%v, %v]", d, MinIOTimeout, MaxIOTimeout)
		}
		cfg.readTimeout = d

		return nil
	})
}

// WithWriteTimeout sets the per-write deadline of stream transports.
func WithWriteTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < MinIOTimeout || d > MaxIOTimeout {
			return fmt.Errorf("bus: write timeout %v out of range [%v, %v]", d, MinIOTimeout, MaxIOTimeout)
		}
		cfg.writeTimeout = d

		return nil
	})
}

// WithLockTimeout sets how long Do waits for exclusive access.
func WithLockTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < MinLockTimeout || d > MaxLockTimeout {
			return fmt.Errorf("bus: lock timeout %v out of range [%v, %v]", d, MinLockTimeout, MaxLockTimeout)
		}
		cfg.lockTimeout = d

		return nil
	})
}

// WithDialTimeout sets the TCP dial timeout used by Dial.
func WithDialTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d <= 0 {
			return errors.New("bus: dial timeout must be positive")
		}
		cfg.dialTimeout = d

		return nil
	})
}

// WithLogger sets the logger for the bus.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("bus: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
