package flash

import (
	"errors"
	"fmt"

	"github.com/arloliu/go-owfs/logger"
)

// DefaultMaxAttempts is the number of times a chunk is sent before the
// session fails.
const DefaultMaxAttempts = 5

// ProgressFunc is called after each programmed chunk.
type ProgressFunc func(done int, total int)

// Config holds the options of a flash Controller.
type Config struct {
	maxAttempts int
	progress    ProgressFunc
	logger      logger.Logger
}

func newConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		maxAttempts: DefaultMaxAttempts,
		logger:      logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Option is a functional option for configuring a flash Controller.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithMaxAttempts sets the per-chunk attempt bound, in [1, 100].
func WithMaxAttempts(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < 1 || n > 100 {
			return fmt.Errorf("flash: max attempts %d out of range [1, 100]", n)
		}
		cfg.maxAttempts = n

		return nil
	})
}

// WithProgress sets a callback invoked after each chunk.
func WithProgress(fn ProgressFunc) Option {
	return optFunc(func(cfg *Config) error {
		cfg.progress = fn
		return nil
	})
}

// WithLogger sets the logger for the controller.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("flash: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
