// Package flash writes firmware images into a device flash region.
//
// A flash session erases the region with an initiation command carrying the
// first chunk, then sends the image in fixed-size chunks. Chunk writes are
// known to fail occasionally in hardware, so each one is retried a bounded
// number of times. The bus is held for the whole session.
package flash

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-owfs/bus"
	"github.com/arloliu/go-owfs/chunk"
	"github.com/arloliu/go-owfs/errs"
	"github.com/arloliu/go-owfs/txn"
)

// Region describes a device flash area and the commands that program it.
type Region struct {
	// Base is the device address of the region, used to read it back.
	Base int `yaml:"base"`
	// Size is the region size; images must not be larger.
	Size int `yaml:"size"`
	// Align is the granularity image sizes must be a multiple of.
	Align int `yaml:"align"`
	// Chunk is the number of image bytes carried by each command.
	Chunk int `yaml:"chunk"`

	// EraseCommand starts a session; WriteCommand programs the next chunk.
	EraseCommand byte `yaml:"erase_command"`
	WriteCommand byte `yaml:"write_command"`

	EraseSettle time.Duration `yaml:"erase_settle"`
	WriteSettle time.Duration `yaml:"write_settle"`
}

// Validate checks the region geometry.
func (r Region) Validate() error {
	switch {
	case r.Size <= 0:
		return fmt.Errorf("flash: region size %d must be positive: %w", r.Size, errs.ErrInvalidArgument)
	case r.Align <= 0 || r.Size%r.Align != 0:
		return fmt.Errorf("flash: alignment %d does not divide region size %d: %w", r.Align, r.Size, errs.ErrInvalidArgument)
	case r.Chunk <= 0 || r.Chunk >= txn.MaxExtendedPayload || r.Align%r.Chunk != 0:
		return fmt.Errorf("flash: chunk %d invalid for alignment %d: %w", r.Chunk, r.Align, errs.ErrInvalidArgument)
	case r.Base < 0 || r.Base+r.Size-1 > txn.MaxAddress:
		return fmt.Errorf("flash: region 0x%X+%d outside the address space: %w", r.Base, r.Size, errs.ErrInvalidArgument)
	case r.EraseSettle < 0 || r.WriteSettle < 0:
		return fmt.Errorf("flash: negative settle delay: %w", errs.ErrInvalidArgument)
	}

	return nil
}

// Result reports a completed flash session.
type Result struct {
	// Chunks is the number of chunks programmed.
	Chunks int
	// Attempts is the number of chunk commands sent, initiation excluded.
	Attempts int
	// Retries is Attempts minus Chunks.
	Retries int
	// Elapsed is the wall time of the session.
	Elapsed time.Duration
}

// Controller runs flash sessions for one region.
type Controller struct {
	engine *txn.Engine
	region Region
	cfg    *Config
}

// New creates a flash Controller.
func New(engine *txn.Engine, region Region, opts ...Option) (*Controller, error) {
	if engine == nil {
		return nil, errors.New("flash: engine must not be nil")
	}
	if err := region.Validate(); err != nil {
		return nil, err
	}

	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &Controller{engine: engine, region: region, cfg: cfg}, nil
}

// Region returns the flash region.
func (c *Controller) Region() Region { return c.region }

// MaxAttempts returns the per-chunk attempt bound.
func (c *Controller) MaxAttempts() int { return c.cfg.maxAttempts }

// CheckImage validates an image write at offset without touching the bus.
func (c *Controller) CheckImage(image []byte, offset int) error {
	if len(image) > c.region.Size {
		return fmt.Errorf("flash: image of %d bytes exceeds region of %d: %w", len(image), c.region.Size, errs.ErrSizeExceeded)
	}
	if len(image)%c.region.Align != 0 {
		return fmt.Errorf("flash: image of %d bytes is not a multiple of %d: %w", len(image), c.region.Align, errs.ErrSizeExceeded)
	}
	if offset != 0 {
		return fmt.Errorf("flash: image must be written from offset 0, got %d: %w", offset, errs.ErrOffsetNotSupported)
	}
	if len(image) == 0 {
		return fmt.Errorf("flash: empty image: %w", errs.ErrInvalidArgument)
	}

	return nil
}

// Flash programs image into the region. offset must be 0.
//
// The image is checked before any transaction is sent. Each chunk is
// attempted up to MaxAttempts times; when all attempts fail Flash returns an
// errs.ErrProtocol error and the flash content is undefined.
func (c *Controller) Flash(ctx context.Context, b *bus.Bus, image []byte, offset int) (Result, error) {
	if err := c.CheckImage(image, offset); err != nil {
		return Result{}, err
	}

	var res Result
	err := b.Do(ctx, func(conn *bus.Conn) error {
		var err error
		res, err = c.session(ctx, conn, image)

		return err
	})

	return res, err
}

// FlashConn is Flash for a caller that already holds the bus.
func (c *Controller) FlashConn(ctx context.Context, conn *bus.Conn, image []byte, offset int) (Result, error) {
	if err := c.CheckImage(image, offset); err != nil {
		return Result{}, err
	}

	return c.session(ctx, conn, image)
}

func (c *Controller) session(ctx context.Context, conn *bus.Conn, image []byte) (Result, error) {
	log := c.cfg.logger.With("size", len(image))
	start := time.Now()

	if err := c.send(ctx, conn, c.region.EraseCommand, image[:c.region.Chunk], c.region.EraseSettle); err != nil {
		log.Debug("flash: initiation failed", "error", err)
		return Result{}, fmt.Errorf("flash: initiate: %w", err)
	}

	spans := chunk.Plan(len(image), c.region.Chunk)
	res := Result{}

	for i, s := range spans {
		part := image[s.Offset : s.Offset+s.Length]

		var lastErr error
		attempt := 0
		for attempt < c.cfg.maxAttempts {
			attempt++
			res.Attempts++
			lastErr = c.send(ctx, conn, c.region.WriteCommand, part, c.region.WriteSettle)
			if lastErr == nil {
				break
			}
			log.Debug("flash: chunk failed", "offset", s.Offset, "attempt", attempt, "error", lastErr)
			if !errors.Is(lastErr, errs.ErrProtocol) {
				return res, fmt.Errorf("flash: chunk at offset %d: %w", s.Offset, lastErr)
			}
		}
		if lastErr != nil {
			log.Warn("flash: too many failures", "offset", s.Offset, "attempt", attempt)
			return res, fmt.Errorf("flash: chunk at offset %d failed after %d attempts: %w", s.Offset, attempt, lastErr)
		}

		res.Chunks++
		if c.cfg.progress != nil {
			c.cfg.progress(i+1, len(spans))
		}
	}

	res.Retries = res.Attempts - res.Chunks
	res.Elapsed = time.Since(start)
	log.Info("flash: image written", "chunks", res.Chunks, "retries", res.Retries, "elapsed", res.Elapsed)

	return res, nil
}

func (c *Controller) send(ctx context.Context, conn *bus.Conn, cmd byte, data []byte, settle time.Duration) error {
	payload := make([]byte, 0, 1+len(data))
	payload = append(payload, cmd)
	payload = append(payload, data...)

	return c.engine.Extended(ctx, conn, payload, settle)
}

// Read reads back size bytes of the region starting at offset through ctrl.
// The read is clipped to the region; a negative size reads to its end.
func (c *Controller) Read(ctx context.Context, b *bus.Bus, ctrl *chunk.Controller, offset int, size int) ([]byte, error) {
	if offset < 0 || offset > c.region.Size {
		return nil, fmt.Errorf("flash: read offset %d outside region: %w", offset, errs.ErrInvalidArgument)
	}
	if size < 0 || offset+size > c.region.Size {
		size = c.region.Size - offset
	}

	return ctrl.Read(ctx, b, c.region.Base+offset, size)
}
