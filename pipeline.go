package filecrypt

import (
	"context"
	"errors"
	"io"
	"math"
	"runtime"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// pipeline holds what the Encryptor and Decryptor share
type pipeline struct {
	fs         FileSystem
	config     Config
	iterations atomic.Int64
	logger     *logrus.Logger
}

func newPipeline(base FileSystem, config *Config) (*pipeline, error) {
	if base == nil {
		return nil, ErrNilFileSystem
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	p := &pipeline{
		fs:     base,
		config: *config,
		logger: logger,
	}
	p.iterations.Store(int64(config.IterationCount))
	return p, nil
}

// IterationCount returns the PBKDF2 iteration count
func (p *pipeline) IterationCount() int {
	return int(p.iterations.Load())
}

// SetIterationCount changes the PBKDF2 iteration count. Operations already
// running keep the count they started with.
func (p *pipeline) SetIterationCount(n int) error {
	if err := ValidateSize(n, "iteration_count", 1, -1); err != nil {
		return err
	}
	p.iterations.Store(int64(n))
	return nil
}

// Config returns a copy of the configuration, with the current iteration count
func (p *pipeline) Config() Config {
	c := p.config
	c.IterationCount = p.IterationCount()
	return c
}

// entry starts a log entry for one operation
func (p *pipeline) entry(op, path string) *logrus.Entry {
	return p.logger.WithFields(logrus.Fields{
		"op":     op,
		"id":     uuid.NewString(),
		"source": path,
	})
}

// logFailure records a failed operation at a level matching its kind.
// Cancellation is a caller decision, not a fault.
func logFailure(log *logrus.Entry, err error) {
	switch {
	case IsCancellationError(err):
		log.WithError(err).Info("operation cancelled")
	case IsWrongPasswordError(err):
		log.WithError(err).Info("container header did not decode")
	default:
		log.WithError(err).Error("operation failed")
	}
}

// pathReader reports read failures of the underlying file as *IOError
type pathReader struct {
	r    io.Reader
	path string
	off  int64
}

func (p *pathReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.off += int64(n)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, &IOError{
			Operation: "read",
			Path:      p.path,
			Offset:    p.off,
			Message:   ioMessage(err),
			Err:       err,
		}
	}
	return n, err
}

// copier moves bytes in fixed-size chunks, reporting progress and checking
// for cancellation once per chunk
type copier struct {
	ctx      context.Context
	buf      []byte
	total    int64 // progress denominator
	progress ProgressFunc
	yield    bool // give up the processor before each read

	// wrapRead and wrapWrite classify failures from each side
	wrapRead  func(n int64, err error) error
	wrapWrite func(n int64, err error) error
	cancelled func() error
}

// copy runs until src is exhausted. It returns the number of bytes read.
func (c *copier) copy(dst io.Writer, src io.Reader) (int64, error) {
	var done int64
	for {
		if c.yield {
			runtime.Gosched()
		}

		n, err := src.Read(c.buf)
		if n > 0 {
			done += int64(n)
			c.report(done)

			if c.ctx.Err() != nil {
				return done, c.cancelled()
			}

			if _, werr := dst.Write(c.buf[:n]); werr != nil {
				return done, c.wrapWrite(done, werr)
			}
		}
		if errors.Is(err, io.EOF) {
			return done, nil
		}
		if err != nil {
			return done, c.wrapRead(done, err)
		}
	}
}

func (c *copier) report(done int64) {
	if c.progress != nil {
		c.progress(percent(done, c.total))
	}
}

// percent returns round(100*done/total) clamped to [0, 100]. An empty total
// counts as complete.
func percent(done, total int64) int {
	if total <= 0 {
		return 100
	}
	p := int(math.Round(100 * float64(done) / float64(total)))
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
