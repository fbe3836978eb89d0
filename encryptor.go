package filecrypt

import (
	"context"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Encryptor turns source files into password-protected containers
type Encryptor struct {
	*pipeline
}

// NewEncryptor creates an Encryptor over base. A nil config selects
// DefaultConfig.
func NewEncryptor(base FileSystem, config *Config) (*Encryptor, error) {
	p, err := newPipeline(base, config)
	if err != nil {
		return nil, err
	}
	return &Encryptor{pipeline: p}, nil
}

// EncodeFile encrypts srcPath into dstPath without progress reporting or
// cancellation
func (e *Encryptor) EncodeFile(srcPath, dstPath string, password []byte) (*FileHeader, error) {
	return e.Encode(context.Background(), srcPath, dstPath, password, nil)
}

// Encode encrypts srcPath into a container at dstPath and returns the header
// stored in it. Progress is measured against the source size and ends at 100.
// When ctx is cancelled the call returns a *CancellationError and dstPath is
// left partially written; removing it is up to the caller.
func (e *Encryptor) Encode(ctx context.Context, srcPath, dstPath string, password []byte, progress ProgressFunc) (*FileHeader, error) {
	return e.encode(ctx, srcPath, dstPath, password, progress, false)
}

// EncodeAsync runs Encode on its own goroutine. The output is identical to
// Encode's.
func (e *Encryptor) EncodeAsync(ctx context.Context, srcPath, dstPath string, password []byte, progress ProgressFunc) *Task[*FileHeader] {
	return startTask(ctx, func(ctx context.Context) (*FileHeader, error) {
		return e.encode(ctx, srcPath, dstPath, password, progress, true)
	})
}

func (e *Encryptor) encode(ctx context.Context, srcPath, dstPath string, password []byte, progress ProgressFunc, yield bool) (hdr *FileHeader, err error) {
	if err := ValidateFilePath(srcPath); err != nil {
		return nil, err
	}
	if err := ValidateFilePath(dstPath); err != nil {
		return nil, err
	}

	log := e.entry("encode", srcPath).WithField("destination", dstPath)
	defer func() {
		if err != nil {
			hdr = nil
			logFailure(log, err)
		}
	}()

	if ctx.Err() != nil {
		return nil, NewCancellationError(ctx, "encode", dstPath)
	}

	times, size, err := statTimes(e.fs, srcPath)
	if err != nil {
		return nil, err
	}
	hdr = NewFileHeader(filepath.Base(srcPath), times)
	if err := hdr.Validate(); err != nil {
		return nil, &ValidationError{Field: "source", Value: srcPath, Message: err.Error(), Err: err}
	}

	in, err := e.fs.OpenFile(srcPath, os.O_RDONLY, 0)
	if err != nil {
		return nil, NewIOError("open", srcPath, err)
	}
	defer in.Close()

	iterations := e.IterationCount()
	log.WithFields(logrus.Fields{"size": size, "iterations": iterations}).Debug("encoding")

	keys := NewPasswordKeyProvider(password, &e.config, iterations)
	preamble := NewPreamble(keys.GenerateSalt(), keys.GenerateIV())
	defer preamble.Zero()

	key := keys.DeriveKey(preamble.Salt)
	block, err := newBlockCipher(key, e.config.keyBytes())
	zeroBytes(key)
	if err != nil {
		return nil, NewEncryptionError("encrypt", dstPath, err)
	}

	out, err := e.fs.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, NewIOError("create", dstPath, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = NewIOError("close", dstPath, cerr)
		}
	}()

	if _, err := preamble.WriteTo(out); err != nil {
		return nil, NewIOError("write", dstPath, err)
	}

	cw, err := newCBCWriter(out, block, preamble.IV)
	if err != nil {
		return nil, NewEncryptionError("encrypt", dstPath, err)
	}
	if _, err := hdr.WriteTo(cw); err != nil {
		return nil, NewIOError("write", dstPath, err)
	}

	zw, err := newCompressor(cw, e.config.CompressionLevel)
	if err != nil {
		return nil, NewEncryptionError("encrypt", dstPath, err)
	}

	c := &copier{
		ctx:      ctx,
		buf:      make([]byte, e.config.chunkSize()),
		total:    size,
		progress: progress,
		yield:    yield,
		wrapRead: func(_ int64, err error) error {
			return err
		},
		wrapWrite: func(_ int64, err error) error {
			return NewIOError("write", dstPath, err)
		},
		cancelled: func() error {
			return NewCancellationError(ctx, "encode", dstPath)
		},
	}
	copied, err := c.copy(zw, &pathReader{r: in, path: srcPath})
	if err != nil {
		return nil, err
	}
	if copied == 0 && progress != nil {
		progress(100)
	}

	if err := zw.Close(); err != nil {
		return nil, NewIOError("write", dstPath, err)
	}
	if err := cw.Close(); err != nil {
		return nil, NewIOError("write", dstPath, err)
	}

	log.WithField("bytes", copied).Debug("encoded")
	return hdr, nil
}
