package filecrypt

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Decryptor restores original files from containers
type Decryptor struct {
	*pipeline
}

// NewDecryptor creates a Decryptor over base. A nil config selects
// DefaultConfig. The configuration must match the one used to encode.
func NewDecryptor(base FileSystem, config *Config) (*Decryptor, error) {
	p, err := newPipeline(base, config)
	if err != nil {
		return nil, err
	}
	return &Decryptor{pipeline: p}, nil
}

// DecodeFile decrypts srcPath into destDir without progress reporting or
// cancellation
func (d *Decryptor) DecodeFile(srcPath, destDir string, password []byte) (*FileHeader, error) {
	return d.Decode(context.Background(), srcPath, destDir, password, nil)
}

// Decode restores the file stored in the container at srcPath into destDir,
// under the name recorded in its header, and reapplies the recorded
// timestamps. The directory is created when missing.
//
// A header that does not decode yields a *WrongPasswordError. Detection is
// probabilistic: a wrong password whose output happens to parse as a header
// decodes to garbage instead.
//
// Progress is measured against the container size, so it reaches 100 early
// for compressible payloads and stays there.
func (d *Decryptor) Decode(ctx context.Context, srcPath, destDir string, password []byte, progress ProgressFunc) (*FileHeader, error) {
	return d.decode(ctx, srcPath, destDir, password, progress, false)
}

// DecodeAsync runs Decode on its own goroutine. The output is identical to
// Decode's.
func (d *Decryptor) DecodeAsync(ctx context.Context, srcPath, destDir string, password []byte, progress ProgressFunc) *Task[*FileHeader] {
	return startTask(ctx, func(ctx context.Context) (*FileHeader, error) {
		return d.decode(ctx, srcPath, destDir, password, progress, true)
	})
}

// PeekHeader decrypts only the header of the container at srcPath. It fails
// with a *WrongPasswordError exactly when Decode would.
func (d *Decryptor) PeekHeader(srcPath string, password []byte) (hdr *FileHeader, err error) {
	if err := ValidateFilePath(srcPath); err != nil {
		return nil, err
	}

	log := d.entry("peek", srcPath)
	defer func() {
		if err != nil {
			logFailure(log, err)
		}
	}()

	in, err := d.fs.OpenFile(srcPath, os.O_RDONLY, 0)
	if err != nil {
		return nil, NewIOError("open", srcPath, err)
	}
	defer in.Close()

	_, hdr, err = d.openContainer(in, srcPath, password)
	if err != nil {
		return nil, err
	}
	return hdr, nil
}

func (d *Decryptor) decode(ctx context.Context, srcPath, destDir string, password []byte, progress ProgressFunc, yield bool) (hdr *FileHeader, err error) {
	if err := ValidateFilePath(srcPath); err != nil {
		return nil, err
	}
	if err := ValidateFilePath(destDir); err != nil {
		return nil, err
	}

	log := d.entry("decode", srcPath).WithField("destination", destDir)
	defer func() {
		if err != nil {
			hdr = nil
			logFailure(log, err)
		}
	}()

	if ctx.Err() != nil {
		return nil, NewCancellationError(ctx, "decode", destDir)
	}

	info, err := d.fs.Stat(srcPath)
	if err != nil {
		return nil, NewIOError("stat", srcPath, err)
	}

	in, err := d.fs.OpenFile(srcPath, os.O_RDONLY, 0)
	if err != nil {
		return nil, NewIOError("open", srcPath, err)
	}
	defer in.Close()

	log.WithFields(logrus.Fields{"size": info.Size(), "iterations": d.IterationCount()}).Debug("decoding")

	plain, hdr, err := d.openContainer(in, srcPath, password)
	if err != nil {
		return nil, err
	}

	if err := d.fs.MkdirAll(destDir, 0755); err != nil {
		return nil, NewIOError("mkdir", destDir, err)
	}
	dstPath := filepath.Join(destDir, hdr.Name)

	written, err := d.writePayload(ctx, plain, srcPath, dstPath, info.Size(), progress, yield)
	if err != nil {
		return nil, err
	}

	if err := applyTimes(d.fs, dstPath, hdr); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"name": hdr.Name, "bytes": written}).Debug("decoded")
	return hdr, nil
}

// openContainer reads the preamble, sets up decryption and decodes the
// header. The returned reader is positioned at the compressed payload.
func (d *Decryptor) openContainer(in io.Reader, srcPath string, password []byte) (io.Reader, *FileHeader, error) {
	src := &pathReader{r: in, path: srcPath}

	preamble, err := readPreamble(src, d.config.SaltSize, d.config.blockBytes())
	if err != nil {
		return nil, nil, err
	}
	defer preamble.Zero()

	keys := NewPasswordKeyProvider(password, &d.config, d.IterationCount())
	key := keys.DeriveKey(preamble.Salt)
	block, err := newBlockCipher(key, d.config.keyBytes())
	zeroBytes(key)
	if err != nil {
		return nil, nil, NewEncryptionError("decrypt", srcPath, err)
	}

	plain, err := newCBCReader(src, block, preamble.IV, d.config.chunkSize())
	if err != nil {
		return nil, nil, NewEncryptionError("decrypt", srcPath, err)
	}

	hdr := &FileHeader{}
	if _, err := hdr.ReadFrom(plain); err != nil {
		if IsIOError(err) {
			return nil, nil, err
		}
		return nil, nil, NewWrongPasswordError(srcPath, err)
	}
	return plain, hdr, nil
}

// writePayload decompresses plain into dstPath
func (d *Decryptor) writePayload(ctx context.Context, plain io.Reader, srcPath, dstPath string, total int64, progress ProgressFunc, yield bool) (written int64, err error) {
	out, err := d.fs.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, NewIOError("create", dstPath, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = NewIOError("close", dstPath, cerr)
		}
	}()

	zr := newDecompressor(plain)
	defer zr.Close()

	c := &copier{
		ctx:      ctx,
		buf:      make([]byte, d.config.chunkSize()),
		total:    total,
		progress: progress,
		yield:    yield,
		wrapRead: func(n int64, err error) error {
			if IsIOError(err) {
				return err
			}
			return NewCorruptionError(srcPath, n, err)
		},
		wrapWrite: func(_ int64, err error) error {
			return NewIOError("write", dstPath, err)
		},
		cancelled: func() error {
			return NewCancellationError(ctx, "decode", dstPath)
		},
	}
	return c.copy(out, zr)
}
