package filecrypt

import (
	"os"
	"time"

	"github.com/absfs/absfs"
	"github.com/klauspost/compress/flate"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultExtension is appended to a source file name to form its container name
	DefaultExtension = ".fcx"

	// BufferSizeMultiplier scales Config.BufferSize into the chunk size in bytes
	BufferSizeMultiplier = 32

	// DefaultIterationCount is the PBKDF2 iteration count used when none is set
	DefaultIterationCount = 1024
)

// Config contains the parameters of an Encryptor or Decryptor.
// All fields except IterationCount are fixed once the instance is built.
type Config struct {
	// KeySize is the AES key size in bits (128, 192 or 256)
	KeySize int

	// BlockSize is the cipher block size in bits. AES only supports 128.
	BlockSize int

	// BufferSize is the copy chunk size in units of BufferSizeMultiplier bytes
	BufferSize int

	// SaltSize is the length of the random salt in bytes (minimum 8)
	SaltSize int

	// IterationCount is the PBKDF2 iteration count
	IterationCount int

	// CompressionLevel is the deflate level applied to the payload
	CompressionLevel int

	// Logger receives operation logs. Output is discarded when nil.
	Logger *logrus.Logger
}

// DefaultConfig returns the configuration used when none is supplied
func DefaultConfig() *Config {
	return &Config{
		KeySize:          256,
		BlockSize:        128,
		BufferSize:       4096,
		SaltSize:         32,
		IterationCount:   DefaultIterationCount,
		CompressionLevel: flate.DefaultCompression,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	switch c.KeySize {
	case 128, 192, 256:
	default:
		return NewValidationError("key_size", c.KeySize, "key size must be 128, 192 or 256 bits")
	}
	if c.BlockSize != 128 {
		return NewValidationError("block_size", c.BlockSize, "block size must be 128 bits")
	}
	if err := ValidateSize(c.BufferSize, "buffer_size", 1, maxBufferSize); err != nil {
		return err
	}
	if err := ValidateSize(c.SaltSize, "salt_size", minSaltSize, maxSaltSize); err != nil {
		return err
	}
	if err := ValidateSize(c.IterationCount, "iteration_count", 1, -1); err != nil {
		return err
	}
	if c.CompressionLevel < flate.HuffmanOnly || c.CompressionLevel > flate.BestCompression {
		return NewValidationError("compression_level", c.CompressionLevel, "unsupported deflate level")
	}
	return nil
}

// chunkSize returns the copy buffer length in bytes
func (c *Config) chunkSize() int {
	return c.BufferSize * BufferSizeMultiplier
}

// keyBytes returns the key length in bytes
func (c *Config) keyBytes() int {
	return c.KeySize / 8
}

// blockBytes returns the IV length in bytes
func (c *Config) blockBytes() int {
	return c.BlockSize / 8
}

// ProgressFunc receives a completion percentage in the range [0, 100].
// It is called from the goroutine running the operation.
type ProgressFunc func(percent int)

// FileSystem is the filesystem collaborator used by the pipeline.
// Any absfs.FileSystem satisfies it.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error)
	Stat(name string) (os.FileInfo, error)
	MkdirAll(name string, perm os.FileMode) error
	Chtimes(name string, atime time.Time, mtime time.Time) error
}

// FileTimes holds the three timestamps carried by a FileHeader
type FileTimes struct {
	Creation   time.Time
	LastAccess time.Time
	LastWrite  time.Time
}

// TimesStater is implemented by filesystems that can report access and
// creation times. Filesystems without it report the modification time
// for all three.
type TimesStater interface {
	StatTimes(name string) (FileTimes, error)
}

// CreationTimeSetter is implemented by filesystems that can restore a
// file's creation time.
type CreationTimeSetter interface {
	SetCreationTime(name string, t time.Time) error
}

// ContainerPath returns the conventional container name for src
func ContainerPath(src string) string {
	return src + DefaultExtension
}
