package filecrypt

import (
	"errors"
	"strings"
	"testing"

	"github.com/klauspost/compress/flate"
)

// TestConfig_Validate tests the Config validation
func TestConfig_Validate(t *testing.T) {
	with := func(mutate func(*Config)) *Config {
		c := DefaultConfig()
		mutate(c)
		return c
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name:    "nil config",
			config:  nil,
			wantErr: true,
			errMsg:  "config cannot be nil",
		},
		{
			name:    "defaults",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name:    "128 bit key",
			config:  with(func(c *Config) { c.KeySize = 128 }),
			wantErr: false,
		},
		{
			name:    "192 bit key",
			config:  with(func(c *Config) { c.KeySize = 192 }),
			wantErr: false,
		},
		{
			name:    "unsupported key size",
			config:  with(func(c *Config) { c.KeySize = 512 }),
			wantErr: true,
			errMsg:  "key size must be 128, 192 or 256 bits",
		},
		{
			name:    "unsupported block size",
			config:  with(func(c *Config) { c.BlockSize = 256 }),
			wantErr: true,
			errMsg:  "block size must be 128 bits",
		},
		{
			name:    "zero buffer size",
			config:  with(func(c *Config) { c.BufferSize = 0 }),
			wantErr: true,
			errMsg:  "size too small",
		},
		{
			name:    "buffer size too large",
			config:  with(func(c *Config) { c.BufferSize = maxBufferSize + 1 }),
			wantErr: true,
			errMsg:  "size too large",
		},
		{
			name:    "salt too small",
			config:  with(func(c *Config) { c.SaltSize = minSaltSize - 1 }),
			wantErr: true,
			errMsg:  "size too small",
		},
		{
			name:    "salt at minimum",
			config:  with(func(c *Config) { c.SaltSize = minSaltSize }),
			wantErr: false,
		},
		{
			name:    "salt too large",
			config:  with(func(c *Config) { c.SaltSize = maxSaltSize + 1 }),
			wantErr: true,
			errMsg:  "size too large",
		},
		{
			name:    "zero iterations",
			config:  with(func(c *Config) { c.IterationCount = 0 }),
			wantErr: true,
			errMsg:  "size too small",
		},
		{
			name:    "negative iterations",
			config:  with(func(c *Config) { c.IterationCount = -5 }),
			wantErr: true,
			errMsg:  "size cannot be negative",
		},
		{
			name:    "huffman only",
			config:  with(func(c *Config) { c.CompressionLevel = flate.HuffmanOnly }),
			wantErr: false,
		},
		{
			name:    "no compression",
			config:  with(func(c *Config) { c.CompressionLevel = flate.NoCompression }),
			wantErr: false,
		},
		{
			name:    "compression level out of range",
			config:  with(func(c *Config) { c.CompressionLevel = 10 }),
			wantErr: true,
			errMsg:  "unsupported deflate level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.errMsg)
			}
			if err != nil && tt.config != nil && !IsValidationError(err) {
				t.Errorf("Validate() should return ValidationError, got %T", err)
			}
		})
	}
}

func TestConfig_Derived(t *testing.T) {
	c := DefaultConfig()
	if got := c.chunkSize(); got != 4096*BufferSizeMultiplier {
		t.Errorf("chunkSize() = %d, want %d", got, 4096*BufferSizeMultiplier)
	}
	if got := c.keyBytes(); got != 32 {
		t.Errorf("keyBytes() = %d, want 32", got)
	}
	if got := c.blockBytes(); got != 16 {
		t.Errorf("blockBytes() = %d, want 16", got)
	}
	if c.IterationCount != DefaultIterationCount {
		t.Errorf("IterationCount = %d, want %d", c.IterationCount, DefaultIterationCount)
	}
}

func TestContainerPath(t *testing.T) {
	if got := ContainerPath("/docs/report.pdf"); got != "/docs/report.pdf.fcx" {
		t.Errorf("ContainerPath() = %q", got)
	}
}

func TestNilConfigSentinel(t *testing.T) {
	var c *Config
	if err := c.Validate(); !errors.Is(err, ErrNilConfig) {
		t.Errorf("Validate() on nil = %v, want ErrNilConfig", err)
	}
}
