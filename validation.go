package filecrypt

import (
	"fmt"
)

const (
	minSaltSize   = 8
	maxSaltSize   = 1 << 12
	maxBufferSize = 1 << 20
)

// Input validation helpers

// ValidateSize checks if a size parameter is valid. A negative maxSize
// disables the upper bound.
func ValidateSize(size int, name string, minSize, maxSize int) error {
	if size < 0 {
		return &ValidationError{
			Field:   name,
			Value:   size,
			Message: "size cannot be negative",
		}
	}
	if minSize >= 0 && size < minSize {
		return &ValidationError{
			Field:   name,
			Value:   size,
			Message: fmt.Sprintf("size too small: got %d, minimum is %d", size, minSize),
		}
	}
	if maxSize > 0 && size > maxSize {
		return &ValidationError{
			Field:   name,
			Value:   size,
			Message: fmt.Sprintf("size too large: got %d, maximum is %d", size, maxSize),
		}
	}
	return nil
}

// ValidateKey checks if a key has the correct size
func ValidateKey(key []byte, expectedSize int) error {
	if key == nil {
		return &ValidationError{
			Field:   "key",
			Message: "key cannot be nil",
		}
	}

	if len(key) != expectedSize {
		return &ValidationError{
			Field:   "key",
			Value:   len(key),
			Message: fmt.Sprintf("invalid key size: got %d bytes, expected %d bytes", len(key), expectedSize),
		}
	}

	return nil
}

// ValidateIV checks that an IV is exactly one cipher block long
func ValidateIV(iv []byte, blockSize int) error {
	if iv == nil {
		return &ValidationError{
			Field:   "iv",
			Message: "iv cannot be nil",
		}
	}
	if len(iv) != blockSize {
		return &ValidationError{
			Field:   "iv",
			Value:   len(iv),
			Message: fmt.Sprintf("invalid iv size: got %d bytes, expected %d bytes", len(iv), blockSize),
		}
	}
	return nil
}

// ValidateFilePath checks if a file path is valid (not empty)
func ValidateFilePath(path string) error {
	if path == "" {
		return &ValidationError{
			Field:   "path",
			Message: "file path cannot be empty",
		}
	}
	return nil
}
