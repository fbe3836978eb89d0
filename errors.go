package filecrypt

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

// Error types represent different categories of errors

// ValidationError represents a configuration or parameter validation error
type ValidationError struct {
	Field   string // The field or parameter that failed validation
	Value   any    // The invalid value
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// FormatError reports bytes that do not follow the container layout or the
// header schema
type FormatError struct {
	Section string // "preamble", "header", "ciphertext", ...
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *FormatError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("format error: %s: %s", e.Section, e.Message)
	}
	return fmt.Sprintf("format error: %s", e.Message)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// WrongPasswordError is returned when the header inside a container cannot
// be decoded after decryption. A corrupted container produces the same error.
type WrongPasswordError struct {
	Path string // Container path
	Err  error  // Underlying decode failure
}

func (e *WrongPasswordError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("wrong password or corrupted container: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("wrong password or corrupted container: %v", e.Err)
}

func (e *WrongPasswordError) Unwrap() error {
	return e.Err
}

// CancellationError reports an operation stopped at the caller's request.
// The destination is left partially written.
type CancellationError struct {
	Operation string // "encode" or "decode"
	Path      string // Destination path
	Err       error  // ctx.Err()
	Cause     error  // context.Cause(ctx)
}

func (e *CancellationError) Error() string {
	if e.Cause != nil && e.Cause != e.Err {
		return fmt.Sprintf("%s cancelled: %s: %v", e.Operation, e.Path, e.Cause)
	}
	return fmt.Sprintf("%s cancelled: %s", e.Operation, e.Path)
}

func (e *CancellationError) Unwrap() []error {
	return []error{e.Err, e.Cause}
}

// EncryptionError represents an encryption or decryption failure
type EncryptionError struct {
	Operation string // "encrypt" or "decrypt"
	Path      string // File path, if applicable
	Message   string // Human-readable error message
	Err       error  // Underlying error
}

func (e *EncryptionError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s error: %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Operation, e.Message)
}

func (e *EncryptionError) Unwrap() error {
	return e.Err
}

// IOError represents a file system I/O error
type IOError struct {
	Operation string // "read", "write", "open", "close", etc.
	Path      string // File path
	Offset    int64  // File offset, if applicable
	Message   string // Human-readable error message
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" && e.Offset >= 0 {
		return fmt.Sprintf("io error: %s %s at offset %d: %s", e.Operation, e.Path, e.Offset, e.Message)
	} else if e.Path != "" {
		return fmt.Sprintf("io error: %s %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("io error: %s: %s", e.Operation, e.Message)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// CorruptionError represents a payload that fails to decrypt or decompress
// after its header decoded correctly
type CorruptionError struct {
	Path    string // File path
	Offset  int64  // Decompressed bytes written before the failure
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *CorruptionError) Error() string {
	if e.Path != "" && e.Offset > 0 {
		return fmt.Sprintf("corruption error: %s (after %d bytes): %s", e.Path, e.Offset, e.Message)
	} else if e.Path != "" {
		return fmt.Sprintf("corruption error: %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("corruption error: %s", e.Message)
}

func (e *CorruptionError) Unwrap() error {
	return e.Err
}

// Common sentinel errors
var (
	ErrInvalidHeader      = errors.New("invalid file header")
	ErrUnsupportedVersion = errors.New("unsupported header schema version")
	ErrInvalidPadding     = errors.New("invalid padding")
	ErrInvalidLength      = errors.New("invalid length prefix")
	ErrTruncated          = errors.New("container truncated")
	ErrInvalidName        = errors.New("invalid file name")
	ErrNilConfig          = errors.New("config cannot be nil")
	ErrNilFileSystem      = errors.New("filesystem cannot be nil")
)

// Helper functions for creating structured errors

// NewValidationError creates a new validation error
func NewValidationError(field string, value any, message string) error {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NewFormatError creates a new format error wrapping err
func NewFormatError(section string, err error) error {
	return &FormatError{
		Section: section,
		Message: err.Error(),
		Err:     err,
	}
}

// NewWrongPasswordError creates a new wrong-password error
func NewWrongPasswordError(path string, err error) error {
	return &WrongPasswordError{
		Path: path,
		Err:  err,
	}
}

// NewCancellationError captures the cancellation state of ctx
func NewCancellationError(ctx context.Context, operation, path string) error {
	return &CancellationError{
		Operation: operation,
		Path:      path,
		Err:       ctx.Err(),
		Cause:     context.Cause(ctx),
	}
}

// NewEncryptionError creates a new encryption error
func NewEncryptionError(operation, path string, err error) error {
	return &EncryptionError{
		Operation: operation,
		Path:      path,
		Message:   err.Error(),
		Err:       err,
	}
}

// NewIOError creates a new I/O error
func NewIOError(operation, path string, err error) error {
	return &IOError{
		Operation: operation,
		Path:      path,
		Offset:    -1,
		Message:   ioMessage(err),
		Err:       err,
	}
}

// ioMessage describes err without the operation and path a *fs.PathError
// already carries
func ioMessage(err error) string {
	var pe *fs.PathError
	if errors.As(err, &pe) && pe.Err != nil {
		return pe.Err.Error()
	}
	return err.Error()
}

// NewCorruptionError creates a new corruption error
func NewCorruptionError(path string, offset int64, err error) error {
	return &CorruptionError{
		Path:    path,
		Offset:  offset,
		Message: err.Error(),
		Err:     err,
	}
}

// Error checking helpers

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsFormatError checks if an error is a format error
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsWrongPasswordError checks if an error is a wrong-password error
func IsWrongPasswordError(err error) bool {
	var we *WrongPasswordError
	return errors.As(err, &we)
}

// IsCancellationError checks if an error is a cancellation error
func IsCancellationError(err error) bool {
	var ce *CancellationError
	return errors.As(err, &ce)
}

// IsEncryptionError checks if an error is an encryption error
func IsEncryptionError(err error) bool {
	var ee *EncryptionError
	return errors.As(err, &ee)
}

// IsIOError checks if an error is an I/O error
func IsIOError(err error) bool {
	var ie *IOError
	return errors.As(err, &ie)
}

// IsCorruptionError checks if an error is a corruption error
func IsCorruptionError(err error) bool {
	var ce *CorruptionError
	return errors.As(err, &ce)
}
