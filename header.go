package filecrypt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// HeaderMagic identifies an encoded FileHeader (ASCII: "FHDR")
	HeaderMagic = uint32(0x52444846)

	// HeaderVersion is the current header schema version
	HeaderVersion = uint8(1)

	// timestampSize is an int64 of Unix seconds followed by a uint32 of nanoseconds
	timestampSize = 12

	// headerFixedSize covers magic, version, three timestamps and the name length
	// 4 bytes (magic) + 1 byte (version) + 3*12 bytes (times) + 4 bytes (name length) = 45 bytes
	headerFixedSize = 5 + 3*timestampSize + 4

	// MaxNameLength bounds the encoded file name in bytes
	MaxNameLength = 4096

	// MaxHeaderSize is the largest encoded header the codec accepts
	MaxHeaderSize = headerFixedSize + MaxNameLength
)

// Timestamp is a point in time as Unix seconds plus nanoseconds. Any
// time.Time converts without loss.
type Timestamp struct {
	Sec  int64
	Nsec uint32
}

// NewTimestamp converts t
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Sec: t.Unix(), Nsec: uint32(t.Nanosecond())}
}

// Time returns the timestamp as a local time.Time
func (ts Timestamp) Time() time.Time { return time.Unix(ts.Sec, int64(ts.Nsec)) }

func (ts Timestamp) put(b []byte) {
	binary.LittleEndian.PutUint64(b, uint64(ts.Sec))
	binary.LittleEndian.PutUint32(b[8:], ts.Nsec)
}

func readTimestamp(b []byte) (Timestamp, error) {
	ts := Timestamp{
		Sec:  int64(binary.LittleEndian.Uint64(b)),
		Nsec: binary.LittleEndian.Uint32(b[8:]),
	}
	if ts.Nsec >= uint32(time.Second) {
		return Timestamp{}, fmt.Errorf("%w: nanoseconds %d out of range", ErrInvalidHeader, ts.Nsec)
	}
	return ts, nil
}

// FileHeader carries the original file's name and timestamps inside the
// encrypted region of a container.
type FileHeader struct {
	CreationTime   Timestamp
	LastAccessTime Timestamp
	LastWriteTime  Timestamp
	Name           string
}

// NewFileHeader builds a header for the file name with the given times
func NewFileHeader(name string, times FileTimes) *FileHeader {
	return &FileHeader{
		CreationTime:   NewTimestamp(times.Creation),
		LastAccessTime: NewTimestamp(times.LastAccess),
		LastWriteTime:  NewTimestamp(times.LastWrite),
		Name:           name,
	}
}

// Created returns the creation time
func (h *FileHeader) Created() time.Time { return h.CreationTime.Time() }

// Accessed returns the last access time
func (h *FileHeader) Accessed() time.Time { return h.LastAccessTime.Time() }

// Modified returns the last write time
func (h *FileHeader) Modified() time.Time { return h.LastWriteTime.Time() }

// Times returns the three timestamps
func (h *FileHeader) Times() FileTimes {
	return FileTimes{
		Creation:   h.Created(),
		LastAccess: h.Accessed(),
		LastWrite:  h.Modified(),
	}
}

// Size returns the encoded length in bytes
func (h *FileHeader) Size() int {
	return headerFixedSize + len(h.Name)
}

// Validate checks the name. Decoded names become destination paths, so
// anything but a plain base name is rejected.
func (h *FileHeader) Validate() error {
	name := h.Name
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case len(name) > MaxNameLength:
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidName, len(name), MaxNameLength)
	case !utf8.ValidString(name):
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidName)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case name != filepath.Base(name):
		return fmt.Errorf("%w: %q is not a base name", ErrInvalidName, name)
	}
	return nil
}

// MarshalBinary encodes the header using the fixed little-endian schema
func (h *FileHeader) MarshalBinary() ([]byte, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}

	buf := make([]byte, h.Size())
	binary.LittleEndian.PutUint32(buf[0:], HeaderMagic)
	buf[4] = HeaderVersion
	h.CreationTime.put(buf[5:])
	h.LastAccessTime.put(buf[5+timestampSize:])
	h.LastWriteTime.put(buf[5+2*timestampSize:])
	binary.LittleEndian.PutUint32(buf[headerFixedSize-4:], uint32(len(h.Name)))
	copy(buf[headerFixedSize:], h.Name)
	return buf, nil
}

// UnmarshalBinary decodes a header produced by MarshalBinary. Every
// failure is a *FormatError.
func (h *FileHeader) UnmarshalBinary(data []byte) error {
	if len(data) < headerFixedSize {
		return NewFormatError("header", fmt.Errorf("%w: %d bytes, need at least %d", ErrTruncated, len(data), headerFixedSize))
	}
	if magic := binary.LittleEndian.Uint32(data[0:]); magic != HeaderMagic {
		return NewFormatError("header", fmt.Errorf("%w: bad magic %#08x", ErrInvalidHeader, magic))
	}
	if version := data[4]; version != HeaderVersion {
		return NewFormatError("header", fmt.Errorf("%w: %d", ErrUnsupportedVersion, version))
	}

	nameLen := binary.LittleEndian.Uint32(data[headerFixedSize-4:])
	if nameLen > MaxNameLength {
		return NewFormatError("header", fmt.Errorf("%w: name length %d", ErrInvalidLength, nameLen))
	}
	if uint64(len(data)) != uint64(headerFixedSize)+uint64(nameLen) {
		return NewFormatError("header", fmt.Errorf("%w: %d bytes for a %d byte name", ErrInvalidLength, len(data), nameLen))
	}

	var times [3]Timestamp
	for i := range times {
		ts, err := readTimestamp(data[5+i*timestampSize:])
		if err != nil {
			return NewFormatError("header", err)
		}
		times[i] = ts
	}

	decoded := FileHeader{
		CreationTime:   times[0],
		LastAccessTime: times[1],
		LastWriteTime:  times[2],
		Name:           string(data[headerFixedSize:]),
	}
	if err := decoded.Validate(); err != nil {
		return NewFormatError("header", err)
	}

	*h = decoded
	return nil
}

// WriteTo writes the 4-byte length prefix followed by the encoded header
func (h *FileHeader) WriteTo(w io.Writer) (int64, error) {
	encoded, err := h.MarshalBinary()
	if err != nil {
		return 0, err
	}

	buf := make([]byte, 4+len(encoded))
	binary.LittleEndian.PutUint32(buf, uint32(len(encoded)))
	copy(buf[4:], encoded)

	n, err := w.Write(buf)
	return int64(n), err
}

// ReadFrom reads a length-prefixed header written by WriteTo. Malformed or
// short input yields a *FormatError; other read failures pass through.
func (h *FileHeader) ReadFrom(r io.Reader) (int64, error) {
	var totalRead int64

	var prefix [4]byte
	n, err := io.ReadFull(r, prefix[:])
	totalRead += int64(n)
	if err != nil {
		return totalRead, shortRead("header length", err)
	}

	length := int32(binary.LittleEndian.Uint32(prefix[:]))
	if length < headerFixedSize || length > MaxHeaderSize {
		return totalRead, NewFormatError("header", fmt.Errorf("%w: %d", ErrInvalidLength, length))
	}

	data := make([]byte, length)
	n, err = io.ReadFull(r, data)
	totalRead += int64(n)
	if err != nil {
		return totalRead, shortRead("header", err)
	}

	return totalRead, h.UnmarshalBinary(data)
}

// shortRead turns EOF conditions into a *FormatError
func shortRead(section string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return NewFormatError(section, fmt.Errorf("%w: %v", ErrTruncated, err))
	}
	return err
}
