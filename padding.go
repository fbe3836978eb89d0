package filecrypt

import (
	"fmt"
)

// padISO10126 pads data to a whole block with ISO 10126 padding: random
// filler bytes and a final byte holding the pad length. A full block of
// padding is added when data is already block aligned.
func padISO10126(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	copy(padded[len(data):], DeriveSalt(padLen-1))
	padded[len(padded)-1] = byte(padLen)
	return padded
}

// unpadISO10126 strips ISO 10126 padding. Only the length byte can be
// checked; the filler is random.
func unpadISO10126(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of blocks", ErrInvalidPadding, len(data))
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize {
		return nil, fmt.Errorf("%w: pad length %d", ErrInvalidPadding, padLen)
	}
	return data[:len(data)-padLen], nil
}
