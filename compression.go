package filecrypt

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// newCompressor wraps w with a raw deflate encoder. Closing it flushes the
// final deflate block but leaves w open.
func newCompressor(w io.Writer, level int) (io.WriteCloser, error) {
	fw, err := flate.NewWriter(w, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create deflate writer: %w", err)
	}
	return fw, nil
}

// newDecompressor wraps r with a raw deflate decoder
func newDecompressor(r io.Reader) io.ReadCloser {
	return flate.NewReader(r)
}
