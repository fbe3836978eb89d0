package filecrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"io"
)

// newBlockCipher creates the AES block cipher for key
func newBlockCipher(key []byte, keyBytes int) (cipher.Block, error) {
	if err := ValidateKey(key, keyBytes); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	return block, nil
}

// cbcWriter encrypts everything written to it in CBC mode. Close pads the
// final block and flushes it; it does not close the underlying writer.
type cbcWriter struct {
	w       io.Writer
	mode    cipher.BlockMode
	pending []byte // plaintext not yet forming a whole block
	out     []byte
	closed  bool
}

// newCBCWriter wraps w with CBC encryption under block and iv
func newCBCWriter(w io.Writer, block cipher.Block, iv []byte) (*cbcWriter, error) {
	if err := ValidateIV(iv, block.BlockSize()); err != nil {
		return nil, err
	}
	return &cbcWriter{
		w:       w,
		mode:    cipher.NewCBCEncrypter(block, iv),
		pending: make([]byte, 0, block.BlockSize()),
	}, nil
}

func (c *cbcWriter) Write(p []byte) (int, error) {
	if c.closed {
		return 0, errors.New("write to closed cipher stream")
	}

	bs := c.mode.BlockSize()
	total := len(p)

	// Complete a pending partial block first
	if len(c.pending) > 0 {
		n := copy(c.pending[len(c.pending):bs], p)
		c.pending = c.pending[:len(c.pending)+n]
		p = p[n:]
		if len(c.pending) < bs {
			return total, nil
		}
		if err := c.emit(c.pending); err != nil {
			return 0, err
		}
		c.pending = c.pending[:0]
	}

	full := len(p) - len(p)%bs
	if full > 0 {
		if err := c.emit(p[:full]); err != nil {
			return 0, err
		}
	}
	c.pending = append(c.pending, p[full:]...)
	return total, nil
}

// emit encrypts whole blocks and writes them out
func (c *cbcWriter) emit(blocks []byte) error {
	if cap(c.out) < len(blocks) {
		c.out = make([]byte, len(blocks))
	}
	out := c.out[:len(blocks)]
	c.mode.CryptBlocks(out, blocks)
	_, err := c.w.Write(out)
	return err
}

// Close writes the padded final block
func (c *cbcWriter) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	last := padISO10126(c.pending, c.mode.BlockSize())
	return c.emit(last)
}

// cbcReader decrypts a CBC stream read from r and strips the padding at EOF.
// The last whole block is held back until the end of the input is known.
type cbcReader struct {
	r       io.Reader
	mode    cipher.BlockMode
	scratch []byte
	pending []byte // ciphertext not yet decrypted
	plain   []byte
	ready   []byte // decrypted bytes not yet returned
	err     error
}

// newCBCReader wraps r with CBC decryption under block and iv
func newCBCReader(r io.Reader, block cipher.Block, iv []byte, bufSize int) (*cbcReader, error) {
	if err := ValidateIV(iv, block.BlockSize()); err != nil {
		return nil, err
	}
	bs := block.BlockSize()
	if bufSize < bs {
		bufSize = bs
	}
	return &cbcReader{
		r:       r,
		mode:    cipher.NewCBCDecrypter(block, iv),
		scratch: make([]byte, bufSize),
	}, nil
}

func (c *cbcReader) Read(p []byte) (int, error) {
	for len(c.ready) == 0 {
		if c.err != nil {
			return 0, c.err
		}
		c.fill()
	}
	n := copy(p, c.ready)
	c.ready = c.ready[n:]
	return n, nil
}

// fill reads more ciphertext and decrypts what can safely be released
func (c *cbcReader) fill() {
	n, err := c.r.Read(c.scratch)
	c.pending = append(c.pending, c.scratch[:n]...)

	if errors.Is(err, io.EOF) {
		c.finish()
		return
	}
	if err != nil {
		c.err = err
		return
	}

	bs := c.mode.BlockSize()
	release := len(c.pending) - len(c.pending)%bs
	if release == len(c.pending) {
		release -= bs
	}
	if release <= 0 {
		return
	}
	c.decrypt(release)
}

// finish decrypts the remaining ciphertext and removes the padding
func (c *cbcReader) finish() {
	bs := c.mode.BlockSize()
	if len(c.pending) == 0 || len(c.pending)%bs != 0 {
		// Release the whole blocks so readers see the data up to the cut
		if whole := len(c.pending) - len(c.pending)%bs; whole > 0 {
			c.decrypt(whole)
		}
		c.err = NewFormatError("ciphertext", fmt.Errorf("%w: %d trailing bytes is not a multiple of the %d byte block size",
			ErrTruncated, len(c.pending), bs))
		return
	}

	c.decrypt(len(c.pending))
	unpadded, err := unpadISO10126(c.ready, bs)
	if err != nil {
		c.ready = nil
		c.err = NewFormatError("ciphertext", err)
		return
	}
	c.ready = unpadded
	c.err = io.EOF
}

// decrypt moves the first n pending bytes into ready
func (c *cbcReader) decrypt(n int) {
	if cap(c.plain) < n {
		c.plain = make([]byte, n)
	}
	c.plain = c.plain[:n]
	c.mode.CryptBlocks(c.plain, c.pending[:n])
	c.ready = c.plain

	rest := copy(c.pending, c.pending[n:])
	c.pending = c.pending[:rest]
}
