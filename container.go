package filecrypt

import (
	"fmt"
	"io"
)

// Container layout (little-endian throughout):
//
//	salt         SaltSize bytes, plaintext
//	iv           BlockSize/8 bytes, plaintext
//	ciphertext   AES-CBC, ISO 10126 padding, decrypting to:
//	    header length   4 bytes, int32
//	    header          FileHeader encoding
//	    payload         raw deflate stream of the original bytes

// Preamble is the plaintext prefix of a container
type Preamble struct {
	Salt []byte // Salt for key derivation
	IV   []byte // IV for CBC
}

// NewPreamble creates a preamble from salt and iv
func NewPreamble(salt, iv []byte) *Preamble {
	return &Preamble{
		Salt: salt,
		IV:   iv,
	}
}

// Size returns the total size of the preamble in bytes
func (p *Preamble) Size() int {
	return len(p.Salt) + len(p.IV)
}

// WriteTo writes salt then iv
func (p *Preamble) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, 0, p.Size())
	buf = append(buf, p.Salt...)
	buf = append(buf, p.IV...)

	n, err := w.Write(buf)
	return int64(n), err
}

// readPreamble reads a preamble whose field sizes come from the configuration.
// A short read is a *FormatError.
func readPreamble(r io.Reader, saltSize, ivSize int) (*Preamble, error) {
	p := &Preamble{
		Salt: make([]byte, saltSize),
		IV:   make([]byte, ivSize),
	}

	if _, err := io.ReadFull(r, p.Salt); err != nil {
		return nil, shortRead("preamble", fmt.Errorf("failed to read salt: %w", err))
	}
	if _, err := io.ReadFull(r, p.IV); err != nil {
		return nil, shortRead("preamble", fmt.Errorf("failed to read iv: %w", err))
	}
	return p, nil
}

// Validate checks the preamble against the expected sizes
func (p *Preamble) Validate(saltSize, ivSize int) error {
	if len(p.Salt) != saltSize {
		return NewValidationError("salt", len(p.Salt), fmt.Sprintf("expected %d bytes", saltSize))
	}
	return ValidateIV(p.IV, ivSize)
}

// Zero clears the preamble bytes
func (p *Preamble) Zero() {
	zeroBytes(p.Salt)
	zeroBytes(p.IV)
}
