package filecrypt

import (
	"crypto/rand"
	"crypto/sha1"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// DeriveSalt returns n cryptographically random bytes
func DeriveSalt(n int) []byte {
	salt := make([]byte, n)
	// rand.Read never returns an error as of Go 1.24
	_, _ = rand.Read(salt)
	return salt
}

// DeriveKey runs PBKDF2-HMAC-SHA1 over password and salt. The same inputs
// always produce the same key.
func DeriveKey(password, salt []byte, iterations, keyBytes int) []byte {
	return pbkdf2.Key(password, salt, iterations, keyBytes, sha1.New)
}

// DeriveIV returns a fresh pseudorandom IV of blockBytes length. The
// password is mixed with the current time and a random salt, so repeated
// calls never agree; the IV is stored in the container and never re-derived.
func DeriveIV(password []byte, blockBytes, saltBytes, iterations int) []byte {
	seed := make([]byte, 0, len(password)+20)
	seed = append(seed, password...)
	seed = strconv.AppendInt(seed, time.Now().UnixNano(), 10)
	defer zeroBytes(seed)

	return pbkdf2.Key(seed, DeriveSalt(saltBytes), iterations, blockBytes, sha1.New)
}

// PasswordKeyProvider derives container keys from a password
type PasswordKeyProvider struct {
	password   []byte
	iterations int
	keyBytes   int
	saltBytes  int
	blockBytes int
}

// NewPasswordKeyProvider creates a key provider for one operation. The
// password slice is referenced, not copied.
func NewPasswordKeyProvider(password []byte, cfg *Config, iterations int) *PasswordKeyProvider {
	return &PasswordKeyProvider{
		password:   password,
		iterations: iterations,
		keyBytes:   cfg.keyBytes(),
		saltBytes:  cfg.SaltSize,
		blockBytes: cfg.blockBytes(),
	}
}

// GenerateSalt generates a new random salt
func (p *PasswordKeyProvider) GenerateSalt() []byte {
	return DeriveSalt(p.saltBytes)
}

// GenerateIV generates a new IV for an encryption
func (p *PasswordKeyProvider) GenerateIV() []byte {
	return DeriveIV(p.password, p.blockBytes, p.saltBytes, p.iterations)
}

// DeriveKey derives the encryption key for salt
func (p *PasswordKeyProvider) DeriveKey(salt []byte) []byte {
	return DeriveKey(p.password, salt, p.iterations, p.keyBytes)
}

// zeroBytes overwrites a byte slice with zeros
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
