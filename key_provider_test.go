package filecrypt

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestDeriveKey_KnownVector(t *testing.T) {
	// RFC 6070, PBKDF2-HMAC-SHA1
	tests := []struct {
		password   string
		salt       string
		iterations int
		want       string
	}{
		{"password", "salt", 1, "0c60c80f961f0e71f3a9b524af6012062fe037a6"},
		{"password", "salt", 2, "ea6c014dc72d6f8ccd1ed92ace1d41f0d8de8957"},
		{"password", "salt", 4096, "4b007901b765489abead49d926f721d065a429c1"},
	}

	for _, tt := range tests {
		got := DeriveKey([]byte(tt.password), []byte(tt.salt), tt.iterations, 20)
		if hex.EncodeToString(got) != tt.want {
			t.Errorf("DeriveKey(%q, %q, %d) = %x, want %s", tt.password, tt.salt, tt.iterations, got, tt.want)
		}
	}
}

func TestDeriveKey_Deterministic(t *testing.T) {
	password := []byte("correct-horse")
	salt := DeriveSalt(32)

	a := DeriveKey(password, salt, 1024, 32)
	b := DeriveKey(password, salt, 1024, 32)
	if !bytes.Equal(a, b) {
		t.Error("same inputs produced different keys")
	}
	if len(a) != 32 {
		t.Errorf("key length = %d, want 32", len(a))
	}

	if bytes.Equal(a, DeriveKey(password, DeriveSalt(32), 1024, 32)) {
		t.Error("different salts produced the same key")
	}
	if bytes.Equal(a, DeriveKey([]byte("wrong-horse"), salt, 1024, 32)) {
		t.Error("different passwords produced the same key")
	}
	if bytes.Equal(a, DeriveKey(password, salt, 1025, 32)) {
		t.Error("different iteration counts produced the same key")
	}

	// An empty password is weak but valid
	if k := DeriveKey(nil, salt, 1, 16); len(k) != 16 {
		t.Errorf("empty password key length = %d, want 16", len(k))
	}
}

func TestDeriveSalt(t *testing.T) {
	for _, n := range []int{0, 8, 32, 4096} {
		if got := DeriveSalt(n); len(got) != n {
			t.Errorf("DeriveSalt(%d) returned %d bytes", n, len(got))
		}
	}

	if bytes.Equal(DeriveSalt(32), DeriveSalt(32)) {
		t.Error("two salts were identical")
	}
}

func TestDeriveIV_Unique(t *testing.T) {
	password := []byte("correct-horse")
	seen := make(map[string]bool)

	for i := 0; i < 50; i++ {
		iv := DeriveIV(password, 16, 32, 1)
		if len(iv) != 16 {
			t.Fatalf("iv length = %d, want 16", len(iv))
		}
		if seen[string(iv)] {
			t.Fatal("DeriveIV repeated an iv for the same password")
		}
		seen[string(iv)] = true
	}
}

func TestPasswordKeyProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KeySize = 192
	cfg.SaltSize = 16

	kp := NewPasswordKeyProvider([]byte("pw"), cfg, 10)

	salt := kp.GenerateSalt()
	if len(salt) != 16 {
		t.Errorf("salt length = %d, want 16", len(salt))
	}
	if iv := kp.GenerateIV(); len(iv) != 16 {
		t.Errorf("iv length = %d, want 16", len(iv))
	}

	key := kp.DeriveKey(salt)
	if len(key) != 24 {
		t.Errorf("key length = %d, want 24", len(key))
	}
	if !bytes.Equal(key, DeriveKey([]byte("pw"), salt, 10, 24)) {
		t.Error("provider key differs from DeriveKey")
	}
}

func TestZeroBytes(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	zeroBytes(b)
	if !bytes.Equal(b, make([]byte, 4)) {
		t.Errorf("zeroBytes left %v", b)
	}
	zeroBytes(nil)
}
