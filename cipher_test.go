package filecrypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"io"
	"testing"
)

func testBlock(t testing.TB) (cipher.Block, []byte) {
	t.Helper()
	key := bytes.Repeat([]byte{0x42}, 32)
	block, err := newBlockCipher(key, 32)
	if err != nil {
		t.Fatalf("newBlockCipher failed: %v", err)
	}
	return block, bytes.Repeat([]byte{0x24}, aes.BlockSize)
}

// encryptCBC writes data to a cbcWriter in pieces of step bytes
func encryptCBC(t *testing.T, block cipher.Block, iv, data []byte, step int) []byte {
	t.Helper()
	var out bytes.Buffer
	cw, err := newCBCWriter(&out, block, iv)
	if err != nil {
		t.Fatalf("newCBCWriter failed: %v", err)
	}
	for len(data) > 0 {
		n := min(step, len(data))
		if _, err := cw.Write(data[:n]); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		data = data[n:]
	}
	if err := cw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return out.Bytes()
}

func TestCBC_RoundTrip(t *testing.T) {
	block, iv := testBlock(t)

	for _, size := range []int{0, 1, 15, 16, 17, 31, 32, 33, 100, 4096, 10000} {
		for _, step := range []int{1, 7, 16, 1000} {
			data := DeriveSalt(size)
			ct := encryptCBC(t, block, iv, data, step)

			if len(ct)%aes.BlockSize != 0 {
				t.Fatalf("size %d: ciphertext length %d is not block aligned", size, len(ct))
			}
			if want := (size/aes.BlockSize + 1) * aes.BlockSize; len(ct) != want {
				t.Fatalf("size %d: ciphertext length %d, want %d", size, len(ct), want)
			}

			for _, bufSize := range []int{1, 16, 64, 8192} {
				cr, err := newCBCReader(bytes.NewReader(ct), block, iv, bufSize)
				if err != nil {
					t.Fatalf("newCBCReader failed: %v", err)
				}
				got, err := io.ReadAll(cr)
				if err != nil {
					t.Fatalf("size %d step %d buf %d: ReadAll failed: %v", size, step, bufSize, err)
				}
				if !bytes.Equal(got, data) {
					t.Fatalf("size %d step %d buf %d: round trip mismatch", size, step, bufSize)
				}
			}
		}
	}
}

func TestCBC_RandomizedPadding(t *testing.T) {
	block, iv := testBlock(t)
	data := []byte("x")

	// Fifteen bytes of padding, fourteen of them random
	a := encryptCBC(t, block, iv, data, len(data))
	b := encryptCBC(t, block, iv, data, len(data))
	if bytes.Equal(a, b) {
		t.Error("two encryptions produced identical ciphertext")
	}
}

func TestCBC_Truncated(t *testing.T) {
	block, iv := testBlock(t)
	ct := encryptCBC(t, block, iv, bytes.Repeat([]byte("x"), 100), 100)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"partial block", ct[:len(ct)-5]},
		{"one byte", ct[:1]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cr, err := newCBCReader(bytes.NewReader(tt.data), block, iv, 64)
			if err != nil {
				t.Fatal(err)
			}
			_, err = io.ReadAll(cr)
			if !IsFormatError(err) || !errors.Is(err, ErrTruncated) {
				t.Errorf("error = %v, want truncated *FormatError", err)
			}
		})
	}
}

func TestCBC_BadPadding(t *testing.T) {
	block, iv := testBlock(t)

	// A block whose last byte is zero is never valid padding
	plain := make([]byte, aes.BlockSize)
	ct := make([]byte, aes.BlockSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, plain)

	cr, err := newCBCReader(bytes.NewReader(ct), block, iv, 64)
	if err != nil {
		t.Fatal(err)
	}
	_, err = io.ReadAll(cr)
	if !IsFormatError(err) || !errors.Is(err, ErrInvalidPadding) {
		t.Errorf("error = %v, want padding *FormatError", err)
	}
}

type failingReader struct {
	data []byte
	err  error
}

func (f *failingReader) Read(p []byte) (int, error) {
	if len(f.data) == 0 {
		return 0, f.err
	}
	n := copy(p, f.data)
	f.data = f.data[n:]
	return n, nil
}

func TestCBC_ReadErrorPassesThrough(t *testing.T) {
	block, iv := testBlock(t)
	ct := encryptCBC(t, block, iv, bytes.Repeat([]byte("y"), 64), 64)
	boom := errors.New("disk on fire")

	cr, err := newCBCReader(&failingReader{data: ct[:32], err: boom}, block, iv, 16)
	if err != nil {
		t.Fatal(err)
	}
	_, err = io.ReadAll(cr)
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
	if IsFormatError(err) {
		t.Error("read failure was reported as a format error")
	}
}

func TestCBC_InvalidParameters(t *testing.T) {
	block, _ := testBlock(t)

	if _, err := newCBCWriter(io.Discard, block, make([]byte, 8)); !IsValidationError(err) {
		t.Errorf("newCBCWriter short iv: error = %v, want *ValidationError", err)
	}
	if _, err := newCBCReader(bytes.NewReader(nil), block, nil, 16); !IsValidationError(err) {
		t.Errorf("newCBCReader nil iv: error = %v, want *ValidationError", err)
	}
	if _, err := newBlockCipher(make([]byte, 16), 32); !IsValidationError(err) {
		t.Errorf("newBlockCipher wrong key size: error = %v, want *ValidationError", err)
	}
}

func TestCBCWriter_WriteAfterClose(t *testing.T) {
	block, iv := testBlock(t)
	cw, err := newCBCWriter(io.Discard, block, iv)
	if err != nil {
		t.Fatal(err)
	}
	if err := cw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := cw.Close(); err != nil {
		t.Errorf("second Close returned %v", err)
	}
	if _, err := cw.Write([]byte("late")); err == nil {
		t.Error("Write after Close succeeded")
	}
}

func TestPadISO10126(t *testing.T) {
	for size := 0; size <= 48; size++ {
		data := bytes.Repeat([]byte{0xAA}, size)
		padded := padISO10126(data, 16)

		if len(padded)%16 != 0 || len(padded) <= size {
			t.Fatalf("size %d: padded length %d", size, len(padded))
		}
		if padLen := int(padded[len(padded)-1]); padLen != len(padded)-size {
			t.Fatalf("size %d: pad byte %d, want %d", size, padLen, len(padded)-size)
		}

		got, err := unpadISO10126(padded, 16)
		if err != nil {
			t.Fatalf("size %d: unpad failed: %v", size, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("size %d: unpad mismatch", size)
		}
	}
}

func TestUnpadISO10126_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not block aligned", make([]byte, 15)},
		{"zero pad length", make([]byte, 16)},
		{"pad length too large", append(make([]byte, 15), 17)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := unpadISO10126(tt.data, 16); !errors.Is(err, ErrInvalidPadding) {
				t.Errorf("error = %v, want ErrInvalidPadding", err)
			}
		})
	}
}

func TestCompression_RoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("compress me please "), 1000)

	var buf bytes.Buffer
	zw, err := newCompressor(&buf, 9)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if buf.Len() >= len(data) {
		t.Errorf("compressed %d bytes to %d", len(data), buf.Len())
	}

	got, err := io.ReadAll(newDecompressor(&buf))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("decompressed data mismatch")
	}

	if _, err := newCompressor(io.Discard, 42); err == nil {
		t.Error("newCompressor accepted level 42")
	}
}
