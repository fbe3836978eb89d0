// Package filecrypt encrypts single files into password-protected
// containers and restores them, together with their original name and
// timestamps.
//
// # Overview
//
// An Encryptor reads a source file through a FileSystem, compresses it with
// raw deflate, encrypts it with AES in CBC mode and writes a container. A
// Decryptor reverses the process and recreates the file, under its recorded
// name, in a destination directory. Any absfs.FileSystem can serve as the
// FileSystem; NewOSFS returns one backed by the host operating system.
//
// # Basic Usage
//
//	enc, err := filecrypt.NewEncryptor(filecrypt.NewOSFS(), nil)
//	if err != nil {
//	    return err
//	}
//	hdr, err := enc.Encode(ctx, "report.pdf", "report.pdf.fcx", password, func(p int) {
//	    fmt.Printf("\r%3d%%", p)
//	})
//
//	dec, err := filecrypt.NewDecryptor(filecrypt.NewOSFS(), nil)
//	if err != nil {
//	    return err
//	}
//	hdr, err = dec.Decode(ctx, "report.pdf.fcx", "restored", password, nil)
//
// EncodeAsync and DecodeAsync run the same transforms on a separate
// goroutine and return a Task.
//
// # Container Format
//
//	salt (SaltSize bytes) | iv (16 bytes) | AES-CBC ciphertext
//
// The ciphertext is padded with ISO 10126 padding and decrypts to
//
//	int32 header length | FileHeader | raw deflate payload
//
// The header is magic "FHDR", a schema version byte, the creation, last
// access and last write times, each as int64 Unix seconds followed by
// uint32 nanoseconds, and the length-prefixed UTF-8 file name. All integers are little-endian.
//
// # Key Derivation
//
// The key is PBKDF2-HMAC-SHA1 over the password and the stored salt. The
// IV is drawn from PBKDF2 over the password, the current time and a second
// random salt, and is stored in the container. Key size, salt size and
// iteration count are not recorded, so a Decryptor must be configured like
// the Encryptor that produced the container.
//
// # Security Considerations
//
// Containers carry no MAC. A wrong password is detected only because the
// decrypted header fails to parse; a corrupted payload is detected only when
// deflate or the padding check rejects it. PBKDF2 with SHA-1 and a low
// default iteration count is weak against offline guessing. Raise
// IterationCount for new containers.
package filecrypt
