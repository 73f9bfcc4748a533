package extract

import (
	"crypto/md5"
	"crypto/sha1"
	"hash/crc32"

	"innoextract/internal/checksum"
	"innoextract/internal/cryptoutil"
	"innoextract/internal/setup"
	"innoextract/internal/textenc"
)

// verifyPassword checks a candidate password against the setup header's
// recorded digest before any chunk is opened, so a wrong password fails
// fast with ErrPasswordBad rather than surfacing as a string of per-file
// checksum failures. Two dialects exist depending on EncryptionUsed:
//
//   - Legacy (EncryptionUsed false, Password.Type CRC32/MD5/SHA1): the
//     digest covers PasswordSalt (present from 4.2.2 on) followed by the
//     password's UTF-16LE bytes, the same salt-then-password hashing
//     shape chunk.Open uses to derive ARC4 keys.
//   - Modern (EncryptionUsed true): cryptoutil.VerifyPasswordDigest's
//     PBKDF2-HMAC-SHA256-then-SHA256 digest, salted with PasswordSalt and
//     run for iterations rounds.
func verifyPassword(h *setup.Header, password string, iterations int) bool {
	if h.EncryptionUsed {
		return cryptoutil.VerifyPasswordDigest([]byte(password), h.PasswordSalt[:], iterations, h.Password.Bytes)
	}

	utf16le := textenc.EncodeUTF16LE(password)

	var got []byte
	switch h.Password.Type {
	case checksum.SHA1:
		hh := sha1.New()
		hh.Write(h.PasswordSalt[:])
		hh.Write(utf16le)
		got = hh.Sum(nil)
	case checksum.MD5:
		hh := md5.New()
		hh.Write(h.PasswordSalt[:])
		hh.Write(utf16le)
		got = hh.Sum(nil)
	case checksum.CRC32:
		c := crc32.NewIEEE()
		c.Write(h.PasswordSalt[:])
		c.Write(utf16le)
		sum := c.Sum32()
		got = []byte{byte(sum), byte(sum >> 8), byte(sum >> 16), byte(sum >> 24)}
	default:
		return true
	}

	return checksum.Checksum{Type: h.Password.Type, Bytes: got}.Equal(h.Password)
}
