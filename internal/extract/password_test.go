package extract

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"hash/crc32"
	"testing"

	"innoextract/internal/checksum"
	"innoextract/internal/cryptoutil"
	"innoextract/internal/setup"
	"innoextract/internal/textenc"
)

func TestVerifyPasswordLegacy(t *testing.T) {
	salt := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	password := "hunter2"
	utf16le := textenc.EncodeUTF16LE(password)

	tests := []struct {
		name string
		typ  checksum.Type
		sum  func() []byte
	}{
		{"sha1", checksum.SHA1, func() []byte {
			h := sha1.New()
			h.Write(salt[:])
			h.Write(utf16le)
			return h.Sum(nil)
		}},
		{"md5", checksum.MD5, func() []byte {
			h := md5.New()
			h.Write(salt[:])
			h.Write(utf16le)
			return h.Sum(nil)
		}},
		{"crc32", checksum.CRC32, func() []byte {
			c := crc32.NewIEEE()
			c.Write(salt[:])
			c.Write(utf16le)
			sum := c.Sum32()
			return []byte{byte(sum), byte(sum >> 8), byte(sum >> 16), byte(sum >> 24)}
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := &setup.Header{
				Password:     checksum.Checksum{Type: tc.typ, Bytes: tc.sum()},
				PasswordSalt: salt,
			}
			if !verifyPassword(h, password, 0) {
				t.Error("expected correct password to verify")
			}
			if verifyPassword(h, "wrong", 0) {
				t.Error("expected wrong password to fail verification")
			}
		})
	}
}

func TestVerifyPasswordModern(t *testing.T) {
	salt := []byte("0123456789abcdef")
	iterations := 10
	password := "hunter2"

	key := cryptoutil.DeriveXChaCha20Key([]byte(password), salt, iterations)
	sum := sha256.Sum256(key)
	expected := sum[:]

	h := &setup.Header{
		EncryptionUsed: true,
		Password:       checksum.Checksum{Type: checksum.SHA1, Bytes: expected},
	}
	copy(h.PasswordSalt[:], salt)

	if !verifyPassword(h, password, iterations) {
		t.Error("expected correct password to verify")
	}
	if verifyPassword(h, "wrong", iterations) {
		t.Error("expected wrong password to fail verification")
	}
	if verifyPassword(h, password, iterations+1) {
		t.Error("expected mismatched iteration count to fail verification")
	}
}

func TestVerifyPasswordNoneType(t *testing.T) {
	h := &setup.Header{}
	if !verifyPassword(h, "anything", 0) {
		t.Error("expected a header with no recorded password type to verify unconditionally")
	}
}
