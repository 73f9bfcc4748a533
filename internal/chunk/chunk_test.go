package chunk

import (
	"bytes"
	"compress/zlib"
	"crypto/sha1"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"innoextract/internal/cryptoutil"
	"innoextract/internal/setup"
	"innoextract/internal/slice"
)

// writeSliceContaining lays out a single external slice file whose payload
// starts with chunk's on-wire bytes (magic, optional salt, compressed body),
// so Open can seek straight to it via a slice.Reader.
func writeSliceContaining(t *testing.T, payload []byte) *slice.Reader {
	t.Helper()
	dir := t.TempDir()

	var raw []byte
	raw = append(raw, []byte{'i', 'd', 's', 'k', 'a', '3', '2', 0x1a}...)
	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(len(payload)))
	raw = append(raw, sizeBuf[:]...)
	raw = append(raw, payload...)

	if err := os.WriteFile(filepath.Join(dir, "setup-1.bin"), raw, 0o644); err != nil {
		t.Fatalf("writing slice: %v", err)
	}
	return slice.NewExternal(dir, "", "setup", 1)
}

func TestOpenPlaintextStored(t *testing.T) {
	body := []byte("plain chunk contents, stored with no compression")
	payload := append(append([]byte{}, magic[:]...), body...)
	s := writeSliceContaining(t, payload)
	defer s.Close()

	desc := Descriptor{FirstSlice: 0, Offset: 0, Size: int64(len(body)), Compression: setup.CompressionStored, Encryption: Plaintext}
	r, err := Open(s, desc, KeyMaterial{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("got %q, want %q", got, body)
	}
}

func TestOpenBadMagic(t *testing.T) {
	payload := append([]byte{'x', 'x', 'x', 'x'}, []byte("body")...)
	s := writeSliceContaining(t, payload)
	defer s.Close()

	desc := Descriptor{FirstSlice: 0, Offset: 0, Size: 4, Compression: setup.CompressionStored, Encryption: Plaintext}
	if _, err := Open(s, desc, KeyMaterial{}); err == nil {
		t.Error("expected an error for a chunk with a bad magic")
	}
}

func TestOpenARC4SHA1RoundTrip(t *testing.T) {
	password := "hunter2"
	body := []byte("secret chunk body that must round trip through ARC4")

	salt := [8]byte{9, 8, 7, 6, 5, 4, 3, 2}
	h := sha1.New()
	h.Write(salt[:])
	h.Write([]byte(password))
	derivedKey := h.Sum(nil)

	stream, err := cryptoutil.NewARC4Stream(derivedKey)
	if err != nil {
		t.Fatalf("building test cipher: %v", err)
	}
	encrypted := make([]byte, len(body))
	stream.XORKeyStream(encrypted, body)

	payload := append(append(append([]byte{}, magic[:]...), salt[:]...), encrypted...)
	s := writeSliceContaining(t, payload)
	defer s.Close()

	desc := Descriptor{FirstSlice: 0, Offset: 0, Size: int64(len(body)), Compression: setup.CompressionStored, Encryption: ARC4SHA1}
	r, err := Open(s, desc, KeyMaterial{Password: password})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("got %q, want %q", got, body)
	}
}

// TestOpenZlibCompressedLargerThanOnDiskSize pins down that Size restricts
// the on-disk compressed bytes, not the decompressed output: the body here
// decompresses to far more bytes than the zlib stream occupies on disk, so
// a Restrict mistakenly applied after decompression would truncate it to
// the smaller compressed length.
func TestOpenZlibCompressedLargerThanOnDiskSize(t *testing.T) {
	body := bytes.Repeat([]byte("repeat me so zlib compresses well "), 200)

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(body); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	if compressed.Len() >= len(body) {
		t.Fatalf("test body did not compress smaller: compressed=%d body=%d", compressed.Len(), len(body))
	}

	payload := append(append([]byte{}, magic[:]...), compressed.Bytes()...)
	s := writeSliceContaining(t, payload)
	defer s.Close()

	desc := Descriptor{FirstSlice: 0, Offset: 0, Size: int64(compressed.Len()), Compression: setup.CompressionZlib, Encryption: Plaintext}
	r, err := Open(s, desc, KeyMaterial{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("decompressed length = %d, want %d (output must not be truncated to the on-disk compressed size)", len(got), len(body))
	}
}

func TestOpenEncryptedWithoutPassword(t *testing.T) {
	payload := append(append([]byte{}, magic[:]...), make([]byte, 8+16)...)
	s := writeSliceContaining(t, payload)
	defer s.Close()

	desc := Descriptor{FirstSlice: 0, Offset: 0, Size: 16, Compression: setup.CompressionStored, Encryption: ARC4MD5}
	if _, err := Open(s, desc, KeyMaterial{}); err == nil {
		t.Error("expected an error opening an encrypted chunk with no password")
	}
}

func TestDescriptorLessOrdering(t *testing.T) {
	a := Descriptor{FirstSlice: 0, Offset: 10, Size: 5}
	b := Descriptor{FirstSlice: 0, Offset: 20, Size: 5}
	c := Descriptor{FirstSlice: 1, Offset: 0, Size: 5}

	if !a.Less(b) {
		t.Error("expected lower offset to sort first within the same slice")
	}
	if !b.Less(c) {
		t.Error("expected lower slice index to sort first regardless of offset")
	}
	if a.Less(a) {
		t.Error("expected a descriptor not to be Less than itself")
	}
}
