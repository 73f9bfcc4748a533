package block

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"io"
	"testing"

	"innoextract/internal/setup"
)

// buildModernBlock encodes a single-frame stored (uncompressed) block using
// the >=4.0.9 header layout, the shape Open reads for setups from 4.0.9 on.
func buildModernBlock(t *testing.T, payload []byte) []byte {
	t.Helper()
	if len(payload) > frameSize {
		t.Fatalf("test helper only supports single-frame payloads, got %d bytes", len(payload))
	}

	var frame bytes.Buffer
	frameCRC := crc32.ChecksumIEEE(payload)
	var crcBuf [4]byte
	binary.LittleEndian.PutUint32(crcBuf[:], frameCRC)
	frame.Write(crcBuf[:])
	frame.Write(payload)

	var header bytes.Buffer
	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(frame.Len()))
	header.Write(sizeBuf[:])
	header.WriteByte(0) // not compressed

	crc := crc32.NewIEEE()
	crc.Write(header.Bytes())
	var outerCRC [4]byte
	binary.LittleEndian.PutUint32(outerCRC[:], crc.Sum32())

	var out bytes.Buffer
	out.Write(outerCRC[:])
	out.Write(header.Bytes())
	out.Write(frame.Bytes())
	return out.Bytes()
}

func modernVersion() setup.Version {
	return setup.Version{Major: 5, Minor: 5, Patch: 0, Known: true}
}

func TestOpenStoredSingleFrame(t *testing.T) {
	payload := []byte("hello, this is the block payload")
	encoded := buildModernBlock(t, payload)

	r, total, err := Open(bytes.NewReader(encoded), modernVersion())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if total != int64(len(encoded)) {
		t.Errorf("totalSize = %d, want %d", total, len(encoded))
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading decoded block: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("got %q, want %q", got, payload)
	}
}

func TestOpenBadOuterChecksum(t *testing.T) {
	encoded := buildModernBlock(t, []byte("payload"))
	encoded[0] ^= 0xFF // corrupt the outer checksum word

	if _, _, err := Open(bytes.NewReader(encoded), modernVersion()); err == nil {
		t.Error("expected an error for a corrupted outer header checksum")
	}
}

func TestOpenBadFrameChecksum(t *testing.T) {
	encoded := buildModernBlock(t, []byte("payload"))
	// Flip a byte inside the frame payload (after the 4-byte outer CRC, the
	// 5-byte header, and the frame's own 4-byte CRC) without touching the
	// outer header checksum, so only the per-frame CRC fails.
	encoded[4+5+4] ^= 0xFF

	r, _, err := Open(bytes.NewReader(encoded), modernVersion())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := io.ReadAll(r); err == nil {
		t.Error("expected a frame checksum error while reading a corrupted frame")
	}
}

func TestOpenTruncated(t *testing.T) {
	encoded := buildModernBlock(t, []byte("payload"))
	if _, _, err := Open(bytes.NewReader(encoded[:5]), modernVersion()); err == nil {
		t.Error("expected a truncation error for a short header")
	}
}

func TestOpenZlibCompressed(t *testing.T) {
	payload := []byte("compress me please, repeated text, repeated text, repeated text")

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(payload); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}

	var frame bytes.Buffer
	frameCRC := crc32.ChecksumIEEE(compressed.Bytes())
	var crcBuf [4]byte
	binary.LittleEndian.PutUint32(crcBuf[:], frameCRC)
	frame.Write(crcBuf[:])
	frame.Write(compressed.Bytes())

	var header bytes.Buffer
	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(frame.Len()))
	header.Write(sizeBuf[:])
	header.WriteByte(1) // compressed

	crc := crc32.NewIEEE()
	crc.Write(header.Bytes())
	var outerCRC [4]byte
	binary.LittleEndian.PutUint32(outerCRC[:], crc.Sum32())

	var out bytes.Buffer
	out.Write(outerCRC[:])
	out.Write(header.Bytes())
	out.Write(frame.Bytes())

	// Force the zlib branch: >=4.0.9 but <4.1.6 selects zlibCompressed.
	v := setup.Version{Major: 4, Minor: 1, Patch: 0, Known: true}
	r, _, err := Open(bytes.NewReader(out.Bytes()), v)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading decompressed block: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("got %q, want %q", got, payload)
	}
}
