// Package loader locates the setup loader offset table embedded in an Inno
// Setup installer executable: either via the legacy fixed-offset locator
// (installers built before the offset table moved into a PE resource) or by
// walking the PE resource directory for resource 11111 of type RT_RCDATA.
//
// Grounded on original_source/SetupLoader.{h,cpp} and
// original_source/src/SetupLoaderFormat.hpp.
package loader

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/crc32"
	"io"

	"innoextract/internal/innoerr"
	"innoextract/internal/peformat"
)

// ChecksumMode selects which algorithm validates the exe segment embedded
// in the offset table (older tables use Adler-32, newer ones CRC32).
type ChecksumMode int

const (
	ChecksumAdler32 ChecksumMode = iota
	ChecksumCRC32
)

// Offsets is the decoded setup loader offset table: the locations of the
// compressed setup-0.bin payload (pre-5.1.5 single-file layout) and the
// two data streams (header, embedded files) that follow it.
type Offsets struct {
	TotalSize           uint64
	ExeOffset           uint64
	ExeCompressedSize   uint64
	ExeUncompressedSize uint64
	ExeChecksum         int32
	ExeChecksumMode     ChecksumMode
	MessageOffset       uint64

	// Offset0 is the start of the compressed setup header stream (the
	// block-framed stream component E/F decode). Offset1 is the start of
	// the embedded-mode data stream (component H reads from here when
	// files are not split into external slices).
	Offset0 uint64
	Offset1 uint64
}

const (
	headerMagic       = 0x6f6e6e49 // "Inno" little-endian
	offsetTableMagic  = 0x506c4472 // "rDlP" little-endian
	legacyHeaderAt    = 0x30
	resourceLangNone  = 0
)

// Historical offset-table format identifiers, stored as an 8-byte magic
// immediately after the table's leading u32/u64 framing.
const (
	tableID10  = 0x7856658732305374
	tableID40  = 0x7856658734305374
	tableID40b = 0x7856658735305374
	tableID40c = 0x7856658736305374
	tableID41  = 0x7856658737305374
	tableID51  = 0x2a0b7bd7e6cd5374
)

// Find locates and decodes the offset table in r, trying the legacy
// fixed-offset locator first and falling back to the PE resource locator,
// matching SetupLoader::getOffsets's try-old-then-new order.
func Find(r io.ReaderAt) (Offsets, error) {
	if off, err := findLegacy(r); err == nil {
		return getOffsetsAt(r, off)
	}
	pos, _, err := peformat.FindResource(r, peformat.RTRCData, 11111, resourceLangNone)
	if err != nil {
		return Offsets{}, fmt.Errorf("loader: %w: %w", innoerr.ErrOffsetTableMissing, err)
	}
	return getOffsetsAt(r, uint64(pos))
}

func findLegacy(r io.ReaderAt) (uint64, error) {
	var buf [12]byte
	if _, err := r.ReadAt(buf[:], legacyHeaderAt); err != nil {
		return 0, fmt.Errorf("%w: %w", innoerr.ErrOffsetTableMissing, err)
	}
	id := binary.LittleEndian.Uint32(buf[0:4])
	if id != headerMagic {
		return 0, innoerr.ErrOffsetTableMissing
	}
	offsetTableOffset := binary.LittleEndian.Uint32(buf[4:8])
	notOffsetTableOffset := binary.LittleEndian.Uint32(buf[8:12])
	if offsetTableOffset != ^notOffsetTableOffset {
		return 0, innoerr.ErrOffsetTableMissing
	}
	return uint64(offsetTableOffset), nil
}

func getOffsetsAt(r io.ReaderAt, pos uint64) (Offsets, error) {
	var head [12]byte
	if _, err := r.ReadAt(head[:], int64(pos)); err != nil {
		return Offsets{}, fmt.Errorf("loader: reading offset table header: %w", err)
	}
	magic := binary.LittleEndian.Uint32(head[0:4])
	if magic != offsetTableMagic {
		return Offsets{}, fmt.Errorf("loader: %w", innoerr.ErrOffsetTableMissing)
	}
	bigVersion := binary.LittleEndian.Uint64(head[4:12])

	crcState := crc32.NewIEEE()
	crcState.Write(head[:])

	body := io.NewSectionReader(r, int64(pos)+12, 1<<20)

	switch bigVersion {
	case tableID10:
		return readTable10(body)
	case tableID40:
		return readTable40(body)
	case tableID40b:
		return readTable40b(body, false, crcState)
	case tableID40c:
		return readTable40b(body, true, crcState)
	case tableID41:
		return readTable41(body, crcState)
	case tableID51:
		return readTable51(body, crcState)
	default:
		return Offsets{}, fmt.Errorf("loader: %w: unrecognized table id %#x", innoerr.ErrOffsetTableMissing, bigVersion)
	}
}

func readTable10(r io.Reader) (Offsets, error) {
	var raw [32]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return Offsets{}, fmt.Errorf("loader: reading offset table (v10): %w", err)
	}
	le := binary.LittleEndian
	return Offsets{
		TotalSize:           uint64(le.Uint32(raw[0:4])),
		ExeOffset:           uint64(le.Uint32(raw[4:8])),
		ExeCompressedSize:   uint64(le.Uint32(raw[8:12])),
		ExeUncompressedSize: uint64(le.Uint32(raw[12:16])),
		ExeChecksum:         int32(le.Uint32(raw[16:20])),
		ExeChecksumMode:     ChecksumAdler32,
		MessageOffset:       uint64(le.Uint32(raw[20:24])),
		Offset0:             uint64(le.Uint32(raw[24:28])),
		Offset1:             uint64(le.Uint32(raw[28:32])),
	}, nil
}

func readTable40(r io.Reader) (Offsets, error) {
	var raw [28]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return Offsets{}, fmt.Errorf("loader: reading offset table (v40): %w", err)
	}
	le := binary.LittleEndian
	return Offsets{
		TotalSize:           uint64(le.Uint32(raw[0:4])),
		ExeOffset:           uint64(le.Uint32(raw[4:8])),
		ExeCompressedSize:   uint64(le.Uint32(raw[8:12])),
		ExeUncompressedSize: uint64(le.Uint32(raw[12:16])),
		ExeChecksum:         int32(le.Uint32(raw[16:20])),
		ExeChecksumMode:     ChecksumAdler32,
		Offset0:             uint64(le.Uint32(raw[20:24])),
		Offset1:             uint64(le.Uint32(raw[24:28])),
	}, nil
}

func readTable40b(r io.Reader, hasTableCRC bool, crcState hash.Hash32) (Offsets, error) {
	var raw [28]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return Offsets{}, fmt.Errorf("loader: reading offset table (v40b/40c): %w", err)
	}
	le := binary.LittleEndian
	off := Offsets{
		TotalSize:           uint64(le.Uint32(raw[0:4])),
		ExeOffset:           uint64(le.Uint32(raw[4:8])),
		ExeCompressedSize:   uint64(le.Uint32(raw[8:12])),
		ExeUncompressedSize: uint64(le.Uint32(raw[12:16])),
		ExeChecksum:         int32(le.Uint32(raw[16:20])),
		ExeChecksumMode:     ChecksumCRC32,
		Offset0:             uint64(le.Uint32(raw[20:24])),
		Offset1:             uint64(le.Uint32(raw[24:28])),
	}
	if !hasTableCRC {
		return off, nil
	}
	crcState.Write(raw[:])
	var tableCRC [4]byte
	if _, err := io.ReadFull(r, tableCRC[:]); err != nil {
		return Offsets{}, fmt.Errorf("loader: reading offset table CRC (v40c): %w", err)
	}
	if crcState.Sum32() != le.Uint32(tableCRC[:]) {
		return Offsets{}, innoerr.ErrOffsetTableChecksum
	}
	return off, nil
}

func readTable41(r io.Reader, crcState hash.Hash32) (Offsets, error) {
	var raw [24]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return Offsets{}, fmt.Errorf("loader: reading offset table (v41): %w", err)
	}
	le := binary.LittleEndian
	crcState.Write(raw[:])
	var tableCRC [4]byte
	if _, err := io.ReadFull(r, tableCRC[:]); err != nil {
		return Offsets{}, fmt.Errorf("loader: reading offset table CRC (v41): %w", err)
	}
	if crcState.Sum32() != le.Uint32(tableCRC[:]) {
		return Offsets{}, innoerr.ErrOffsetTableChecksum
	}
	return Offsets{
		TotalSize:           uint64(le.Uint32(raw[0:4])),
		ExeOffset:           uint64(le.Uint32(raw[4:8])),
		ExeUncompressedSize: uint64(le.Uint32(raw[8:12])),
		ExeChecksum:         int32(le.Uint32(raw[12:16])),
		ExeChecksumMode:     ChecksumCRC32,
		Offset0:             uint64(le.Uint32(raw[16:20])),
		Offset1:             uint64(le.Uint32(raw[20:24])),
	}, nil
}

func readTable51(r io.Reader, crcState hash.Hash32) (Offsets, error) {
	var raw [28]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return Offsets{}, fmt.Errorf("loader: reading offset table (v51): %w", err)
	}
	le := binary.LittleEndian
	crcState.Write(raw[:])
	var tableCRC [4]byte
	if _, err := io.ReadFull(r, tableCRC[:]); err != nil {
		return Offsets{}, fmt.Errorf("loader: reading offset table CRC (v51): %w", err)
	}
	if crcState.Sum32() != le.Uint32(tableCRC[:]) {
		return Offsets{}, innoerr.ErrOffsetTableChecksum
	}
	return Offsets{
		TotalSize:           uint64(le.Uint32(raw[4:8])),
		ExeOffset:           uint64(le.Uint32(raw[8:12])),
		ExeUncompressedSize: uint64(le.Uint32(raw[12:16])),
		ExeChecksum:         int32(le.Uint32(raw[16:20])),
		ExeChecksumMode:     ChecksumCRC32,
		Offset0:             uint64(le.Uint32(raw[20:24])),
		Offset1:             uint64(le.Uint32(raw[24:28])),
	}, nil
}
