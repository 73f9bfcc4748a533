// Package block decodes the framed, optionally compressed stream that
// carries the setup header and file-location metadata blocks.
//
// Grounded on original_source/src/stream/block.cpp.
package block

import (
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"innoextract/internal/innoerr"
	"innoextract/internal/lzmafilter"
	"innoextract/internal/setup"
	"innoextract/internal/streamfilter"
)

const frameSize = 4096

// compression identifies which decompressor sits atop the frame reader.
type compression int

const (
	stored compression = iota
	zlibCompressed
	lzma1
)

// Open decodes the block header at the current position of base and
// returns a reader over the concatenated, decompressed frame payloads, plus
// the total number of bytes base occupies for this block (header fields
// plus the framed, still-compressed body). base must be positioned exactly
// at the start of the block (the outer checksum word).
//
// A caller chaining a second Open call on the same base (file header block,
// then file-location block) should seek base forward by the returned size
// rather than trust the decompressor to have consumed every byte itself:
// a decoder that hits its own end-of-stream marker early can leave trailing
// frame padding unread.
func Open(base io.Reader, v setup.Version) (io.Reader, int64, error) {
	var headerLen int64 = 4
	var expected [4]byte
	if _, err := io.ReadFull(base, expected[:]); err != nil {
		return nil, 0, fmt.Errorf("block: %w", innoerr.ErrTruncated)
	}
	expectedChecksum := binary.LittleEndian.Uint32(expected[:])

	crc := crc32.NewIEEE()
	tee := io.TeeReader(base, crc)

	var storedSize uint32
	var comp compression

	if v.AtLeast(4, 0, 9, 0) {
		var buf [5]byte
		if _, err := io.ReadFull(tee, buf[:]); err != nil {
			return nil, 0, fmt.Errorf("block: %w", innoerr.ErrTruncated)
		}
		headerLen += int64(len(buf))
		storedSize = binary.LittleEndian.Uint32(buf[:4])
		compressed := buf[4] != 0
		switch {
		case !compressed:
			comp = stored
		case v.AtLeast(4, 1, 6, 0):
			comp = lzma1
		default:
			comp = zlibCompressed
		}
	} else {
		var buf [8]byte
		if _, err := io.ReadFull(tee, buf[:]); err != nil {
			return nil, 0, fmt.Errorf("block: %w", innoerr.ErrTruncated)
		}
		headerLen += int64(len(buf))
		compressedSize := binary.LittleEndian.Uint32(buf[:4])
		uncompressedSize := binary.LittleEndian.Uint32(buf[4:])
		if compressedSize == 0xFFFFFFFF {
			storedSize, comp = uncompressedSize, stored
		} else {
			storedSize, comp = compressedSize, zlibCompressed
		}
		storedSize += uint32(ceilDiv(uint64(storedSize), frameSize)) * 4
	}

	if crc.Sum32() != expectedChecksum {
		return nil, 0, fmt.Errorf("block: %w", innoerr.ErrBlockHeader)
	}

	totalSize := headerLen + int64(storedSize)
	restricted := streamfilter.NewRestrict(base, int64(storedSize))
	framed := newFrameReader(restricted)

	switch comp {
	case stored:
		return framed, totalSize, nil
	case zlibCompressed:
		zr, err := zlib.NewReader(framed)
		if err != nil {
			return nil, 0, fmt.Errorf("block: %w", err)
		}
		return zr, totalSize, nil
	case lzma1:
		r, err := lzmafilter.NewLZMA1Reader(framed)
		if err != nil {
			return nil, 0, err
		}
		return r, totalSize, nil
	default:
		return nil, 0, fmt.Errorf("block: %w", innoerr.ErrDecompressorFormat)
	}
}

func ceilDiv(a, b uint64) uint64 {
	return (a + b - 1) / b
}

// frameReader reassembles the sequence of 4096-byte frames, each preceded
// by a 32-bit CRC over that frame's payload, that a restricted block
// stream is laid out as. The final frame may be short.
type frameReader struct {
	src         io.Reader
	buf         [frameSize]byte
	pos, length int
	err         error
}

func newFrameReader(src io.Reader) *frameReader {
	return &frameReader{src: src}
}

func (f *frameReader) Read(p []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	total := 0
	for len(p) > 0 {
		if f.pos == f.length {
			if !f.readFrame() {
				if total > 0 {
					return total, nil
				}
				return 0, f.err
			}
		}
		n := copy(p, f.buf[f.pos:f.length])
		f.pos += n
		p = p[n:]
		total += n
	}
	return total, nil
}

func (f *frameReader) readFrame() bool {
	var crcBytes [4]byte
	n, err := io.ReadFull(f.src, crcBytes[:])
	if err == io.EOF && n == 0 {
		f.err = io.EOF
		return false
	}
	if err != nil {
		f.err = fmt.Errorf("block: %w", innoerr.ErrTruncated)
		return false
	}
	wantCRC := binary.LittleEndian.Uint32(crcBytes[:])

	length, err := io.ReadFull(f.src, f.buf[:])
	if err != nil && err != io.ErrUnexpectedEOF {
		f.err = fmt.Errorf("block: %w", err)
		return false
	}

	actual := crc32.ChecksumIEEE(f.buf[:length])
	if actual != wantCRC {
		f.err = fmt.Errorf("block: %w", innoerr.ErrBlockChecksum)
		return false
	}

	f.pos, f.length = 0, length
	return true
}
