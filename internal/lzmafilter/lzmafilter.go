// Package lzmafilter adapts Inno Setup's short, non-standard LZMA1/LZMA2
// stream headers to github.com/ulikunitz/xz/lzma, which expects the classic
// 13-byte .lzma header (1 properties byte, 4-byte little-endian dictionary
// size, 8-byte little-endian uncompressed size). Inno's chunk header only
// carries 5 bytes (properties + dictionary size) and never records an
// uncompressed size, so the adapter synthesizes the remaining 8 bytes as
// the library's own "size unknown, read to end of stream" marker.
//
// Grounded on original_source/src/stream/lzma.cpp and
// github.com/ulikunitz/xz/lzma's header.go/reader.go (vendored copy under
// the jesseduffield-lazydocker example).
package lzmafilter

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// noSizeMarker is the 8-byte "unknown uncompressed size" trailer the
// classic .lzma header format uses (all bits set); ulikunitz/xz/lzma reads
// until the underlying reader hits EOF when it sees this value instead of
// treating it as a byte count.
var noSizeMarker = [8]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// NewLZMA1Reader wraps src, whose first 5 bytes are Inno's properties+dict
// header, in a classic LZMA1 decompressor. It reads the rest of src as raw
// LZMA1 compressed data with no uncompressed-size bound (the chunk or block
// reader already restricts src to the correct number of compressed bytes).
func NewLZMA1Reader(src io.Reader) (io.Reader, error) {
	var header [5]byte
	if _, err := io.ReadFull(src, header[:]); err != nil {
		return nil, fmt.Errorf("lzmafilter: reading inno lzma1 header: %w", err)
	}
	full := io.MultiReader(bytes.NewReader(header[:]), bytes.NewReader(noSizeMarker[:]), src)
	r, err := lzma.NewReader(full)
	if err != nil {
		return nil, fmt.Errorf("lzmafilter: constructing lzma1 reader: %w", err)
	}
	return r, nil
}

// dictSizeForDescriptor converts Inno's 1-byte LZMA2 dictionary size
// descriptor into a byte count, following the LZMA2 spec's formula: values
// 0-39 map to either (2 | (d&1)) << (d/2 + 11) for d>0, or 1<<12 for d==0,
// capped at 4 GiB - 1.
func dictSizeForDescriptor(d byte) uint32 {
	if d > 40 {
		d = 40
	}
	if d == 40 {
		return 0xFFFFFFFF
	}
	if d == 0 {
		return 1 << 12
	}
	bit := uint32(d&1) | 2
	shift := uint(d)/2 + 11
	return bit << shift
}

// NewLZMA2Reader wraps src, whose first byte is Inno's LZMA2 dictionary
// size descriptor, in an LZMA2 decompressor. LZMA2 framing already encodes
// chunk boundaries and uncompressed sizes internally, so unlike LZMA1 no
// synthetic size marker is required — only the dictionary capacity needs
// translating from Inno's compact descriptor to a byte count.
func NewLZMA2Reader(src io.Reader) (io.Reader, error) {
	var descriptor [1]byte
	if _, err := io.ReadFull(src, descriptor[:]); err != nil {
		return nil, fmt.Errorf("lzmafilter: reading inno lzma2 descriptor: %w", err)
	}
	cfg := lzma.Reader2Config{
		DictCap: int(dictSizeForDescriptor(descriptor[0])),
	}
	r, err := cfg.NewReader2(src)
	if err != nil {
		return nil, fmt.Errorf("lzmafilter: constructing lzma2 reader: %w", err)
	}
	return r, nil
}
