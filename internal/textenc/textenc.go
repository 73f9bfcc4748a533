// Package textenc converts the two string encodings Inno Setup's setup
// data uses into UTF-8: legacy "ansi_string" entries tagged with a Windows
// codepage, and "unicode_string" entries stored as UTF-16LE.
//
// Grounded on original_source/src/util/encoding.cpp and the REDESIGN FLAGS
// note in spec.md about avoiding global streaming-conversion state: the
// Converter cache here is keyed per codepage and owned by the caller
// (typically one per setup.Version), never a package-level global.
package textenc

import (
	"sync"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// DefaultANSICodepage is the codepage ansi_string fields use when a setup
// predates per-language codepage records (Inno Setup < 4.2.1), matching
// Windows-1252 Western European.
const DefaultANSICodepage = 1252

// codepageEncodings maps the Windows codepage identifiers Inno's language
// tables actually emit to golang.org/x/text encodings. Codepages outside
// this table fall back to Windows-1252.
var codepageEncodings = map[int]encoding.Encoding{
	874:   charmap.Windows874,
	932:   japanese.ShiftJIS,
	936:   simplifiedchinese.GBK,
	949:   korean.EUCKR,
	950:   traditionalchinese.Big5,
	1250:  charmap.Windows1250,
	1251:  charmap.Windows1251,
	1252:  charmap.Windows1252,
	1253:  charmap.Windows1253,
	1254:  charmap.Windows1254,
	1255:  charmap.Windows1255,
	1256:  charmap.Windows1256,
	1257:  charmap.Windows1257,
	1258:  charmap.Windows1258,
}

// Cache resolves Windows codepages to decoders, memoizing one decoder per
// codepage it has seen. Zero value is ready to use; not safe to share across
// goroutines without external synchronization beyond what its internal
// mutex already provides (concurrent Decode calls are fine).
type Cache struct {
	mu       sync.Mutex
	decoders map[int]*encoding.Decoder
}

// NewCache returns a ready-to-use, empty Cache.
func NewCache() *Cache {
	return &Cache{decoders: make(map[int]*encoding.Decoder)}
}

func (c *Cache) decoderFor(codepage int) *encoding.Decoder {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.decoders[codepage]; ok {
		return d
	}
	enc, ok := codepageEncodings[codepage]
	if !ok {
		enc = charmap.Windows1252
	}
	if c.decoders == nil {
		c.decoders = make(map[int]*encoding.Decoder)
	}
	d := enc.NewDecoder()
	c.decoders[codepage] = d
	return d
}

// DecodeANSI converts raw bytes in the given Windows codepage to a UTF-8
// string. An unrecognized codepage decodes as Windows-1252, matching the
// original's fallback behavior for codepages it doesn't special-case.
func (c *Cache) DecodeANSI(raw []byte, codepage int) (string, error) {
	out, err := c.decoderFor(codepage).Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// EncodeUTF16LE converts a UTF-8 string to raw UTF-16LE bytes, the inverse
// of DecodeUTF16LE. Used to reproduce the byte form Inno Setup hashes a
// password as, since the setup header's password digest covers the
// password's UTF-16LE encoding rather than its ANSI or UTF-8 bytes.
func EncodeUTF16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, len(units)*2)
	for i, u := range units {
		buf[2*i] = byte(u)
		buf[2*i+1] = byte(u >> 8)
	}
	return buf
}

// DecodeUTF16LE converts raw UTF-16LE bytes (as used by unicode_string
// fields) to UTF-8, preserving unpaired surrogates as WTF-8 rather than
// replacing them with U+FFFD — Inno installers have been observed to carry
// mis-encoded strings with lone surrogates, and innoextract's own output
// must round-trip them losslessly.
func DecodeUTF16LE(raw []byte) string {
	if len(raw)%2 != 0 {
		raw = raw[:len(raw)-1]
	}
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
	}

	var buf []byte
	for i := 0; i < len(units); i++ {
		r := units[i]
		switch {
		case r < 0xD800 || r > 0xDFFF:
			buf = utf8.AppendRune(buf, rune(r))
		case r >= 0xD800 && r <= 0xDBFF && i+1 < len(units) && units[i+1] >= 0xDC00 && units[i+1] <= 0xDFFF:
			buf = utf8.AppendRune(buf, utf16.DecodeRune(rune(r), rune(units[i+1])))
			i++
		default:
			// Lone surrogate: encode as WTF-8 (a 3-byte UTF-8-shaped
			// sequence for a codepoint in the surrogate range) instead
			// of U+FFFD, so the bytes survive a later round trip.
			buf = append(buf, byte(0xE0|(r>>12)), byte(0x80|((r>>6)&0x3F)), byte(0x80|(r&0x3F)))
		}
	}
	return string(buf)
}
