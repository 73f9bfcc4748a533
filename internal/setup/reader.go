package setup

import (
	"encoding/binary"
	"fmt"
	"io"

	"innoextract/internal/innoerr"
	"innoextract/internal/textenc"
)

// Reader decodes the compact, version-gated record encoding the setup
// header stream uses: length-prefixed strings (ANSI or UTF-16LE depending
// on the installer's Unicode-ness), packed booleans, and variable-width
// integers. It wraps the decompressed, block-reassembled header stream —
// never a raw file.
type Reader struct {
	r       io.Reader
	version Version
	codec   *textenc.Cache
	// codepage is the default codepage used for ansi_string fields until a
	// LanguageEntry supplies a per-language override (Inno Setup >= 4.2.1).
	codepage int
}

// NewReader constructs a Reader for decoding records encoded for version v,
// reading from r.
func NewReader(r io.Reader, v Version, codec *textenc.Cache) *Reader {
	return &Reader{r: r, version: v, codec: codec, codepage: textenc.DefaultANSICodepage}
}

// SetCodepage overrides the codepage used to decode subsequent ansi_string
// fields, called by the orchestrator once a LanguageEntry's own codepage is
// known.
func (r *Reader) SetCodepage(codepage int) {
	r.codepage = codepage
}

func (r *Reader) Version() Version { return r.version }

func (r *Reader) readFull(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, fmt.Errorf("setup: %w", innoerr.ErrTruncated)
		}
		return nil, fmt.Errorf("setup: %w", err)
	}
	return buf, nil
}

// Byte reads a single byte.
func (r *Reader) Byte() (byte, error) {
	b, err := r.readFull(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Bool reads a one-byte boolean (0 = false, nonzero = true).
func (r *Reader) Bool() (bool, error) {
	b, err := r.Byte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// Int32 reads a little-endian signed 32-bit integer.
func (r *Reader) Int32() (int32, error) {
	b, err := r.readFull(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

// UInt32 reads a little-endian unsigned 32-bit integer.
func (r *Reader) UInt32() (uint32, error) {
	b, err := r.readFull(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// UInt16 reads a little-endian unsigned 16-bit integer.
func (r *Reader) UInt16() (uint16, error) {
	b, err := r.readFull(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// Int64 reads a little-endian signed 64-bit integer.
func (r *Reader) Int64() (int64, error) {
	b, err := r.readFull(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

// count reads the variable-length element-count prefix used before lists of
// strings and array-valued fields: a single byte if < 0xFD, otherwise a
// marker byte followed by a wider integer, matching the original's
// TCompressedBlockReader::Read conventions for small versus large counts.
func (r *Reader) count() (int, error) {
	b, err := r.Byte()
	if err != nil {
		return 0, err
	}
	switch b {
	case 0xFD:
		v, err := r.UInt16()
		return int(v), err
	case 0xFE:
		v, err := r.UInt32()
		return int(v), err
	case 0xFF:
		return -1, nil // explicit "no value" marker, used by optional strings
	default:
		return int(b), nil
	}
}

// AnsiString reads a length-prefixed byte string and decodes it using the
// reader's current codepage.
func (r *Reader) AnsiString() (string, error) {
	n, err := r.count()
	if err != nil {
		return "", err
	}
	if n <= 0 {
		return "", nil
	}
	raw, err := r.readFull(n)
	if err != nil {
		return "", err
	}
	return r.codec.DecodeANSI(raw, r.codepage)
}

// UnicodeString reads a length-prefixed UTF-16LE string (length is in
// bytes, matching the original's on-disk encoding) and decodes it to UTF-8.
func (r *Reader) UnicodeString() (string, error) {
	n, err := r.count()
	if err != nil {
		return "", err
	}
	if n <= 0 {
		return "", nil
	}
	raw, err := r.readFull(n)
	if err != nil {
		return "", err
	}
	return textenc.DecodeUTF16LE(raw), nil
}

// String reads a string field, choosing the ANSI or Unicode encoding
// according to the stream's version.
func (r *Reader) String() (string, error) {
	if r.version.Unicode {
		return r.UnicodeString()
	}
	return r.AnsiString()
}

// Bytes reads a length-prefixed opaque byte blob (used for permission
// entries, the compiled script code, and the uninstaller signature).
func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.count()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	return r.readFull(n)
}

// FlagSet is a bitset of feature flags read as one bit per boolean field in
// a fixed, version-dependent sequence. Callers build it with
// Reader.ReadFlags and query members with Has.
type FlagSet uint64

// ReadFlags reads n sequential 1-byte booleans and packs them into a
// FlagSet, bit i set if the i-th boolean was true. This mirrors how
// SetupHeader's flags are actually stored on disk: one byte per flag, not a
// packed bitfield, despite being modeled as a bitset in memory.
func (r *Reader) ReadFlags(n int) (FlagSet, error) {
	var flags FlagSet
	for i := 0; i < n; i++ {
		v, err := r.Bool()
		if err != nil {
			return 0, err
		}
		if v {
			flags |= 1 << uint(i)
		}
	}
	return flags, nil
}

func (f FlagSet) Has(bit int) bool {
	return f&(1<<uint(bit)) != 0
}
