// Package chunk opens a decoded, decrypted, decompressed byte stream for
// one compressed chunk of installer data, given a slice reader and a chunk
// descriptor.
//
// Grounded on original_source/src/stream/chunk.cpp, plus this repository's
// XChaCha20 encryption mode (not present in the excerpted original source,
// added per the extraction pipeline's supplemented feature set).
package chunk

import (
	"bufio"
	"compress/bzip2"
	"compress/zlib"
	"crypto/cipher"
	"crypto/md5"
	"crypto/sha1"
	"fmt"
	"io"

	"innoextract/internal/cryptoutil"
	"innoextract/internal/innoerr"
	"innoextract/internal/lzmafilter"
	"innoextract/internal/setup"
	"innoextract/internal/slice"
	"innoextract/internal/streamfilter"
)

var magic = [4]byte{'z', 'l', 'b', 0x1a}

// Encryption identifies which stream cipher (if any) wraps a chunk's
// compressed payload.
type Encryption int

const (
	Plaintext Encryption = iota
	ARC4MD5
	ARC4SHA1
	XChaCha20
)

// Descriptor identifies one compressed chunk's location, size, and codec,
// derived from one or more FileLocationEntry records that share the same
// (first_slice, chunk_offset, chunk_size, compression, encryption) tuple.
//
// Grounded on original_source/src/stream/chunk.cpp's `chunk` struct
// (firstSlice/sortOffset/size/compression/encryption fields), adapted to
// this repository's naming.
type Descriptor struct {
	FirstSlice int
	Offset     int64
	Size       int64

	Compression setup.CompressionMethod
	Encryption  Encryption
}

// Less orders descriptors the way the original sorts file-location entries
// before grouping into chunk read passes: by slice, then by offset, then
// by size, then by codec.
func (c Descriptor) Less(o Descriptor) bool {
	if c.FirstSlice != o.FirstSlice {
		return c.FirstSlice < o.FirstSlice
	}
	if c.Offset != o.Offset {
		return c.Offset < o.Offset
	}
	if c.Size != o.Size {
		return c.Size < o.Size
	}
	if c.Compression != o.Compression {
		return c.Compression < o.Compression
	}
	return c.Encryption < o.Encryption
}

// KeyMaterial carries whatever password-derived secrets a caller has
// available to decrypt encrypted chunks. Password is the raw password
// bytes used by the legacy ARC4 modes; XChaCha20Params, if Used is true,
// supplies the PBKDF2 parameters the setup header recorded for the
// XChaCha20 mode.
type KeyMaterial struct {
	Password string

	XChaCha20Params struct {
		Used       bool
		Salt       []byte
		Iterations int
	}
}

// Open seeks the slice reader to the chunk's start, validates the chunk
// magic, and returns a reader presenting the chunk's decrypted,
// decompressed payload.
//
// c.Size is the on-disk size of the chunk's encrypted/compressed bytes
// (following the magic and, for encrypted chunks, the salt or nonce), not
// the decompressed size. Restrict must bound reads from the raw shared
// slice source at that layer, since the slice stream is shared across many
// chunks and a decompressor given an unbounded reader would keep consuming
// bytes belonging to the next chunk. Decryption and decompression are
// applied on top of the restricted reader, unbounded, the way
// chunk_reader::get() pushes restrict(base, chunk.size) last onto a
// boost::iostreams chain, which in push order means it sits closest to the
// raw source with every other filter reading through it.
func Open(slices *slice.Reader, c Descriptor, key KeyMaterial) (io.Reader, error) {
	if err := slices.Seek(c.FirstSlice, c.Offset); err != nil {
		return nil, fmt.Errorf("chunk: seeking to chunk start: %w", err)
	}

	var got [4]byte
	if _, err := io.ReadFull(slices, got[:]); err != nil {
		return nil, fmt.Errorf("chunk: %w", innoerr.ErrTruncated)
	}
	if got != magic {
		return nil, fmt.Errorf("chunk: %w", innoerr.ErrChunkMagic)
	}

	var stream cipher.Stream

	switch c.Encryption {
	case Plaintext:
	case ARC4MD5, ARC4SHA1:
		if key.Password == "" {
			return nil, fmt.Errorf("chunk: %w", innoerr.ErrCryptoNotBuilt)
		}
		var salt [8]byte
		if _, err := io.ReadFull(slices, salt[:]); err != nil {
			return nil, fmt.Errorf("chunk: reading salt: %w", innoerr.ErrTruncated)
		}
		var derivedKey []byte
		if c.Encryption == ARC4SHA1 {
			h := sha1.New()
			h.Write(salt[:])
			h.Write([]byte(key.Password))
			derivedKey = h.Sum(nil)
		} else {
			h := md5.New()
			h.Write(salt[:])
			h.Write([]byte(key.Password))
			derivedKey = h.Sum(nil)
		}
		s, err := cryptoutil.NewARC4Stream(derivedKey)
		if err != nil {
			return nil, fmt.Errorf("chunk: %w", err)
		}
		stream = s
	case XChaCha20:
		if !key.XChaCha20Params.Used {
			return nil, fmt.Errorf("chunk: %w", innoerr.ErrCryptoNotBuilt)
		}
		var nonce [24]byte
		if _, err := io.ReadFull(slices, nonce[:]); err != nil {
			return nil, fmt.Errorf("chunk: reading nonce: %w", innoerr.ErrTruncated)
		}
		derivedKey := cryptoutil.DeriveXChaCha20Key([]byte(key.Password), key.XChaCha20Params.Salt, key.XChaCha20Params.Iterations)
		s, err := cryptoutil.NewXChaCha20Stream(derivedKey, nonce[:])
		if err != nil {
			return nil, fmt.Errorf("chunk: %w", err)
		}
		stream = s
	default:
		return nil, fmt.Errorf("chunk: %w", innoerr.ErrDecompressorFormat)
	}

	var src io.Reader = streamfilter.NewRestrict(slices, c.Size)

	if stream != nil {
		src = &cipherStreamReader{src: src, stream: stream}
	}

	switch c.Compression {
	case setup.CompressionStored:
	case setup.CompressionZlib:
		zr, err := zlib.NewReader(bufio.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("chunk: %w", err)
		}
		src = zr
	case setup.CompressionBZip2:
		src = bzip2.NewReader(src)
	case setup.CompressionLZMA1:
		r, err := lzmafilter.NewLZMA1Reader(src)
		if err != nil {
			return nil, err
		}
		src = r
	case setup.CompressionLZMA2:
		r, err := lzmafilter.NewLZMA2Reader(src)
		if err != nil {
			return nil, err
		}
		src = r
	default:
		return nil, fmt.Errorf("chunk: %w", innoerr.ErrDecompressorFormat)
	}

	return src, nil
}

// cipherStreamReader wraps any crypto/cipher.Stream (rc4.Cipher and
// chacha20.Cipher both satisfy it) as an io.Reader that decrypts in place.
type cipherStreamReader struct {
	src    io.Reader
	stream cipher.Stream
}

func (c *cipherStreamReader) Read(p []byte) (int, error) {
	n, err := c.src.Read(p)
	if n > 0 {
		c.stream.XORKeyStream(p[:n], p[:n])
	}
	return n, err
}
