// Package streamfilter provides small io.Reader composition helpers used to
// build the per-file extraction pipeline: bounding a shared chunk stream to
// one file's byte range, and tapping bytes through a running checksum as
// they're read.
//
// Grounded on original_source/src/stream/{restrict.hpp,checksum.hpp}.
package streamfilter

import (
	"io"

	"innoextract/internal/checksum"
)

// Restrict wraps source so that reads past limit bytes return io.EOF, even
// if source itself has more data. It never reads ahead past limit.
type Restrict struct {
	source    io.Reader
	remaining int64
}

// NewRestrict returns a Reader that yields at most limit bytes from source.
func NewRestrict(source io.Reader, limit int64) *Restrict {
	return &Restrict{source: source, remaining: limit}
}

func (r *Restrict) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > r.remaining {
		p = p[:r.remaining]
	}
	n, err := r.source.Read(p)
	r.remaining -= int64(n)
	return n, err
}

// ChecksumTap reads through source, feeding every byte seen into a Hasher.
// Sum may be called at any point, including after EOF, to retrieve the
// digest of everything read so far; calling it multiple times is safe and
// returns the same value as long as no further reads occurred in between.
type ChecksumTap struct {
	source io.Reader
	hasher *checksum.Hasher
}

// NewChecksumTap wraps source, hashing every byte read through it with h.
func NewChecksumTap(source io.Reader, h *checksum.Hasher) *ChecksumTap {
	return &ChecksumTap{source: source, hasher: h}
}

func (c *ChecksumTap) Read(p []byte) (int, error) {
	n, err := c.source.Read(p)
	if n > 0 {
		c.hasher.Write(p[:n])
	}
	return n, err
}

// Sum returns the checksum of every byte read through the tap so far.
func (c *ChecksumTap) Sum() checksum.Checksum {
	return c.hasher.Sum()
}
