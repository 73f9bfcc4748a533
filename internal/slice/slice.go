// Package slice reads the (possibly multi-file) data stream that follows
// an installer's metadata: either appended directly to the setup
// executable ("embedded mode") or split across a family of sibling
// "-<disk><letter>.bin" files ("external mode").
//
// Grounded on original_source/src/stream/SliceReader.{hpp,cpp}.
package slice

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"innoextract/internal/innoerr"
)

var sliceMagics = [2][8]byte{
	{'i', 'd', 's', 'k', 'a', '1', '6', 0x1a},
	{'i', 'd', 's', 'k', 'a', '3', '2', 0x1a},
}

// Reader presents the concatenation of one or more slice files as a single
// forward-seekable byte stream.
//
// NewEmbedded builds a Reader in embedded mode; NewExternal builds one in
// external mode.
type Reader struct {
	mu sync.Mutex

	// Embedded mode.
	setupFile  *os.File
	dataOffset int64

	// External mode.
	setupDir, overrideDir string
	baseName              string
	slicesPerDisk         int

	current     *os.File
	currentIdx  int
	currentSize int64
	opened      bool
}

// NewEmbedded constructs a Reader for a single-file installer whose data
// begins at dataOffset within setupPath.
func NewEmbedded(setupPath string, dataOffset int64) (*Reader, error) {
	f, err := os.Open(setupPath)
	if err != nil {
		return nil, fmt.Errorf("slice: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("slice: %w", err)
	}
	return &Reader{
		setupFile:   f,
		dataOffset:  dataOffset,
		currentSize: info.Size() - dataOffset,
		opened:      true,
	}, nil
}

// NewExternal constructs a Reader for a multi-file installer. setupDir is
// the directory containing the installer itself (tried first);
// overrideDir, if non-empty, is tried second. baseName is the filename
// stem shared by every "-<disk><letter>.bin" slice.
func NewExternal(setupDir, overrideDir, baseName string, slicesPerDisk int) *Reader {
	if slicesPerDisk < 1 {
		slicesPerDisk = 1
	}
	return &Reader{
		setupDir:      setupDir,
		overrideDir:   overrideDir,
		baseName:      baseName,
		slicesPerDisk: slicesPerDisk,
	}
}

func (r *Reader) sliceFileName(slice int) string {
	if r.slicesPerDisk == 1 {
		return fmt.Sprintf("%s-%d.bin", r.baseName, slice+1)
	}
	major := slice/r.slicesPerDisk + 1
	minor := slice % r.slicesPerDisk
	return fmt.Sprintf("%s-%d%c.bin", r.baseName, major, byte('a')+byte(minor))
}

func (r *Reader) openExternal(idx int) error {
	if r.currentIdx == idx && r.opened {
		return nil
	}
	if r.current != nil {
		r.current.Close()
		r.current = nil
		r.opened = false
	}

	name := r.sliceFileName(idx)
	candidates := []string{filepath.Join(r.setupDir, name)}
	if r.overrideDir != "" && r.overrideDir != r.setupDir {
		candidates = append(candidates, filepath.Join(r.overrideDir, name))
	}

	var lastErr error
	for _, path := range candidates {
		f, err := os.Open(path)
		if err != nil {
			lastErr = err
			continue
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			lastErr = err
			continue
		}
		var magic [8]byte
		if _, err := io.ReadFull(f, magic[:]); err != nil {
			f.Close()
			lastErr = err
			continue
		}
		if magic != sliceMagics[0] && magic != sliceMagics[1] {
			f.Close()
			return fmt.Errorf("slice: %s: %w", path, innoerr.ErrSliceMagicBad)
		}
		var sizeBuf [4]byte
		if _, err := io.ReadFull(f, sizeBuf[:]); err != nil {
			f.Close()
			lastErr = err
			continue
		}
		size := int64(binary.LittleEndian.Uint32(sizeBuf[:]))
		if size > info.Size() {
			f.Close()
			return fmt.Errorf("slice: %s: %w", path, innoerr.ErrSliceSizeOverflow)
		}

		r.current = f
		r.currentIdx = idx
		r.currentSize = size
		r.opened = true
		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("slice: opening slice %d: %w: %v", idx, innoerr.ErrSliceMissing, lastErr)
	}
	return fmt.Errorf("slice: opening slice %d: %w", idx, innoerr.ErrSliceMissing)
}

// Seek positions the reader at offset bytes into the given slice index,
// opening that slice's backing file if necessary.
func (r *Reader) Seek(sliceIdx int, offset int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.setupFile != nil {
		if sliceIdx != 0 {
			return fmt.Errorf("slice: %w: cannot change slices in a single-file setup", innoerr.ErrSliceMissing)
		}
		if offset > r.currentSize {
			return fmt.Errorf("slice: %w", innoerr.ErrSliceSizeOverflow)
		}
		_, err := r.setupFile.Seek(r.dataOffset+offset, io.SeekStart)
		return err
	}

	if err := r.openExternal(sliceIdx); err != nil {
		return err
	}
	if offset > r.currentSize {
		return fmt.Errorf("slice: %w", innoerr.ErrSliceSizeOverflow)
	}
	sliceHeaderSize := int64(12) // 8-byte magic + 4-byte size
	_, err := r.current.Seek(sliceHeaderSize+offset, io.SeekStart)
	return err
}

// Read fills buf, transparently advancing across slice boundaries when the
// current slice is exhausted. It returns fewer bytes than len(buf) only at
// the very end of the logical stream.
func (r *Reader) Read(buf []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for len(buf) > 0 {
		f, remaining, err := r.currentFileAndRemaining()
		if err != nil {
			if total > 0 {
				return total, nil
			}
			return total, err
		}
		if remaining == 0 {
			next := r.currentIdx + 1
			if r.setupFile != nil {
				if total > 0 {
					return total, nil
				}
				return total, io.EOF
			}
			if err := r.openExternal(next); err != nil {
				if total > 0 {
					return total, nil
				}
				return total, err
			}
			if err := r.seekToSliceStart(); err != nil {
				return total, err
			}
			continue
		}

		toRead := int64(len(buf))
		if toRead > remaining {
			toRead = remaining
		}
		n, err := f.Read(buf[:toRead])
		total += n
		buf = buf[n:]
		if err != nil && err != io.EOF {
			return total, fmt.Errorf("slice: %w", err)
		}
		if n == 0 {
			return total, fmt.Errorf("slice: %w", innoerr.ErrTruncated)
		}
	}
	return total, nil
}

func (r *Reader) seekToSliceStart() error {
	if r.setupFile != nil {
		_, err := r.setupFile.Seek(r.dataOffset, io.SeekStart)
		return err
	}
	_, err := r.current.Seek(12, io.SeekStart)
	return err
}

func (r *Reader) currentFileAndRemaining() (*os.File, int64, error) {
	var f *os.File
	var base int64
	if r.setupFile != nil {
		f = r.setupFile
		base = r.dataOffset
	} else {
		if !r.opened {
			return nil, 0, fmt.Errorf("slice: %w", innoerr.ErrSliceMissing)
		}
		f = r.current
		base = 12
	}
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, err
	}
	remaining := (base + r.currentSize) - pos
	if remaining < 0 {
		remaining = 0
	}
	return f, remaining, nil
}

// Close releases any open slice file handle.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	if r.setupFile != nil {
		err = r.setupFile.Close()
	}
	if r.current != nil {
		if cerr := r.current.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
