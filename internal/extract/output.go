package extract

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"innoextract/internal/checksum"
)

// outputState names FileOutput's position in its lifecycle, mirroring
// spec.md's start -> open -> (write)* -> done diagram.
type outputState int

const (
	outputStart outputState = iota
	outputOpen
	outputDone
)

// fileOutput writes the decoded bytes of one destination file, across
// however many chunk reads contribute to it, and finalizes with an
// optional checksum comparison against the source's recorded digest.
type fileOutput struct {
	finalPath string
	tempPath  string
	collision CollisionPolicy

	state outputState
	f     *os.File

	wantChecksum checksum.Checksum
	hasher       *checksum.Hasher
}

// newFileOutput resolves destPath against opts' collision policy and
// temp-staging preference, but does not touch the filesystem yet — that
// happens on the first write, in open().
func newFileOutput(destPath string, want checksum.Checksum, opts Options) *fileOutput {
	o := &fileOutput{
		finalPath:    destPath,
		collision:    opts.Collisions,
		wantChecksum: want,
	}
	if want.Type != checksum.None {
		o.hasher = checksum.NewHasher(want.Type)
	}
	if opts.ExtractTemp {
		o.tempPath = filepath.Join(filepath.Dir(destPath), "."+filepath.Base(destPath)+"."+uuid.NewString()+".tmp")
	}
	return o
}

// open creates the destination (or its temp stand-in), applying the
// collision policy when finalPath already exists. Called lazily by the
// first write so files that end up with zero bytes still get created.
func (o *fileOutput) open() error {
	if o.state != outputStart {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(o.finalPath), 0o755); err != nil {
		return fmt.Errorf("extract: creating destination directory: %w", err)
	}

	path := o.finalPath
	if o.tempPath != "" {
		path = o.tempPath
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if o.tempPath == "" {
		switch o.collision {
		case CollisionError:
			flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
		case CollisionRename, CollisionRenameAll:
			if p, err := renamedPath(path, o.collision == CollisionRenameAll); err == nil {
				path = p
			} else if !os.IsNotExist(err) {
				return err
			}
		}
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("extract: opening %s: %w", path, err)
	}
	o.f = f
	if o.tempPath != "" {
		o.tempPath = path
	} else {
		o.finalPath = path
	}
	o.state = outputOpen
	return nil
}

// renamedPath finds a "name (N).ext" variant of path that does not exist
// yet. alwaysRenumber forces at least "(1)" even if path itself is free,
// matching CollisionRenameAll's "every collision gets a fresh numbered
// copy, never silently reuse slot 0" semantics.
func renamedPath(path string, alwaysRenumber bool) (string, error) {
	if !alwaysRenumber {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
	}
	ext := filepath.Ext(path)
	base := path[:len(path)-len(ext)]
	for n := 1; n < 10000; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("extract: could not find a free name for %s", path)
}

// write appends data to the destination, opening it on first use. It may
// be called many times as a multi-part file's chunks are read.
func (o *fileOutput) write(data []byte) error {
	if o.state == outputStart {
		if err := o.open(); err != nil {
			return err
		}
	}
	if len(data) == 0 {
		return nil
	}
	if o.hasher != nil {
		o.hasher.Write(data)
	}
	if _, err := o.f.Write(data); err != nil {
		return fmt.Errorf("extract: writing %s: %w", o.finalPath, err)
	}
	return nil
}

// closeResult reports the outcome of close(): whether a checksum was
// checked and whether it matched.
type closeResult struct {
	checksumChecked bool
	checksumOK      bool
}

// close finalizes the output: if nothing was ever written, open() runs
// now so zero-byte files are still created. It must run on every code
// path, including ones that abort mid-write, so the temp file (if any)
// either lands at its final name or gets cleaned up.
func (o *fileOutput) close(aborted bool) (closeResult, error) {
	if o.state == outputDone {
		return closeResult{}, nil
	}
	if o.state == outputStart {
		if err := o.open(); err != nil {
			return closeResult{}, err
		}
	}

	var res closeResult
	if o.hasher != nil && !aborted {
		res.checksumChecked = true
		res.checksumOK = o.hasher.Sum().Equal(o.wantChecksum)
	}

	closeErr := o.f.Close()
	o.state = outputDone

	if o.tempPath == "" {
		if closeErr != nil {
			return res, fmt.Errorf("extract: closing %s: %w", o.finalPath, closeErr)
		}
		return res, nil
	}

	if aborted || closeErr != nil {
		os.Remove(o.tempPath)
		if closeErr != nil {
			return res, fmt.Errorf("extract: closing %s: %w", o.tempPath, closeErr)
		}
		return res, nil
	}

	finalPath := o.finalPath
	if o.collision == CollisionRename || o.collision == CollisionRenameAll {
		if p, err := renamedPath(finalPath, o.collision == CollisionRenameAll); err == nil {
			finalPath = p
		}
	}
	if err := os.Rename(o.tempPath, finalPath); err != nil {
		return res, fmt.Errorf("extract: staging %s into place: %w", finalPath, err)
	}
	o.finalPath = finalPath
	return res, nil
}

var _ io.Writer = (*stagingWriter)(nil)

// stagingWriter adapts fileOutput.write to io.Writer so it can sit behind
// an io.Copy in the orchestrator's per-chunk loop.
type stagingWriter struct {
	out *fileOutput
}

func (w *stagingWriter) Write(p []byte) (int, error) {
	if err := w.out.write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}
