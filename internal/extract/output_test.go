package extract

import (
	"os"
	"path/filepath"
	"testing"

	"innoextract/internal/checksum"
)

func TestFileOutputWriteAndClose(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "sub", "out.txt")

	sum := checksum.CRC32Bytes([]byte("hello world"))
	want := checksum.Checksum{Type: checksum.CRC32, Bytes: []byte{byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum)}}

	o := newFileOutput(dest, want, Options{})
	if err := o.write([]byte("hello ")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := o.write([]byte("world")); err != nil {
		t.Fatalf("write: %v", err)
	}
	res, err := o.close(false)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !res.checksumChecked || !res.checksumOK {
		t.Errorf("expected checksum to be checked and match, got %+v", res)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(got) != "hello world" {
		t.Errorf("got %q, want %q", got, "hello world")
	}
}

func TestFileOutputChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.txt")

	want := checksum.Checksum{Type: checksum.CRC32, Bytes: []byte{0, 0, 0, 0}}
	o := newFileOutput(dest, want, Options{})
	if err := o.write([]byte("data")); err != nil {
		t.Fatalf("write: %v", err)
	}
	res, err := o.close(false)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !res.checksumChecked {
		t.Fatal("expected checksum to be checked")
	}
	if res.checksumOK {
		t.Error("expected checksum mismatch to be reported")
	}
}

func TestFileOutputZeroByteFileStillCreated(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "empty.txt")

	o := newFileOutput(dest, checksum.Checksum{}, Options{})
	if _, err := o.close(false); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("expected zero-byte file to exist: %v", err)
	}
}

func TestFileOutputAbortedRemovesTemp(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.txt")

	o := newFileOutput(dest, checksum.Checksum{}, Options{ExtractTemp: true})
	if err := o.write([]byte("partial")); err != nil {
		t.Fatalf("write: %v", err)
	}
	tempPath := o.tempPath
	if _, err := os.Stat(tempPath); err != nil {
		t.Fatalf("expected temp file to exist mid-write: %v", err)
	}

	if _, err := o.close(true); err != nil {
		t.Fatalf("close(aborted): %v", err)
	}
	if _, err := os.Stat(tempPath); !os.IsNotExist(err) {
		t.Error("expected aborted close to remove the temp file")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("expected aborted close to never produce the final file")
	}
}

func TestFileOutputCollisionRename(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(dest, []byte("existing"), 0o644); err != nil {
		t.Fatalf("seed existing file: %v", err)
	}

	o := newFileOutput(dest, checksum.Checksum{}, Options{Collisions: CollisionRename})
	if err := o.write([]byte("new")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := o.close(false); err != nil {
		t.Fatalf("close: %v", err)
	}

	renamed := filepath.Join(dir, "out (1).txt")
	got, err := os.ReadFile(renamed)
	if err != nil {
		t.Fatalf("expected renamed file %s to exist: %v", renamed, err)
	}
	if string(got) != "new" {
		t.Errorf("got %q, want %q", got, "new")
	}
	original, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading original: %v", err)
	}
	if string(original) != "existing" {
		t.Errorf("expected original file untouched, got %q", original)
	}
}

func TestFileOutputCollisionError(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(dest, []byte("existing"), 0o644); err != nil {
		t.Fatalf("seed existing file: %v", err)
	}

	o := newFileOutput(dest, checksum.Checksum{}, Options{Collisions: CollisionError})
	if err := o.write([]byte("new")); err == nil {
		t.Error("expected write to fail opening an existing destination under CollisionError")
	}
}

func TestStagingWriterWrite(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.txt")
	o := newFileOutput(dest, checksum.Checksum{}, Options{})
	w := &stagingWriter{out: o}

	n, err := w.Write([]byte("abc"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 3 {
		t.Errorf("got n=%d, want 3", n)
	}
	if _, err := o.close(false); err != nil {
		t.Fatalf("close: %v", err)
	}
}
