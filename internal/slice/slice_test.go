package slice

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeExternalSlice(t *testing.T, dir, name string, payload []byte) {
	t.Helper()
	var buf []byte
	buf = append(buf, sliceMagics[1][:]...)
	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(len(payload)))
	buf = append(buf, sizeBuf[:]...)
	buf = append(buf, payload...)
	if err := os.WriteFile(filepath.Join(dir, name), buf, 0o644); err != nil {
		t.Fatalf("writing slice %s: %v", name, err)
	}
}

func TestEmbeddedReadAndSeek(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "setup.exe")
	header := []byte("not-data-here")
	payload := []byte("the embedded data payload")
	if err := os.WriteFile(path, append(append([]byte{}, header...), payload...), 0o644); err != nil {
		t.Fatalf("writing installer: %v", err)
	}

	r, err := NewEmbedded(path, int64(len(header)))
	if err != nil {
		t.Fatalf("NewEmbedded: %v", err)
	}
	defer r.Close()

	if err := r.Seek(0, 0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	got := make([]byte, len(payload))
	n, err := io.ReadFull(r, got)
	if err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if n != len(payload) || string(got) != string(payload) {
		t.Errorf("got %q, want %q", got, payload)
	}

	if err := r.Seek(1, 0); err == nil {
		t.Error("expected an error seeking to a non-zero slice in embedded mode")
	}
}

func TestExternalSingleSliceReadAndSeek(t *testing.T) {
	dir := t.TempDir()
	payload := []byte("external slice contents")
	writeExternalSlice(t, dir, "setup-1.bin", payload)

	r := NewExternal(dir, "", "setup", 1)
	defer r.Close()

	if err := r.Seek(0, 5); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	got := make([]byte, len(payload)-5)
	if _, err := io.ReadFull(r, got); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if string(got) != string(payload[5:]) {
		t.Errorf("got %q, want %q", got, payload[5:])
	}
}

func TestExternalReadCrossesSliceBoundary(t *testing.T) {
	dir := t.TempDir()
	first := []byte("first slice bytes")
	second := []byte("second slice bytes")
	writeExternalSlice(t, dir, "setup-1.bin", first)
	writeExternalSlice(t, dir, "setup-2.bin", second)

	r := NewExternal(dir, "", "setup", 1)
	defer r.Close()

	if err := r.Seek(0, 0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	total := len(first) + len(second)
	got := make([]byte, total)
	n, err := io.ReadFull(r, got)
	if err != nil {
		t.Fatalf("ReadFull across boundary: %v", err)
	}
	if n != total {
		t.Fatalf("got %d bytes, want %d", n, total)
	}
	want := append(append([]byte{}, first...), second...)
	if string(got) != string(want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExternalOverrideDirFallback(t *testing.T) {
	setupDir := t.TempDir()
	overrideDir := t.TempDir()
	payload := []byte("from override dir")
	writeExternalSlice(t, overrideDir, "setup-1.bin", payload)

	r := NewExternal(setupDir, overrideDir, "setup", 1)
	defer r.Close()

	if err := r.Seek(0, 0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	got := make([]byte, len(payload))
	if _, err := io.ReadFull(r, got); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("got %q, want %q", got, payload)
	}
}

func TestExternalMissingSlice(t *testing.T) {
	dir := t.TempDir()
	r := NewExternal(dir, "", "setup", 1)
	defer r.Close()

	if err := r.Seek(0, 0); err == nil {
		t.Error("expected an error seeking into a missing slice file")
	}
}

func TestExternalBadMagic(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "setup-1.bin"), []byte("not a valid slice header at all"), 0o644); err != nil {
		t.Fatalf("writing bad slice: %v", err)
	}

	r := NewExternal(dir, "", "setup", 1)
	defer r.Close()

	if err := r.Seek(0, 0); err == nil {
		t.Error("expected an error for a slice file with a bad magic")
	}
}

func TestSliceFileNameMultiPerDisk(t *testing.T) {
	r := NewExternal("dir", "", "setup", 3)
	tests := []struct {
		idx  int
		want string
	}{
		{0, "setup-1a.bin"},
		{1, "setup-1b.bin"},
		{2, "setup-1c.bin"},
		{3, "setup-2a.bin"},
	}
	for _, tc := range tests {
		if got := r.sliceFileName(tc.idx); got != tc.want {
			t.Errorf("sliceFileName(%d) = %q, want %q", tc.idx, got, tc.want)
		}
	}
}
