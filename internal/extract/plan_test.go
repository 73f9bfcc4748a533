package extract

import (
	"testing"

	"innoextract/internal/chunk"
	"innoextract/internal/setup"
)

func TestBuildPlanGroupsSharedChunk(t *testing.T) {
	locations := []setup.FileLocationEntry{
		{FirstSlice: 0, ChunkOffset: 100, ChunkSize: 500, FileOffset: 0, FileSize: 50, Options: setup.LocationChunkCompressed},
		{FirstSlice: 0, ChunkOffset: 100, ChunkSize: 500, FileOffset: 50, FileSize: 80, Options: setup.LocationChunkCompressed},
	}
	files := []setup.FileEntry{
		{Location: 0, Destination: "a.txt"},
		{Location: 1, Destination: "b.txt"},
		{Location: -1, Destination: "metadata-only.txt"},
	}

	p := buildPlan(files, locations, setup.CompressionZlib, chunk.ARC4SHA1)

	if len(p.chunks) != 1 {
		t.Fatalf("expected 1 chunk group, got %d", len(p.chunks))
	}
	cp := p.chunks[0]
	if cp.key.Compression != setup.CompressionZlib {
		t.Errorf("expected group compression resolved from header, got %v", cp.key.Compression)
	}
	if len(cp.parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(cp.parts))
	}
	if cp.parts[0].location.FileOffset != 0 || cp.parts[1].location.FileOffset != 50 {
		t.Error("expected parts ordered ascending by FileOffset")
	}
	if len(cp.parts[0].refs) != 1 || cp.parts[0].refs[0].fileIndex != 0 {
		t.Errorf("unexpected refs for first part: %+v", cp.parts[0].refs)
	}
	if len(cp.parts[1].refs) != 1 || cp.parts[1].refs[0].fileIndex != 1 {
		t.Errorf("unexpected refs for second part: %+v", cp.parts[1].refs)
	}
}

func TestBuildPlanDeduplicatesSharedLocation(t *testing.T) {
	locations := []setup.FileLocationEntry{
		{FirstSlice: 0, ChunkOffset: 0, ChunkSize: 10, FileOffset: 0, FileSize: 10},
	}
	files := []setup.FileEntry{
		{Location: 0, Destination: "a.txt"},
		{Location: 0, Destination: "b.txt"},
	}

	p := buildPlan(files, locations, setup.CompressionStored, chunk.Plaintext)

	if len(p.chunks) != 1 || len(p.chunks[0].parts) != 1 {
		t.Fatalf("expected one chunk with one part, got chunks=%d parts=%v", len(p.chunks), p.chunks)
	}
	refs := p.chunks[0].parts[0].refs
	if len(refs) != 2 {
		t.Fatalf("expected both file entries referencing the shared location, got %d refs", len(refs))
	}
}

func TestBuildPlanOrdersChunksByFirstSliceThenOffset(t *testing.T) {
	locations := []setup.FileLocationEntry{
		{FirstSlice: 1, ChunkOffset: 0, ChunkSize: 10, FileOffset: 0, FileSize: 10},
		{FirstSlice: 0, ChunkOffset: 200, ChunkSize: 10, FileOffset: 0, FileSize: 10},
		{FirstSlice: 0, ChunkOffset: 100, ChunkSize: 10, FileOffset: 0, FileSize: 10},
	}
	files := []setup.FileEntry{
		{Location: 0, Destination: "a.txt"},
		{Location: 1, Destination: "b.txt"},
		{Location: 2, Destination: "c.txt"},
	}

	p := buildPlan(files, locations, setup.CompressionStored, chunk.Plaintext)

	if len(p.chunks) != 3 {
		t.Fatalf("expected 3 distinct chunk groups, got %d", len(p.chunks))
	}
	if p.chunks[0].key.FirstSlice != 0 || p.chunks[0].key.Offset != 100 {
		t.Errorf("expected slice 0 offset 100 first, got %+v", p.chunks[0].key)
	}
	if p.chunks[1].key.FirstSlice != 0 || p.chunks[1].key.Offset != 200 {
		t.Errorf("expected slice 0 offset 200 second, got %+v", p.chunks[1].key)
	}
	if p.chunks[2].key.FirstSlice != 1 {
		t.Errorf("expected slice 1 last, got %+v", p.chunks[2].key)
	}
}

func TestBuildPlanUncompressedUnencryptedDescriptor(t *testing.T) {
	locations := []setup.FileLocationEntry{
		{FirstSlice: 0, ChunkOffset: 0, ChunkSize: 10, FileOffset: 0, FileSize: 10},
	}
	files := []setup.FileEntry{{Location: 0, Destination: "a.txt"}}

	p := buildPlan(files, locations, setup.CompressionLZMA1, chunk.ARC4SHA1)

	if len(p.chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(p.chunks))
	}
	key := p.chunks[0].key
	if key.Compression != setup.CompressionStored {
		t.Errorf("expected uncompressed location to stay Stored regardless of header method, got %v", key.Compression)
	}
	if key.Encryption != chunk.Plaintext {
		t.Errorf("expected unencrypted location to stay Plaintext regardless of header encryption, got %v", key.Encryption)
	}
}

func TestBuildPlanIgnoresLocationlessEntries(t *testing.T) {
	p := buildPlan([]setup.FileEntry{{Location: -1, Destination: "dir-only"}}, nil, setup.CompressionStored, chunk.Plaintext)
	if len(p.chunks) != 0 {
		t.Errorf("expected no chunk groups for an entry with no location, got %d", len(p.chunks))
	}
}
