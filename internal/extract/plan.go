package extract

import (
	"sort"

	"innoextract/internal/chunk"
	"innoextract/internal/setup"
)

// locationRef is one (file entry, location index) pair contributing bytes
// to a destination. A file entry with AdditionalLocations produces one ref
// per participating location, in order.
type locationRef struct {
	fileIndex int
	partIndex int // 0 for Location itself, 1+ for AdditionalLocations
	location  int
}

// plan groups every file-location entry actually referenced by a file
// entry into its owning chunk, and records which destinations each
// location feeds.
type plan struct {
	chunks []chunkPlan
}

type chunkPlan struct {
	key    chunk.Descriptor
	parts  []chunkPart
}

// chunkPart is one location's contribution within a chunk, plus the set of
// file entries (by index) that receive its decoded bytes.
type chunkPart struct {
	location setup.FileLocationEntry
	refs     []locationRef
}

func descriptorFor(loc setup.FileLocationEntry) chunk.Descriptor {
	comp := setup.CompressionStored
	if loc.Options&setup.LocationChunkCompressed != 0 {
		comp = setup.CompressionLZMA1 // resolved to the real method by the caller's header compression choice
	}
	enc := chunk.Plaintext
	if loc.Options&setup.LocationChunkEncrypted != 0 {
		enc = chunk.ARC4SHA1
	}
	return chunk.Descriptor{
		FirstSlice: loc.FirstSlice,
		Offset:     int64(loc.ChunkOffset),
		Size:       int64(loc.ChunkSize),

		Compression: comp,
		Encryption:  enc,
	}
}

// buildPlan groups the file-location entries referenced by files into
// per-chunk read passes, ordered the way the orchestrator must process
// them: ascending (first_slice, chunk_offset).
func buildPlan(files []setup.FileEntry, locations []setup.FileLocationEntry, headerCompression setup.CompressionMethod, headerEncryption chunk.Encryption) *plan {
	type chunkKey struct {
		chunk.Descriptor
	}

	groups := map[chunkKey]*chunkPlan{}
	var order []chunkKey
	// partIndexByLocation tracks, per chunk group, which slot in
	// chunkPlan.parts already holds a given location index — location
	// structs embed a Checksum whose Bytes slice makes the struct
	// itself non-comparable, so de-duplication goes through this
	// index map instead of an == check on the struct.
	partIndexByLocation := map[chunkKey]map[int]int{}

	addRef := func(locIdx, fileIdx, partIdx int) {
		if locIdx < 0 || locIdx >= len(locations) {
			return
		}
		loc := locations[locIdx]
		desc := descriptorFor(loc)
		if loc.Options&setup.LocationChunkCompressed != 0 {
			desc.Compression = headerCompression
		} else {
			desc.Compression = setup.CompressionStored
		}
		if loc.Options&setup.LocationChunkEncrypted != 0 {
			desc.Encryption = headerEncryption
		} else {
			desc.Encryption = chunk.Plaintext
		}

		key := chunkKey{desc}
		g, ok := groups[key]
		if !ok {
			g = &chunkPlan{key: desc}
			groups[key] = g
			order = append(order, key)
			partIndexByLocation[key] = map[int]int{}
		}

		ref := locationRef{fileIndex: fileIdx, partIndex: partIdx, location: locIdx}
		if slot, ok := partIndexByLocation[key][locIdx]; ok {
			g.parts[slot].refs = append(g.parts[slot].refs, ref)
			return
		}
		partIndexByLocation[key][locIdx] = len(g.parts)
		g.parts = append(g.parts, chunkPart{location: loc, refs: []locationRef{ref}})
	}

	for fi, f := range files {
		if f.Location >= 0 {
			addRef(f.Location, fi, 0)
		}
		for pi, loc := range f.AdditionalLocations {
			addRef(loc, fi, pi+1)
		}
	}

	sort.Slice(order, func(i, j int) bool {
		return order[i].Descriptor.Less(order[j].Descriptor)
	})

	p := &plan{}
	for _, key := range order {
		g := groups[key]
		sort.SliceStable(g.parts, func(i, j int) bool {
			return g.parts[i].location.FileOffset < g.parts[j].location.FileOffset
		})
		p.chunks = append(p.chunks, *g)
	}
	return p
}
