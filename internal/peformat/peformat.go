// Package peformat locates the resource Inno Setup's installer stub embeds
// its offset table in: PE/COFF resource ID 11111 of type RT_RCDATA (10)
// under the neutral language (0). It implements just enough of the PE
// format to walk the resource directory tree and resolve an RVA to a file
// offset — not a general-purpose PE parser.
//
// Grounded on original_source/ExeFormat.h and
// original_source/src/loader/ExeReader.cpp.
package peformat

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrNotPE means the file lacks a valid MZ/PE signature pair.
var ErrNotPE = errors.New("peformat: not a PE file")

// ErrResourceNotFound means the directory walk completed without locating
// the requested type/name/language triple.
var ErrResourceNotFound = errors.New("peformat: resource not found")

// ErrResourceLevelMismatch means an entry was found at the requested id but
// its subdirectory flag didn't match what that level of the tree requires:
// a type or name level entry that isn't a subdirectory, or a language level
// entry that is one.
var ErrResourceLevelMismatch = errors.New("peformat: resource directory entry at wrong level")

const (
	rtRCData       = 10
	resourceIDType = 10 // duplicate alias of rtRCData; nothing refers to it
)

type sectionHeader struct {
	virtualSize    uint32
	virtualAddress uint32
	rawSize        uint32
	rawOffset      uint32
}

// FindResource locates resource (type, name, language) within the PE image
// read from r (which must support ReadAt-style random access via io.ReaderAt)
// and returns its file offset and size.
func FindResource(r io.ReaderAt, typ, name, language uint32) (offset int64, size int64, err error) {
	peOffset, err := readPEOffset(r)
	if err != nil {
		return 0, 0, err
	}

	var sig [4]byte
	if _, err := r.ReadAt(sig[:], peOffset); err != nil {
		return 0, 0, fmt.Errorf("peformat: reading PE signature: %w", err)
	}
	if sig != [4]byte{'P', 'E', 0, 0} {
		return 0, 0, ErrNotPE
	}

	coffOffset := peOffset + 4
	var coff [20]byte
	if _, err := r.ReadAt(coff[:], coffOffset); err != nil {
		return 0, 0, fmt.Errorf("peformat: reading COFF header: %w", err)
	}
	numberOfSections := binary.LittleEndian.Uint16(coff[2:4])
	sizeOfOptionalHeader := binary.LittleEndian.Uint16(coff[16:18])

	optOffset := coffOffset + 20
	var magic [2]byte
	if _, err := r.ReadAt(magic[:], optOffset); err != nil {
		return 0, 0, fmt.Errorf("peformat: reading optional header magic: %w", err)
	}
	const pe32 = 0x10b
	const pe32plus = 0x20b
	m := binary.LittleEndian.Uint16(magic[:])
	if m != pe32 && m != pe32plus {
		return 0, 0, ErrNotPE
	}

	// Data directory #2 (resource table) sits at a fixed offset depending
	// on PE32 vs PE32+: 24 bytes of common optional-header fields, then
	// either 4 (PE32 base-of-data) or 0 (PE32+, field absent) extra bytes,
	// then 68/88 bytes of Windows-specific fields, then the 8-byte-entry
	// data directory array (export, import, resource, ...).
	var dataDirOffset int64
	if m == pe32 {
		dataDirOffset = optOffset + 96
	} else {
		dataDirOffset = optOffset + 112
	}
	const resourceDirIndex = 2
	var dirEntry [8]byte
	if _, err := r.ReadAt(dirEntry[:], dataDirOffset+int64(resourceDirIndex)*8); err != nil {
		return 0, 0, fmt.Errorf("peformat: reading resource data directory entry: %w", err)
	}
	resourceRVA := binary.LittleEndian.Uint32(dirEntry[0:4])
	if resourceRVA == 0 {
		return 0, 0, ErrResourceNotFound
	}

	sectionTableOffset := optOffset + int64(sizeOfOptionalHeader)
	sections := make([]sectionHeader, numberOfSections)
	for i := range sections {
		var raw [40]byte
		if _, err := r.ReadAt(raw[:], sectionTableOffset+int64(i)*40); err != nil {
			return 0, 0, fmt.Errorf("peformat: reading section header %d: %w", i, err)
		}
		sections[i] = sectionHeader{
			virtualSize:    binary.LittleEndian.Uint32(raw[8:12]),
			virtualAddress: binary.LittleEndian.Uint32(raw[12:16]),
			rawSize:        binary.LittleEndian.Uint32(raw[16:20]),
			rawOffset:      binary.LittleEndian.Uint32(raw[20:24]),
		}
	}

	rvaToOffset := func(rva uint32) (int64, bool) {
		for _, s := range sections {
			if rva >= s.virtualAddress && rva < s.virtualAddress+s.virtualSize {
				return int64(s.rawOffset + (rva - s.virtualAddress)), true
			}
		}
		return 0, false
	}

	resourceBase, ok := rvaToOffset(resourceRVA)
	if !ok {
		return 0, 0, ErrResourceNotFound
	}

	entryOffset, err := walkDirectory(r, resourceBase, resourceBase, typ, true)
	if err != nil {
		return 0, 0, err
	}
	entryOffset, err = walkDirectory(r, resourceBase, entryOffset, name, true)
	if err != nil {
		return 0, 0, err
	}
	entryOffset, err = walkDirectory(r, resourceBase, entryOffset, language, false)
	if err != nil {
		return 0, 0, err
	}

	var dataEntry [16]byte
	if _, err := r.ReadAt(dataEntry[:], entryOffset); err != nil {
		return 0, 0, fmt.Errorf("peformat: reading resource data entry: %w", err)
	}
	dataRVA := binary.LittleEndian.Uint32(dataEntry[0:4])
	dataSize := binary.LittleEndian.Uint32(dataEntry[4:8])
	dataOffset, ok := rvaToOffset(dataRVA)
	if !ok {
		return 0, 0, ErrResourceNotFound
	}
	return dataOffset, int64(dataSize), nil
}

// walkDirectory searches one level of the resource directory tree rooted at
// base for an entry matching id. requireSubdir says what this level of the
// tree is allowed to contain: true for the type and name levels, which must
// descend into another subdirectory, false for the language level, which
// must terminate at an IMAGE_RESOURCE_DATA_ENTRY. An entry whose on-disk
// subdirectory flag disagrees with requireSubdir is a malformed resource
// tree, not a missing one, and is reported as ErrResourceLevelMismatch
// rather than silently followed.
//
// Grounded on ExeReader.cpp's getResourceTable, whose callers reject
// exactly this mismatch at each level.
func walkDirectory(r io.ReaderAt, base, dirOffset int64, id uint32, requireSubdir bool) (int64, error) {
	var header [16]byte
	if _, err := r.ReadAt(header[:], dirOffset); err != nil {
		return 0, fmt.Errorf("peformat: reading resource directory header: %w", err)
	}
	numberOfNamedEntries := binary.LittleEndian.Uint16(header[12:14])
	numberOfIDEntries := binary.LittleEndian.Uint16(header[14:16])
	total := int(numberOfNamedEntries) + int(numberOfIDEntries)

	entriesOffset := dirOffset + 16
	for i := 0; i < total; i++ {
		var entry [8]byte
		if _, err := r.ReadAt(entry[:], entriesOffset+int64(i)*8); err != nil {
			return 0, fmt.Errorf("peformat: reading resource entry %d: %w", i, err)
		}
		nameOrID := binary.LittleEndian.Uint32(entry[0:4])
		if nameOrID&0x80000000 != 0 {
			// Named entry; this locator only ever looks up numeric
			// type/name/language triples, so named entries are skipped.
			continue
		}
		if nameOrID != id {
			continue
		}
		offsetField := binary.LittleEndian.Uint32(entry[4:8])
		const subdirFlag = 0x80000000
		isSubdir := offsetField&subdirFlag != 0
		if isSubdir != requireSubdir {
			return 0, fmt.Errorf("peformat: %w", ErrResourceLevelMismatch)
		}
		return base + int64(offsetField&^subdirFlag), nil
	}
	return 0, ErrResourceNotFound
}

func readPEOffset(r io.ReaderAt) (int64, error) {
	var mz [2]byte
	if _, err := r.ReadAt(mz[:], 0); err != nil {
		return 0, fmt.Errorf("peformat: reading MZ signature: %w", err)
	}
	if mz != [2]byte{'M', 'Z'} {
		return 0, ErrNotPE
	}
	var peOffsetBytes [2]byte
	if _, err := r.ReadAt(peOffsetBytes[:], 0x3C); err != nil {
		return 0, fmt.Errorf("peformat: reading e_lfanew: %w", err)
	}
	return int64(binary.LittleEndian.Uint16(peOffsetBytes[:])), nil
}

// RTRCData is the resource type identifier (10) Inno Setup's offset table
// is stored under.
const RTRCData = rtRCData
