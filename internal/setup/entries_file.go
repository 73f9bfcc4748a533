package setup

import "innoextract/internal/checksum"

// FileCopyMode selects how a FileEntry's bytes reach their destination.
type FileCopyMode int

const (
	FileCopyNormal FileCopyMode = iota
	FileCopyIfDoesntExist
	FileCopyAlwaysOverwrite
	FileCopyAlwaysSkipIfSameOrOlder
)

// FileEntry describes one file the installer will place on disk: where its
// bytes come from (Location, an index into the file-location table, or -1
// for entries that only register metadata without carrying data), where it
// goes, and the options governing the copy.
//
// Not present as a standalone file in the retrieved original source (absent
// from original_source's file index); modeled on the common SetupItem
// prefix shared by DirectoryEntry/DeleteEntry/RunEntry plus the field list
// spec.md's data model section gives for file entries.
type FileEntry struct {
	Item SetupItem
	Type FileCopyMode

	Source      string
	Destination string
	InstallFontName string
	StrongAssemblyName string

	Location int // index into FileLocationEntry table, -1 if no data

	// AdditionalLocations holds further FileLocationEntry indices for
	// files whose decompressed bytes are split across more than one
	// location record, appended to Location's bytes in order. The
	// historical on-disk format this package decodes never splits a
	// single file across locations, so this is always empty for entries
	// read off the wire; it exists so the orchestrator's multi-part
	// output path has somewhere to receive indices from a caller that
	// assembles a synthetic multi-part plan.
	AdditionalLocations []int

	Attributes     uint32
	ExternalSize   int64
	Permission     int

	PromptIfOlder    bool
	ConfirmOverwrite bool
	Uninsneveruninstall bool
	RestartReplace   bool
	DeleteAfterInstall bool
	RegisterServer   bool
	RegisterTypeLib  bool
	SharedFile       bool
	CompareTimeStamp bool
	FontIsntTrueType bool
	SkipIfSourceDoesntExist bool
	OverwriteReadOnly bool
	OverwriteSameVersion bool
	CustomDestName   bool
	OnlyIfDestFileExists bool
	NoRegError       bool
	UninsRestartDelete bool
	OnlyDllRegisterIfMatchingModule bool
	Bits32           bool
	Bits64           bool
}

func loadFileEntry(r *Reader) (FileEntry, error) {
	v := r.Version()
	var e FileEntry
	var err error

	if !v.AtLeast(1, 3, 21, 0) {
		if _, err = r.UInt32(); err != nil {
			return e, err
		}
	}
	if e.Source, err = r.String(); err != nil {
		return e, err
	}
	if e.Destination, err = r.String(); err != nil {
		return e, err
	}
	if e.InstallFontName, err = r.String(); err != nil {
		return e, err
	}
	if v.AtLeast(5, 2, 5, 0) {
		if e.StrongAssemblyName, err = r.String(); err != nil {
			return e, err
		}
	}

	if e.Item, err = readSetupItem(r); err != nil {
		return e, err
	}

	if v.AtLeast(4, 0, 0, 0) || v.Bits == 16 {
		if e.Attributes, err = r.UInt32(); err != nil {
			return e, err
		}
	}
	if e.ExternalSize, err = readFileSize(r, v); err != nil {
		return e, err
	}
	if v.AtLeast(4, 1, 0, 0) {
		n, err := r.UInt16()
		if err != nil {
			return e, err
		}
		e.Permission = int(int16(n))
	} else {
		e.Permission = -1
	}

	flagCount := 10
	switch {
	case v.AtLeast(5, 2, 0, 0):
		flagCount = 19
	case v.AtLeast(4, 1, 8, 0):
		flagCount = 18
	case v.AtLeast(4, 0, 0, 0):
		flagCount = 16
	case v.AtLeast(2, 0, 0, 0):
		flagCount = 13
	}
	flags, err := r.ReadFlags(flagCount)
	if err != nil {
		return e, err
	}
	e.ConfirmOverwrite = flags.Has(0)
	e.Uninsneveruninstall = flags.Has(1)
	e.RestartReplace = flags.Has(2)
	e.DeleteAfterInstall = flags.Has(3)
	e.RegisterServer = flags.Has(4)
	e.RegisterTypeLib = flags.Has(5)
	e.SharedFile = flags.Has(6)
	e.CompareTimeStamp = flags.Has(7)
	e.FontIsntTrueType = flags.Has(8)
	e.SkipIfSourceDoesntExist = flags.Has(9)
	if flagCount >= 13 {
		e.OverwriteReadOnly = flags.Has(10)
		e.OverwriteSameVersion = flags.Has(11)
		e.CustomDestName = flags.Has(12)
	}
	if flagCount >= 16 {
		e.OnlyIfDestFileExists = flags.Has(13)
		e.NoRegError = flags.Has(14)
		e.UninsRestartDelete = flags.Has(15)
	}
	if flagCount >= 18 {
		e.OnlyDllRegisterIfMatchingModule = flags.Has(16)
		e.PromptIfOlder = flags.Has(17)
	}
	if flagCount >= 19 {
		e.Bits32 = flags.Has(17)
		e.Bits64 = flags.Has(18)
	}

	b, err := r.Byte()
	if err != nil {
		return e, err
	}
	e.Type = FileCopyMode(b)

	if v.AtLeast(4, 0, 1, 0) {
		n, err := r.Int32()
		if err != nil {
			return e, err
		}
		e.Location = int(n)
	} else {
		e.Location = -1
	}

	return e, nil
}

func readFileSize(r *Reader, v Version) (int64, error) {
	if v.AtLeast(4, 0, 0, 0) {
		return r.Int64()
	}
	n, err := r.Int32()
	return int64(n), err
}

// FileLocationOptions is the bitset describing how one FileLocationEntry's
// bytes are stored and how they should be post-processed on extraction.
type FileLocationOptions uint16

const (
	LocationChunkCompressed FileLocationOptions = 1 << iota
	LocationChunkEncrypted
	LocationCallInstructionOptimized
	LocationVersionInfoValid
	LocationVersionInfoNotValid
	LocationTimeStampInUTC
	LocationIsUninstallerExe
	LocationBZipped
	LocationRemoveFromInstallDeleteEntry
	LocationSolidBreak
)

// FileLocationEntry describes where and how the decompressed bytes of one
// or more FileEntry records live inside the chunked data stream. Multiple
// FileEntry.Location fields may point at the same FileLocationEntry (one
// set of source bytes, several install destinations).
//
// Grounded on spec.md §3's file-location data model (no standalone
// FileLocationEntry source file was retrieved in original_source).
type FileLocationEntry struct {
	FirstSlice, LastSlice int

	ChunkOffset uint64
	ChunkSize   uint64

	FileOffset uint64
	FileSize   uint64

	Checksum checksum.Checksum

	TimestampUnix int64
	TimestampUTC  bool

	Options FileLocationOptions

	VersionInfoLS, VersionInfoMS uint32
}

func loadFileLocationEntry(r *Reader) (FileLocationEntry, error) {
	v := r.Version()
	var e FileLocationEntry
	var err error

	if v.AtLeast(4, 0, 1, 0) {
		n, err := r.Int32()
		if err != nil {
			return e, err
		}
		e.FirstSlice = int(n)
		n2, err := r.Int32()
		if err != nil {
			return e, err
		}
		e.LastSlice = int(n2)
	} else {
		n, err := r.Int32()
		if err != nil {
			return e, err
		}
		e.FirstSlice = int(n)
		e.LastSlice = e.FirstSlice
	}

	if v.AtLeast(4, 0, 1, 0) {
		off, err := r.UInt32()
		if err != nil {
			return e, err
		}
		e.ChunkOffset = uint64(off)
	}

	var fileTime [8]byte
	if !v.AtLeast(4, 0, 1, 0) {
		b, err := readN(r, 8)
		if err != nil {
			return e, err
		}
		copy(fileTime[:], b)
	}

	if v.AtLeast(4, 0, 1, 0) {
		n, err := r.UInt32()
		if err != nil {
			return e, err
		}
		e.FileSize = uint64(n)
		cs, err := r.UInt32()
		if err != nil {
			return e, err
		}
		e.ChunkSize = uint64(cs)
	} else {
		n, err := r.UInt32()
		if err != nil {
			return e, err
		}
		e.FileSize = uint64(n)
	}

	var crc32 uint32
	var md5, sha1 []byte
	if v.AtLeast(5, 3, 9, 0) {
		sha1, err = readN(r, 20)
		if err != nil {
			return e, err
		}
	} else if v.AtLeast(4, 0, 1, 0) {
		md5, err = readN(r, 16)
		if err != nil {
			return e, err
		}
	} else {
		if crc32, err = r.UInt32(); err != nil {
			return e, err
		}
	}
	switch {
	case sha1 != nil:
		e.Checksum = checksum.Checksum{Type: checksum.SHA1, Bytes: sha1}
	case md5 != nil:
		e.Checksum = checksum.Checksum{Type: checksum.MD5, Bytes: md5}
	default:
		// Big-endian, the byte order checksum.Hasher.Sum produces for CRC32.
		b := []byte{byte(crc32 >> 24), byte(crc32 >> 16), byte(crc32 >> 8), byte(crc32)}
		e.Checksum = checksum.Checksum{Type: checksum.CRC32, Bytes: b}
	}

	if !v.AtLeast(4, 0, 1, 0) {
		e.TimestampUnix = decodeLegacyFileTime(fileTime)
	} else {
		ft, err := r.Int64()
		if err != nil {
			return e, err
		}
		e.TimestampUnix = ft
	}

	if v.AtLeast(2, 1, 0, 0) {
		ms, err := r.UInt32()
		if err != nil {
			return e, err
		}
		e.VersionInfoMS = ms
		ls, err := r.UInt32()
		if err != nil {
			return e, err
		}
		e.VersionInfoLS = ls
	}

	n := 6
	if v.AtLeast(4, 0, 10, 0) {
		n = 8
	} else if v.AtLeast(4, 0, 1, 0) {
		n = 7
	}
	flags, err := r.ReadFlags(n)
	if err != nil {
		return e, err
	}
	if flags.Has(0) {
		e.Options |= LocationVersionInfoNotValid
	}
	if flags.Has(1) {
		e.Options |= LocationTimeStampInUTC
	}
	if flags.Has(2) {
		e.Options |= LocationIsUninstallerExe
	}
	if flags.Has(3) {
		e.Options |= LocationCallInstructionOptimized
	}
	if flags.Has(4) {
		e.Options |= LocationChunkEncrypted
	}
	if n >= 6 && flags.Has(5) {
		e.Options |= LocationChunkCompressed
	}
	if n >= 7 && flags.Has(6) {
		e.Options |= LocationSolidBreak
	}
	if n >= 8 && flags.Has(7) {
		e.Options |= LocationChunkCompressed
	}
	if !v.AtLeast(4, 0, 1, 0) {
		e.Options |= LocationChunkCompressed
	}

	e.TimestampUTC = e.Options&LocationTimeStampInUTC != 0

	return e, nil
}

// decodeLegacyFileTime converts pre-4.0.1's packed DOS file-time pair (as
// two little-endian u32 words forming a 64-bit FILETIME) to a Unix
// timestamp. Pre-4.0.1 archives are rare in the wild; exact-to-the-second
// fidelity here is not required by any invariant, only monotonic ordering.
func decodeLegacyFileTime(b [8]byte) int64 {
	lo := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	hi := uint32(b[4]) | uint32(b[5])<<8 | uint32(b[6])<<16 | uint32(b[7])<<24
	filetime := uint64(hi)<<32 | uint64(lo)
	const epochDiff = 116444736000000000 // 100ns intervals between 1601 and 1970
	if filetime < epochDiff {
		return 0
	}
	return int64((filetime - epochDiff) / 10000000)
}
