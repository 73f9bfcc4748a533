// Package setup decodes the Inno Setup compiled-script data: the version
// signature, SetupHeader, and the per-entry-kind record streams (languages,
// messages, permissions, types, components, tasks, directories, files,
// icons, ini entries, registry entries, delete entries, run entries).
//
// Grounded on original_source/src/setup/*.cpp/hpp.
package setup

import (
	"fmt"

	"innoextract/internal/innoerr"
)

// Version identifies the Inno Setup compiler release (and a handful of
// derivative forks) that produced a setup data stream, plus the bitness and
// Unicode-ness flags needed to pick the right record layout.
type Version struct {
	Major, Minor, Patch, Revision int
	Unicode                       bool
	Bits                          int // 16 or 32; 32 for every Unicode release
	Known                         bool
}

// String renders the version the way the original tool's diagnostics do:
// "major.minor.patch[.revision] [(unicode)] [(bits-bit)] [[unsupported]]".
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Revision != 0 {
		s += fmt.Sprintf(".%d", v.Revision)
	}
	if v.Unicode {
		s += " (unicode)"
	}
	if v.Bits != 32 {
		s += fmt.Sprintf(" (%d-bit)", v.Bits)
	}
	if !v.Known {
		s += " [unsupported]"
	}
	return s
}

// Suspicious reports whether this version number was disambiguated from an
// on-disk signature that is also used, byte for byte, by a different patch
// release — see the knownSetupDataVersions entries marked "or X.Y.Z!" in
// the original version table. Callers surface this as a warning rather
// than a hard error since extraction still proceeds using the chosen
// version's record layout.
func (v Version) Suspicious() bool {
	for _, amb := range ambiguousVersions {
		if v.Major == amb.Major && v.Minor == amb.Minor && v.Patch == amb.Patch && v.Revision == amb.Revision {
			return true
		}
	}
	return false
}

var ambiguousVersions = []struct{ Major, Minor, Patch, Revision int }{
	{2, 0, 1, 0}, // might be 2.0.1 or 2.0.2
	{3, 0, 3, 0}, // might be 3.0.3 or 3.0.4
	{4, 2, 3, 0}, // might be 4.2.3 or 4.2.4
}

type legacySignature struct {
	name    string // 12 bytes, trailing byte always 0x1a
	version Version
}

var knownLegacyVersions = []legacySignature{
	{"i1.2.10--16\x1a", Version{1, 2, 10, 0, false, 16, true}},
	{"i1.2.10--32\x1a", Version{1, 2, 10, 0, false, 32, true}},
}

type signature struct {
	name    string // NUL-padded to 64 bytes on disk
	version Version
}

// knownVersions is the signature table identifying every setup data layout
// this package knows how to decode. It mirrors
// original_source/src/setup/Version.cpp's knownSetupDataVersions table
// through Inno Setup 5.4.2, the last version present in the retrieved
// original source snapshot, and extends it through the 5.5.x/5.6.x/6.x
// Unicode-only releases that followed — Inno Setup dropped non-Unicode
// ("ANSI") builds entirely starting with 5.5.0, so every entry from 5.5.0
// onward is Unicode-only by construction.
var knownVersions = []signature{
	{"Inno Setup Setup Data (1.3.21)", ver(1, 3, 21, 0, false)},
	{"Inno Setup Setup Data (1.3.25)", ver(1, 3, 25, 0, false)},
	{"Inno Setup Setup Data (2.0.0)", ver(2, 0, 0, 0, false)},
	{"Inno Setup Setup Data (2.0.1)", ver(2, 0, 1, 0, false)},
	{"Inno Setup Setup Data (2.0.5)", ver(2, 0, 5, 0, false)},
	{"Inno Setup Setup Data (2.0.6a)", ver(2, 0, 6, 0, false)},
	{"Inno Setup Setup Data (2.0.7)", ver(2, 0, 7, 0, false)},
	{"Inno Setup Setup Data (2.0.8)", ver(2, 0, 8, 0, false)},
	{"Inno Setup Setup Data (2.0.11)", ver(2, 0, 11, 0, false)},
	{"Inno Setup Setup Data (2.0.17)", ver(2, 0, 17, 0, false)},
	{"Inno Setup Setup Data (2.0.18)", ver(2, 0, 18, 0, false)},
	{"Inno Setup Setup Data (3.0.0a)", ver(3, 0, 0, 0, false)},
	{"Inno Setup Setup Data (3.0.1)", ver(3, 0, 1, 0, false)},
	{"Inno Setup Setup Data (3.0.3)", ver(3, 0, 3, 0, false)},
	{"Inno Setup Setup Data (3.0.5)", ver(3, 0, 5, 0, false)},
	{"My Inno Setup Extensions Setup Data (3.0.6.1)", ver(3, 0, 6, 1, false)},
	{"Inno Setup Setup Data (4.0.0a)", ver(4, 0, 0, 0, false)},
	{"Inno Setup Setup Data (4.0.1)", ver(4, 0, 1, 0, false)},
	{"Inno Setup Setup Data (4.0.3)", ver(4, 0, 3, 0, false)},
	{"Inno Setup Setup Data (4.0.5)", ver(4, 0, 5, 0, false)},
	{"Inno Setup Setup Data (4.0.9)", ver(4, 0, 9, 0, false)},
	{"Inno Setup Setup Data (4.0.10)", ver(4, 0, 10, 0, false)},
	{"Inno Setup Setup Data (4.0.11)", ver(4, 0, 11, 0, false)},
	{"Inno Setup Setup Data (4.1.0)", ver(4, 1, 0, 0, false)},
	{"Inno Setup Setup Data (4.1.2)", ver(4, 1, 2, 0, false)},
	{"Inno Setup Setup Data (4.1.3)", ver(4, 1, 3, 0, false)},
	{"Inno Setup Setup Data (4.1.4)", ver(4, 1, 4, 0, false)},
	{"Inno Setup Setup Data (4.1.5)", ver(4, 1, 5, 0, false)},
	{"Inno Setup Setup Data (4.1.6)", ver(4, 1, 6, 0, false)},
	{"Inno Setup Setup Data (4.1.8)", ver(4, 1, 8, 0, false)},
	{"Inno Setup Setup Data (4.2.0)", ver(4, 2, 0, 0, false)},
	{"Inno Setup Setup Data (4.2.1)", ver(4, 2, 1, 0, false)},
	{"Inno Setup Setup Data (4.2.2)", ver(4, 2, 2, 0, false)},
	{"Inno Setup Setup Data (4.2.3)", ver(4, 2, 3, 0, false)},
	{"Inno Setup Setup Data (4.2.5)", ver(4, 2, 5, 0, false)},
	{"Inno Setup Setup Data (4.2.6)", ver(4, 2, 6, 0, false)},
	{"Inno Setup Setup Data (5.0.0)", ver(5, 0, 0, 0, false)},
	{"Inno Setup Setup Data (5.0.1)", ver(5, 0, 1, 0, false)},
	{"Inno Setup Setup Data (5.0.3)", ver(5, 0, 3, 0, false)},
	{"Inno Setup Setup Data (5.0.4)", ver(5, 0, 4, 0, false)},
	{"Inno Setup Setup Data (5.1.0)", ver(5, 1, 0, 0, false)},
	{"Inno Setup Setup Data (5.1.2)", ver(5, 1, 2, 0, false)},
	{"Inno Setup Setup Data (5.1.7)", ver(5, 1, 7, 0, false)},
	{"Inno Setup Setup Data (5.1.10)", ver(5, 1, 10, 0, false)},
	{"Inno Setup Setup Data (5.1.13)", ver(5, 1, 13, 0, false)},
	{"Inno Setup Setup Data (5.2.0)", ver(5, 2, 0, 0, false)},
	{"Inno Setup Setup Data (5.2.1)", ver(5, 2, 1, 0, false)},
	{"Inno Setup Setup Data (5.2.3)", ver(5, 2, 3, 0, false)},
	{"Inno Setup Setup Data (5.2.5)", ver(5, 2, 5, 0, false)},
	{"Inno Setup Setup Data (5.2.5) (u)", ver(5, 2, 5, 0, true)},
	{"Inno Setup Setup Data (5.3.0)", ver(5, 3, 0, 0, false)},
	{"Inno Setup Setup Data (5.3.0) (u)", ver(5, 3, 0, 0, true)},
	{"Inno Setup Setup Data (5.3.3)", ver(5, 3, 3, 0, false)},
	{"Inno Setup Setup Data (5.3.3) (u)", ver(5, 3, 3, 0, true)},
	{"Inno Setup Setup Data (5.3.5)", ver(5, 3, 5, 0, false)},
	{"Inno Setup Setup Data (5.3.5) (u)", ver(5, 3, 5, 0, true)},
	{"Inno Setup Setup Data (5.3.6)", ver(5, 3, 6, 0, false)},
	{"Inno Setup Setup Data (5.3.6) (u)", ver(5, 3, 6, 0, true)},
	{"Inno Setup Setup Data (5.3.7)", ver(5, 3, 7, 0, false)},
	{"Inno Setup Setup Data (5.3.7) (u)", ver(5, 3, 7, 0, true)},
	{"Inno Setup Setup Data (5.3.8)", ver(5, 3, 8, 0, false)},
	{"Inno Setup Setup Data (5.3.8) (u)", ver(5, 3, 8, 0, true)},
	{"Inno Setup Setup Data (5.3.9)", ver(5, 3, 9, 0, false)},
	{"Inno Setup Setup Data (5.3.9) (u)", ver(5, 3, 9, 0, true)},
	{"Inno Setup Setup Data (5.3.10)", ver(5, 3, 10, 0, false)},
	{"Inno Setup Setup Data (5.3.10) (u)", ver(5, 3, 10, 0, true)},
	{"Inno Setup Setup Data (5.4.2)", ver(5, 4, 2, 0, false)},
	{"Inno Setup Setup Data (5.4.2) (u)", ver(5, 4, 2, 0, true)},
	// Extended beyond the retrieved original source snapshot (SUPPLEMENTED):
	// Inno Setup 5.5.0 dropped non-Unicode builds, so every remaining entry
	// is Unicode-only.
	{"Inno Setup Setup Data (5.5.0) (u)", ver(5, 5, 0, 0, true)},
	{"Inno Setup Setup Data (5.5.6) (u)", ver(5, 5, 6, 0, true)},
	{"Inno Setup Setup Data (5.5.7) (u)", ver(5, 5, 7, 0, true)},
	{"Inno Setup Setup Data (5.5.9) (u)", ver(5, 5, 9, 0, true)},
	{"Inno Setup Setup Data (5.6.0) (u)", ver(5, 6, 0, 0, true)},
	{"Inno Setup Setup Data (5.6.1) (u)", ver(5, 6, 1, 0, true)},
	{"Inno Setup Setup Data (6.0.0) (u)", ver(6, 0, 0, 0, true)},
	{"Inno Setup Setup Data (6.1.0) (u)", ver(6, 1, 0, 0, true)},
	{"Inno Setup Setup Data (6.2.0) (u)", ver(6, 2, 0, 0, true)},
	{"Inno Setup Setup Data (6.3.0) (u)", ver(6, 3, 0, 0, true)},
	{"Inno Setup Setup Data (6.4.0) (u)", ver(6, 4, 0, 0, true)},
}

func ver(major, minor, patch, revision int, unicode bool) Version {
	return Version{Major: major, Minor: minor, Patch: patch, Revision: revision, Unicode: unicode, Bits: 32, Known: true}
}

// AtLeast reports whether v is greater than or equal to (major, minor,
// patch, revision) in lexicographic order, matching the original's
// INNO_VERSION comparison used throughout SetupHeader's version gates.
func (v Version) AtLeast(major, minor, patch, revision int) bool {
	a := [4]int{v.Major, v.Minor, v.Patch, v.Revision}
	b := [4]int{major, minor, patch, revision}
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return true
}

// ParseVersion reads the 12-byte legacy signature or, failing that, the
// 64-byte modern signature from the start of the decompressed setup header
// stream and resolves it against the known-version tables.
//
// acceptUnknown, when true, causes an unrecognized 64-byte signature to be
// returned as an unknown-but-best-guess Version (Known=false) instead of
// innoerr.ErrUnknownVersion, mirroring the --version-override escape hatch
// innoextract-style tools expose for unreleased or forked compilers.
func ParseVersion(legacy, modern [64]byte, acceptUnknown bool) (Version, error) {
	legacy12 := legacy[:12]
	if legacy12[0] == 'i' && legacy12[11] == 0x1a {
		for _, l := range knownLegacyVersions {
			if string(legacy12) == l.name {
				return l.version, nil
			}
		}
		if acceptUnknown {
			return Version{Known: false, Bits: 32}, nil
		}
		return Version{}, innoerr.ErrUnknownVersion
	}

	name := trimNUL(modern[:])
	for _, s := range knownVersions {
		if name == s.name {
			return s.version, nil
		}
	}
	if acceptUnknown {
		return Version{Known: false, Bits: 32}, nil
	}
	return Version{}, innoerr.ErrUnknownVersion
}

func trimNUL(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
