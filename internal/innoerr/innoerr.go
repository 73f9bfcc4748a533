// Package innoerr defines the error taxonomy shared across the decode and
// extraction pipeline. Every fallible operation in this module wraps one of
// these sentinels with fmt.Errorf("...: %w", ...) so callers can classify
// failures with errors.Is regardless of which component raised them.
package innoerr

import "errors"

var (
	// ErrIo wraps an underlying read/write failure from the OS or a slice file.
	ErrIo = errors.New("io error")

	// ErrTruncated means EOF was hit before the expected number of bytes arrived.
	ErrTruncated = errors.New("truncated stream")

	// ErrOffsetTableMissing means neither the legacy nor the PE-resource locator
	// found a valid offset table.
	ErrOffsetTableMissing = errors.New("setup loader offset table not found")

	// ErrOffsetTableChecksum means the offset table's trailing CRC32 did not match.
	ErrOffsetTableChecksum = errors.New("setup loader offset table checksum mismatch")

	// ErrUnknownVersion means the version signature did not match the built-in table
	// and AcceptUnknownVersion was not set.
	ErrUnknownVersion = errors.New("unknown setup version signature")

	// ErrBlockHeader means the outer block header CRC32 did not match.
	ErrBlockHeader = errors.New("block header checksum mismatch")

	// ErrBlockChecksum means a framed 4096-byte block chunk's CRC32 did not match.
	ErrBlockChecksum = errors.New("block checksum mismatch")

	// ErrSliceMissing means an external slice file could not be opened.
	ErrSliceMissing = errors.New("slice file missing")

	// ErrSliceMagicBad means a slice file's 8-byte magic did not match either
	// known value.
	ErrSliceMagicBad = errors.New("bad slice magic")

	// ErrSliceSizeOverflow means a slice file declared a size larger than the
	// file on disk, or slices_per_disk > 26 made the letter suffix ambiguous.
	ErrSliceSizeOverflow = errors.New("slice size overflow")

	// ErrChunkMagic means a chunk did not start with the 'zlb\x1a' magic.
	ErrChunkMagic = errors.New("bad chunk magic")

	// ErrDecompressorFormat means a decompressor rejected its input.
	ErrDecompressorFormat = errors.New("decompressor format error")

	// ErrChunkOverlap means two files within one chunk claimed overlapping
	// file-offset ranges after stable-sort.
	ErrChunkOverlap = errors.New("overlapping file offsets within chunk")

	// ErrCryptoNotBuilt means the installer is encrypted but the caller
	// supplied no password material.
	ErrCryptoNotBuilt = errors.New("installer is encrypted, no password given")

	// ErrPasswordBad means the supplied password's checksum did not match the
	// one stored in the setup header.
	ErrPasswordBad = errors.New("incorrect password")

	// ErrFileChecksum means a post-extraction checksum mismatched. Recoverable:
	// the orchestrator downgrades this to a warning by default.
	ErrFileChecksum = errors.New("file checksum mismatch")

	// ErrExpectedEndOfStream means a metadata block had unexpected trailing
	// bytes. Recoverable: downgraded to a warning by default.
	ErrExpectedEndOfStream = errors.New("unexpected trailing bytes in block")

	// ErrCancelled means the caller's cancel signal fired mid-extraction.
	ErrCancelled = errors.New("extraction cancelled")
)
