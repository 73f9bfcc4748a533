// Package extract is the top-level orchestrator: given a setup executable
// path and a set of Options, it locates the offset table, decodes the
// setup metadata, verifies the password where needed, and streams every
// file entry's bytes to its destination.
//
// Grounded on original_source/src/InnoExtract.cpp's process_file sequence.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"innoextract/internal/block"
	"innoextract/internal/chunk"
	"innoextract/internal/innoerr"
	"innoextract/internal/loader"
	"innoextract/internal/logging"
	"innoextract/internal/setup"
	"innoextract/internal/slice"
	"innoextract/internal/streamfilter"
	"innoextract/internal/textenc"
	"innoextract/internal/xtransform"
)

// Run extracts installerPath's embedded payload according to opts,
// returning a Report of what happened even when it also returns an error
// (a partially completed run's counters are still meaningful).
func Run(ctx context.Context, installerPath string, opts Options, logger *slog.Logger) (*Report, error) {
	logger = logging.Default(logger).With("component", "extract")
	report := &Report{}

	f, err := os.Open(installerPath)
	if err != nil {
		return report, fmt.Errorf("extract: %w", err)
	}
	defer f.Close()

	offsets, err := loader.Find(f)
	if err != nil {
		return report, fmt.Errorf("extract: locating offset table: %w", err)
	}

	version, sigLen, err := readVersion(f, offsets, opts, report, logger)
	if err != nil {
		return report, err
	}

	codec := textenc.NewCache()

	headerPos := int64(offsets.Offset0) + sigLen
	if _, err := f.Seek(headerPos, io.SeekStart); err != nil {
		return report, fmt.Errorf("extract: %w", err)
	}
	headerBlock, headerBlockLen, err := block.Open(f, version)
	if err != nil {
		return report, fmt.Errorf("extract: opening header block: %w", err)
	}
	headerReader := setup.NewReader(headerBlock, version, codec)
	if opts.CodepageOverride != 0 {
		headerReader.SetCodepage(opts.CodepageOverride)
	}
	data, err := setup.Load(headerReader)
	if err != nil {
		return report, fmt.Errorf("extract: decoding setup header: %w", err)
	}
	if data.TrailingBytes > 0 {
		report.Warnings++
		logger.Warn("unread bytes left in header block", "bytes", data.TrailingBytes)
	}

	if _, err := f.Seek(headerPos+headerBlockLen, io.SeekStart); err != nil {
		return report, fmt.Errorf("extract: %w", err)
	}
	locBlock, _, err := block.Open(f, version)
	if err != nil {
		return report, fmt.Errorf("extract: opening file-location block: %w", err)
	}
	locReader := setup.NewReader(locBlock, version, codec)
	if opts.CodepageOverride != 0 {
		locReader.SetCodepage(opts.CodepageOverride)
	}
	locations, err := setup.LoadFileLocations(locReader, data.Header.NumFileLocationEntries)
	if err != nil {
		return report, fmt.Errorf("extract: decoding file locations: %w", err)
	}

	key := chunk.KeyMaterial{Password: opts.Password}
	if data.Header.EncryptionUsed {
		key.XChaCha20Params.Used = true
		key.XChaCha20Params.Salt = append([]byte(nil), data.Header.PasswordSalt[:]...)
		key.XChaCha20Params.Iterations = opts.XChaCha20Iterations
		if key.XChaCha20Params.Iterations == 0 {
			key.XChaCha20Params.Iterations = DefaultXChaCha20Iterations
		}
	}

	if !data.Header.Passwordless() {
		if opts.Password == "" {
			return report, fmt.Errorf("extract: %w", innoerr.ErrCryptoNotBuilt)
		}
		if !verifyPassword(data.Header, opts.Password, key.XChaCha20Params.Iterations) {
			return report, fmt.Errorf("extract: %w", innoerr.ErrPasswordBad)
		}
	}

	sliceReader, err := openSlices(f.Name(), offsets, data.Header, opts.SliceOverrideDir)
	if err != nil {
		return report, err
	}
	defer sliceReader.Close()

	headerEncryption := chunk.ARC4MD5
	if version.AtLeast(5, 3, 9, 0) {
		headerEncryption = chunk.ARC4SHA1
	}
	if data.Header.EncryptionUsed {
		headerEncryption = chunk.XChaCha20
	}

	p := buildPlan(data.Files, locations, data.Header.CompressMethod, headerEncryption)

	matcher, err := newIncludeMatcher(opts.IncludePatterns)
	if err != nil {
		return report, fmt.Errorf("extract: %w", err)
	}

	outputs := map[int]*fileOutput{}
	partsWritten := map[int]int{}
	filters := map[int]*xtransform.Filter{}

	for _, cp := range p.chunks {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("extract: %w", innoerr.ErrCancelled)
		}
		if err := processChunk(ctx, sliceReader, cp, data, version, opts, key, matcher, outputs, partsWritten, filters, report, logger); err != nil {
			for _, o := range outputs {
				o.close(true)
			}
			return report, err
		}
	}

	for fi, o := range outputs {
		res, err := o.close(false)
		if err != nil {
			report.Errors++
			logger.Error("closing output", "file", data.Files[fi].Destination, "error", err)
			continue
		}
		finishOutput(data.Files[fi], res, report, logger)
	}

	return report, nil
}

// readVersion reads the version signature directly from base at
// offsets.Offset0, before any block decompression starts — Inno Setup
// identifies its own wire format from the raw stream, not from inside the
// first compressed block. It returns the version plus the number of
// signature bytes consumed (12 for a legacy installer, 64 otherwise),
// since the header block that follows starts immediately after it.
//
// Grounded on original_source/src/setup/Version.cpp's load(): 12 bytes are
// read and checked against the legacy 'i'...0x1a pattern first; only when
// that fails are the remaining 52 bytes of the 64-byte modern signature
// read.
func readVersion(base io.ReadSeeker, offsets loader.Offsets, opts Options, report *Report, logger *slog.Logger) (setup.Version, int64, error) {
	if _, err := base.Seek(int64(offsets.Offset0), io.SeekStart); err != nil {
		return setup.Version{}, 0, fmt.Errorf("extract: %w", err)
	}
	var buf [64]byte
	if _, err := io.ReadFull(base, buf[:12]); err != nil {
		return setup.Version{}, 0, fmt.Errorf("extract: reading version signature: %w", innoerr.ErrTruncated)
	}

	sigLen := int64(12)
	if buf[0] != 'i' || buf[11] != 0x1a {
		if _, err := io.ReadFull(base, buf[12:]); err != nil {
			return setup.Version{}, 0, fmt.Errorf("extract: reading version signature: %w", innoerr.ErrTruncated)
		}
		sigLen = 64
	}

	v, err := setup.ParseVersion(buf, buf, opts.AcceptUnknownVersion)
	if err != nil {
		return setup.Version{}, 0, fmt.Errorf("extract: %w", err)
	}
	if !v.Known {
		report.Warnings++
		logger.Warn("accepted unrecognized setup version signature")
	} else if v.Suspicious() {
		report.Warnings++
		logger.Warn("ambiguous setup version signature, assuming the earlier release", "version", v.String())
	}
	return v, sigLen, nil
}

// openSlices picks embedded vs external slice layout the way
// original_source/src/InnoExtract.cpp does: a non-zero Offset1 means the
// installer's own file carries the data right after its metadata;
// otherwise the data lives in sibling "<stem>-N.bin" files next to it,
// using the installer's own filename stem (not Header.BaseFilename, which
// only reflects the original build's intended name).
func openSlices(installerPath string, offsets loader.Offsets, h *setup.Header, overrideDir string) (*slice.Reader, error) {
	if offsets.Offset1 != 0 {
		r, err := slice.NewEmbedded(installerPath, int64(offsets.Offset1))
		if err != nil {
			return nil, fmt.Errorf("extract: %w", err)
		}
		return r, nil
	}

	if h.SlicesPerDisk > 26 {
		return nil, fmt.Errorf("extract: %w", innoerr.ErrSliceSizeOverflow)
	}
	dir := filepath.Dir(installerPath)
	base := filepath.Base(installerPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return slice.NewExternal(dir, overrideDir, stem, h.SlicesPerDisk), nil
}

// includeMatcher reports whether a destination path survives
// Options.IncludePatterns; a nil/empty pattern list matches everything.
type includeMatcher struct {
	patterns []string
}

func newIncludeMatcher(patterns []string) (*includeMatcher, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid include pattern %q", p)
		}
	}
	return &includeMatcher{patterns: patterns}, nil
}

func (m *includeMatcher) match(relPath string) bool {
	if len(m.patterns) == 0 {
		return true
	}
	relPath = filepath.ToSlash(relPath)
	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, relPath); ok {
			return true
		}
	}
	return false
}

// languageMatches reports whether a file entry's language condition
// accepts the requested filter. Inno's Languages condition is a Pascal
// Scripter-evaluated expression in the general case; evaluating it is out
// of scope here, so this only covers the overwhelmingly common case of a
// plain comma-separated language name list, comparing each trimmed name
// with the whole filter case-insensitively.
func languageMatches(condition string, filter string) bool {
	if filter == "" || condition == "" {
		return true
	}
	for _, name := range strings.Split(condition, ",") {
		if strings.EqualFold(strings.TrimSpace(name), filter) {
			return true
		}
	}
	return false
}

// processChunk opens one compressed chunk and streams each of its parts to
// every destination file referencing it, leaving multi-part files' outputs
// open in outputs/partsWritten across calls until their final location
// has been written.
func processChunk(
	ctx context.Context,
	slices *slice.Reader,
	cp chunkPlan,
	data *setup.Data,
	version setup.Version,
	opts Options,
	key chunk.KeyMaterial,
	matcher *includeMatcher,
	outputs map[int]*fileOutput,
	partsWritten map[int]int,
	filters map[int]*xtransform.Filter,
	report *Report,
	logger *slog.Logger,
) error {
	src, err := chunk.Open(slices, cp.key, key)
	if err != nil {
		return fmt.Errorf("extract: opening chunk: %w", err)
	}

	// position tracks how many decompressed chunk bytes have been
	// consumed so far; parts are pre-sorted by FileOffset (buildPlan), the
	// position of each file's bytes within the chunk's decompressed
	// stream, distinct from ChunkOffset/ChunkSize which describe the
	// compressed chunk itself and are identical for every part here.
	var position int64
	for _, part := range cp.parts {
		if int64(part.location.FileOffset) < position {
			return fmt.Errorf("extract: %w", innoerr.ErrChunkOverlap)
		}
		gap := int64(part.location.FileOffset) - position
		if gap > 0 {
			if _, err := io.CopyN(io.Discard, src, gap); err != nil {
				return fmt.Errorf("extract: skipping chunk gap: %w", err)
			}
			position += gap
		}

		restricted := streamfilter.NewRestrict(src, int64(part.location.FileSize))

		var decoded io.Reader = restricted
		if part.location.Options&setup.LocationCallInstructionOptimized != 0 && len(part.refs) > 0 {
			owner := part.refs[0].fileIndex
			filter, ok := filters[owner]
			if !ok {
				filter = callFilterFor(version)
				filters[owner] = filter
			}
			decoded = &filteredReader{src: restricted, filter: filter}
		}

		pipeline := decoded

		writers := make([]*fileOutput, 0, len(part.refs))
		for _, ref := range part.refs {
			fe := data.Files[ref.fileIndex]
			if !matcher.match(filepath.ToSlash(fe.Destination)) {
				continue
			}
			if !languageMatches(fe.Item.Condition.Languages, opts.LanguageFilter) {
				continue
			}
			if fe.DeleteAfterInstall && !opts.ExtractTemp {
				continue
			}
			out, ok := outputs[ref.fileIndex]
			if !ok {
				out = newFileOutput(destinationPath(opts.OutputDir, fe.Destination), part.location.Checksum, opts)
				outputs[ref.fileIndex] = out
			}
			writers = append(writers, out)
		}

		if len(writers) > 0 {
			ws := make([]io.Writer, len(writers))
			for i, w := range writers {
				ws[i] = &stagingWriter{out: w}
			}
			n, err := io.Copy(io.MultiWriter(ws...), pipeline)
			report.BytesExtracted += uint64(n) * uint64(len(writers))
			if err != nil {
				return fmt.Errorf("extract: streaming %s: %w", part.location.Checksum.Type, err)
			}
		} else {
			if _, err := io.Copy(io.Discard, pipeline); err != nil {
				return fmt.Errorf("extract: draining %s: %w", part.location.Checksum.Type, err)
			}
		}
		position += int64(part.location.FileSize)

		for _, ref := range part.refs {
			fe := data.Files[ref.fileIndex]
			partsWritten[ref.fileIndex]++
			total := 1 + len(fe.AdditionalLocations)
			if partsWritten[ref.fileIndex] < total {
				continue
			}
			out, ok := outputs[ref.fileIndex]
			if !ok {
				continue
			}
			delete(outputs, ref.fileIndex)
			res, err := out.close(false)
			if err != nil {
				report.Errors++
				logger.Error("closing output", "file", fe.Destination, "error", err)
				continue
			}
			finishOutput(fe, res, report, logger)
		}

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("extract: %w", innoerr.ErrCancelled)
		}
	}

	if _, err := io.Copy(io.Discard, src); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("extract: draining chunk tail: %w", err)
	}

	return nil
}

func finishOutput(fe setup.FileEntry, res closeResult, report *Report, logger *slog.Logger) {
	report.FilesExtracted++
	if res.checksumChecked && !res.checksumOK {
		report.FailedChecksums = append(report.FailedChecksums, fe.Destination)
		report.Warnings++
		logger.Warn("checksum mismatch, keeping extracted file", "file", fe.Destination)
	}
}

// callFilterFor selects the call-instruction-transform dialect the setup's
// own compiler version implies, matching the thresholds
// original_source/src/stream/file.cpp's filter selection uses
// (InstructionFilter4108 below 5.2.0, InstructionFilter5200/5309 at and
// above it, the latter flipping the candidate's high byte from 5.3.9 on).
func callFilterFor(v setup.Version) *xtransform.Filter {
	if !v.AtLeast(5, 2, 0, 0) {
		return xtransform.NewFilter(xtransform.Dialect4108, false)
	}
	return xtransform.NewFilter(xtransform.Dialect5200, v.AtLeast(5, 3, 9, 0))
}

// filteredReader applies a stateful xtransform.Filter to every Read from
// src, in place, before handing the bytes onward.
type filteredReader struct {
	src    io.Reader
	filter *xtransform.Filter
}

func (r *filteredReader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if n > 0 {
		r.filter.Transform(p[:n])
	}
	return n, err
}
