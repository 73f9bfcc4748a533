package extract

// CollisionPolicy controls what happens when extraction would overwrite an
// existing destination file.
type CollisionPolicy int

const (
	CollisionOverwrite CollisionPolicy = iota
	CollisionRename
	CollisionRenameAll
	CollisionError
)

// Options configures one extraction run.
//
// Grounded on spec.md §6's "Caller interface (core)" — the fields
// deliberately out-of-scope collaborators (CLI flags, progress rendering)
// would set before calling Run.
type Options struct {
	OutputDir string

	Password string

	Collisions CollisionPolicy

	ExtractTemp bool

	LanguageFilter string

	IncludePatterns []string

	PreserveTimestamps bool
	LocalTimestamps    bool

	CodepageOverride int

	AcceptUnknownVersion bool

	// SliceOverrideDir, if non-empty, is tried (after the installer's own
	// directory) when opening external slice files.
	SliceOverrideDir string

	// XChaCha20Iterations is the PBKDF2 round count used to derive the
	// XChaCha20 chunk key on installers with EncryptionUsed set. The wire
	// format this package decodes carries no iteration count for this
	// dialect (it is a supplemented encryption mode, not one the retrieved
	// original source exercises), so callers that know the figure their
	// installer was built with should set it; zero falls back to
	// DefaultXChaCha20Iterations.
	XChaCha20Iterations int
}

// DefaultXChaCha20Iterations is used when Options.XChaCha20Iterations is
// left at zero.
const DefaultXChaCha20Iterations = 200000

// Report summarizes one completed (or partially completed) extraction run.
type Report struct {
	FilesExtracted  uint64
	BytesExtracted  uint64
	Warnings        uint32
	Errors          uint32
	FailedChecksums []string
}
