// Package config provides persistence for default extraction options.
//
// Store persists and reloads the options a user wants applied by default,
// so a CLI invocation against a familiar kind of installer doesn't need to
// repeat every flag. This is a thin, optional convenience layer: the core
// extract.Run API never reads a config file itself, only cmd/innoextract
// resolves flags against one.
//
// Store does not:
//   - Inspect installer contents
//   - Decide extraction policy beyond what a caller explicitly loads
//   - Watch for live changes (defaults are read once, at startup)
package config

import (
	"context"
	"fmt"
)

// Store persists and loads default extraction options.
type Store interface {
	// Load reads the defaults. Returns nil if none have been saved yet.
	Load(ctx context.Context) (*Defaults, error)

	// Save persists the defaults.
	Save(ctx context.Context, cfg *Defaults) error
}

// Defaults holds the extraction options applied when a flag is left unset.
// Fields mirror extract.Options but stay primitive (no dependency on the
// extract package) so this package can be loaded before any installer has
// been opened.
type Defaults struct {
	// OutputDir is the directory extracted files are written under.
	OutputDir string

	// Collisions is one of "", "overwrite", "rename", "rename-all", "error".
	// An empty string defers to extract's own zero-value policy.
	Collisions string

	// CodepageOverride forces interpretation of ANSI strings in a legacy
	// (pre-Unicode) installer under this Windows code page. Zero means
	// "use the installer's own recorded code page".
	CodepageOverride int

	// IncludePatterns restricts extraction to destination paths matching
	// at least one doublestar glob. An empty list extracts everything.
	IncludePatterns []string

	// LanguageFilter, if non-empty, skips files whose language condition
	// does not list this language.
	LanguageFilter string

	PreserveTimestamps bool
	LocalTimestamps    bool

	// ExtractTemp also extracts files Inno marks install-time-temporary.
	ExtractTemp bool

	// SliceOverrideDir, if non-empty, is tried (after the installer's own
	// directory) when opening external slice files.
	SliceOverrideDir string

	// XChaCha20Iterations is the PBKDF2 round count for installers using
	// the supplemented XChaCha20 chunk encryption dialect. Zero defers to
	// extract.DefaultXChaCha20Iterations.
	XChaCha20Iterations int

	AcceptUnknownVersion bool
}

var validCollisionPolicies = map[string]bool{
	"":           true,
	"overwrite":  true,
	"rename":     true,
	"rename-all": true,
	"error":      true,
}

// Validate reports whether d's fields hold recognized values. It does not
// check filesystem paths; those are resolved by the caller at extraction
// time.
func (d *Defaults) Validate() error {
	if !validCollisionPolicies[d.Collisions] {
		return fmt.Errorf("config: unrecognized collisions policy %q", d.Collisions)
	}
	if d.CodepageOverride < 0 {
		return fmt.Errorf("config: codepage override must not be negative")
	}
	if d.XChaCha20Iterations < 0 {
		return fmt.Errorf("config: xchacha20 iterations must not be negative")
	}
	for _, p := range d.IncludePatterns {
		if p == "" {
			return fmt.Errorf("config: include pattern must not be empty")
		}
	}
	return nil
}
