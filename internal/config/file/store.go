// Package file provides a file-based config.Store implementation.
//
// Defaults are persisted as a versioned JSON envelope:
//
//	{"version": 1, "config": { ... }}
//
// Every Save overwrites the envelope outright, since Defaults is a flat
// value, not a collection of entities to merge in place.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"innoextract/internal/config"
)

const currentVersion = 1

// envelope is the versioned on-disk format.
type envelope struct {
	Version int              `json:"version"`
	Config  *config.Defaults `json:"config"`
}

// Store is a file-based config.Store implementation. Writes are atomic via
// temp file + rename with round-trip validation.
type Store struct {
	path string
}

var _ config.Store = (*Store)(nil)

// NewStore creates a file-based Store persisting to path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the defaults from disk. Returns nil, nil if the file does not
// exist.
func (s *Store) Load(ctx context.Context) (*config.Defaults, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if env.Version == 0 {
		return nil, fmt.Errorf("unversioned config file detected; delete %s and restart to bootstrap a fresh config", s.path)
	}

	if env.Version != currentVersion {
		return nil, fmt.Errorf("config file version %d is not supported (expected %d)", env.Version, currentVersion)
	}

	if env.Config == nil {
		return nil, nil
	}
	if err := env.Config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config file: %w", err)
	}
	return env.Config, nil
}

// Save atomically writes cfg to disk with round-trip validation.
func (s *Store) Save(ctx context.Context, cfg *config.Defaults) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	env := envelope{Version: currentVersion, Config: cfg}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	// Round-trip validation: re-read and verify valid JSON.
	check, err := os.ReadFile(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("read-back temp file: %w", err)
	}
	var verify envelope
	if err := json.Unmarshal(check, &verify); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("round-trip validation failed: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config file: %w", err)
	}

	return nil
}
