package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"innoextract/internal/config"
)

func TestStoreLoadEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "config.json"))
	cfg, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != nil {
		t.Fatalf("expected nil config from empty store, got %+v", cfg)
	}
}

func TestStoreSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := NewStore(path)
	ctx := context.Background()

	want := &config.Defaults{
		OutputDir:       "/tmp/out",
		Collisions:      "rename",
		IncludePatterns: []string{"*.ini", "docs/**"},
	}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil {
		t.Fatal("expected non-nil config after save")
	}
	if got.OutputDir != want.OutputDir || got.Collisions != want.Collisions {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if len(got.IncludePatterns) != 2 {
		t.Errorf("IncludePatterns = %v", got.IncludePatterns)
	}
}

func TestStoreSaveRejectsInvalidConfig(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "config.json"))
	err := s.Save(context.Background(), &config.Defaults{Collisions: "nuke-everything"})
	if err == nil {
		t.Error("expected an error saving a config with an unrecognized collisions policy")
	}
}

func TestStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "subdir", "nested")
	configPath := filepath.Join(dir, "config.json")

	s := NewStore(configPath)
	if err := s.Save(context.Background(), &config.Defaults{OutputDir: "out"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("config file should exist: %v", err)
	}
}

func TestStoreInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")

	if err := os.WriteFile(configPath, []byte("{invalid}"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s := NewStore(configPath)
	_, err := s.Load(context.Background())
	if err == nil {
		t.Fatal("expected error loading invalid JSON, got nil")
	}
}

func TestStoreUnversionedFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")

	// A legacy unversioned config (no "version" field).
	data := `{"output_dir": "/tmp/out"}`
	if err := os.WriteFile(configPath, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s := NewStore(configPath)
	_, err := s.Load(context.Background())
	if err == nil {
		t.Fatal("expected error for unversioned config, got nil")
	}
	if !strings.Contains(err.Error(), "unversioned") {
		t.Errorf("expected error mentioning 'unversioned', got: %v", err)
	}
}

func TestStoreJSONIsHumanReadable(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")

	s := NewStore(configPath)
	if err := s.Save(context.Background(), &config.Defaults{OutputDir: "out"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	content := string(data)
	if !strings.Contains(content, "\n") {
		t.Error("expected indented JSON with newlines")
	}
	if !strings.Contains(content, `"version"`) {
		t.Error("expected versioned envelope with 'version' field")
	}
}

func TestStoreReloadFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	ctx := context.Background()

	s1 := NewStore(path)
	if err := s1.Save(ctx, &config.Defaults{OutputDir: "out1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// New store pointing at the same file.
	s2 := NewStore(path)
	got, err := s2.Load(ctx)
	if err != nil {
		t.Fatalf("Load from new store: %v", err)
	}
	if got == nil || got.OutputDir != "out1" {
		t.Errorf("got %+v, want OutputDir=out1", got)
	}
}
