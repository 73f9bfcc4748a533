package main

import (
	"context"
	"path/filepath"
	"testing"

	configfile "innoextract/internal/config/file"

	"github.com/spf13/cobra"
)

func TestConfigStoreFromCmdUsesConfigFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cmd := &cobra.Command{}
	withConfigFlag(cmd, path)

	store, err := configStoreFromCmd(cmd)
	if err != nil {
		t.Fatalf("configStoreFromCmd: %v", err)
	}
	if store == nil {
		t.Fatal("expected non-nil store")
	}
}

func TestConfigStoreFromCmdFallsBackToDefaultPath(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "")

	store, err := configStoreFromCmd(cmd)
	if err != nil {
		t.Fatalf("configStoreFromCmd: %v", err)
	}
	if store == nil {
		t.Fatal("expected non-nil store")
	}
}

func TestConfigSetThenShow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	setCmd := newConfigSetCmd()
	withConfigFlag(setCmd, path)
	if err := setCmd.Flags().Set("output", "/tmp/out"); err != nil {
		t.Fatalf("set output flag: %v", err)
	}
	if err := setCmd.Flags().Set("collisions", "rename"); err != nil {
		t.Fatalf("set collisions flag: %v", err)
	}
	setCmd.SetArgs(nil)
	if err := setCmd.RunE(setCmd, nil); err != nil {
		t.Fatalf("RunE: %v", err)
	}

	store := configfile.NewStore(path)
	defaults, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if defaults == nil {
		t.Fatal("expected saved defaults, got nil")
	}
	if defaults.OutputDir != "/tmp/out" {
		t.Errorf("OutputDir = %q, want /tmp/out", defaults.OutputDir)
	}
	if defaults.Collisions != "rename" {
		t.Errorf("Collisions = %q, want rename", defaults.Collisions)
	}
}

func TestConfigSetRejectsInvalidCollisionPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	setCmd := newConfigSetCmd()
	withConfigFlag(setCmd, path)
	if err := setCmd.Flags().Set("collisions", "not-a-real-policy"); err != nil {
		t.Fatalf("set collisions flag: %v", err)
	}

	if err := setCmd.RunE(setCmd, nil); err == nil {
		t.Fatal("expected error for invalid collision policy, got nil")
	}
}

func TestConfigSetPreservesUnchangedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	first := newConfigSetCmd()
	withConfigFlag(first, path)
	first.Flags().Set("output", "/tmp/out")
	first.Flags().Set("codepage", "1252")
	if err := first.RunE(first, nil); err != nil {
		t.Fatalf("first RunE: %v", err)
	}

	second := newConfigSetCmd()
	withConfigFlag(second, path)
	second.Flags().Set("collisions", "error")
	if err := second.RunE(second, nil); err != nil {
		t.Fatalf("second RunE: %v", err)
	}

	store := configfile.NewStore(path)
	defaults, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if defaults.OutputDir != "/tmp/out" {
		t.Errorf("OutputDir = %q, want it preserved from first set", defaults.OutputDir)
	}
	if defaults.CodepageOverride != 1252 {
		t.Errorf("CodepageOverride = %d, want it preserved from first set", defaults.CodepageOverride)
	}
	if defaults.Collisions != "error" {
		t.Errorf("Collisions = %q, want error", defaults.Collisions)
	}
}
