package main

import (
	"context"
	"path/filepath"
	"testing"

	"innoextract/internal/config"
	configfile "innoextract/internal/config/file"
	"innoextract/internal/extract"

	"github.com/spf13/cobra"
)

func TestParseCollisionPolicy(t *testing.T) {
	tests := []struct {
		in   string
		want extract.CollisionPolicy
	}{
		{"", extract.CollisionOverwrite},
		{"overwrite", extract.CollisionOverwrite},
		{"rename", extract.CollisionRename},
		{"rename-all", extract.CollisionRenameAll},
		{"error", extract.CollisionError},
		{"unrecognized", extract.CollisionOverwrite},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := parseCollisionPolicy(tc.in); got != tc.want {
				t.Errorf("parseCollisionPolicy(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

// withConfigFlag registers the --config flag that main.go normally attaches
// as a persistent flag on the root command, so resolveOptions/loadDefaults
// can find it when the extract subcommand is exercised standalone in tests.
func withConfigFlag(cmd *cobra.Command, path string) {
	cmd.Flags().String("config", "", "")
	cmd.Flags().Set("config", path)
}

func TestResolveOptionsFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")
	store := configfile.NewStore(configPath)
	if err := store.Save(context.Background(), &config.Defaults{OutputDir: "/from/config", Collisions: "rename"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cmd := newExtractCmd(nil)
	withConfigFlag(cmd, configPath)
	cmd.Flags().Set("output", "/from/flag")

	opts, err := resolveOptions(cmd)
	if err != nil {
		t.Fatalf("resolveOptions: %v", err)
	}
	if opts.OutputDir != "/from/flag" {
		t.Errorf("OutputDir = %q, want flag value to win", opts.OutputDir)
	}
	if opts.Collisions != extract.CollisionRename {
		t.Errorf("Collisions = %v, want config value to survive unset flag", opts.Collisions)
	}
}

func TestResolveOptionsNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	cmd := newExtractCmd(nil)
	withConfigFlag(cmd, filepath.Join(dir, "does-not-exist.json"))

	opts, err := resolveOptions(cmd)
	if err != nil {
		t.Fatalf("resolveOptions: %v", err)
	}
	if opts.OutputDir != "" {
		t.Errorf("expected zero-value OutputDir, got %q", opts.OutputDir)
	}
}

func TestResolveOptionsPasswordFlagOverridesEnv(t *testing.T) {
	t.Setenv("INNOEXTRACT_PASSWORD", "from-env")
	dir := t.TempDir()
	cmd := newExtractCmd(nil)
	withConfigFlag(cmd, filepath.Join(dir, "does-not-exist.json"))
	cmd.Flags().Set("password", "from-flag")

	opts, err := resolveOptions(cmd)
	if err != nil {
		t.Fatalf("resolveOptions: %v", err)
	}
	if opts.Password != "from-flag" {
		t.Errorf("Password = %q, want flag to win over env", opts.Password)
	}
}

func TestResolveOptionsPasswordFallsBackToEnv(t *testing.T) {
	t.Setenv("INNOEXTRACT_PASSWORD", "from-env")
	dir := t.TempDir()
	cmd := newExtractCmd(nil)
	withConfigFlag(cmd, filepath.Join(dir, "does-not-exist.json"))

	opts, err := resolveOptions(cmd)
	if err != nil {
		t.Fatalf("resolveOptions: %v", err)
	}
	if opts.Password != "from-env" {
		t.Errorf("Password = %q, want env fallback", opts.Password)
	}
}
