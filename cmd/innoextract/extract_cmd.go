package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"innoextract/internal/config"
	configfile "innoextract/internal/config/file"
	"innoextract/internal/extract"

	"github.com/spf13/cobra"
)

// envPassword reads the installer password from INNOEXTRACT_PASSWORD if set,
// so a caller doesn't have to put it on the command line where it would show
// up in shell history and process listings.
func envPassword() string {
	return os.Getenv("INNOEXTRACT_PASSWORD")
}

// defaultConfigPath returns the platform default location for the defaults
// config file, used when --config is not given.
func defaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve default config directory: %w", err)
	}
	return filepath.Join(dir, "innoextract", "config.json"), nil
}

func newExtractCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <installer>",
		Short: "Extract payload files from an Inno Setup installer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolveOptions(cmd)
			if err != nil {
				return err
			}

			report, err := extract.Run(cmd.Context(), args[0], opts, logger)
			if err != nil {
				return fmt.Errorf("extract: %w", err)
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			p := newPrinter()
			if asJSON {
				return p.json(report)
			}
			printReport(p, report)
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "output directory")
	cmd.Flags().StringP("password", "p", "", "installer password (or INNOEXTRACT_PASSWORD env)")
	cmd.Flags().String("collisions", "", "collision policy: overwrite, rename, rename-all, error")
	cmd.Flags().Bool("extract-temp", false, "also extract install-time-temporary files")
	cmd.Flags().String("language", "", "only extract files matching this language")
	cmd.Flags().StringSlice("include", nil, "only extract destination paths matching one of these doublestar globs")
	cmd.Flags().Bool("preserve-timestamps", false, "set extracted file modification times from the installer")
	cmd.Flags().Bool("local-timestamps", false, "interpret installer timestamps as local time instead of UTC")
	cmd.Flags().Int("codepage", 0, "force this Windows code page for ANSI strings in a legacy installer")
	cmd.Flags().Bool("accept-unknown-version", false, "proceed when the installer's version signature isn't recognized")
	cmd.Flags().String("slice-dir", "", "additional directory to search for external slice files")
	cmd.Flags().Int("xchacha20-iterations", 0, "PBKDF2 round count for XChaCha20-encrypted chunks")
	cmd.Flags().Bool("json", false, "print the extraction report as JSON")

	return cmd
}

// resolveOptions layers extract.Options from, in increasing priority:
// saved defaults, environment, then explicit flags.
func resolveOptions(cmd *cobra.Command) (extract.Options, error) {
	defaults, err := loadDefaults(cmd)
	if err != nil {
		return extract.Options{}, err
	}

	opts := extract.Options{}
	if defaults != nil {
		opts.OutputDir = defaults.OutputDir
		opts.Collisions = parseCollisionPolicy(defaults.Collisions)
		opts.CodepageOverride = defaults.CodepageOverride
		opts.IncludePatterns = defaults.IncludePatterns
		opts.LanguageFilter = defaults.LanguageFilter
		opts.PreserveTimestamps = defaults.PreserveTimestamps
		opts.LocalTimestamps = defaults.LocalTimestamps
		opts.ExtractTemp = defaults.ExtractTemp
		opts.SliceOverrideDir = defaults.SliceOverrideDir
		opts.XChaCha20Iterations = defaults.XChaCha20Iterations
		opts.AcceptUnknownVersion = defaults.AcceptUnknownVersion
	}

	opts.Password = envPassword()

	flags := cmd.Flags()
	if v, _ := flags.GetString("output"); flags.Changed("output") {
		opts.OutputDir = v
	}
	if v, _ := flags.GetString("password"); flags.Changed("password") {
		opts.Password = v
	}
	if v, _ := flags.GetString("collisions"); flags.Changed("collisions") {
		opts.Collisions = parseCollisionPolicy(v)
	}
	if v, _ := flags.GetBool("extract-temp"); flags.Changed("extract-temp") {
		opts.ExtractTemp = v
	}
	if v, _ := flags.GetString("language"); flags.Changed("language") {
		opts.LanguageFilter = v
	}
	if v, _ := flags.GetStringSlice("include"); flags.Changed("include") {
		opts.IncludePatterns = v
	}
	if v, _ := flags.GetBool("preserve-timestamps"); flags.Changed("preserve-timestamps") {
		opts.PreserveTimestamps = v
	}
	if v, _ := flags.GetBool("local-timestamps"); flags.Changed("local-timestamps") {
		opts.LocalTimestamps = v
	}
	if v, _ := flags.GetInt("codepage"); flags.Changed("codepage") {
		opts.CodepageOverride = v
	}
	if v, _ := flags.GetBool("accept-unknown-version"); flags.Changed("accept-unknown-version") {
		opts.AcceptUnknownVersion = v
	}
	if v, _ := flags.GetString("slice-dir"); flags.Changed("slice-dir") {
		opts.SliceOverrideDir = v
	}
	if v, _ := flags.GetInt("xchacha20-iterations"); flags.Changed("xchacha20-iterations") {
		opts.XChaCha20Iterations = v
	}

	return opts, nil
}

// parseCollisionPolicy maps a config.Defaults.Collisions string onto
// extract's CollisionPolicy, defaulting to CollisionOverwrite when empty or
// unrecognized (config.Defaults.Validate already rejects unrecognized
// values before they reach here for saved defaults; an unrecognized flag
// value falls back the same way rather than failing the run).
func parseCollisionPolicy(s string) extract.CollisionPolicy {
	switch s {
	case "rename":
		return extract.CollisionRename
	case "rename-all":
		return extract.CollisionRenameAll
	case "error":
		return extract.CollisionError
	default:
		return extract.CollisionOverwrite
	}
}

// loadDefaults reads saved defaults from the config file named by --config,
// or the platform default location if --config is empty. A missing file is
// not an error; it just means there are no saved defaults.
func loadDefaults(cmd *cobra.Command) (*config.Defaults, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		var err error
		path, err = defaultConfigPath()
		if err != nil {
			return nil, err
		}
	}

	store := configfile.NewStore(path)
	defaults, err := store.Load(context.Background())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return defaults, nil
}

func printReport(p *printer, report *extract.Report) {
	p.kv([][2]string{
		{"files extracted", fmt.Sprintf("%d", report.FilesExtracted)},
		{"bytes extracted", fmt.Sprintf("%d", report.BytesExtracted)},
		{"warnings", fmt.Sprintf("%d", report.Warnings)},
		{"errors", fmt.Sprintf("%d", report.Errors)},
		{"failed checksums", fmt.Sprintf("%d", len(report.FailedChecksums))},
	})
}
