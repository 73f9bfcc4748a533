package main

import (
	"context"
	"fmt"

	"innoextract/internal/config"
	configfile "innoextract/internal/config/file"

	"github.com/spf13/cobra"
)

// newConfigCmd returns the "config" command for viewing and saving the
// defaults applied when an extract flag is left unset.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or set saved extraction defaults",
	}
	cmd.AddCommand(newConfigShowCmd(), newConfigSetCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the saved defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := configStoreFromCmd(cmd)
			if err != nil {
				return err
			}
			defaults, err := store.Load(context.Background())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if defaults == nil {
				defaults = &config.Defaults{}
			}
			return newPrinter().json(defaults)
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the saved defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := configStoreFromCmd(cmd)
			if err != nil {
				return err
			}
			ctx := context.Background()
			defaults, err := store.Load(ctx)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if defaults == nil {
				defaults = &config.Defaults{}
			}

			flags := cmd.Flags()
			if v, _ := flags.GetString("output"); flags.Changed("output") {
				defaults.OutputDir = v
			}
			if v, _ := flags.GetString("collisions"); flags.Changed("collisions") {
				defaults.Collisions = v
			}
			if v, _ := flags.GetInt("codepage"); flags.Changed("codepage") {
				defaults.CodepageOverride = v
			}
			if v, _ := flags.GetStringSlice("include"); flags.Changed("include") {
				defaults.IncludePatterns = v
			}

			if err := store.Save(ctx, defaults); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			return newPrinter().json(defaults)
		},
	}

	cmd.Flags().String("output", "", "default output directory")
	cmd.Flags().String("collisions", "", "default collision policy: overwrite, rename, rename-all, error")
	cmd.Flags().Int("codepage", 0, "default Windows code page override")
	cmd.Flags().StringSlice("include", nil, "default include patterns")

	return cmd
}

func configStoreFromCmd(cmd *cobra.Command) (*configfile.Store, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		var err error
		path, err = defaultConfigPath()
		if err != nil {
			return nil, err
		}
	}
	return configfile.NewStore(path), nil
}
