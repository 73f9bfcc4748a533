// Command innoextract extracts the payload files embedded in an Inno Setup
// installer without running it.
//
// Logging:
//   - Base logger is created here with output format and level
//   - Logger is passed to extract.Run via dependency injection
//   - No global slog configuration (no slog.SetDefault)
//   - internal/extract scopes its own logger with "component", "extract"
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"innoextract/internal/logging"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	baseHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug, // allow all levels; filtering done by ComponentFilterHandler
	})
	filterHandler := logging.NewComponentFilterHandler(baseHandler, slog.LevelInfo)
	logger := slog.New(filterHandler)

	rootCmd := &cobra.Command{
		Use:   "innoextract",
		Short: "Extract files from an Inno Setup installer",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				filterHandler.SetLevel("extract", slog.LevelDebug)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "path to the defaults config file (default: platform config dir)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging for the extraction component")

	rootCmd.AddCommand(newExtractCmd(logger), newConfigCmd(), newVersionCmd())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}
