package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/syllable-catalog/cmd/export"
	"github.com/tphakala/syllable-catalog/cmd/ingest"
	"github.com/tphakala/syllable-catalog/cmd/initdb"
	"github.com/tphakala/syllable-catalog/cmd/status"
	"github.com/tphakala/syllable-catalog/cmd/validate"
	"github.com/tphakala/syllable-catalog/internal/config"
)

// RootCommand creates and returns the root command
func RootCommand(ctx *config.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "catalog",
		Short:         "Syllable spectrogram metadata catalog",
		Long:          "Index HDF5 spectrogram containers into a relational catalog of recordings, syllables, embeddings and annotations.",
		Version:       ctx.Build.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd, ctx)

	rootCmd.AddCommand(
		initdb.Command(ctx),
		ingest.Command(ctx),
		validate.Command(ctx),
		status.Command(ctx),
		export.Command(ctx),
	)

	// Settings, logging, metrics and telemetry are loaded once the --config flag is parsed
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return ctx.Initialize()
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, ctx *config.Context) {
	rootCmd.PersistentFlags().StringVarP(&ctx.ConfigPath, "config", "c", "", "Path to catalog.yaml (default: ./catalog.yaml, then the user config directory)")
}
