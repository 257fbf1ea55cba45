package validate

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tphakala/syllable-catalog/internal/config"
	"github.com/tphakala/syllable-catalog/internal/errors"
	"github.com/tphakala/syllable-catalog/internal/indexer"
	"github.com/tphakala/syllable-catalog/internal/logger"
)

type options struct {
	containers bool
	deep       bool
}

// Command creates the validate command. Configuration is validated while
// the root command loads it; with --containers the container tree is also
// scanned and checked without touching the database.
func Command(ctx *config.Context) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "validate [dir]",
		Short: "Validate configuration and, optionally, the container tree",
		Long: "Validate the configuration file. With --containers, also scan [dir] " +
			"(default: data_roots.features_dir) and check every discovered container.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ctx.Log().Info("configuration validation successful",
				logger.String("database_scheme", ctx.Settings.Database.DatabaseScheme()))
			if _, err := fmt.Fprintln(out, "✓ Configuration validation passed"); err != nil {
				return err
			}

			if !opts.containers && !opts.deep && len(args) == 0 {
				return nil
			}

			dir := ctx.Settings.DataRoots.FeaturesDir
			if len(args) == 1 {
				dir = args[0]
			}
			return validateContainers(out, ctx.NewIndexer(nil), dir, opts.deep)
		},
	}

	setupFlags(cmd, opts)

	return cmd
}

// setupFlags defines flags specific to the validate command.
func setupFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().BoolVar(&opts.containers, "containers", false, "Also scan and check the container tree")
	cmd.Flags().BoolVar(&opts.deep, "deep", false, "Open every container and check its datasets (implies --containers)")
}

func validateContainers(out io.Writer, ix *indexer.Indexer, dir string, deep bool) error {
	paths, err := ix.ScanFiles(dir)
	if err != nil {
		return err
	}

	if err := ix.ValidateIntegrity(paths); err != nil {
		var report *indexer.IntegrityReport
		if errors.As(err, &report) {
			_, _ = fmt.Fprintln(out, report.Error())
		}
		return fmt.Errorf("container validation failed: %w", err)
	}

	if deep {
		var failed []error
		for _, path := range paths {
			if _, err := ix.ExtractMetadata(path); err != nil {
				failed = append(failed, err)
				_, _ = fmt.Fprintf(out, "✗ %s: %v\n", path, err)
			}
		}
		if len(failed) > 0 {
			return fmt.Errorf("%d of %d containers failed extraction: %w", len(failed), len(paths), errors.Join(failed...))
		}
	}

	_, err = fmt.Fprintf(out, "✓ %d containers validated in %s\n", len(paths), dir)
	return err
}
