package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/syllable-catalog/internal/config"
	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
	"github.com/tphakala/syllable-catalog/internal/errors"
	"github.com/tphakala/syllable-catalog/internal/indexer"
	"github.com/tphakala/syllable-catalog/internal/logger"
)

// Output formats for the run summary.
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

type options struct {
	workers     int
	metricsFile string
	format      string
}

// Command creates the ingest command, which runs a full indexing pass.
func Command(ctx *config.Context) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Index spectrogram containers into the catalog",
		Long: "Scan a directory for HDF5 containers, validate and checksum them, and catalog " +
			"their recordings and syllables in a single transaction. Defaults to data_roots.features_dir.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ctx.Settings.DataRoots.FeaturesDir
			if len(args) == 1 {
				dir = args[0]
			}
			return run(cmd, ctx, opts, dir)
		},
	}

	setupFlags(cmd, opts)

	return cmd
}

// setupFlags defines flags specific to the ingest command.
func setupFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Checksum workers (default: ingest.workers)")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics in textfile format to this path after the run")
	cmd.Flags().StringVarP(&opts.format, "format", "f", FormatText, "Summary format: text, yaml, json")
}

func run(cmd *cobra.Command, ctx *config.Context, opts *options, dir string) error {
	log := ctx.Log()

	if err := checkFormat(opts.format); err != nil {
		return err
	}

	engine, err := ctx.OpenEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	ix := ctx.NewIndexer(engine, indexer.WithChecksumWorkers(opts.workers))
	summary, runErr := ix.RunFullIndexing(cmd.Context(), dir)

	if opts.metricsFile != "" {
		if err := ctx.Metrics.WriteTextfile(opts.metricsFile); err != nil {
			log.Warn("failed to write metrics textfile",
				logger.String("path", opts.metricsFile),
				logger.Error(err))
		}
	}

	if summary != nil {
		if err := writeSummary(cmd.OutOrStdout(), opts.format, summary); err != nil {
			return errors.Join(runErr, err)
		}
	}

	if runErr != nil {
		log.Error("metadata ingestion failed", logger.String("base_dir", dir), logger.Error(runErr))
		return fmt.Errorf("ingestion failed: %w", runErr)
	}
	return nil
}

// writeSummary renders a run summary in the requested format.
func writeSummary(w io.Writer, format string, summary *indexer.Summary) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(summary); err != nil {
			return fmt.Errorf("failed to encode summary: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return fmt.Errorf("failed to encode summary: %w", err)
		}
		return nil
	default:
		if summary.Status == entities.IndexRunFailed {
			_, err := fmt.Fprintf(w, "✗ Run %s failed after %d discovered files: %v\n",
				summary.RunID, summary.DiscoveredFiles, summary.Errors)
			return err
		}
		_, err := fmt.Fprintf(w, "✓ Ingested %d files, %d syllables (%d unchanged files skipped)\n",
			summary.IndexedFiles, summary.TotalSyllables, summary.SkippedFiles)
		return err
	}
}

func checkFormat(format string) error {
	switch format {
	case FormatText, FormatYAML, FormatJSON:
		return nil
	default:
		return errors.ValidationError(fmt.Sprintf("unknown summary format %q, expected text, yaml or json", format))
	}
}
