package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/syllable-catalog/cmd/render"
	"github.com/tphakala/syllable-catalog/internal/config"
	"github.com/tphakala/syllable-catalog/internal/datastore"
	dsexport "github.com/tphakala/syllable-catalog/internal/datastore/export"
	"github.com/tphakala/syllable-catalog/internal/logger"
)

type options struct {
	batchSize  int
	clean      bool
	skipVerify bool
}

// Command creates the export command, which copies the configured catalog
// into another database.
func Command(ctx *config.Context) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "export <target-url>",
		Short: "Copy the catalog into another database",
		Long: `Copy every catalog table from the configured database into the database at
<target-url>, for example mysql://catalog:secret@db:3306/catalog.

Original IDs are preserved and tables are copied parent before child. Rows
that already exist in the target are skipped, so an interrupted export can be
re-run. The copy is verified afterwards unless --skip-verify is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, ctx, opts, args[0])
		},
	}

	setupFlags(cmd, opts)

	return cmd
}

// setupFlags defines flags specific to the export command.
func setupFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", dsexport.DefaultBatchSize, "Number of rows per batch")
	cmd.Flags().BoolVar(&opts.clean, "clean", false, "Delete all target rows before copying (keeps table structure)")
	cmd.Flags().BoolVar(&opts.skipVerify, "skip-verify", false, "Skip post-copy verification")
}

func run(cmd *cobra.Command, ctx *config.Context, opts *options, targetURL string) error {
	log := ctx.Log()
	out := cmd.OutOrStdout()

	source, err := ctx.OpenEngine()
	if err != nil {
		return err
	}
	defer source.Close()

	target, err := datastore.NewEngine(targetURL,
		datastore.WithLogger(log),
		datastore.WithPool(ctx.Settings.Database.PoolSize, ctx.Settings.Database.MaxOverflow),
	)
	if err != nil {
		return err
	}
	defer target.Close()

	if source.Dialect() == target.Dialect() && source.Location() == target.Location() {
		return fmt.Errorf("source and target are the same database: %s", source.Location())
	}

	copier, err := dsexport.New(source, target, dsexport.Options{
		BatchSize: opts.batchSize,
		Clean:     opts.clean,
	}, log)
	if err != nil {
		return err
	}

	log.Info("catalog export started",
		logger.String("source", source.Location()),
		logger.String("target", target.Location()))

	stats, runErr := copier.Run(cmd.Context())
	if stats != nil && len(stats.Tables) > 0 {
		if err := writeStats(out, stats); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("export failed: %w", runErr)
	}

	if opts.skipVerify {
		return nil
	}

	checks, verifyErr := copier.Verify(cmd.Context())
	if err := writeChecks(out, checks); err != nil {
		return err
	}
	if verifyErr != nil {
		return fmt.Errorf("verification failed: %w", verifyErr)
	}
	_, err = fmt.Fprintln(out, "✓ Verification passed")
	return err
}

func writeStats(w io.Writer, stats *dsexport.Stats) error {
	rows := make([][]string, 0, len(stats.Tables)+1)
	for _, t := range stats.Tables {
		rows = append(rows, []string{
			t.Name,
			strconv.FormatInt(t.Copied, 10),
			strconv.FormatInt(t.Skipped, 10),
			strconv.FormatInt(t.Errors, 10),
			t.Duration.Round(time.Millisecond).String(),
		})
	}
	copied, skipped, failed := stats.Totals()
	rows = append(rows, []string{
		"TOTAL",
		strconv.FormatInt(copied, 10),
		strconv.FormatInt(skipped, 10),
		strconv.FormatInt(failed, 10),
		stats.EndTime.Sub(stats.StartTime).Round(time.Millisecond).String(),
	})

	var b strings.Builder
	b.WriteString(render.Table("Export summary",
		[]string{"Table", "Copied", "Skipped", "Errors", "Duration"},
		rows,
		[]render.Alignment{render.AlignLeft, render.AlignRight, render.AlignRight, render.AlignRight, render.AlignRight}))
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func writeChecks(w io.Writer, checks []dsexport.CountCheck) error {
	if len(checks) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(checks))
	for _, c := range checks {
		match := "✓"
		if !c.Match() {
			match = "✗"
		}
		rows = append(rows, []string{
			c.Table,
			strconv.FormatInt(c.Source, 10),
			strconv.FormatInt(c.Target, 10),
			match,
		})
	}
	_, err := io.WriteString(w, render.Table("Verification",
		[]string{"Table", "Source", "Target", "Match"},
		rows,
		[]render.Alignment{render.AlignLeft, render.AlignRight, render.AlignRight, render.AlignLeft})+"\n")
	return err
}
