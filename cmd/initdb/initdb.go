package initdb

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/syllable-catalog/internal/config"
	"github.com/tphakala/syllable-catalog/internal/logger"
)

// Command creates the init command, which creates any missing catalog tables.
func Command(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the catalog database schema",
		Long:  "Connect to the configured database and create any missing tables, indexes and constraints.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, ctx)
		},
	}

	return cmd
}

func run(cmd *cobra.Command, ctx *config.Context) error {
	engine, err := ctx.OpenEngine()
	if err != nil {
		ctx.Log().Error("database initialization failed", logger.Error(err))
		return err
	}
	defer engine.Close()

	ctx.Log().Info("database initialization completed",
		logger.String("dialect", string(engine.Dialect())),
		logger.String("location", engine.Location()))
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "✓ Database initialized at: %s\n", engine.Location())
	return err
}
