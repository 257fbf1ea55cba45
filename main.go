package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tphakala/syllable-catalog/cmd"
	"github.com/tphakala/syllable-catalog/internal/buildinfo"
	"github.com/tphakala/syllable-catalog/internal/config"
)

// Injected at build time with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   string
	buildDate string
)

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := config.NewContext(buildinfo.New(version, buildDate))
	defer app.Close()

	rootCmd := cmd.RootCommand(app)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
