package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/stdoc/internal/diag"
	"git.home.luguber.info/inful/stdoc/internal/pipeline"
	"git.home.luguber.info/inful/stdoc/internal/version"
)

var cli struct {
	Dir     string           `arg:"" type:"existingdir" help:"Root bundle directory to build."`
	Verbose bool             `short:"v" help:"Enable verbose logging."`
	Watch   bool             `short:"w" help:"Watch the source tree and rebuild on changes."`
	Version kong.VersionFlag `name:"version" help:"Show version and exit."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("stdoc"),
		kong.Description("Builds a static documentation site from a bundle tree."),
		kong.Vars{"version": version.Version},
	)

	// A .env in the root bundle directory supplies variables for config
	// expansion; the real environment wins over it.
	_ = godotenv.Load(filepath.Join(cli.Dir, ".env"))

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cli.Watch {
		err := watchAndRebuild(ctx, cli.Dir)
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Watch failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if _, err := pipeline.Run(ctx, cli.Dir, diag.New(slog.Default())); err != nil {
		slog.Error("Build failed", "error", err)
		os.Exit(1)
	}
}
