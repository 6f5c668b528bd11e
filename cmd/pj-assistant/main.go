// Command pj-assistant runs the PJ Assistente voice assistant for the Paulo
// Jorge Barbershop: a host bridge server, a terminal session and store
// maintenance commands.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-go/pj-assistant/internal/dotenv"
	"github.com/vango-go/pj-assistant/internal/telemetry"
	"github.com/vango-go/pj-assistant/pkg/gateway/config"
)

var version = "dev"

type rootOptions struct {
	envFiles []string
}

func newRootCmd(deps appDeps, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "pj-assistant",
		Short:         "PJ Assistente, the barbershop voice assistant",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "dotenv files loaded before the environment is read; earlier files win")

	root.AddCommand(
		newServeCmd(opts, deps),
		newTalkCmd(opts, deps),
		newMigrateCmd(opts, deps),
		newBookingsCmd(opts, deps),
	)
	return root
}

// setup loads dotenv files and configuration and builds the logger. The
// returned cleanup flushes telemetry and closes the log file.
func setup(ctx context.Context, opts *rootOptions, deps appDeps, stderr io.Writer) (config.Config, *slog.Logger, func(), error) {
	if err := dotenv.LoadFiles(opts.envFiles...); err != nil {
		return config.Config{}, nil, nil, err
	}
	cfg, err := deps.loadConfig()
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, logCloser, err := telemetry.NewLogger(cfg.LogFile, cfg.LogLevel, stderr)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	shutdownTelemetry, err := telemetry.Init(ctx, cfg.TelemetryDir, version)
	if err != nil {
		_ = logCloser.Close()
		return config.Config{}, nil, nil, err
	}
	cleanup := func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
		_ = logCloser.Close()
	}
	return cfg, logger, cleanup, nil
}

func runMain(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, deps appDeps) int {
	if stderr == nil {
		stderr = os.Stderr
	}
	root := newRootCmd(deps, stdin, stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "pj-assistant: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr, defaultAppDeps()))
}
