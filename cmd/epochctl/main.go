// Package main provides epochctl, an operator CLI for an epoch-based
// reclamation service: it inspects epoch/session state, drives checkpoints,
// and repairs a key-value store from its write-ahead log.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/lfkv/epochkv/internal/checkpoint"
	"github.com/lfkv/epochkv/internal/cli"
	"github.com/lfkv/epochkv/internal/config"
	"github.com/lfkv/epochkv/internal/kvstore"
	"github.com/lfkv/epochkv/internal/logging"
	"github.com/lfkv/epochkv/internal/session"
	"github.com/lfkv/epochkv/pkg/epoch"
	"github.com/lfkv/epochkv/pkg/fs"
)

func main() {
	os.Exit(run())
}

func run() int {
	workDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err) //nolint:forbidigo // pre-bootstrap: no IO/logger exists yet

		return 1
	}

	configPath, logLevelOverride, logFormatOverride := parseBootstrapFlags(os.Args[1:])

	cfg, sources, err := config.Load(workDir, configPath, config.Config{}, false, os.Environ())
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err) //nolint:forbidigo

		return 1
	}

	if logLevelOverride != "" {
		cfg.LogLevel = logLevelOverride
	}

	if logFormatOverride != "" {
		cfg.LogFormat = logFormatOverride
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	rt, cleanup, err := bootstrap(cfg, sources, logger, workDir)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start")

		return 1
	}
	defer cleanup()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	return cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, rt, sigCh)
}

// parseBootstrapFlags does a lenient, best-effort pre-pass for the three
// flags that select the Runtime itself (config path and log overrides).
// cli.Run reparses the full global flag set afterward for help/validation;
// this pass only needs to not error out on the rest of the command line.
func parseBootstrapFlags(args []string) (configPath, logLevel, logFormat string) {
	fs := flag.NewFlagSet("epochctl-bootstrap", flag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	fs.SetOutput(&strings.Builder{})

	configFlag := fs.String("config", "", "")
	logLevelFlag := fs.String("log-level", "", "")
	logFormatFlag := fs.String("log-format", "", "")

	_ = fs.Parse(args)

	return *configFlag, *logLevelFlag, *logFormatFlag
}

// bootstrap wires together every long-lived subsystem the CLI commands
// share. It returns a cleanup func that releases epoch handles and closes
// open sessions.
func bootstrap(cfg config.Config, sources config.Sources, logger zerolog.Logger, workDir string) (*cli.Runtime, func(), error) {
	mgr, err := epoch.New(cfg.TableSize, epoch.WithStallHandler(func(wraps int) {
		logger.Warn().Int("wraps", wraps).Msg("drain-list enqueue stalled")
	}))
	if err != nil {
		return nil, nil, fmt.Errorf("create epoch manager: %w", err)
	}

	manifestPath := filepath.Join(workDir, ".epochctl", "manifest.json")

	if err := os.MkdirAll(filepath.Dir(manifestPath), 0o750); err != nil {
		return nil, nil, fmt.Errorf("create manifest directory: %w", err)
	}

	pollInterval, err := cfg.CheckpointIntervalDuration()
	if err != nil {
		return nil, nil, fmt.Errorf("parse checkpoint_interval: %w", err)
	}

	coord, err := checkpoint.NewCoordinator(
		mgr,
		fs.NewReal(),
		manifestPath,
		checkpoint.WithLogger(logger),
		checkpoint.WithPollInterval(pollInterval),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create checkpoint coordinator: %w", err)
	}

	sessions := session.NewManager(mgr, coord, logger)
	store := kvstore.NewStore()

	rt := &cli.Runtime{
		Config:      cfg,
		Sources:     sources,
		Logger:      logger,
		EpochMgr:    mgr,
		Sessions:    sessions,
		Coordinator: coord,
		Store:       store,
	}

	cleanup := func() {
		for _, id := range sessions.List() {
			_ = sessions.Close(id)
		}

		_ = coord.Close()
	}

	return rt, cleanup, nil
}
