// Package main is the picker CLI: it selects a pump.fun launch candidate from
// Bitquery data and offers on-chain verification, metadata resolution and a
// live creation feed.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pump-candidate/internal/config"
)

const (
	appName = "picker"
	version = "v0.3.0"
)

// Exit codes.
const (
	exitOK     = 0
	exitError  = 1
	exitConfig = 2
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if err := config.LoadDotEnv(); err != nil {
		log.Error().Err(err).Msg("Failed to load .env")
		return exitConfig
	}

	cfg, err := config.Load(nil)
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return exitCode(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(cfg)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msgf("%s failed", appName)
		return exitCode(err)
	}
	return exitOK
}

// exitCode maps configuration problems to 2 and everything else to 1.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return exitConfig
	}
	return exitError
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		logLevel string
		jsonLogs bool
	)

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Pick a pump.fun launch candidate from Bitquery data",
		Version: version,
		Long: `picker queries Bitquery for the newest pump.fun mints and the top movers by
5-minute market-cap change, intersects them by mint and prints the best
candidate that carries a metadata URI.

Running picker without a subcommand is the same as 'picker pick'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel, jsonLogs)
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Write logs as JSON instead of console text")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &config.Error{Setting: "flags", Reason: err.Error()}
	})

	// The root command runs pick with its own copy of the pick flags.
	rootOpts := addPickFlags(rootCmd.Flags(), cfg)
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runPick(cmd.Context(), cfg, rootOpts, cmd.OutOrStdout())
	}

	rootCmd.AddCommand(newPickCmd(cfg))
	rootCmd.AddCommand(newVerifyCmd(cfg))
	rootCmd.AddCommand(newWatchCmd(cfg))
	rootCmd.AddCommand(newMetadataCmd(cfg))

	return rootCmd
}

func setupLogging(level string, jsonLogs bool) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return &config.Error{Setting: "--log-level", Reason: err.Error()}
	}
	zerolog.SetGlobalLevel(lvl)

	if jsonLogs {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return nil
}
