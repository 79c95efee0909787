package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"pump-candidate/internal/bitquery"
	"pump-candidate/internal/config"
	"pump-candidate/internal/metadata"
	"pump-candidate/internal/orchestrator"
	"pump-candidate/internal/output"
	"pump-candidate/internal/solana"
	"pump-candidate/internal/verification"
)

type pickOptions struct {
	windows         orchestrator.Windows
	emitEnv         string
	verify          bool
	resolveMetadata bool
}

// addPickFlags registers the pick flags on fs with defaults taken from cfg.
func addPickFlags(fs *pflag.FlagSet, cfg *config.Config) *pickOptions {
	opts := &pickOptions{}
	fs.IntVar(&opts.windows.NewestMinutes, "newest-minutes", cfg.Pick.NewestMinutes, "Creation window for newest mints, in minutes (BQ_NEWEST_MINUTES)")
	fs.IntVar(&opts.windows.NewestCount, "newest-count", cfg.Pick.NewestCount, "Maximum newest mints to fetch (BQ_NEWEST_COUNT)")
	fs.IntVar(&opts.windows.TopHours, "top-since-hours", cfg.Pick.TopHours, "Trade window for top movers, in hours (BQ_TOP_HOURS)")
	fs.IntVar(&opts.windows.TopCount, "top-count", cfg.Pick.TopCount, "Maximum top movers to fetch (BQ_TOP_COUNT)")
	fs.StringVar(&opts.emitEnv, "emit-env", cfg.Pick.EmitEnv, "Also print shell assignments (none|powershell|bash) (EMIT_ENV)")
	fs.BoolVar(&opts.verify, "verify", false, "Verify the candidate's mint and metadata accounts over Solana RPC")
	fs.BoolVar(&opts.resolveMetadata, "resolve-metadata", false, "Download the candidate's metadata document")
	return opts
}

func (o *pickOptions) validate() error {
	for _, f := range []struct {
		name string
		v    int
	}{
		{"--newest-minutes", o.windows.NewestMinutes},
		{"--newest-count", o.windows.NewestCount},
		{"--top-since-hours", o.windows.TopHours},
		{"--top-count", o.windows.TopCount},
	} {
		if f.v <= 0 {
			return &config.Error{Setting: f.name, Reason: fmt.Sprintf("must be positive, got %d", f.v)}
		}
	}
	return nil
}

func newPickCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Pick the best new pump.fun token by 5m market-cap change",
		Long: `Fetches pump.fun mints created in the last --newest-minutes and the top
movers of the last --top-since-hours, then picks the intersecting mint with
the greatest 5-minute market-cap change. When nothing intersects, the most
recent new mint with a metadata URI is used.`,
		Args: cobra.NoArgs,
	}
	opts := addPickFlags(cmd.Flags(), cfg)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runPick(cmd.Context(), cfg, opts, cmd.OutOrStdout())
	}
	return cmd
}

func runPick(ctx context.Context, cfg *config.Config, opts *pickOptions, stdout io.Writer) error {
	if err := cfg.Pick.Err(); err != nil {
		return err
	}
	if err := opts.validate(); err != nil {
		return err
	}
	mode, err := output.ParseEnvMode(opts.emitEnv)
	if err != nil {
		return &config.Error{Setting: "--emit-env", Reason: err.Error()}
	}

	client, err := bitquery.NewClient(cfg.Bitquery)
	if err != nil {
		return err
	}

	orchOpts := orchestrator.Options{
		Source:  client,
		Windows: opts.windows,
	}
	if opts.verify {
		orchOpts.Verifier = verification.NewVerifier(solana.NewHTTPClient(cfg.SolanaRPC))
	}
	if opts.resolveMetadata {
		orchOpts.Metadata = metadata.NewFetcher(cfg.IPFSGateway)
	}

	result, err := orchestrator.New(orchOpts).Run(ctx)
	if err != nil {
		return err
	}

	if err := output.WriteCandidate(stdout, result.Candidate); err != nil {
		return err
	}
	if result.Verification != nil {
		if err := writeSection(stdout, "Verification", result.Verification); err != nil {
			return err
		}
	}
	if result.Metadata != nil {
		if err := writeSection(stdout, "Metadata", result.Metadata); err != nil {
			return err
		}
	}
	return output.WriteEnv(stdout, result.Candidate, mode)
}

func writeSection(w io.Writer, title string, v any) error {
	if _, err := fmt.Fprintf(w, "\n=== %s ===\n", title); err != nil {
		return err
	}
	return output.WriteJSON(w, v)
}
