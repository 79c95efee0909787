package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pump-candidate/internal/config"
	"pump-candidate/internal/output"
	"pump-candidate/internal/solana"
	"pump-candidate/internal/verification"
)

func newVerifyCmd(cfg *config.Config) *cobra.Command {
	var rpcURL string

	cmd := &cobra.Command{
		Use:   "verify <mint>",
		Short: "Check a mint's account, metadata PDA and recent signatures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mint := args[0]
			if err := verification.ValidateMint(mint); err != nil {
				return &config.Error{Setting: "mint", Reason: err.Error()}
			}

			verifier := verification.NewVerifier(solana.NewHTTPClient(rpcURL))
			report, err := verifier.Verify(cmd.Context(), mint)
			if err != nil {
				return err
			}

			if !report.Verified() {
				log.Warn().
					Str("mint", mint).
					Bool("mint_exists", report.MintAccount.Exists).
					Bool("metadata_exists", report.MetadataAccount.Exists).
					Msg("Mint not fully verified")
			}
			return output.WriteJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&rpcURL, "rpc-url", cfg.SolanaRPC, "Solana JSON-RPC endpoint (SOLANA_RPC_URL)")
	return cmd
}
