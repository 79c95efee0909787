package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pump-candidate/internal/config"
	"pump-candidate/internal/metadata"
	"pump-candidate/internal/output"
)

func newMetadataCmd(cfg *config.Config) *cobra.Command {
	var gateway string

	cmd := &cobra.Command{
		Use:   "metadata <uri>",
		Short: "Download and print a token metadata document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uri := args[0]
			log.Debug().Str("url", metadata.GatewayURL(uri, gateway)).Msg("Resolving metadata")

			meta, err := metadata.NewFetcher(gateway).Fetch(cmd.Context(), uri)
			if err != nil {
				return err
			}
			return output.WriteJSON(cmd.OutOrStdout(), meta)
		},
	}

	cmd.Flags().StringVar(&gateway, "gateway", cfg.IPFSGateway, "IPFS HTTP gateway prefix (IPFS_GATEWAY)")
	return cmd
}
