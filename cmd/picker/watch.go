package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pump-candidate/internal/bitquery"
	"pump-candidate/internal/config"
	"pump-candidate/internal/normalization"
	"pump-candidate/internal/observability"
)

type watchOptions struct {
	requireURI  bool
	metricsAddr string
	limit       int
}

func newWatchCmd(cfg *config.Config) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream new pump.fun token creations as JSON lines",
		Long: `Subscribes to pump.fun create events over the Bitquery websocket API and
prints one JSON object per new token until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stream, err := bitquery.NewStream(cfg.Bitquery, nil)
			if err != nil {
				return err
			}
			defer stream.Close()

			if opts.metricsAddr != "" {
				srv := startMetricsServer(opts.metricsAddr)
				defer shutdownMetricsServer(srv)
			}
			return runWatch(cmd.Context(), stream, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.requireURI, "require-uri", false, "Only print tokens that carry a metadata URI")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address (e.g. :9090)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Stop after printing this many tokens (0 = no limit)")
	return cmd
}

// creationSource is the part of bitquery.Stream that watch consumes.
type creationSource interface {
	SubscribeCreations(ctx context.Context) (<-chan bitquery.CreationRow, error)
	Err() error
}

func runWatch(ctx context.Context, src creationSource, opts *watchOptions, stdout io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rows, err := src.SubscribeCreations(ctx)
	if err != nil {
		return err
	}
	log.Info().Msg("Watching pump.fun creations")

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)

	printed := 0
	for row := range rows {
		creation, ok := normalization.NormalizeCreation(row)
		if !ok {
			continue
		}
		observability.RecordCreation()

		if opts.requireURI && creation.URI == "" {
			continue
		}
		if err := enc.Encode(creation); err != nil {
			return err
		}

		printed++
		if opts.limit > 0 && printed >= opts.limit {
			cancel()
			break
		}
	}

	if err := src.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Int("printed", printed).Msg("Watch stopped")
	return nil
}

func startMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", addr).Msg("Starting metrics server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return srv
}

func shutdownMetricsServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("Metrics server shutdown")
	}
}
