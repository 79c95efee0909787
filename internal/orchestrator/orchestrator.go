// Package orchestrator runs the pick flow.
// It coordinates: fetch newest → fetch top movers → normalization → selection,
// then the optional on-chain verification and metadata resolution steps.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"pump-candidate/internal/bitquery"
	"pump-candidate/internal/domain"
	"pump-candidate/internal/normalization"
	"pump-candidate/internal/observability"
	"pump-candidate/internal/selection"
	"pump-candidate/internal/verification"
)

// Source fetches the two raw lists the selection is made from.
type Source interface {
	FetchNewest(ctx context.Context, minutes, limit int) ([]bitquery.NewestRow, error)
	FetchTopMovers(ctx context.Context, hours, limit int) ([]bitquery.TopRow, error)
}

// Verifier checks a candidate on-chain.
type Verifier interface {
	VerifyCandidate(ctx context.Context, c *domain.Candidate) (*verification.Report, error)
}

// MetadataResolver downloads a candidate's off-chain metadata document.
type MetadataResolver interface {
	Fetch(ctx context.Context, uri string) (*domain.OffchainMetadata, error)
}

// Windows are the query windows and sizes for one run.
type Windows struct {
	NewestMinutes int
	NewestCount   int
	TopHours      int
	TopCount      int
}

// Orchestrator coordinates one pick.
type Orchestrator struct {
	source   Source
	verifier Verifier
	metadata MetadataResolver
	windows  Windows
}

// Options for creating Orchestrator.
type Options struct {
	// Required
	Source  Source
	Windows Windows

	// Optional post-selection steps; nil skips the step.
	Verifier Verifier
	Metadata MetadataResolver
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		source:   opts.Source,
		verifier: opts.Verifier,
		metadata: opts.Metadata,
		windows:  opts.Windows,
	}
}

// RunResult contains results from one pick.
type RunResult struct {
	Candidate    *domain.Candidate
	NewestCount  int
	TopCount     int
	Verification *verification.Report
	Metadata     *domain.OffchainMetadata

	// Errors from optional steps; they never fail the run.
	Errors []string
}

// Run executes the pick flow.
// Phases:
//  1. Fetch newest pump.fun mints
//  2. Fetch top movers by 5m market-cap change
//  3. Normalize both lists
//  4. Select the candidate
//  5. Verify and resolve metadata, when configured
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}

	// Phase 1
	newestRows, err := o.source.FetchNewest(ctx, o.windows.NewestMinutes, o.windows.NewestCount)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("window_minutes", o.windows.NewestMinutes).
		Int("count", len(newestRows)).
		Msg("newest mints fetched")

	// Phase 2
	topRows, err := o.source.FetchTopMovers(ctx, o.windows.TopHours, o.windows.TopCount)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("window_hours", o.windows.TopHours).
		Int("count", len(topRows)).
		Msg("top movers fetched")

	// Phase 3
	newest := normalization.NormalizeNewest(newestRows)
	top := normalization.NormalizeTop(topRows)
	result.NewestCount = len(newest)
	result.TopCount = len(top)

	// Phase 4
	candidate, err := selection.Select(newest, top)
	if err != nil {
		observability.RecordSelectionFailure(failureReason(err))
		return nil, err
	}
	observability.RecordCandidate(candidate.Path.String())
	result.Candidate = candidate

	log.Info().
		Str("mint", candidate.Mint).
		Str("path", candidate.Path.String()).
		Msg("candidate selected")

	// Phase 5
	if o.verifier != nil {
		report, err := o.verifier.VerifyCandidate(ctx, candidate)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("verify %s: %v", candidate.Mint, err))
			log.Warn().Err(err).Str("mint", candidate.Mint).Msg("verification failed")
		} else {
			result.Verification = report
		}
	}

	if o.metadata != nil {
		meta, err := o.metadata.Fetch(ctx, candidate.URI)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("metadata %s: %v", candidate.URI, err))
			log.Warn().Err(err).Str("uri", candidate.URI).Msg("metadata resolution failed")
		} else {
			result.Metadata = meta
		}
	}

	return result, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, selection.ErrEmptyResult):
		return "empty_result"
	case errors.Is(err, selection.ErrNoCandidate):
		return "no_candidate"
	default:
		return "other"
	}
}
