// Package selection picks one launch candidate from the newest-mints and
// top-movers lists.
package selection

import (
	"pump-candidate/internal/domain"
)

// Display limits and placeholders for the emitted candidate.
const (
	MaxNameLen   = 32
	MaxSymbolLen = 10

	DefaultName   = "Auto Token"
	DefaultSymbol = "AUTO"
)

// missingChange ranks top movers without a reported change below any real value.
const missingChange = -1e9

// Select intersects newest and top by mint and returns the top mover with the
// highest 5-minute change whose newest-side record has a metadata URI. Ties
// keep the earlier top entry. When nothing intersects, the first newest
// token with a URI is returned with no change.
func Select(newest []domain.NewestToken, top []domain.TopMover) (*domain.Candidate, error) {
	if len(newest) == 0 || len(top) == 0 {
		return nil, ErrEmptyResult
	}

	byMint := make(map[string]domain.NewestToken, len(newest))
	for _, n := range newest {
		byMint[n.Mint] = n
	}

	var (
		best      *domain.TopMover
		bestToken domain.NewestToken
	)
	for i := range top {
		t := &top[i]
		if t.Mint == "" {
			continue
		}
		n, ok := byMint[t.Mint]
		if !ok || !n.HasURI() {
			continue
		}
		if best == nil || changeOrFloor(t.Change5m) > changeOrFloor(best.Change5m) {
			best = t
			bestToken = n
		}
	}

	if best != nil {
		return build(bestToken, best, domain.PathIntersection), nil
	}

	for _, n := range newest {
		if n.HasURI() {
			return build(n, nil, domain.PathFallback), nil
		}
	}

	return nil, ErrNoCandidate
}

func changeOrFloor(v *float64) float64 {
	if v == nil {
		return missingChange
	}
	return *v
}

// build assembles the candidate. top is nil on the fallback path.
func build(n domain.NewestToken, top *domain.TopMover, path domain.SelectionPath) *domain.Candidate {
	var topName, topSymbol string
	var change *float64
	if top != nil {
		topName, topSymbol = top.Name, top.Symbol
		if top.Change5m != nil {
			v := *top.Change5m
			change = &v
		}
	}

	return &domain.Candidate{
		Mint:     n.Mint,
		Name:     truncate(firstNonEmpty(n.Name, topName, DefaultName), MaxNameLen),
		Symbol:   truncate(firstNonEmpty(n.Symbol, topSymbol, DefaultSymbol), MaxSymbolLen),
		URI:      n.URI,
		Change5m: change,
		Path:     path,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
