// Package normalization maps raw Bitquery rows into typed domain records.
// Malformed fields are defaulted here so selection only sees typed data.
package normalization

import (
	"math"
	"strconv"
	"strings"

	"pump-candidate/internal/bitquery"
	"pump-candidate/internal/domain"
)

// NormalizeNewest maps newest-mints rows. Rows without a mint are dropped;
// order is preserved.
func NormalizeNewest(rows []bitquery.NewestRow) []domain.NewestToken {
	out := make([]domain.NewestToken, 0, len(rows))
	for _, row := range rows {
		c := row.Currency()
		if c == nil || c.MintAddress == "" {
			continue
		}
		out = append(out, domain.NewestToken{
			Mint:   c.MintAddress,
			Name:   c.Name,
			Symbol: c.Symbol,
			URI:    NormalizeURI(c.URI),
		})
	}
	return out
}

// NormalizeTop maps top-movers rows. No row is dropped, even without a mint.
func NormalizeTop(rows []bitquery.TopRow) []domain.TopMover {
	out := make([]domain.TopMover, 0, len(rows))
	for _, row := range rows {
		var m domain.TopMover
		if c := row.Currency(); c != nil {
			m.Mint = c.MintAddress
			m.Name = c.Name
			m.Symbol = c.Symbol
		}
		m.Change5m = ParseChange(row.MarketcapChange5m)
		out = append(out, m)
	}
	return out
}

// NormalizeCreation maps a subscription row. ok is false when the row has no mint.
func NormalizeCreation(row bitquery.CreationRow) (domain.TokenCreation, bool) {
	c := row.Currency()
	if c == nil || c.MintAddress == "" {
		return domain.TokenCreation{}, false
	}
	return domain.TokenCreation{
		Mint:            c.MintAddress,
		Name:            c.Name,
		Symbol:          c.Symbol,
		URI:             NormalizeURI(c.URI),
		UpdateAuthority: c.UpdateAuthority,
		Decimals:        c.Decimals,
		Signer:          row.Signer(),
		BlockTime:       row.BlockTime(),
	}, true
}

// ParseChange coerces a decoded JSON value to a finite float.
// Numbers and numeric strings are accepted; anything else yields nil.
func ParseChange(v any) *float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
