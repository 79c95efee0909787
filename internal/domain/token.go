package domain

// NewestToken is a recently created token as seen by the newest-mints query.
type NewestToken struct {
	Mint   string // never empty
	Name   string
	Symbol string
	URI    string // canonical metadata URI, empty when absent
}

// HasURI reports whether the token carries a metadata URI.
func (t NewestToken) HasURI() bool {
	return t.URI != ""
}

// TopMover is a token ranked by 5-minute market-cap change.
type TopMover struct {
	Mint     string // may be empty, filtered at selection time
	Name     string
	Symbol   string
	Change5m *float64 // percent, nil when not reported
}

// TokenCreation is a pump.fun create event delivered by the subscription stream.
type TokenCreation struct {
	Mint            string `json:"mint"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	URI             string `json:"uri,omitempty"`
	UpdateAuthority string `json:"updateAuthority,omitempty"`
	Decimals        *int   `json:"decimals,omitempty"`
	Signer          string `json:"signer,omitempty"`
	BlockTime       string `json:"blockTime,omitempty"` // ISO 8601
}
