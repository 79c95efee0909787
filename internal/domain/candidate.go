package domain

// Candidate is the single token selected for launch.
// URI is never empty; Change5m is nil on the fallback path.
type Candidate struct {
	Mint     string        `json:"mint"`
	Name     string        `json:"name"`
	Symbol   string        `json:"symbol"`
	URI      string        `json:"uri"`
	Change5m *float64      `json:"change5m"`
	Path     SelectionPath `json:"-"`
}
