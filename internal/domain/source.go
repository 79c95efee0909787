package domain

// SelectionPath records which rule produced a Candidate.
type SelectionPath string

const (
	// PathIntersection means the mint is both newly created and a top mover.
	PathIntersection SelectionPath = "INTERSECTION"
	// PathFallback means no top mover matched and the most recent newest token was used.
	PathFallback SelectionPath = "FALLBACK"
)

// String returns the string representation of SelectionPath.
func (p SelectionPath) String() string {
	return string(p)
}
