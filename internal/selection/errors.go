package selection

import "errors"

var (
	// ErrEmptyResult is returned when either input list is empty.
	ErrEmptyResult = errors.New("no data from bitquery (newest or top empty)")

	// ErrNoCandidate is returned when neither the intersection nor the
	// fallback rule yields a token with a metadata URI.
	ErrNoCandidate = errors.New("no intersecting newest/top candidate with a metadata URI")
)
