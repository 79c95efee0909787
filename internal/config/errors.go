package config

import "fmt"

// Error reports a configuration problem detected before any network call.
type Error struct {
	Setting string
	Reason  string
}

func (e *Error) Error() string {
	if e.Setting == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Setting, e.Reason)
}
