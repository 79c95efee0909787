// Package output renders a candidate for humans and for shells.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"pump-candidate/internal/domain"
)

// EnvMode selects the shell dialect for export statements.
type EnvMode string

const (
	EnvNone       EnvMode = "none"
	EnvPowerShell EnvMode = "powershell"
	EnvBash       EnvMode = "bash"
)

// Environment variable names consumed by the launch process.
const (
	VarName        = "LAUNCH_NAME"
	VarSymbol      = "LAUNCH_SYMBOL"
	VarMetadataURL = "LAUNCH_METADATA_URL"
)

// EnvModes lists the accepted modes in help order.
var EnvModes = []EnvMode{EnvNone, EnvPowerShell, EnvBash}

// ParseEnvMode validates a mode name (case-insensitive).
func ParseEnvMode(s string) (EnvMode, error) {
	m := EnvMode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range EnvModes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid env mode %q (want none, powershell or bash)", s)
}

// WriteJSON writes v as two-space indented JSON without HTML escaping.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteCandidate writes a header line followed by the candidate as JSON.
func WriteCandidate(w io.Writer, c *domain.Candidate) error {
	if _, err := fmt.Fprintln(w, "\n=== Picked Candidate ==="); err != nil {
		return err
	}
	return WriteJSON(w, c)
}

// WriteEnv writes the name, symbol and metadata URL as shell assignments.
// Values are quoted but not escaped.
func WriteEnv(w io.Writer, c *domain.Candidate, mode EnvMode) error {
	var lines []string
	switch mode {
	case EnvNone, "":
		return nil
	case EnvPowerShell:
		lines = []string{
			"\n# Paste into PowerShell:",
			fmt.Sprintf(`$env:%s = "%s"`, VarName, c.Name),
			fmt.Sprintf(`$env:%s = "%s"`, VarSymbol, c.Symbol),
			fmt.Sprintf(`$env:%s = "%s"`, VarMetadataURL, c.URI),
		}
	case EnvBash:
		lines = []string{
			"\n# Paste into bash/zsh:",
			fmt.Sprintf(`export %s="%s"`, VarName, c.Name),
			fmt.Sprintf(`export %s="%s"`, VarSymbol, c.Symbol),
			fmt.Sprintf(`export %s="%s"`, VarMetadataURL, c.URI),
		}
	default:
		return fmt.Errorf("invalid env mode %q", mode)
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}
