// Package config builds the process configuration from environment settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default values used when a setting is absent.
const (
	DefaultEndpoint       = "https://streaming.bitquery.io/eap"
	DefaultStreamEndpoint = "wss://streaming.bitquery.io/graphql"
	DefaultSolanaRPC      = "https://api.mainnet-beta.solana.com"
	DefaultIPFSGateway    = "https://ipfs.io/ipfs/"
	DefaultTimeout        = 60 * time.Second

	DefaultNewestMinutes = 10
	DefaultNewestCount   = 30
	DefaultTopHours      = 6
	DefaultTopCount      = 50
	DefaultEmitEnv       = "none"

	// CredentialPrefix is the prefix every Bitquery OAuth access token carries.
	CredentialPrefix = "ory_at_"
)

// CredentialSources lists the settings consulted for the bearer token, in precedence order.
var CredentialSources = []string{
	"BITQUERY_ORY_TOKEN",
	"BQ_ORY_TOKEN",
	"BITQUERY_API_KEY",
}

// LookupFunc resolves a named setting. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Bitquery holds everything the GraphQL clients need.
type Bitquery struct {
	Endpoint       string
	StreamEndpoint string
	Token          string
	TokenSource    string // setting the token was read from
	Timeout        time.Duration
}

// Validate checks the credential. It never touches the network.
func (b Bitquery) Validate() error {
	if b.Token == "" {
		return &Error{
			Setting: strings.Join(CredentialSources, "|"),
			Reason:  "missing bearer token: set BITQUERY_ORY_TOKEN=ory_at_...",
		}
	}
	if !strings.HasPrefix(b.Token, CredentialPrefix) {
		return &Error{
			Setting: b.TokenSource,
			Reason:  fmt.Sprintf("bearer token must start with %q", CredentialPrefix),
		}
	}
	return nil
}

// Pick holds the defaults for the pick command.
type Pick struct {
	NewestMinutes int
	NewestCount   int
	TopHours      int
	TopCount      int
	EmitEnv       string

	err error
}

// Err reports the first malformed pick setting. Load does not fail on these
// so that commands which never pick keep working.
func (p Pick) Err() error {
	return p.err
}

// Config is constructed once at process start and passed down explicitly.
type Config struct {
	Bitquery    Bitquery
	Pick        Pick
	SolanaRPC   string
	IPFSGateway string
}

// LoadDotEnv loads .env files into the process environment.
// A missing file is not an error; existing variables are not overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds a Config from lookup. A nil lookup means os.LookupEnv.
func Load(lookup LookupFunc) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	l := loader{lookup: lookup}
	pl := loader{lookup: lookup}

	token, source := ResolveCredential(lookup)
	cfg := &Config{
		Bitquery: Bitquery{
			Endpoint:       l.str("BQ_ENDPOINT", DefaultEndpoint),
			StreamEndpoint: l.str("BQ_WS_ENDPOINT", DefaultStreamEndpoint),
			Token:          token,
			TokenSource:    source,
			Timeout:        l.duration("BQ_TIMEOUT", DefaultTimeout),
		},
		Pick: Pick{
			NewestMinutes: pl.int("BQ_NEWEST_MINUTES", DefaultNewestMinutes),
			NewestCount:   pl.int("BQ_NEWEST_COUNT", DefaultNewestCount),
			TopHours:      pl.int("BQ_TOP_HOURS", DefaultTopHours),
			TopCount:      pl.int("BQ_TOP_COUNT", DefaultTopCount),
			EmitEnv:       pl.str("EMIT_ENV", DefaultEmitEnv),
		},
		SolanaRPC:   l.str("SOLANA_RPC_URL", DefaultSolanaRPC),
		IPFSGateway: l.str("IPFS_GATEWAY", DefaultIPFSGateway),
	}
	if l.err != nil {
		return nil, l.err
	}
	cfg.Pick.err = pl.err
	return cfg, nil
}

// ResolveCredential walks CredentialSources and returns the first non-empty
// value together with the setting it came from.
func ResolveCredential(lookup LookupFunc) (token, source string) {
	for _, key := range CredentialSources {
		if v, ok := lookup(key); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v, key
			}
		}
	}
	return "", ""
}

// loader records the first parse failure.
type loader struct {
	lookup LookupFunc
	err    error
}

func (l *loader) raw(key string) (string, bool) {
	v, ok := l.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (l *loader) str(key, def string) string {
	if v, ok := l.raw(key); ok {
		return v
	}
	return def
}

func (l *loader) int(key string, def int) int {
	v, ok := l.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.fail(key, fmt.Sprintf("not an integer: %q", v))
		return def
	}
	return n
}

func (l *loader) duration(key string, def time.Duration) time.Duration {
	v, ok := l.raw(key)
	if !ok {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// Bare numbers are seconds.
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	l.fail(key, fmt.Sprintf("not a duration: %q", v))
	return def
}

func (l *loader) fail(key, reason string) {
	if l.err == nil {
		l.err = &Error{Setting: key, Reason: reason}
	}
}
