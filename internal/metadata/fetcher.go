// Package metadata resolves a token's off-chain Metaplex JSON document.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"pump-candidate/internal/domain"
	"pump-candidate/internal/normalization"
)

// DefaultTimeout bounds a single metadata fetch.
const DefaultTimeout = 15 * time.Second

// maxDocumentSize caps how much of a metadata document is read.
const maxDocumentSize = 1 << 20

// ErrUnsupportedURI is returned for URIs that are neither IPFS nor HTTP(S).
var ErrUnsupportedURI = errors.New("unsupported metadata uri")

// StatusError is returned when the document host answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
}

// GatewayURL rewrites an IPFS reference to an HTTP URL on gateway.
// Non-IPFS URIs are returned unchanged.
func GatewayURL(uri, gateway string) string {
	canonical := normalization.NormalizeURI(uri)
	if !strings.HasPrefix(canonical, normalization.IPFSScheme) {
		return uri
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return gateway + strings.TrimPrefix(canonical, normalization.IPFSScheme)
}

// Fetcher downloads metadata documents through an IPFS gateway.
type Fetcher struct {
	gateway string
	client  *http.Client
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// NewFetcher creates a Fetcher that resolves ipfs:// through gateway.
func NewFetcher(gateway string, opts ...Option) *Fetcher {
	f := &Fetcher{
		gateway: gateway,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// document is the subset of the Metaplex JSON standard that is surfaced.
// pump.fun puts social links at the top level.
type document struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Twitter     string `json:"twitter"`
	Telegram    string `json:"telegram"`
	Website     string `json:"website"`
}

// Fetch downloads and decodes the document uri points to.
func (f *Fetcher) Fetch(ctx context.Context, uri string) (*domain.OffchainMetadata, error) {
	target := GatewayURL(uri, f.gateway)
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURI, uri)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: target, StatusCode: resp.StatusCode}
	}

	var doc document
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDocumentSize)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode metadata from %s: %w", target, err)
	}

	log.Debug().
		Str("url", target).
		Dur("elapsed", time.Since(start)).
		Msg("metadata fetched")

	meta := &domain.OffchainMetadata{
		Name:        doc.Name,
		Symbol:      doc.Symbol,
		Description: doc.Description,
		Image:       doc.Image,
		Twitter:     doc.Twitter,
		Telegram:    doc.Telegram,
		Website:     doc.Website,
	}
	if doc.Image != "" {
		meta.ImageURL = GatewayURL(doc.Image, f.gateway)
	}
	return meta, nil
}
