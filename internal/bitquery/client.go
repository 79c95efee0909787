// Package bitquery implements the Bitquery GraphQL clients: a single-shot
// HTTP query client and a graphql-ws subscription stream.
package bitquery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pump-candidate/internal/config"
	"pump-candidate/internal/observability"
)

// DefaultTimeout bounds a single query round trip.
const DefaultTimeout = config.DefaultTimeout

// Client issues GraphQL queries over HTTP. Each query is a single attempt.
type Client struct {
	endpoint string
	token    string
	client   *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a GraphQL client. The credential is validated here, so a
// Client that exists always has a usable bearer token.
func NewClient(cfg config.Bitquery, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = config.DefaultEndpoint
	}

	c := &Client{
		endpoint: endpoint,
		token:    cfg.Token,
		client:   &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Request is a GraphQL operation.
type Request struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// response is the GraphQL response envelope.
type response struct {
	Data   json.RawMessage `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

func (r *response) hasErrors() bool {
	e := bytes.TrimSpace(r.Errors)
	return len(e) > 0 && !bytes.Equal(e, []byte("null")) && !bytes.Equal(e, []byte("[]"))
}

// Query performs one POST and decodes the response's data object into out.
// out may be nil when the caller only cares about success.
func (c *Client) Query(ctx context.Context, req Request, out any) (err error) {
	start := time.Now()
	defer func() {
		observability.RecordQuery(req.OperationName, err, time.Since(start).Seconds())
	}()

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return &TransportError{Err: fmt.Errorf("http request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{
			StatusCode: resp.StatusCode,
			Body:       excerpt(respBody),
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var gqlResp response
	if err := json.Unmarshal(respBody, &gqlResp); err != nil {
		return &TransportError{StatusCode: resp.StatusCode, Body: excerpt(respBody), Err: err}
	}
	if gqlResp.hasErrors() {
		return &APIError{StatusCode: resp.StatusCode, Errors: string(gqlResp.Errors)}
	}

	if out != nil && len(gqlResp.Data) > 0 {
		if err := json.Unmarshal(gqlResp.Data, out); err != nil {
			return &TransportError{StatusCode: resp.StatusCode, Body: excerpt(gqlResp.Data), Err: err}
		}
	}
	return nil
}

// FetchNewest runs NewestQuery.
func (c *Client) FetchNewest(ctx context.Context, minutes, limit int) ([]NewestRow, error) {
	var data newestData
	err := c.Query(ctx, Request{
		OperationName: "NewPumpCreates",
		Query:         NewestQuery,
		Variables:     map[string]any{"minutes": minutes, "limit": limit},
	}, &data)
	if err != nil {
		return nil, fmt.Errorf("fetch newest mints: %w", err)
	}
	if data.Solana == nil {
		return nil, nil
	}
	return data.Solana.TokenSupplyUpdates, nil
}

// FetchTopMovers runs TopMoversQuery.
func (c *Client) FetchTopMovers(ctx context.Context, hours, limit int) ([]TopRow, error) {
	var data topData
	err := c.Query(ctx, Request{
		OperationName: "TopBy5m",
		Query:         TopMoversQuery,
		Variables:     map[string]any{"hours": hours, "limit": limit},
	}, &data)
	if err != nil {
		return nil, fmt.Errorf("fetch top movers: %w", err)
	}
	if data.Solana == nil {
		return nil, nil
	}
	return data.Solana.DEXTradeByTokens, nil
}
