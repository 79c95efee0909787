package bitquery

import (
	"errors"
	"fmt"
)

// maxExcerpt bounds how much of a raw body ends up in an error message.
const maxExcerpt = 800

// ErrStreamClosed is returned when the subscription stream is used after Close.
var ErrStreamClosed = errors.New("stream closed")

// TransportError reports a request that failed on the wire, a non-2xx status,
// or a response that could not be decoded. StatusCode is 0 when no response
// arrived.
type TransportError struct {
	StatusCode int
	Body       string // bounded excerpt
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("bitquery transport error: %v", e.Err)
	}
	if e.Body == "" {
		return fmt.Sprintf("bitquery transport error: HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("bitquery transport error: HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError reports a successful, decoded response that carried an error
// collection, or a subscription the server rejected.
type APIError struct {
	StatusCode int
	Errors     string // serialized errors payload
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("bitquery GraphQL error: %s", e.Errors)
	}
	return fmt.Sprintf("bitquery GraphQL error: HTTP %d: %s", e.StatusCode, e.Errors)
}

func excerpt(body []byte) string {
	if len(body) <= maxExcerpt {
		return string(body)
	}
	return string(body[:maxExcerpt])
}
