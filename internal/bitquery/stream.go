package bitquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"pump-candidate/internal/config"
	"pump-candidate/internal/observability"
)

// graphql-ws (Apollo legacy) protocol message types.
const (
	msgConnectionInit  = "connection_init"
	msgConnectionAck   = "connection_ack"
	msgConnectionError = "connection_error"
	msgKeepAlive       = "ka"
	msgStart           = "start"
	msgStop            = "stop"
	msgData            = "data"
	msgError           = "error"
	msgComplete        = "complete"
	msgTerminate       = "connection_terminate"

	subprotocol    = "graphql-ws"
	subscriptionID = "1"
)

var errComplete = errors.New("subscription complete")

// StreamConfig configures Stream behavior.
type StreamConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// HandshakeTimeout bounds dial plus connection_init/ack.
	HandshakeTimeout time.Duration
	// ReadTimeout is timeout for reading messages. Bitquery sends "ka"
	// frames well inside the default.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultStreamConfig returns default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// Stream is a graphql-ws subscription to pump.fun token creations.
// One Stream carries one subscription.
type Stream struct {
	endpoint string
	config   StreamConfig

	conn   *websocket.Conn
	connMu sync.Mutex

	subscribed atomic.Bool
	closed     atomic.Bool
	done       chan struct{}
	wg         sync.WaitGroup
	stopCtx    func() bool

	errMu sync.Mutex
	err   error
}

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewStream validates the credential and prepares a stream. No connection is
// made until SubscribeCreations.
func NewStream(cfg config.Bitquery, sc *StreamConfig) (*Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	streamCfg := DefaultStreamConfig()
	if sc != nil {
		streamCfg = *sc
	}

	base := cfg.StreamEndpoint
	if base == "" {
		base = config.DefaultStreamEndpoint
	}
	endpoint, err := withToken(base, cfg.Token)
	if err != nil {
		return nil, &config.Error{Setting: "BQ_WS_ENDPOINT", Reason: err.Error()}
	}

	return &Stream{
		endpoint: endpoint,
		config:   streamCfg,
		done:     make(chan struct{}),
	}, nil
}

// withToken appends the bearer token as the "token" query parameter, which is
// how Bitquery authenticates websocket clients.
func withToken(endpoint, token string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse stream endpoint: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// SubscribeCreations connects, subscribes and returns a channel of creation
// rows. The channel closes when the context ends, Close is called, the
// server completes the subscription, or the server reports an error; Err
// then tells which.
func (s *Stream) SubscribeCreations(ctx context.Context) (<-chan CreationRow, error) {
	if s.closed.Load() {
		return nil, ErrStreamClosed
	}
	if s.subscribed.Swap(true) {
		return nil, fmt.Errorf("stream already subscribed")
	}

	conn, err := s.open(ctx, CreationsSubscription)
	if err != nil {
		return nil, err
	}
	s.setConn(conn)

	s.stopCtx = context.AfterFunc(ctx, s.dropConn)

	out := make(chan CreationRow, 256)
	s.wg.Add(1)
	go s.readLoop(ctx, conn, out)
	return out, nil
}

// Err returns the error that ended the stream, if any.
func (s *Stream) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *Stream) setErr(err error) {
	s.errMu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errMu.Unlock()
}

// Close stops the subscription and closes the connection.
func (s *Stream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.done)
	if s.stopCtx != nil {
		s.stopCtx()
	}

	s.connMu.Lock()
	if s.conn != nil {
		deadline := time.Now().Add(s.config.WriteTimeout)
		s.conn.SetWriteDeadline(deadline)
		s.conn.WriteJSON(wsMessage{ID: subscriptionID, Type: msgStop})
		s.conn.WriteJSON(wsMessage{Type: msgTerminate})
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	s.wg.Wait()
	return nil
}

func (s *Stream) setConn(conn *websocket.Conn) {
	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()
}

// dropConn closes the current connection so a blocked read returns.
func (s *Stream) dropConn() {
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.connMu.Unlock()
}

// open dials, performs the connection_init/ack exchange and starts the
// subscription. The returned connection is not yet shared.
func (s *Stream) open(ctx context.Context, query string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: s.config.HandshakeTimeout,
		Subprotocols:     []string{subprotocol},
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")

	conn, resp, err := dialer.DialContext(ctx, s.endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial: HTTP %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	if err := s.handshake(conn, query); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (s *Stream) handshake(conn *websocket.Conn, query string) error {
	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := conn.WriteJSON(wsMessage{Type: msgConnectionInit, Payload: json.RawMessage(`{}`)}); err != nil {
		return fmt.Errorf("write connection_init: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(s.config.HandshakeTimeout))
	for acked := false; !acked; {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("read connection_ack: %w", err)
		}
		switch msg.Type {
		case msgConnectionAck:
			acked = true
		case msgConnectionError, msgError:
			return &APIError{Errors: string(msg.Payload)}
		}
	}

	payload, err := json.Marshal(map[string]any{"query": query})
	if err != nil {
		return fmt.Errorf("marshal subscription: %w", err)
	}
	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := conn.WriteJSON(wsMessage{ID: subscriptionID, Type: msgStart, Payload: payload}); err != nil {
		return fmt.Errorf("write start: %w", err)
	}
	return nil
}

// readLoop owns the connection reads and reconnects with exponential backoff.
func (s *Stream) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- CreationRow) {
	defer s.wg.Done()
	defer close(out)

	for {
		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() || ctx.Err() != nil {
				return
			}
			conn.Close()
			if conn = s.reconnect(ctx); conn == nil {
				return
			}
			continue
		}

		rows, err := decodeMessage(raw)
		if errors.Is(err, errComplete) {
			return
		}
		if err != nil {
			s.setErr(err)
			return
		}

		for _, row := range rows {
			select {
			case out <- row:
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
		}
	}
}

// reconnect retries open until it succeeds, the stream ends, or the server
// rejects the subscription. It returns nil when the loop should stop.
func (s *Stream) reconnect(ctx context.Context) *websocket.Conn {
	delay := s.config.ReconnectDelay
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case <-time.After(delay):
		}

		delay = nextBackoff(delay, s.config.MaxReconnectDelay)

		observability.RecordReconnect()
		conn, err := s.open(ctx, CreationsSubscription)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				s.setErr(err)
				return nil
			}
			continue
		}

		s.connMu.Lock()
		if s.closed.Load() {
			s.connMu.Unlock()
			conn.Close()
			return nil
		}
		s.conn = conn
		s.connMu.Unlock()
		return conn
	}
}

// nextBackoff doubles d, capped at max.
func nextBackoff(d, max time.Duration) time.Duration {
	d *= 2
	if d > max {
		return max
	}
	return d
}

// decodeMessage turns one server frame into creation rows.
func decodeMessage(raw []byte) ([]CreationRow, error) {
	var msg wsMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		// Not a protocol frame.
		return nil, nil
	}

	switch msg.Type {
	case msgData:
		var payload response
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, &TransportError{Body: excerpt(msg.Payload), Err: err}
		}
		if payload.hasErrors() {
			return nil, &APIError{Errors: string(payload.Errors)}
		}
		var data creationData
		if len(payload.Data) > 0 {
			if err := json.Unmarshal(payload.Data, &data); err != nil {
				return nil, &TransportError{Body: excerpt(payload.Data), Err: err}
			}
		}
		if data.Solana == nil {
			return nil, nil
		}
		return data.Solana.TokenSupplyUpdates, nil
	case msgError, msgConnectionError:
		return nil, &APIError{Errors: string(msg.Payload)}
	case msgComplete:
		return nil, errComplete
	default:
		return nil, nil
	}
}
