package bitquery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pump-candidate/internal/config"
	"pump-candidate/internal/observability"
)

const creationFrame = `{"id":"1","type":"data","payload":{"data":{"Solana":{"TokenSupplyUpdates":[
	{"Block":{"Time":{"iso8601":"2025-01-01T00:00:00Z"}},"Transaction":{"Signer":"Signer1"},
	 "TokenSupplyUpdate":{"Currency":{"MintAddress":"MintA","Name":"Alpha","Symbol":"ALP","Uri":"https://x/ipfs/Qm1","Decimals":6}}}
]}}}}`

// fakeBitquery runs the server side of graphql-ws and then plays frames.
func fakeBitquery(t *testing.T, frames ...string) (*httptest.Server, chan string) {
	t.Helper()
	tokens := make(chan string, 4)
	upgrader := websocket.Upgrader{Subprotocols: []string{"graphql-ws"}}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens <- r.URL.Query().Get("token")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		if conn.Subprotocol() != "graphql-ws" {
			t.Errorf("expected graphql-ws subprotocol, got %q", conn.Subprotocol())
		}

		var init wsMessage
		if err := conn.ReadJSON(&init); err != nil || init.Type != msgConnectionInit {
			t.Errorf("expected connection_init, got %+v (%v)", init, err)
			return
		}
		conn.WriteJSON(wsMessage{Type: msgConnectionAck})

		var start wsMessage
		if err := conn.ReadJSON(&start); err != nil || start.Type != msgStart {
			t.Errorf("expected start, got %+v (%v)", start, err)
			return
		}
		if start.ID != subscriptionID || !strings.Contains(string(start.Payload), "TokenSupplyUpdates") {
			t.Errorf("unexpected start frame %+v", start)
		}

		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}

		// Hold the connection until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	return server, tokens
}

// scriptedBitquery hands the n-th websocket connection to the n-th script.
// Connections beyond the scripts are closed immediately.
func scriptedBitquery(t *testing.T, scripts ...func(*websocket.Conn)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var conns atomic.Int32
	upgrader := websocket.Upgrader{Subprotocols: []string{"graphql-ws"}}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(conns.Add(1))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		if n > len(scripts) {
			return
		}
		scripts[n-1](conn)
	}))
	return server, &conns
}

// acceptSubscription plays connection_init/ack and reads the start frame.
func acceptSubscription(t *testing.T, conn *websocket.Conn) bool {
	t.Helper()
	var init wsMessage
	if err := conn.ReadJSON(&init); err != nil || init.Type != msgConnectionInit {
		t.Errorf("expected connection_init, got %+v (%v)", init, err)
		return false
	}
	conn.WriteJSON(wsMessage{Type: msgConnectionAck})

	var start wsMessage
	if err := conn.ReadJSON(&start); err != nil || start.Type != msgStart {
		t.Errorf("expected start, got %+v (%v)", start, err)
		return false
	}
	return true
}

func holdOpen(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func newTestStream(t *testing.T, server *httptest.Server) *Stream {
	t.Helper()
	cfg := config.Bitquery{
		StreamEndpoint: "ws" + strings.TrimPrefix(server.URL, "http"),
		Token:          "ory_at_stream",
	}
	sc := DefaultStreamConfig()
	sc.ReconnectDelay = 10 * time.Millisecond
	sc.MaxReconnectDelay = 20 * time.Millisecond

	stream, err := NewStream(cfg, &sc)
	require.NoError(t, err)
	return stream
}

func TestNewStream_RejectsCredential(t *testing.T) {
	_, err := NewStream(config.Bitquery{Token: "nope"}, nil)
	var cfgErr *config.Error
	assert.True(t, errors.As(err, &cfgErr))
}

func TestWithToken(t *testing.T) {
	got, err := withToken("wss://streaming.bitquery.io/graphql", "ory_at_a/b")
	require.NoError(t, err)
	assert.Equal(t, "wss://streaming.bitquery.io/graphql?token=ory_at_a%2Fb", got)

	got, err = withToken("wss://host/graphql?x=1", "ory_at_t")
	require.NoError(t, err)
	assert.Contains(t, got, "x=1")
	assert.Contains(t, got, "token=ory_at_t")
}

func TestStream_DeliversCreations(t *testing.T) {
	server, tokens := fakeBitquery(t, `{"type":"ka"}`, creationFrame, `{"id":"1","type":"complete"}`)
	defer server.Close()

	stream := newTestStream(t, server)
	defer stream.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := stream.SubscribeCreations(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ory_at_stream", <-tokens)

	var got []CreationRow
	for row := range rows {
		got = append(got, row)
	}

	require.Len(t, got, 1)
	c := got[0].Currency()
	require.NotNil(t, c)
	assert.Equal(t, "MintA", c.MintAddress)
	assert.Equal(t, "https://x/ipfs/Qm1", c.URI)
	require.NotNil(t, c.Decimals)
	assert.Equal(t, 6, *c.Decimals)
	assert.Equal(t, "Signer1", got[0].Signer())
	assert.Equal(t, "2025-01-01T00:00:00Z", got[0].BlockTime())
	assert.NoError(t, stream.Err())
}

func TestStream_ServerErrorEndsStream(t *testing.T) {
	server, _ := fakeBitquery(t, `{"id":"1","type":"error","payload":{"message":"limit exceeded"}}`)
	defer server.Close()

	stream := newTestStream(t, server)
	defer stream.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := stream.SubscribeCreations(ctx)
	require.NoError(t, err)

	for range rows {
		t.Error("expected no rows")
	}

	var apiErr *APIError
	require.True(t, errors.As(stream.Err(), &apiErr))
	assert.Contains(t, apiErr.Errors, "limit exceeded")
}

func TestStream_ContextCancelClosesChannel(t *testing.T) {
	server, _ := fakeBitquery(t)
	defer server.Close()

	stream := newTestStream(t, server)
	defer stream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	rows, err := stream.SubscribeCreations(ctx)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-rows:
		assert.False(t, ok, "expected closed channel")
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestStream_SubscribeTwice(t *testing.T) {
	server, _ := fakeBitquery(t)
	defer server.Close()

	stream := newTestStream(t, server)
	defer stream.Close()

	_, err := stream.SubscribeCreations(context.Background())
	require.NoError(t, err)

	_, err = stream.SubscribeCreations(context.Background())
	assert.Error(t, err)
}

func TestStream_ReconnectsAfterDrop(t *testing.T) {
	dropAfterStart := func(conn *websocket.Conn) {
		acceptSubscription(t, conn)
	}
	deliver := func(conn *websocket.Conn) {
		if !acceptSubscription(t, conn) {
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(creationFrame))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"id":"1","type":"complete"}`))
		holdOpen(conn)
	}
	server, conns := scriptedBitquery(t, dropAfterStart, deliver)
	defer server.Close()

	reconnects := testutil.ToFloat64(observability.DefaultMetrics.StreamReconnects)

	stream := newTestStream(t, server)
	defer stream.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := stream.SubscribeCreations(ctx)
	require.NoError(t, err)

	var got []CreationRow
	for row := range rows {
		got = append(got, row)
	}

	require.Len(t, got, 1)
	assert.Equal(t, "MintA", got[0].Currency().MintAddress)
	assert.Equal(t, int32(2), conns.Load())
	assert.NoError(t, stream.Err())
	assert.GreaterOrEqual(t, testutil.ToFloat64(observability.DefaultMetrics.StreamReconnects), reconnects+1)
}

func TestStream_ReconnectRejectedEndsWithAPIError(t *testing.T) {
	dropAfterStart := func(conn *websocket.Conn) {
		acceptSubscription(t, conn)
	}
	reject := func(conn *websocket.Conn) {
		var init wsMessage
		if err := conn.ReadJSON(&init); err != nil {
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"connection_error","payload":{"message":"quota"}}`))
		holdOpen(conn)
	}
	server, conns := scriptedBitquery(t, dropAfterStart, reject)
	defer server.Close()

	stream := newTestStream(t, server)
	defer stream.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := stream.SubscribeCreations(ctx)
	require.NoError(t, err)

	for range rows {
		t.Error("expected no rows")
	}

	var apiErr *APIError
	require.True(t, errors.As(stream.Err(), &apiErr))
	assert.Contains(t, apiErr.Errors, "quota")
	assert.Equal(t, int32(2), conns.Load())
}

func TestNextBackoff(t *testing.T) {
	d := time.Second
	var got []time.Duration
	for i := 0; i < 6; i++ {
		d = nextBackoff(d, 30*time.Second)
		got = append(got, d)
	}
	assert.Equal(t, []time.Duration{
		2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 30 * time.Second, 30 * time.Second,
	}, got)
}

func TestDecodeMessage(t *testing.T) {
	rows, err := decodeMessage([]byte(`{"type":"ka"}`))
	assert.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = decodeMessage([]byte(`not json`))
	assert.NoError(t, err)
	assert.Empty(t, rows)

	_, err = decodeMessage([]byte(`{"type":"complete"}`))
	assert.ErrorIs(t, err, errComplete)

	_, err = decodeMessage([]byte(`{"type":"data","payload":{"errors":[{"message":"bad"}]}}`))
	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
}
