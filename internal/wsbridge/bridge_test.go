package wsbridge

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kimeweb/internal/config"
	"kimeweb/internal/logging"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	l, err := logging.NewWriter(&bytes.Buffer{}, logging.DefaultConfig())
	require.NoError(t, err)
	return l
}

func startBridge(t *testing.T, cfg *config.Config) (*Server, string) {
	t.Helper()
	bridge := NewServer(func() *config.Config { return cfg }, testLogger(t), nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", bridge.HandleWebSocket)
	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		bridge.Close()
		server.Close()
	})

	return bridge, "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Reply {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var r Reply
	require.NoError(t, conn.ReadJSON(&r))
	return r
}

func send(t *testing.T, conn *websocket.Conn, req Request) Reply {
	t.Helper()
	require.NoError(t, conn.WriteJSON(req))
	return read(t, conn)
}

func hangulConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Engine.DefaultCategory = config.CategoryHangul
	return cfg
}

func TestBridgeHandshake(t *testing.T) {
	_, url := startBridge(t, config.DefaultConfig())
	conn := dial(t, url)

	ready := read(t, conn)
	assert.Equal(t, TypeReady, ready.Type)
	assert.NotEmpty(t, ready.SessionID)

	cat := read(t, conn)
	assert.Equal(t, TypeCategory, cat.Type)
	assert.Equal(t, "latin", cat.Category)
	assert.Equal(t, ready.SessionID, cat.SessionID)
}

func TestBridgeTyping(t *testing.T) {
	bridge, url := startBridge(t, hangulConfig())
	conn := dial(t, url)
	read(t, conn)
	read(t, conn)

	var last Reply
	for _, code := range []string{"KeyG", "KeyK", "KeyS"} {
		last = send(t, conn, Request{Type: TypeKey, Code: code})
		assert.True(t, last.Consumed)
	}
	assert.Equal(t, TypeState, last.Type)
	assert.Equal(t, "한", last.Value)
	assert.Equal(t, 0, last.Start)
	assert.Equal(t, 1, last.End)
	assert.Equal(t, "한", last.Preedit)
	assert.Equal(t, "hangul", last.Category)

	// Shift is bit 0 of the mask.
	last = send(t, conn, Request{Type: TypeKey, Code: "KeyR", Mask: 1})
	assert.Equal(t, "한ㄲ", last.Value)

	last = send(t, conn, Request{Type: TypeKey, Code: "Space"})
	assert.False(t, last.Consumed)
	assert.Equal(t, "한ㄲ", last.Value)
	assert.Equal(t, 2, last.Start)
	assert.Equal(t, 2, last.End)

	stats := bridge.Metrics()
	assert.EqualValues(t, 5, stats.KeysInjected.Value())
	assert.EqualValues(t, 4, stats.KeysConsumed.Value())
	assert.EqualValues(t, 5, stats.KeyLatency.Count())
	assert.EqualValues(t, 1, stats.SessionsOpened.Value())
}

func TestBridgeCategorySwitch(t *testing.T) {
	_, url := startBridge(t, config.DefaultConfig())
	conn := dial(t, url)
	read(t, conn)
	read(t, conn)

	require.NoError(t, conn.WriteJSON(Request{Type: TypeCategory, Category: "hangul"}))
	cat := read(t, conn)
	assert.Equal(t, TypeCategory, cat.Type)
	assert.Equal(t, "hangul", cat.Category)
	state := read(t, conn)
	assert.Equal(t, "hangul", state.Category)

	reply := send(t, conn, Request{Type: TypeCategory, Category: "klingon"})
	assert.Equal(t, TypeError, reply.Type)
}

func TestBridgeValueAndSelect(t *testing.T) {
	_, url := startBridge(t, hangulConfig())
	conn := dial(t, url)
	read(t, conn)
	read(t, conn)

	state := send(t, conn, Request{Type: TypeValue, Value: "abcd"})
	assert.Equal(t, "abcd", state.Value)

	state = send(t, conn, Request{Type: TypeSelect, Start: 2, End: 2})
	assert.Equal(t, 2, state.Start)

	state = send(t, conn, Request{Type: TypeKey, Code: "KeyG"})
	assert.Equal(t, "abㅎcd", state.Value)
	assert.Equal(t, 2, state.Start)
	assert.Equal(t, 3, state.End)

	state = send(t, conn, Request{Type: TypeStop})
	assert.Empty(t, state.Preedit)
	assert.Equal(t, "abㅎcd", state.Value)
}

func TestBridgeErrors(t *testing.T) {
	_, url := startBridge(t, config.DefaultConfig())
	conn := dial(t, url)
	read(t, conn)
	read(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, TypeError, read(t, conn).Type)

	reply := send(t, conn, Request{Type: "explode"})
	assert.Equal(t, TypeError, reply.Type)
	assert.Contains(t, reply.Error, "explode")

	// The connection survives errors.
	assert.Equal(t, TypeState, send(t, conn, Request{Type: TypeState}).Type)
}

func TestBridgeInstallFailure(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine.Hangul.Layout = "missing"
	bridge, url := startBridge(t, cfg)
	conn := dial(t, url)

	assert.Equal(t, TypeReady, read(t, conn).Type)
	reply := read(t, conn)
	assert.Equal(t, TypeError, reply.Type)
	assert.Contains(t, reply.Error, "unknown layout")
	assert.Zero(t, bridge.ClientCount())
	assert.EqualValues(t, 1, bridge.Metrics().InstallFailures.Value())
}

func TestBridgeClientCount(t *testing.T) {
	bridge, url := startBridge(t, config.DefaultConfig())
	conn := dial(t, url)
	read(t, conn)

	require.Eventually(t, func() bool { return bridge.ClientCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	assert.EqualValues(t, 1, bridge.Metrics().SessionsActive.Value())

	conn.Close()
	require.Eventually(t, func() bool { return bridge.ClientCount() == 0 }, 5*time.Second, 10*time.Millisecond)
	assert.Zero(t, bridge.Metrics().SessionsActive.Value())
}

func TestBridgeClosesOnOversizedMessage(t *testing.T) {
	bridge, url := startBridge(t, config.DefaultConfig())
	conn := dial(t, url)
	read(t, conn)
	read(t, conn)
	require.Eventually(t, func() bool { return bridge.ClientCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	huge := strings.Repeat("a", maxMessageSize)
	require.NoError(t, conn.WriteJSON(Request{Type: TypeValue, Value: huge}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var err error
	for err == nil {
		var r Reply
		err = conn.ReadJSON(&r)
		if err == nil {
			assert.NotEqual(t, TypeState, r.Type, "oversized value was applied")
		}
	}
	var closeErr *websocket.CloseError
	assert.ErrorAs(t, err, &closeErr)
	require.Eventually(t, func() bool { return bridge.ClientCount() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestBridgeRejectsForeignOrigin(t *testing.T) {
	bridge := NewServer(func() *config.Config { return config.DefaultConfig() }, testLogger(t),
		func(origin string) bool { return origin == "https://allowed.example" })
	server := httptest.NewServer(http.HandlerFunc(bridge.HandleWebSocket))
	defer server.Close()
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header = http.Header{"Origin": []string{"https://allowed.example"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}
