// Package testhelpers provides common utilities and helper functions for testing the chat hub.
//
// It starts hubs behind httptest servers, dials WebSocket clients with an
// allowed Origin, and speaks the event envelope so integration tests can
// focus on behavior.
package testhelpers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Tyrowin/gochat-hub/internal/chat"
	"github.com/Tyrowin/gochat-hub/internal/server"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// TestOrigin is the Origin header every helper-dialed client sends.
const TestOrigin = "http://localhost:8080"

// ReadTimeout bounds every ReceiveEvent call.
const ReadTimeout = 2 * time.Second

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// StartChatServer configures the server package, starts a hub with a fresh
// registry and serves its routes. Everything is torn down with the test.
func StartChatServer(t *testing.T, configure func(*server.Config), opts ...chat.Option) (*httptest.Server, *server.Hub) {
	t.Helper()

	cfg := server.NewConfig()
	cfg.AllowedOrigins = []string{TestOrigin}
	if configure != nil {
		configure(cfg)
	}
	server.SetConfig(cfg)

	hub := server.NewHub(DiscardLogger(), chat.NewRegistry(), opts...)
	go hub.Run()

	testServer := httptest.NewServer(server.SetupRoutes(hub))
	t.Cleanup(func() {
		testServer.Close()
		_ = hub.Shutdown(2 * time.Second)
		server.SetConfig(nil)
	})
	return testServer, hub
}

// WebSocketURL turns an httptest URL into the hub's ws:// endpoint.
func WebSocketURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + "/ws"
}

// AssertStatusCode checks if the HTTP response has the expected status code.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType checks if the HTTP response has the expected Content-Type header.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	contentType := resp.Header.Get("Content-Type")
	if contentType != expected {
		t.Errorf("Expected content type %s, got %s", expected, contentType)
	}
}

// MakeRequest creates and executes an HTTP request, returning the response.
// It includes a 5-second timeout and fails the test if the request cannot be
// created or executed successfully.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// ConnectWebSocket dials url with the test Origin.
func ConnectWebSocket(url string) (*websocket.Conn, error) {
	return ConnectWebSocketWithOrigin(url, TestOrigin)
}

// ConnectWebSocketWithOrigin dials url with an explicit Origin header; an
// empty origin sends none.
func ConnectWebSocketWithOrigin(url, origin string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// MustConnect dials the hub behind testServer and closes the socket with the test.
func MustConnect(t *testing.T, testServer *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, err := ConnectWebSocket(WebSocketURL(testServer.URL))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SendEvent writes one envelope frame.
func SendEvent(conn *websocket.Conn, event string, payload any) error {
	env, err := chat.NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	return conn.WriteJSON(env)
}

// ReceiveEvent reads the next envelope, waiting at most ReadTimeout.
func ReceiveEvent(conn *websocket.Conn) (chat.Envelope, error) {
	var env chat.Envelope
	if err := conn.SetReadDeadline(time.Now().Add(ReadTimeout)); err != nil {
		return env, err
	}
	err := conn.ReadJSON(&env)
	return env, err
}

// ExpectEvent reads the next envelope, checks its name and decodes its data into out.
func ExpectEvent(t *testing.T, conn *websocket.Conn, event string, out any) {
	t.Helper()
	env, err := ReceiveEvent(conn)
	require.NoError(t, err)
	require.Equal(t, event, env.Event, "data: %s", env.Data)
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
}

// ExpectNoEvent fails if a frame arrives within wait. The read deadline
// error poisons the connection, so call it last on conn.
func ExpectNoEvent(t *testing.T, conn *websocket.Conn, wait time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(wait)))
	_, data, err := conn.ReadMessage()
	require.Error(t, err, "unexpected frame %s", data)
}

// Register claims name on conn and returns the server's answer.
func Register(t *testing.T, conn *websocket.Conn, name string) bool {
	t.Helper()
	require.NoError(t, SendEvent(conn, chat.EventRegister, name))
	var res chat.RegisterResult
	ExpectEvent(t, conn, chat.EventRegister, &res)
	return res.Success
}

// CloseWebSocket gracefully closes a WebSocket connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}
