package integration

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Tyrowin/gochat-hub/internal/chat"
	"github.com/Tyrowin/gochat-hub/internal/server"
	"github.com/Tyrowin/gochat-hub/test/testhelpers"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// TestOriginValidation verifies the upgrade is refused unless the Origin
// header matches the configured allow-list.
func TestOriginValidation(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		accept  bool
	}{
		{"missing origin", []string{testhelpers.TestOrigin}, "", false},
		{"unlisted origin", []string{testhelpers.TestOrigin}, "http://evil.example", false},
		{"malformed origin", []string{testhelpers.TestOrigin}, "not-a-url", false},
		{"scheme mismatch", []string{testhelpers.TestOrigin}, "https://localhost:8080", false},
		{"listed origin", []string{testhelpers.TestOrigin}, testhelpers.TestOrigin, true},
		{"case-insensitive host", []string{"http://example.com"}, "HTTP://Example.COM", true},
		{"wildcard", []string{"*"}, "https://anywhere.example", true},
		{"empty allow-list", nil, testhelpers.TestOrigin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testServer, _ := testhelpers.StartChatServer(t, func(cfg *server.Config) {
				cfg.AllowedOrigins = tt.allowed
			})

			conn, err := testhelpers.ConnectWebSocketWithOrigin(testhelpers.WebSocketURL(testServer.URL), tt.origin)
			if !tt.accept {
				require.ErrorIs(t, err, websocket.ErrBadHandshake)
				return
			}
			require.NoError(t, err)
			_ = conn.Close()
		})
	}
}

// TestMessageSizeLimit verifies that frames above MaxMessageSize close the
// connection and free its username.
func TestMessageSizeLimit(t *testing.T) {
	req := require.New(t)
	testServer, _ := testhelpers.StartChatServer(t, func(cfg *server.Config) {
		cfg.MaxMessageSize = 256
	})
	alice := testhelpers.MustConnect(t, testServer)
	req.True(testhelpers.Register(t, alice, "alice"))

	req.NoError(testhelpers.SendEvent(alice, chat.EventClientSays, chat.SayRequest{Message: "fits"}))
	testhelpers.ExpectEvent(t, alice, chat.EventServerSays, nil)

	err := testhelpers.SendEvent(alice, chat.EventClientSays, chat.SayRequest{Message: strings.Repeat("x", 1024)})
	if err == nil {
		_, err = testhelpers.ReceiveEvent(alice)
	}
	req.Error(err, "oversized frame should end the connection")

	successor := testhelpers.MustConnect(t, testServer)
	deadline := time.Now().Add(2 * time.Second)
	for !testhelpers.Register(t, successor, "alice") {
		if time.Now().After(deadline) {
			t.Fatal("name was not released after the oversized frame")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// TestWebSocketEndpoint_Rejects_Non_GET checks the method guard in front of the upgrade.
func TestWebSocketEndpoint_Rejects_Non_GET(t *testing.T) {
	testServer, _ := testhelpers.StartChatServer(t, nil)

	resp := testhelpers.MakeRequest(t, http.MethodPost, testServer.URL+"/ws")
	defer func() { _ = resp.Body.Close() }()

	testhelpers.AssertStatusCode(t, resp, http.StatusMethodNotAllowed)
}
