package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	req := require.New(t)
	rec := httptest.NewRecorder()

	HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	req.Equal(http.StatusOK, rec.Code)
	req.Equal("text/plain", rec.Header().Get("Content-Type"))
	req.Equal("GoChat server is running!", rec.Body.String())
}

func TestWebSocketHandler_Method_Not_Allowed(t *testing.T) {
	hub, _ := newTestHub(t)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WebSocketHandler(hub)(rec, httptest.NewRequest(method, "/ws", nil))
			require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		})
	}
}

func TestWebSocketHandler_Plain_GET_Is_Not_Upgraded(t *testing.T) {
	hub, _ := newTestHub(t)
	rec := httptest.NewRecorder()

	WebSocketHandler(hub)(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, hub.ClientCount())
}

func TestCreateServer(t *testing.T) {
	req := require.New(t)
	mux := http.NewServeMux()

	srv := CreateServer(":0", mux)

	req.Equal(":0", srv.Addr)
	req.Equal(15*time.Second, srv.ReadTimeout)
	req.Equal(15*time.Second, srv.WriteTimeout)
	req.Equal(60*time.Second, srv.IdleTimeout)
}

func TestStartServer_Returns_Nil_After_Shutdown(t *testing.T) {
	srv := CreateServer("127.0.0.1:0", http.NewServeMux())
	errs := make(chan error, 1)
	go func() { errs <- StartServer(srv) }()

	// ShutdownServer may run before ListenAndServe; both orders end in ErrServerClosed
	require.NoError(t, ShutdownServer(srv, time.Second))

	select {
	case err := <-errs:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("StartServer did not return")
	}
}
