package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/vinodismyname/toolgate/internal/auth"
	"github.com/vinodismyname/toolgate/internal/telemetry"
)

func newTestServer(t *testing.T) (*HTTPServer, *auth.FlowStore) {
	t.Helper()
	flows := auth.NewFlowStore(auth.FlowConfig{ClientID: "c", RedirectURI: "http://x" + PathCallback}, nil)
	mcpStub := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	return NewHTTPServer(mcpStub, flows, telemetry.NewHooks(zerolog.Nop()), zerolog.Nop()), flows
}

func TestRouter_Health(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathHealth, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
	require.NotNil(t, body.Counters)
}

func TestRouter_MountsMCP(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, PathMCP, nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRouter_Callback(t *testing.T) {
	s, flows := newTestServer(t)
	flow, err := flows.Begin([]string{"openid"})
	require.NoError(t, err)
	router := s.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("%s?state=%s&code=abc", PathCallback, flow.State), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, flows.Pending())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("%s?state=%s&code=abc", PathCallback, flow.State), nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathCallback+"?error=access_denied", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_CallbackDisabled(t *testing.T) {
	s := NewHTTPServer(http.NotFoundHandler(), nil, nil, zerolog.Nop())
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathCallback, nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeListener_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeListener(ctx, ln, s.Router(), time.Second, zerolog.Nop()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + PathHealth)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
