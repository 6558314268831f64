package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/ent0n29/salestrain-gateway/internal/config"
	"github.com/ent0n29/salestrain-gateway/internal/observability"
	"github.com/ent0n29/salestrain-gateway/internal/protocol"
	"github.com/ent0n29/salestrain-gateway/internal/session"
)

type stubDispatcher struct {
	greet any
}

func (d *stubDispatcher) Run(ctx context.Context, inbound <-chan any, outbound chan<- any) error {
	outbound <- d.greet
	<-ctx.Done()
	return ctx.Err()
}

func newTestServer(t *testing.T, factory DispatcherFactory) *httptest.Server {
	t.Helper()
	cfg := config.Config{AllowAnyOrigin: true, SessionInactivityTimeout: 2 * time.Minute}
	metrics := observability.NewMetrics("test_httpapi_" + strings.ReplaceAll(time.Now().Format("150405.000000"), ".", "_"))
	registry := session.NewRegistry(cfg.SessionInactivityTimeout)
	srv := New(cfg, factory, registry, metrics, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, func() Dispatcher { return &stubDispatcher{} })

	res, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestVoiceWSRunsDispatcherAndRelaysFrames(t *testing.T) {
	ts := newTestServer(t, func() Dispatcher {
		return &stubDispatcher{greet: protocol.AgentConnected{Type: protocol.TypeAgentConnected}}
	})
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/voice/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, string(protocol.TypeAgentConnected), msg["type"])
}

func TestVoiceWSMalformedFrameIsDroppedNotFatal(t *testing.T) {
	ts := newTestServer(t, func() Dispatcher {
		return &stubDispatcher{greet: protocol.AgentConnected{Type: protocol.TypeAgentConnected}}
	})
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/voice/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"not.a.real.type"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"call.reset"}`)))
}
