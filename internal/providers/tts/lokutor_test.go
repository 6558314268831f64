package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/require"
)

func TestLokutorClientSynthesizeConcatenatesChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "closing")

		var req map[string]any
		if err := wsjson.Read(r.Context(), conn, &req); err != nil {
			return
		}
		require.Equal(t, "voice-1", req["voice_id"])

		conn.Write(r.Context(), websocket.MessageBinary, []byte{1, 2, 3})
		conn.Write(r.Context(), websocket.MessageBinary, []byte{4, 5, 6})
		conn.Write(r.Context(), websocket.MessageText, []byte("EOS"))
	}))
	defer server.Close()

	c := &LokutorClient{
		apiKey:  "test-key",
		host:    strings.TrimPrefix(server.URL, "http://"),
		voiceID: "voice-1",
		scheme:  "ws",
	}

	audio, err := c.Synthesize(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6}, audio)
	require.NoError(t, c.Close())
}

func TestLokutorClientSynthesizeUpstreamErrorFrame(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "closing")

		var req map[string]any
		if err := wsjson.Read(r.Context(), conn, &req); err != nil {
			return
		}
		conn.Write(r.Context(), websocket.MessageText, []byte("ERR:quota exceeded"))
	}))
	defer server.Close()

	c := &LokutorClient{
		apiKey: "test-key",
		host:   strings.TrimPrefix(server.URL, "http://"),
		scheme: "ws",
	}

	_, err := c.Synthesize(context.Background(), "hello")
	require.Error(t, err)
}
