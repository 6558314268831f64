package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ent0n29/salestrain-gateway/internal/reliability"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientSynthesizeSuccess(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(pcm)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "key", "voice-1", time.Second)
	out, err := c.Synthesize(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, pcm, out)
}

func TestHTTPClientSynthesizeNonOKIsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "key", "voice-1", time.Second)
	_, err := c.Synthesize(context.Background(), "hello")
	require.Error(t, err)
	require.True(t, reliability.IsProviderFailure(err))
}
