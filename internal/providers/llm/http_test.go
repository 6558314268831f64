package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ent0n29/salestrain-gateway/internal/reliability"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientGenerateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "custom-provider", r.Header.Get("LLM_PROVIDER"))
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, 0.7, req.Temperature)
		require.False(t, req.Stream)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{{Message: chatMessage{Role: "assistant", Content: "  Our budget is tight.  "}}},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "key", "gpt-x", "custom-provider", time.Second)
	reply, err := c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	require.Equal(t, "Our budget is tight.", reply)
}

func TestHTTPClientGenerateEmptyContentIsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{{Message: chatMessage{Content: "   "}}},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "key", "gpt-x", "", time.Second)
	_, err := c.Generate(context.Background(), nil)
	require.Error(t, err)
	require.True(t, reliability.IsProviderFailure(err))
}

func TestHTTPClientGenerateNonOKStatusIsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "key", "gpt-x", "", time.Second)
	_, err := c.Generate(context.Background(), nil)
	require.Error(t, err)
	require.True(t, reliability.IsProviderFailure(err))
}
