package failover

import (
	"context"
	"errors"
	"testing"

	"github.com/ent0n29/salestrain-gateway/internal/providers/llm"
	"github.com/stretchr/testify/require"
)

func TestLLMFallsBackOnPrimaryFailure(t *testing.T) {
	primary := &llm.MockClient{Err: errors.New("down")}
	fallback := &llm.MockClient{Replies: []string{"fallback reply"}}
	f := NewLLM(primary, fallback, nil)

	text, err := f.Generate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, "fallback reply", text)
}

func TestLLMStaysOnFallbackWhileDegraded(t *testing.T) {
	primary := &llm.MockClient{Err: errors.New("down")}
	fallback := &llm.MockClient{Replies: []string{"a", "b"}}
	f := NewLLM(primary, fallback, nil)

	_, err := f.Generate(context.Background(), nil)
	require.NoError(t, err)
	_, err = f.Generate(context.Background(), nil)
	require.NoError(t, err)

	require.Equal(t, 1, primary.CallCount(), "primary is tried once, then not retried while degraded and fallback succeeds")
}

func TestLLMReturnsCombinedErrorWhenBothFail(t *testing.T) {
	primary := &llm.MockClient{Err: errors.New("primary down")}
	fallback := &llm.MockClient{Err: errors.New("fallback down")}
	f := NewLLM(primary, fallback, nil)

	_, err := f.Generate(context.Background(), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "primary down")
	require.Contains(t, err.Error(), "fallback down")
}

func TestLLMWithNoFallbackPropagatesPrimaryError(t *testing.T) {
	primary := &llm.MockClient{Err: errors.New("down")}
	f := NewLLM(primary, nil, nil)

	_, err := f.Generate(context.Background(), nil)
	require.ErrorIs(t, err, primary.Err)
}
