package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ent0n29/salestrain-gateway/internal/reliability"
)

const defaultTimeout = 10 * time.Second

// HTTPClient is an openai-compatible chat-completions client. It also works
// against anthropic-shaped gateways that accept the same request/response
// envelope behind a compatibility proxy; LLM_PROVIDER travels as a custom
// header so a fronting proxy can route on it (spec.md §9 open question: it
// is unspecified whether downstream providers honor this header, so this
// client sends it unconditionally and makes no assumption about its effect).
type HTTPClient struct {
	baseURL  string
	apiKey   string
	model    string
	provider string
	timeout  time.Duration
	http     *http.Client
}

func NewHTTPClient(baseURL, apiKey, model, provider string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		model:    model,
		provider: provider,
		timeout:  timeout,
		http:     &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// maxRetries bounds the number of retries for a retryable HTTP status
// (rate limiting, upstream 5xx). A chat completion is idempotent enough to
// retry safely since the turn pipeline has not yet committed the reply.
const maxRetries = 2

func (c *HTTPClient) Generate(ctx context.Context, messages []Message) (string, error) {
	// The timeout bounds the whole call, retries and backoff included.
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqBody := chatRequest{
		Model:       c.model,
		Temperature: 0.7,
		Stream:      false,
		Messages:    make([]chatMessage, len(messages)),
	}
	for i, m := range messages {
		reqBody.Messages[i] = chatMessage{Role: string(m.Role), Content: m.Content}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", reliability.Wrap(reliability.KindProviderUnavailable, "llm.generate", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", reliability.Wrap(reliability.KindTimeout, "llm.generate", ctx.Err())
			case <-time.After(reliability.ExponentialBackoff(attempt, 200*time.Millisecond, 2*time.Second)):
			}
		}

		text, retryableStatus, err := c.doGenerate(ctx, payload)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryableStatus {
			return "", err
		}
	}
	return "", lastErr
}

// doGenerate performs one attempt. retryable reports whether the failure was
// an HTTP status reliability.IsRetryableHTTPStatus recognizes, the only
// condition Generate retries.
func (c *HTTPClient) doGenerate(ctx context.Context, payload []byte) (text string, retryable bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", false, reliability.Wrap(reliability.KindProviderUnavailable, "llm.generate", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.provider != "" {
		req.Header.Set("LLM_PROVIDER", c.provider)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		kind := reliability.KindProviderUnavailable
		if ctx.Err() != nil {
			kind = reliability.KindTimeout
		}
		return "", false, reliability.Wrap(kind, "llm.generate", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, reliability.Wrap(reliability.KindProviderUnavailable, "llm.generate", err)
	}
	if resp.StatusCode != http.StatusOK {
		wrapped := reliability.Wrap(reliability.KindProviderUnavailable, "llm.generate",
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
		return "", reliability.IsRetryableHTTPStatus(resp.StatusCode), wrapped
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", false, reliability.Wrap(reliability.KindProviderUnavailable, "llm.generate", err)
	}
	if len(parsed.Choices) == 0 {
		return "", false, reliability.Wrap(reliability.KindProviderUnavailable, "llm.generate", fmt.Errorf("no choices returned"))
	}

	reply := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if reply == "" {
		return "", false, reliability.Wrap(reliability.KindProviderUnavailable, "llm.generate", fmt.Errorf("empty content"))
	}
	return reply, false, nil
}
