package tts

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

// HTTPClient synthesizes speech via a synchronous HTTP endpoint, requesting
// raw linear16 PCM at 16kHz mono with no container (spec.md §4.5).
type HTTPClient struct {
	baseURL string
	apiKey  string
	voiceID string
	timeout time.Duration
	http    *http.Client
}

func NewHTTPClient(baseURL, apiKey, voiceID string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		voiceID: voiceID,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
	}
}

type synthesizeRequest struct {
	Text       string `json:"text"`
	VoiceID    string `json:"voice_id"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Container  string `json:"container"`
}

// maxRetries bounds the number of retries for a retryable HTTP status
// (rate limiting, upstream 5xx). Synthesis is pure given the same text, so a
// retry cannot double-speak a turn.
const maxRetries = 2

func (c *HTTPClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	// The timeout bounds the whole call, retries and backoff included.
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(synthesizeRequest{
		Text:       text,
		VoiceID:    c.voiceID,
		Encoding:   "linear16",
		SampleRate: 16000,
		Channels:   1,
		Container:  "none",
	})
	if err != nil {
		return nil, reliability.Wrap(reliability.KindProviderUnavailable, "tts.synthesize", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, reliability.Wrap(reliability.KindTimeout, "tts.synthesize", ctx.Err())
			case <-time.After(reliability.ExponentialBackoff(attempt, 200*time.Millisecond, 2*time.Second)):
			}
		}

		audio, retryableStatus, err := c.doSynthesize(ctx, payload)
		if err == nil {
			return audio, nil
		}
		lastErr = err
		if !retryableStatus {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *HTTPClient) doSynthesize(ctx context.Context, payload []byte) (audio []byte, retryable bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/text-to-speech", bytes.NewReader(payload))
	if err != nil {
		return nil, false, reliability.Wrap(reliability.KindProviderUnavailable, "tts.synthesize", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		kind := reliability.KindProviderUnavailable
		if ctx.Err() != nil {
			kind = reliability.KindTimeout
		}
		return nil, false, reliability.Wrap(kind, "tts.synthesize", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, reliability.Wrap(reliability.KindProviderUnavailable, "tts.synthesize", err)
	}
	if resp.StatusCode != http.StatusOK {
		wrapped := reliability.Wrap(reliability.KindProviderUnavailable, "tts.synthesize",
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
		return nil, reliability.IsRetryableHTTPStatus(resp.StatusCode), wrapped
	}
	if len(body) == 0 {
		return nil, false, reliability.Wrap(reliability.KindProviderUnavailable, "tts.synthesize", fmt.Errorf("empty audio body"))
	}
	return body, false, nil
}
