package tts

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ent0n29/salestrain-gateway/internal/reliability"
)

// LokutorClient is an optional low-latency TTS backend selected via
// TTS_PROVIDER=lokutor. It streams synthesis chunks over a persistent
// websocket rather than paying a full HTTP round trip per turn, and
// concatenates them into the same full-buffer contract Client requires —
// the Session's TTS streamer (spec.md §4.8) always chunks from a
// fully-buffered reply regardless of which backend filled it.
type LokutorClient struct {
	apiKey  string
	host    string
	voiceID string
	scheme  string // "wss" in production; tests override to "ws" against httptest.Server

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewLokutorClient builds a client against host (e.g. "api.elevenlabs-style-host.com",
// taken from TTS_BASE_URL with scheme/path stripped).
func NewLokutorClient(host, apiKey, voiceID string) *LokutorClient {
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "wss://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimSuffix(host, "/")
	return &LokutorClient{host: host, apiKey: apiKey, voiceID: voiceID, scheme: "wss"}
}

func (c *LokutorClient) getConn(ctx context.Context) (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return c.conn, nil
	}

	u := url.URL{Scheme: c.scheme, Host: c.host, Path: "/v1/stream", RawQuery: "api_key=" + c.apiKey}
	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, reliability.Wrap(reliability.KindProviderUnavailable, "tts.lokutor.connect", err)
	}
	c.conn = conn
	return conn, nil
}

func (c *LokutorClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	conn, err := c.getConn(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	req := map[string]any{
		"text":        text,
		"voice_id":    c.voiceID,
		"encoding":    "linear16",
		"sample_rate": 16000,
		"channels":    1,
	}
	if err := wsjson.Write(ctx, conn, req); err != nil {
		c.conn = nil
		conn.Close(websocket.StatusAbnormalClosure, "failed to write synthesis request")
		return nil, reliability.Wrap(reliability.KindProviderUnavailable, "tts.lokutor.synthesize", err)
	}

	var audio []byte
	for {
		messageType, payload, err := conn.Read(ctx)
		if err != nil {
			c.conn = nil
			conn.Close(websocket.StatusAbnormalClosure, "failed to read synthesis stream")
			return nil, reliability.Wrap(reliability.KindProviderUnavailable, "tts.lokutor.synthesize", err)
		}

		switch messageType {
		case websocket.MessageBinary:
			audio = append(audio, payload...)
		case websocket.MessageText:
			msg := string(payload)
			if msg == "EOS" {
				if len(audio) == 0 {
					return nil, reliability.Wrap(reliability.KindProviderUnavailable, "tts.lokutor.synthesize", fmt.Errorf("empty audio body"))
				}
				return audio, nil
			}
			if strings.HasPrefix(msg, "ERR:") {
				return nil, reliability.Wrap(reliability.KindProviderUnavailable, "tts.lokutor.synthesize", fmt.Errorf("%s", msg))
			}
		}
	}
}

func (c *LokutorClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close(websocket.StatusNormalClosure, "")
	c.conn = nil
	return err
}
