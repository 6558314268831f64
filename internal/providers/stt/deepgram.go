package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/ent0n29/salestrain-gateway/internal/logging"
	"github.com/ent0n29/salestrain-gateway/internal/reliability"
)

const deepgramURL = "wss://api.deepgram.com/v1/listen"

// DeepgramClient opens streaming connections against Deepgram's listen
// endpoint with the fixed query parameters spec.md §4.3 mandates.
type DeepgramClient struct {
	apiKey string
	log    logging.Logger
}

func NewDeepgramClient(apiKey string, log logging.Logger) *DeepgramClient {
	if log == nil {
		log = logging.NoOp{}
	}
	return &DeepgramClient{apiKey: apiKey, log: log}
}

func (c *DeepgramClient) OpenStream(ctx context.Context) (Stream, error) {
	u, err := url.Parse(deepgramURL)
	if err != nil {
		return nil, reliability.Wrap(reliability.KindProviderUnavailable, "stt.connect", err)
	}
	q := u.Query()
	q.Set("encoding", "linear16")
	q.Set("sample_rate", "16000")
	q.Set("channels", "1")
	q.Set("interim_results", "true")
	q.Set("smart_format", "true")
	q.Set("punctuate", "true")
	q.Set("filler_words", "true")
	q.Set("utterance_end_ms", "1500")
	q.Set("endpointing", "500")
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Token "+c.apiKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, reliability.Wrap(reliability.KindProviderUnavailable, "stt.connect", err)
	}

	s := &deepgramStream{conn: conn, events: make(chan Event, 32), log: c.log}
	go s.readLoop()
	return s, nil
}

type deepgramStream struct {
	conn   *websocket.Conn
	events chan Event
	log    logging.Logger
}

func (s *deepgramStream) SendAudio(pcm []byte) error {
	if err := s.conn.WriteMessage(websocket.BinaryMessage, pcm); err != nil {
		return reliability.Wrap(reliability.KindProviderUnavailable, "stt.send", err)
	}
	return nil
}

func (s *deepgramStream) Close() error {
	_ = s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
	return s.conn.Close()
}

func (s *deepgramStream) Events() <-chan Event { return s.events }

// deepgramFrame captures the subset of Deepgram's listen-response shape this
// client consumes (results + utterance-end frames share a "type" field).
type deepgramFrame struct {
	Type    string `json:"type"`
	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
			Words      []struct {
				Confidence float64 `json:"confidence"`
			} `json:"words"`
		} `json:"alternatives"`
	} `json:"channel"`
	IsFinal bool `json:"is_final"`

	// Error frame fields (Deepgram sends {"type":"Error", ...} on the
	// same socket rather than closing it outright for transient conditions).
	ErrCode     string `json:"err_code"`
	Description string `json:"description"`
}

func (s *deepgramStream) readLoop() {
	defer close(s.events)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		event, ok, err := parseDeepgramFrame(data)
		if err != nil {
			s.log.Warn("stt: malformed frame", "error", err.Error())
			continue
		}
		if !ok {
			s.log.Debug("stt: ignoring frame", "raw", fmt.Sprintf("%q", data))
			continue
		}
		if event.Kind == EventError && event.Err != nil {
			// A retryable upstream code (rate limiting, queue pressure) is
			// logged at Warn since the next turn reopens the stream anyway;
			// anything else is surfaced at Error for operator attention.
			if reliability.IsRetryableRealtimeMessageType(strings.ToLower(event.retryCode)) {
				s.log.Warn("stt: upstream error", "error", event.Err.Error())
			} else {
				s.log.Error("stt: upstream error", "error", event.Err.Error())
			}
		}
		s.events <- event
	}
}

// parseDeepgramFrame decodes one Deepgram listen-response frame into an
// Event. ok is false for frame types/shapes that produce no Session event
// (malformed results, unrecognized frame type, empty interim transcript).
func parseDeepgramFrame(data []byte) (event Event, ok bool, err error) {
	var frame deepgramFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return Event{}, false, err
	}

	switch frame.Type {
	case "UtteranceEnd":
		return Event{Kind: EventUtteranceEnd}, true, nil
	case "Error":
		msg := frame.Description
		if msg == "" {
			msg = "deepgram stream error"
		}
		return Event{
			Kind:      EventError,
			Err:       reliability.Wrap(reliability.KindProviderUnavailable, "stt.stream", fmt.Errorf("%s", msg)),
			retryCode: frame.ErrCode,
		}, true, nil
	case "Results":
		if len(frame.Channel.Alternatives) == 0 {
			return Event{}, false, nil
		}
		alt := frame.Channel.Alternatives[0]
		if alt.Transcript == "" {
			return Event{}, false, nil
		}
		if !frame.IsFinal {
			return Event{Kind: EventPartial, Text: alt.Transcript}, true, nil
		}
		var conf *float64
		if len(alt.Words) > 0 {
			sum := 0.0
			for _, w := range alt.Words {
				sum += w.Confidence
			}
			avg := sum / float64(len(alt.Words))
			conf = &avg
		}
		return Event{Kind: EventFinal, Text: alt.Transcript, Confidence: conf}, true, nil
	default:
		return Event{}, false, nil
	}
}
