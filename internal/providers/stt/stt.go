// Package stt implements the streaming speech-to-text client contract of
// spec.md §4.3: one streaming connection per speaking turn, surfacing
// partial/final/utterance-end events in provider order.
package stt

import "context"

// EventKind discriminates the events a Stream delivers to its owner.
type EventKind string

const (
	EventPartial      EventKind = "partial"
	EventFinal        EventKind = "final"
	EventUtteranceEnd EventKind = "utterance_end"
	EventError        EventKind = "error"
)

// Event is one item surfaced to the Session (spec.md §4.3).
type Event struct {
	Kind       EventKind
	Text       string
	Confidence *float64
	Err        error

	// retryCode is the provider's wire error code for an EventError, used to
	// classify whether the failure is worth a quiet retry or operator
	// attention. It has no meaning outside this package.
	retryCode string
}

// Stream is one open speaking-turn connection to the provider.
type Stream interface {
	// SendAudio forwards a PCM16 chunk to the provider.
	SendAudio(pcm []byte) error
	// Events delivers events in the order the provider produced them. The
	// channel is closed when the stream is closed or the connection drops.
	Events() <-chan Event
	Close() error
}

// Client opens streaming STT connections.
type Client interface {
	OpenStream(ctx context.Context) (Stream, error)
}
