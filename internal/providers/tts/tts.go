// Package tts implements the synchronous speech-synthesis client contract of
// spec.md §4.5: synthesize(text) -> bytes, full PCM16 buffer in memory
// (linear16, 16000 Hz, mono, no container); the TTS streamer chunks it for
// the client.
package tts

import "context"

// Client synthesizes text into a complete PCM16 buffer.
type Client interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
