package tts

import "context"

// MockClient returns a fixed PCM16 buffer for every call (spec.md §8
// end-to-end scenarios stub TTS to fixed outputs).
type MockClient struct {
	Audio []byte
	Err   error
}

func (c *MockClient) Synthesize(context.Context, string) ([]byte, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	if len(c.Audio) == 0 {
		// 8192 bytes => two 4096-byte frames at the default chunk size.
		return make([]byte, 8192), nil
	}
	return c.Audio, nil
}
