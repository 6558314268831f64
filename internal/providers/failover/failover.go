// Package failover wraps each provider client with a primary/fallback pair.
// A provider failure trips an atomic flag that routes subsequent calls to
// the fallback directly, so a degraded primary does not pay its failure
// latency on every turn; the flag is cleared on the next fallback failure,
// retrying the primary.
package failover

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ent0n29/salestrain-gateway/internal/logging"
	"github.com/ent0n29/salestrain-gateway/internal/providers/llm"
	"github.com/ent0n29/salestrain-gateway/internal/providers/stt"
	"github.com/ent0n29/salestrain-gateway/internal/providers/tts"
)

// LLM wraps a primary and fallback llm.Client.
type LLM struct {
	primary  llm.Client
	fallback llm.Client
	degraded atomic.Bool
	log      logging.Logger
}

func NewLLM(primary, fallback llm.Client, log logging.Logger) *LLM {
	if log == nil {
		log = logging.NoOp{}
	}
	return &LLM{primary: primary, fallback: fallback, log: log}
}

func (f *LLM) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	if f.fallback == nil || !f.degraded.Load() {
		text, err := f.primary.Generate(ctx, messages)
		if err == nil {
			f.degraded.Store(false)
			return text, nil
		}
		if f.fallback == nil {
			return "", err
		}
		f.log.Warn("llm: primary failed, trying fallback", "error", err.Error())
		text, fbErr := f.fallback.Generate(ctx, messages)
		if fbErr != nil {
			return "", fmt.Errorf("primary: %v; fallback: %w", err, fbErr)
		}
		f.degraded.Store(true)
		return text, nil
	}

	text, err := f.fallback.Generate(ctx, messages)
	if err == nil {
		return text, nil
	}
	f.log.Warn("llm: fallback failed, retrying primary", "error", err.Error())
	f.degraded.Store(false)
	return f.primary.Generate(ctx, messages)
}

// TTS wraps a primary and fallback tts.Client with the same policy as LLM.
type TTS struct {
	primary  tts.Client
	fallback tts.Client
	degraded atomic.Bool
	log      logging.Logger
}

func NewTTS(primary, fallback tts.Client, log logging.Logger) *TTS {
	if log == nil {
		log = logging.NoOp{}
	}
	return &TTS{primary: primary, fallback: fallback, log: log}
}

func (f *TTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if f.fallback == nil || !f.degraded.Load() {
		audio, err := f.primary.Synthesize(ctx, text)
		if err == nil {
			f.degraded.Store(false)
			return audio, nil
		}
		if f.fallback == nil {
			return nil, err
		}
		f.log.Warn("tts: primary failed, trying fallback", "error", err.Error())
		audio, fbErr := f.fallback.Synthesize(ctx, text)
		if fbErr != nil {
			return nil, fmt.Errorf("primary: %v; fallback: %w", err, fbErr)
		}
		f.degraded.Store(true)
		return audio, nil
	}

	audio, err := f.fallback.Synthesize(ctx, text)
	if err == nil {
		return audio, nil
	}
	f.log.Warn("tts: fallback failed, retrying primary", "error", err.Error())
	f.degraded.Store(false)
	return f.primary.Synthesize(ctx, text)
}

// STT wraps a primary and fallback stt.Client. Unlike LLM/TTS, a streaming
// connection failure is only known at OpenStream time, so degraded state is
// tracked the same way but nothing mid-stream triggers failover.
type STT struct {
	primary  stt.Client
	fallback stt.Client
	degraded atomic.Bool
	log      logging.Logger
}

func NewSTT(primary, fallback stt.Client, log logging.Logger) *STT {
	if log == nil {
		log = logging.NoOp{}
	}
	return &STT{primary: primary, fallback: fallback, log: log}
}

func (f *STT) OpenStream(ctx context.Context) (stt.Stream, error) {
	if f.fallback == nil || !f.degraded.Load() {
		s, err := f.primary.OpenStream(ctx)
		if err == nil {
			f.degraded.Store(false)
			return s, nil
		}
		if f.fallback == nil {
			return nil, err
		}
		f.log.Warn("stt: primary failed, trying fallback", "error", err.Error())
		s, fbErr := f.fallback.OpenStream(ctx)
		if fbErr != nil {
			return nil, fmt.Errorf("primary: %v; fallback: %w", err, fbErr)
		}
		f.degraded.Store(true)
		return s, nil
	}

	s, err := f.fallback.OpenStream(ctx)
	if err == nil {
		return s, nil
	}
	f.log.Warn("stt: fallback failed, retrying primary", "error", err.Error())
	f.degraded.Store(false)
	return f.primary.OpenStream(ctx)
}
