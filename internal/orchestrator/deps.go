// Package orchestrator implements the Dispatcher & State Machine (spec.md
// §4.1) and everything it owns: the utterance aggregator and turn queue
// (§4.6), the LLM turn pipeline (§4.7), the TTS streamer and barge-in
// controller (§4.8), the difficulty selector (§4.9), and the end-of-call
// pipeline (§4.10). One Dispatcher is created per WebSocket connection and
// is the sole mutator of its Session; every external event reaches it over
// a channel, per spec.md §9 "channels + owning task".
package orchestrator

import (
	"github.com/ent0n29/salestrain-gateway/internal/auth"
	"github.com/ent0n29/salestrain-gateway/internal/memory"
	"github.com/ent0n29/salestrain-gateway/internal/metrics"
	"github.com/ent0n29/salestrain-gateway/internal/observability"
	"github.com/ent0n29/salestrain-gateway/internal/providers/llm"
	"github.com/ent0n29/salestrain-gateway/internal/providers/stt"
	"github.com/ent0n29/salestrain-gateway/internal/providers/tts"
)

// Deps bundles the immutable, shared-safe collaborators a Dispatcher needs.
// Every field is a stateless or internally-synchronized handle: spec.md §5
// "Upstream service clients are immutable handles; each call is independent
// and safe to use from any task."
type Deps struct {
	STT   stt.Client
	LLM   llm.Client
	TTS   tts.Client
	Store memory.Store
	Auth  auth.Verifier

	// Metrics is nil-safe: every Observe* method on *observability.Metrics
	// tolerates a nil receiver, so tests may leave this unset.
	Metrics *observability.Metrics

	ScoringConfig metrics.ScoringConfig

	// PromptBuilder lets tests and callers fix the persona prompt instead
	// of going through scenario.BuildPrompt; production wiring leaves this
	// nil so the Dispatcher builds the prompt itself.
	PromptBuilder func(scenarioID string, difficulty string) string

	// FallbackSilenceMs is the aggregator's fallback flush timer (spec.md
	// §4.6); defaulted to 5000 if zero.
	FallbackSilenceMs int64
	// HeartbeatMs is the ping interval (spec.md §4.1); defaulted to 5000.
	HeartbeatMs int64
	// TTSFrameBytes is the TTS streamer's chunk size (spec.md §4.8);
	// defaulted to 4096.
	TTSFrameBytes int
	// CoachHintCooldownMs gates how often a coach hint side-call may fire.
	CoachHintCooldownMs int64
}

func (d Deps) fallbackSilenceMs() int64 {
	if d.FallbackSilenceMs > 0 {
		return d.FallbackSilenceMs
	}
	return 5000
}

func (d Deps) heartbeatMs() int64 {
	if d.HeartbeatMs > 0 {
		return d.HeartbeatMs
	}
	return 5000
}

func (d Deps) ttsFrameBytes() int {
	if d.TTSFrameBytes > 0 {
		return d.TTSFrameBytes
	}
	return 4096
}

func (d Deps) coachHintCooldownMs() int64 {
	if d.CoachHintCooldownMs > 0 {
		return d.CoachHintCooldownMs
	}
	return 20000
}
