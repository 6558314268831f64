package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/ent0n29/salestrain-gateway/internal/protocol"
	"github.com/ent0n29/salestrain-gateway/internal/providers/llm"
)

const unavailableReply = "The customer is temporarily unavailable. Please try again."

// enqueueTurn implements the Turn queue (spec.md §4.6): exactly one LLM turn
// in flight per Session. A text arriving while one is already in flight is
// coalesced into the single-slot pendingTranscript rather than queued.
func (d *Dispatcher) enqueueTurn(ctx context.Context, text string) {
	if d.sess.CallEnded {
		return
	}
	if d.sess.LLMInFlight {
		if d.sess.PendingTranscript == "" {
			d.sess.PendingTranscript = text
		} else {
			d.sess.PendingTranscript = d.sess.PendingTranscript + " " + text
		}
		return
	}
	d.sess.LLMInFlight = true
	d.runTurn(ctx, text)
}

// dispatchPending sends any text accumulated while the last turn was in
// flight, in order (spec.md §4.6, §4.7 step 5).
func (d *Dispatcher) dispatchPending(ctx context.Context) {
	if d.sess.CallEnded {
		d.sess.PendingTranscript = ""
		return
	}
	pending := d.sess.PendingTranscript
	if pending == "" {
		return
	}
	d.sess.PendingTranscript = ""
	d.enqueueTurn(ctx, pending)
}

// runTurn implements the LLM Turn Pipeline (spec.md §4.7).
func (d *Dispatcher) runTurn(ctx context.Context, text string) {
	turnStart := time.Now()
	d.sess.AppendUserTurn(text, d.nowMs())
	d.sess.CoachHintSentForTurn = false

	generateStart := time.Now()
	reply, err := d.deps.LLM.Generate(ctx, d.llmMessages())
	d.deps.Metrics.ObserveTurnStage("llm_generate", time.Since(generateStart))
	if err != nil {
		d.log.Warn("orchestrator: llm generate failed", "error", err.Error())
		d.deps.Metrics.ObserveProviderError("llm", errorCode(err))
		d.send(protocol.AgentTextMsg{Type: protocol.TypeAgentText, Text: unavailableReply})
		d.sess.LLMInFlight = false
		d.dispatchPending(ctx)
		return
	}

	if d.sess.CallEnded {
		d.sess.LLMInFlight = false
		return
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = "..."
	}
	d.sess.AppendAssistantTurn(reply, d.nowMs())
	d.send(protocol.AgentTextMsg{Type: protocol.TypeAgentText, Text: reply})

	d.maybeSendCoachHint(ctx)
	d.streamTTS(ctx, reply)
	d.deps.Metrics.ObserveTurnStage("turn_total", time.Since(turnStart))

	d.sess.LLMInFlight = false
	d.dispatchPending(ctx)
}

func (d *Dispatcher) llmMessages() []llm.Message {
	out := make([]llm.Message, 0, len(d.sess.Conversation))
	for _, t := range d.sess.Conversation {
		out = append(out, llm.Message{Role: llm.Role(t.Role), Content: t.Content})
	}
	return out
}
