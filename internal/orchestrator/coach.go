package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/ent0n29/salestrain-gateway/internal/providers/llm"
)

// maybeSendCoachHint fires a short, cooldown-gated LLM side-call offering
// the trainee a coaching tip after their turn. It runs on its own goroutine
// and reports back over coachHintChan so it never delays the reply the
// customer just gave (spec.md §5: "Coach-hint calls ... are awaited by the
// owning task without blocking other Sessions").
func (d *Dispatcher) maybeSendCoachHint(ctx context.Context) {
	if d.sess.CoachHintSentForTurn {
		return
	}
	if d.nowMs()-d.sess.LastCoachHintMs < d.deps.coachHintCooldownMs() {
		return
	}
	if len(d.sess.Conversation) < 2 {
		return
	}

	d.sess.CoachHintSentForTurn = true
	d.sess.LastCoachHintMs = d.nowMs()

	messages := d.coachMessages()
	go func() {
		text, err := d.deps.LLM.Generate(ctx, messages)
		select {
		case d.coachHintChan <- coachHintResult{text: strings.TrimSpace(text), err: err}:
		case <-ctx.Done():
		}
	}()
}

func (d *Dispatcher) coachMessages() []llm.Message {
	var lastUser string
	for i := len(d.sess.Conversation) - 1; i >= 0; i-- {
		if string(d.sess.Conversation[i].Role) == "user" {
			lastUser = d.sess.Conversation[i].Content
			break
		}
	}
	prompt := fmt.Sprintf(
		"You are a sales coach watching a live training call. The trainee's last line was: %q. "+
			"In one short sentence, give the trainee a single actionable tip for their next response. "+
			"Do not roleplay as the customer.", lastUser)
	return []llm.Message{{Role: llm.RoleSystem, Content: prompt}}
}
