package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ent0n29/salestrain-gateway/internal/memory"
	"github.com/ent0n29/salestrain-gateway/internal/metrics"
	"github.com/ent0n29/salestrain-gateway/internal/protocol"
	"github.com/ent0n29/salestrain-gateway/internal/providers/llm"
	"github.com/ent0n29/salestrain-gateway/internal/session"
)

// Feedback is the strict-JSON shape requested from the LLM at call end
// (spec.md §4.10 step 4).
type Feedback struct {
	Error                 bool     `json:"error,omitempty"`
	OverallScore          float64  `json:"overall_score"`
	Strengths             []string `json:"strengths"`
	Weaknesses            []string `json:"weaknesses"`
	ObjectionHandling     float64  `json:"objection_handling"`
	CommunicationClarity  float64  `json:"communication_clarity"`
	Confidence            float64  `json:"confidence"`
	MissedOpportunities   []string `json:"missed_opportunities"`
	ActionableSuggestions []string `json:"actionable_suggestions"`
}

var requiredFeedbackFields = []string{
	"overall_score", "strengths", "weaknesses", "objection_handling",
	"communication_clarity", "confidence", "missed_opportunities", "actionable_suggestions",
}

func sentinelFeedback() Feedback {
	return Feedback{
		Error:      true,
		Weaknesses: []string{"Unable to generate feedback for this call."},
	}
}

// runEndOfCallPipeline implements spec.md §4.10, steps 2-7. Step 1 (cancel
// TTS/STT) is already done by the caller (handleCallEnd) before this runs.
func (d *Dispatcher) runEndOfCallPipeline(ctx context.Context) {
	callDurationMs := d.nowMs() - d.sess.CallStartMs
	turnCount := d.sess.TurnCount()

	convMetrics := metrics.ComputeConversationMetrics(d.sess.Conversation, d.sess.TurnTimestamps, d.sess.InterruptionCount, callDurationMs)
	voiceMetrics := metrics.ComputeVoiceMetrics(d.sess.SpeakingSegments, d.sess.STTEvents, callDurationMs, d.sess.InterruptionCount, totalUserWords(d.sess.Conversation), d.deps.ScoringConfig)

	feedback := d.requestFeedback(ctx)

	d.send(protocol.CallFeedback{
		Type:                protocol.TypeCallFeedback,
		Payload:             feedback,
		ConversationMetrics: convMetrics,
		AudioMetrics:        voiceMetrics,
		CallDurationMs:      callDurationMs,
		TurnCount:           turnCount,
	})

	d.persistSession(feedback, convMetrics, voiceMetrics, callDurationMs, turnCount)
}

func (d *Dispatcher) requestFeedback(ctx context.Context) Feedback {
	prompt := buildFeedbackPrompt(d.sess.Conversation)
	reply, err := d.deps.LLM.Generate(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		d.log.Warn("orchestrator: feedback generate failed", "error", err.Error())
		return sentinelFeedback()
	}

	feedback, ok := parseFeedback(reply)
	if !ok {
		d.log.Warn("orchestrator: feedback parse failed", "raw", reply)
		return sentinelFeedback()
	}
	return feedback
}

func buildFeedbackPrompt(conversation []session.Turn) string {
	var transcript strings.Builder
	for _, t := range conversation {
		if t.Role == session.RoleSystem {
			continue
		}
		fmt.Fprintf(&transcript, "%s: %s\n", t.Role, t.Content)
	}

	return fmt.Sprintf(
		"You are grading a sales training call. Respond with ONLY a single JSON object, no markdown, "+
			"no prose, with exactly these fields: overall_score (number 0-10), strengths (array of strings), "+
			"weaknesses (array of strings), objection_handling (number 0-10), communication_clarity (number 0-10), "+
			"confidence (number 0-10), missed_opportunities (array of strings), actionable_suggestions (array of strings).\n\n"+
			"Transcript:\n%s", transcript.String())
}

// parseFeedback decodes the LLM's reply, tolerating a markdown code fence,
// and rejects it unless every required field is present (spec.md §4.10
// step 5, §7 FeedbackParseError).
func parseFeedback(raw string) (Feedback, bool) {
	raw = stripCodeFence(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Feedback{}, false
	}
	for _, name := range requiredFeedbackFields {
		if _, ok := fields[name]; !ok {
			return Feedback{}, false
		}
	}

	var fb Feedback
	if err := json.Unmarshal([]byte(raw), &fb); err != nil {
		return Feedback{}, false
	}
	return fb, true
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func totalUserWords(conversation []session.Turn) int {
	count := 0
	for _, t := range conversation {
		if t.Role != session.RoleUser {
			continue
		}
		count += len(strings.Fields(t.Content))
	}
	return count
}

// persistSession implements spec.md §4.10 step 7: best-effort, asynchronous,
// never surfaced to the client. A session without a verified userId is not
// persisted (spec.md §7 AuthInvalid policy).
func (d *Dispatcher) persistSession(feedback Feedback, convMetrics metrics.Conversation, voiceMetrics metrics.Voice, callDurationMs int64, turnCount int) {
	if d.sess.UserID == "" || d.deps.Store == nil {
		return
	}

	feedbackJSON, err := json.Marshal(feedback)
	if err != nil {
		d.log.Warn("orchestrator: feedback marshal failed", "error", err.Error())
		return
	}
	convJSON, err := json.Marshal(convMetrics)
	if err != nil {
		d.log.Warn("orchestrator: conversation metrics marshal failed", "error", err.Error())
		return
	}
	voiceJSON, err := json.Marshal(voiceMetrics)
	if err != nil {
		d.log.Warn("orchestrator: voice metrics marshal failed", "error", err.Error())
		return
	}

	record := memory.SessionRecord{
		UserID:              d.sess.UserID,
		Scenario:            d.sess.Scenario,
		Difficulty:          string(d.sess.Difficulty),
		CallDurationMs:      callDurationMs,
		TurnCount:           turnCount,
		OverallScore:        feedback.OverallScore,
		Feedback:            feedbackJSON,
		ConversationMetrics: convJSON,
		VoiceMetrics:        voiceJSON,
	}

	store := d.deps.Store
	log := d.log
	go func() {
		persistCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.SaveSession(persistCtx, record); err != nil {
			log.Warn("orchestrator: session persist failed", "error", err.Error())
		}
	}()
}
