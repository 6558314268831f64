// Package memory adapts the session sink and history reader external
// interfaces named in spec.md §1: saveSession(record) -> err (best-effort,
// asynchronous) and recentFeedback(userId, N) -> [scores] (consumed by the
// difficulty selector, spec.md §4.9).
package memory

import (
	"context"
	"encoding/json"
	"time"
)

// SessionRecord is a single completed call, persisted by the end-of-call
// pipeline (spec.md §4.10 step 7).
type SessionRecord struct {
	ID                  string          `json:"id"`
	UserID              string          `json:"user_id"`
	Scenario            string          `json:"scenario"`
	Difficulty          string          `json:"difficulty"`
	CallDurationMs      int64           `json:"call_duration_ms"`
	TurnCount           int             `json:"turn_count"`
	OverallScore        float64         `json:"overall_score"`
	Feedback            json.RawMessage `json:"feedback"`
	ConversationMetrics json.RawMessage `json:"conversation_metrics"`
	VoiceMetrics        json.RawMessage `json:"voice_metrics"`
	CreatedAt           time.Time       `json:"created_at"`
}

// Store is the session sink and history reader. SaveSession failures are
// logged by the caller and never surfaced to the client (spec.md §7
// PersistFailure policy); RecentScores backs the difficulty selector.
type Store interface {
	SaveSession(ctx context.Context, record SessionRecord) error
	RecentScores(ctx context.Context, userID string, limit int) ([]float64, error)
	Close() error
}
