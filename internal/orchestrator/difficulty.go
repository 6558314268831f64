package orchestrator

import (
	"context"

	"github.com/ent0n29/salestrain-gateway/internal/session"
)

const recentScoresWindow = 10

// resolveDifficulty implements the Difficulty Selector (spec.md §4.9).
func (d *Dispatcher) resolveDifficulty(ctx context.Context) (session.Difficulty, map[string]float64) {
	if !d.sess.AutoDifficulty {
		return session.DifficultyIntermediate, map[string]float64{}
	}

	userID := d.sess.UserID
	if userID == "" || d.deps.Store == nil {
		return session.DifficultyIntermediate, map[string]float64{}
	}

	scores, err := d.deps.Store.RecentScores(ctx, userID, recentScoresWindow)
	if err != nil {
		d.log.Warn("orchestrator: recent scores lookup failed", "error", err.Error())
		return session.DifficultyIntermediate, map[string]float64{}
	}
	if len(scores) == 0 {
		return session.DifficultyIntermediate, map[string]float64{}
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))

	var level session.Difficulty
	switch {
	case mean < 5.0:
		level = session.DifficultyBeginner
	case mean <= 7.5:
		level = session.DifficultyIntermediate
	default:
		level = session.DifficultyAdvanced
	}
	return level, map[string]float64{"overall_score": round3(mean)}
}

func round3(v float64) float64 {
	const p = 1000.0
	return float64(int64(v*p+0.5)) / p
}
