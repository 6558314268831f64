package metrics

import (
	"regexp"
	"sort"

	"github.com/ent0n29/salestrain-gateway/internal/session"
)

var hesitationPattern = regexp.MustCompile(`(?i)\b(um|uh|uhh|umm|hmm|hm|er|erm|ah|ahh)\b`)

// ScoringConfig holds the heuristic baselines and deltas behind the voice
// composite scores (spec.md §4.12, §9 open question: "the voice
// confidence/clarity/energy composite deltas are heuristic and may be
// tuned ... expose them behind a configuration struct to keep metrics
// stable across revisions"). DefaultScoringConfig reproduces the deltas
// this package ships with; callers needing different tuning construct
// their own ScoringConfig rather than editing the formulas.
type ScoringConfig struct {
	Baseline float64

	IdealPaceBonus      float64
	SlowOrFastPenalty   float64
	ExtremePacePenalty  float64
	HighHesitationRate  float64 // percent threshold
	HighHesitationDrop  float64
	MildHesitationRate  float64
	MildHesitationDrop  float64
	HighConfidenceFloor float64
	HighConfidenceBonus float64
	LowConfidenceFloor  float64
	LowConfidencePenalty float64
	LongPauseMs         float64
	LongPausePenalty    float64
	FrequentInterruptPenalty float64
}

// DefaultScoringConfig is the baseline configuration used when a caller does
// not supply its own.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Baseline:                 5,
		IdealPaceBonus:           1.5,
		SlowOrFastPenalty:        0.5,
		ExtremePacePenalty:       1.0,
		HighHesitationRate:       8.0,
		HighHesitationDrop:       1.5,
		MildHesitationRate:       4.0,
		MildHesitationDrop:       0.5,
		HighConfidenceFloor:      0.85,
		HighConfidenceBonus:      1.5,
		LowConfidenceFloor:       0.6,
		LowConfidencePenalty:     1.0,
		LongPauseMs:              3000,
		LongPausePenalty:         0.5,
		FrequentInterruptPenalty: 0.5,
	}
}

// Voice is the computed result of ComputeVoiceMetrics.
type Voice struct {
	SpeakingDurationMs  int64    `json:"speaking_duration_ms"`
	SilenceDurationMs   int64    `json:"silence_duration_ms"`
	AvgPauseMs          float64  `json:"avg_pause_ms"`
	SpeakingRateWPM     int      `json:"speaking_rate_wpm"`
	PaceLabel           string   `json:"pace_label"`
	HesitationCount     int      `json:"hesitation_count"`
	HesitationRate      float64  `json:"hesitation_rate"`
	AvgSTTConfidence    *float64 `json:"avg_stt_confidence"`
	ConfidenceScore     float64  `json:"confidence_score"`
	VocalClarityScore   float64  `json:"vocal_clarity_score"`
	EnergyScore         float64  `json:"energy_score"`
}

// ComputeVoiceMetrics implements spec.md §4.12. It is a pure function of its
// inputs; cfg controls only the composite-score heuristics. turnTimestamps is
// listed among the section's inputs but no derived field's formula actually
// consumes it, so it is intentionally omitted from this signature.
func ComputeVoiceMetrics(
	segments []session.SpeakingSegment,
	sttEvents []session.STTEvent,
	callDurationMs int64,
	interruptionCount int,
	totalUserWords int,
	cfg ScoringConfig,
) Voice {
	v := Voice{}

	v.SpeakingDurationMs = speakingDuration(segments)
	v.SilenceDurationMs, v.AvgPauseMs = silenceStats(segments)
	v.SpeakingRateWPM = speakingRate(totalUserWords, v.SpeakingDurationMs)
	v.PaceLabel = paceLabel(v.SpeakingRateWPM)

	v.HesitationCount = countHesitations(sttEvents)
	v.HesitationRate = rate1dp(v.HesitationCount, totalUserWords)

	v.AvgSTTConfidence = avgConfidence(sttEvents)

	v.ConfidenceScore = confidenceScore(v, cfg)
	v.VocalClarityScore = vocalClarityScore(v, cfg)
	v.EnergyScore = energyScore(v, interruptionCount, cfg)

	return v
}

func speakingDuration(segments []session.SpeakingSegment) int64 {
	var total int64
	for _, s := range segments {
		if s.Samples > 0 && s.SampleRate > 0 {
			total += int64(round(float64(s.Samples)/float64(s.SampleRate)*1000, 0))
			continue
		}
		if s.EndMs > s.StartMs {
			total += s.EndMs - s.StartMs
		}
	}
	return total
}

func silenceStats(segments []session.SpeakingSegment) (silence int64, avgPause float64) {
	if len(segments) < 2 {
		return 0, 0
	}
	sorted := make([]session.SpeakingSegment, len(segments))
	copy(sorted, segments)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartMs < sorted[j].StartMs })

	for i := 1; i < len(sorted); i++ {
		gap := sorted[i].StartMs - sorted[i-1].EndMs
		if gap > 0 {
			silence += gap
		}
	}
	avgPause = round(float64(silence)/float64(len(sorted)-1), 0)
	return silence, avgPause
}

func speakingRate(words int, speakingDurationMs int64) int {
	if speakingDurationMs <= 0 {
		return 0
	}
	minutes := float64(speakingDurationMs) / 60000.0
	if minutes <= 0 {
		return 0
	}
	return int(round(float64(words)/minutes, 0))
}

func paceLabel(rateWPM int) string {
	switch {
	case rateWPM == 0:
		return "normal"
	case rateWPM < 100:
		return "very_slow"
	case rateWPM < 120:
		return "slow"
	case rateWPM <= 160:
		return "ideal"
	case rateWPM <= 180:
		return "fast"
	default:
		return "very_fast"
	}
}

func countHesitations(events []session.STTEvent) int {
	count := 0
	for _, e := range events {
		count += len(hesitationPattern.FindAllString(e.Text, -1))
	}
	return count
}

func avgConfidence(events []session.STTEvent) *float64 {
	var sum float64
	var count int
	for _, e := range events {
		if e.Confidence != nil && *e.Confidence > 0 {
			sum += *e.Confidence
			count++
		}
	}
	if count == 0 {
		return nil
	}
	avg := round(sum/float64(count), 3)
	return &avg
}

func confidenceScore(v Voice, cfg ScoringConfig) float64 {
	score := cfg.Baseline
	if v.AvgSTTConfidence != nil {
		switch {
		case *v.AvgSTTConfidence >= cfg.HighConfidenceFloor:
			score += cfg.HighConfidenceBonus
		case *v.AvgSTTConfidence < cfg.LowConfidenceFloor:
			score -= cfg.LowConfidencePenalty
		}
	}
	switch {
	case v.HesitationRate > cfg.HighHesitationRate:
		score -= cfg.HighHesitationDrop
	case v.HesitationRate > cfg.MildHesitationRate:
		score -= cfg.MildHesitationDrop
	}
	return round(clamp(score, 0, 10), 1)
}

func vocalClarityScore(v Voice, cfg ScoringConfig) float64 {
	score := cfg.Baseline
	switch v.PaceLabel {
	case "ideal":
		score += cfg.IdealPaceBonus
	case "slow", "fast":
		score -= cfg.SlowOrFastPenalty
	case "very_slow", "very_fast":
		score -= cfg.ExtremePacePenalty
	}
	switch {
	case v.HesitationRate > cfg.HighHesitationRate:
		score -= cfg.HighHesitationDrop
	case v.HesitationRate > cfg.MildHesitationRate:
		score -= cfg.MildHesitationDrop
	}
	return round(clamp(score, 0, 10), 1)
}

func energyScore(v Voice, interruptionCount int, cfg ScoringConfig) float64 {
	score := cfg.Baseline
	switch v.PaceLabel {
	case "ideal", "fast":
		score += cfg.IdealPaceBonus / 2
	case "very_slow":
		score -= cfg.ExtremePacePenalty
	}
	if v.AvgPauseMs > cfg.LongPauseMs {
		score -= cfg.LongPausePenalty
	}
	if interruptionCount > 2 {
		score -= cfg.FrequentInterruptPenalty
	}
	return round(clamp(score, 0, 10), 1)
}
