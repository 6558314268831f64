package metrics

import (
	"testing"

	"github.com/ent0n29/salestrain-gateway/internal/session"
	"github.com/stretchr/testify/require"
)

func confidencePtr(v float64) *float64 { return &v }

func TestAvgPauseZeroWithSingleSegment(t *testing.T) {
	v := ComputeVoiceMetrics(
		[]session.SpeakingSegment{{StartMs: 0, EndMs: 1000, Samples: 16000, SampleRate: 16000}},
		nil, 1000, 0, 0, DefaultScoringConfig(),
	)
	require.Zero(t, v.AvgPauseMs)
}

func TestSpeakingDurationFallsBackToWallClockWithoutSamples(t *testing.T) {
	v := ComputeVoiceMetrics(
		[]session.SpeakingSegment{{StartMs: 0, EndMs: 2500}},
		nil, 2500, 0, 0, DefaultScoringConfig(),
	)
	require.Equal(t, int64(2500), v.SpeakingDurationMs)
}

func TestS6HesitationCountAndConfidence(t *testing.T) {
	events := []session.STTEvent{
		{Text: "um how much does it cost like seriously", MonotonicMs: 5000, Confidence: confidencePtr(0.9)},
	}
	v := ComputeVoiceMetrics(
		[]session.SpeakingSegment{{StartMs: 0, EndMs: 5000, Samples: 80000, SampleRate: 16000}},
		events, 60000, 0, 7, DefaultScoringConfig(),
	)
	require.Equal(t, 1, v.HesitationCount)
	require.NotNil(t, v.AvgSTTConfidence)
	require.Equal(t, 0.9, *v.AvgSTTConfidence)
	require.NotEmpty(t, v.PaceLabel)
}

func TestAvgSTTConfidenceNilWhenNoPositiveConfidences(t *testing.T) {
	v := ComputeVoiceMetrics(nil, []session.STTEvent{{Text: "hi"}}, 1000, 0, 1, DefaultScoringConfig())
	require.Nil(t, v.AvgSTTConfidence)
}

func TestPaceLabelBoundaries(t *testing.T) {
	cases := []struct {
		wpm   int
		label string
	}{
		{0, "normal"},
		{80, "very_slow"},
		{110, "slow"},
		{150, "ideal"},
		{170, "fast"},
		{220, "very_fast"},
	}
	for _, c := range cases {
		require.Equal(t, c.label, paceLabel(c.wpm), "wpm=%d", c.wpm)
	}
}

func TestCompositeScoresClampedToRange(t *testing.T) {
	events := []session.STTEvent{
		{Text: "um uh umm hmm er erm ah ahh uh um", Confidence: confidencePtr(0.1)},
	}
	v := ComputeVoiceMetrics(
		[]session.SpeakingSegment{{StartMs: 0, EndMs: 100, Samples: 100, SampleRate: 16000}},
		events, 100, 10, 3, DefaultScoringConfig(),
	)
	require.GreaterOrEqual(t, v.ConfidenceScore, 0.0)
	require.LessOrEqual(t, v.ConfidenceScore, 10.0)
	require.GreaterOrEqual(t, v.VocalClarityScore, 0.0)
	require.LessOrEqual(t, v.VocalClarityScore, 10.0)
	require.GreaterOrEqual(t, v.EnergyScore, 0.0)
	require.LessOrEqual(t, v.EnergyScore, 10.0)
}
