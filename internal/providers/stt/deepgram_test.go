package stt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDeepgramFramePartial(t *testing.T) {
	raw := []byte(`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"hi ther"}]}}`)
	ev, ok, err := parseDeepgramFrame(raw)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, EventPartial, ev.Kind)
	require.Equal(t, "hi ther", ev.Text)
}

func TestParseDeepgramFrameFinalWithConfidence(t *testing.T) {
	raw := []byte(`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"hi there","words":[{"confidence":0.8},{"confidence":1.0}]}]}}`)
	ev, ok, err := parseDeepgramFrame(raw)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, EventFinal, ev.Kind)
	require.NotNil(t, ev.Confidence)
	require.InDelta(t, 0.9, *ev.Confidence, 0.0001)
}

func TestParseDeepgramFrameUtteranceEnd(t *testing.T) {
	ev, ok, err := parseDeepgramFrame([]byte(`{"type":"UtteranceEnd"}`))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, EventUtteranceEnd, ev.Kind)
}

func TestParseDeepgramFrameEmptyTranscriptIsSkipped(t *testing.T) {
	_, ok, err := parseDeepgramFrame([]byte(`{"type":"Results","channel":{"alternatives":[{"transcript":""}]}}`))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestParseDeepgramFrameUnknownTypeIsSkipped(t *testing.T) {
	_, ok, err := parseDeepgramFrame([]byte(`{"type":"Metadata"}`))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestParseDeepgramFrameErrorCarriesRetryCode(t *testing.T) {
	raw := []byte(`{"type":"Error","err_code":"RATE_LIMITED","description":"too many requests"}`)
	ev, ok, err := parseDeepgramFrame(raw)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, EventError, ev.Kind)
	require.Error(t, ev.Err)
	require.Contains(t, ev.Err.Error(), "too many requests")
	require.Equal(t, "RATE_LIMITED", ev.retryCode)
}

func TestParseDeepgramFrameMalformedJSONNeverPanics(t *testing.T) {
	require.NotPanics(t, func() {
		_, _, err := parseDeepgramFrame([]byte(`{not json`))
		require.Error(t, err)
	})
}
