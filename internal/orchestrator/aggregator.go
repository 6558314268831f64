package orchestrator

// aggregator implements the Utterance Aggregator (spec.md §4.6):
// accumulatedTranscript concatenates STT finals with a single-space
// separator until the next flush (utterance_end, the fallback silence
// timer, or user.audio.end).
type aggregator struct {
	accumulated string
}

func (a *aggregator) addFinal(text string) {
	if text == "" {
		return
	}
	if a.accumulated == "" {
		a.accumulated = text
		return
	}
	a.accumulated = a.accumulated + " " + text
}

// flush returns the accumulated text and clears it. Empty aggregates are
// dropped by the caller (spec.md §4.6).
func (a *aggregator) flush() string {
	text := a.accumulated
	a.accumulated = ""
	return text
}
