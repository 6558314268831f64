// Package metrics implements the Metrics engine (spec.md §4.11, §4.12) as
// pure functions over a call's transcript and timing — no I/O, so they are
// trivially deterministic and property-testable (spec.md §9 "Metrics as
// pure functions").
package metrics

import (
	"math"
	"regexp"
	"strings"

	"github.com/ent0n29/salestrain-gateway/internal/session"
)

// fillerWords is the fixed dictionary from spec.md §4.11. Multi-word
// entries are matched as phrases; single words are matched on word
// boundaries so "like" never matches inside "likely".
var fillerWords = []string{
	"um", "uh", "uhh", "umm", "hmm", "hm", "like", "you know", "i mean",
	"basically", "actually", "literally", "sort of", "kind of", "right",
	"okay so", "so yeah",
}

var questionStarters = map[string]bool{
	"who": true, "what": true, "when": true, "where": true, "why": true,
	"how": true, "is": true, "are": true, "do": true, "does": true,
	"did": true, "can": true, "could": true, "would": true, "will": true,
	"shall": true, "should": true, "have": true, "has": true, "had": true,
	"may": true, "might": true,
}

// Topic dictionaries: spec.md §4.11 names the five topics but leaves the
// exact keyword lists unspecified; these are a representative sales-call
// vocabulary for each.
var topicPatterns = map[string]*regexp.Regexp{
	"objection":  regexp.MustCompile(`(?i)\b(not sure|too expensive|don't think|can't justify|hesitant|skeptical|concerned about|not convinced)\b`),
	"pricing":    regexp.MustCompile(`(?i)\b(price|pricing|cost|budget|discount|expensive|afford|fee|quote)\b`),
	"competitor": regexp.MustCompile(`(?i)\b(competitor|alternative|other vendor|another company|versus|compared to)\b`),
	"closing":    regexp.MustCompile(`(?i)\b(sign up|move forward|next steps|get started|close the deal|contract|agreement)\b`),
	"rapport":    regexp.MustCompile(`(?i)\b(thank you|thanks|appreciate|great to|nice to meet|glad to)\b`),
}

// Conversation is the computed result of ComputeConversationMetrics.
type Conversation struct {
	TalkRatio                float64 `json:"talk_ratio"`
	UserWordsPerMinute       int     `json:"user_words_per_minute"`
	UserQuestionsAsked       int     `json:"user_questions_asked"`
	FillerWordCount          int     `json:"filler_word_count"`
	FillerWordRate           float64 `json:"filler_word_rate"`
	AvgTurnLength            float64 `json:"avg_turn_length"`
	LongestMonologue         int     `json:"longest_monologue"`
	CustomerRaisedObjection  bool    `json:"customer_raised_objection"`
	CustomerRaisedPricing    bool    `json:"customer_raised_pricing"`
	CustomerRaisedCompetitor bool    `json:"customer_raised_competitor"`
	CustomerRaisedClosing    bool    `json:"customer_raised_closing"`
	CustomerRaisedRapport    bool    `json:"customer_raised_rapport"`
	AvgResponseLatencyMs     float64 `json:"avg_response_latency_ms"`
	EngagementScore          float64 `json:"engagement_score"`
}

// ComputeConversationMetrics implements spec.md §4.11. It ignores the
// system turn (index 0) and is a pure function of its inputs.
func ComputeConversationMetrics(conversation []session.Turn, turnTimestamps []session.TurnTimestamp, interruptionCount int, callDurationMs int64) Conversation {
	userTurns, assistantTurns := splitTurns(conversation)

	userWords := countWords(joinContents(userTurns))
	agentWords := countWords(joinContents(assistantTurns))

	m := Conversation{}
	m.TalkRatio = talkRatio(userWords, agentWords)
	m.UserWordsPerMinute = wordsPerMinute(userWords, callDurationMs)
	m.UserQuestionsAsked = countQuestions(userTurns)
	m.FillerWordCount = countFillerWords(joinContents(userTurns))
	m.FillerWordRate = rate1dp(m.FillerWordCount, userWords)
	m.AvgTurnLength, m.LongestMonologue = turnLengthStats(userTurns)

	combined := joinContents(userTurns) + " " + joinContents(assistantTurns)
	rapportMatches := len(topicPatterns["rapport"].FindAllString(combined, -1))
	m.CustomerRaisedObjection = topicPatterns["objection"].MatchString(combined)
	m.CustomerRaisedPricing = topicPatterns["pricing"].MatchString(combined)
	m.CustomerRaisedCompetitor = topicPatterns["competitor"].MatchString(combined)
	m.CustomerRaisedClosing = topicPatterns["closing"].MatchString(combined)
	m.CustomerRaisedRapport = rapportMatches > 0

	m.AvgResponseLatencyMs = avgResponseLatency(turnTimestamps)

	questionRate := 0.0
	if len(userTurns) > 0 {
		questionRate = float64(m.UserQuestionsAsked) / float64(len(userTurns))
	}
	m.EngagementScore = engagementScore(m, interruptionCount, questionRate, rapportMatches)

	return m
}

func splitTurns(conversation []session.Turn) (user, assistant []session.Turn) {
	for _, t := range conversation {
		switch t.Role {
		case session.RoleUser:
			user = append(user, t)
		case session.RoleAssistant:
			assistant = append(assistant, t)
		}
	}
	return user, assistant
}

func joinContents(turns []session.Turn) string {
	parts := make([]string, len(turns))
	for i, t := range turns {
		parts[i] = t.Content
	}
	return strings.Join(parts, " ")
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

func talkRatio(userWords, agentWords int) float64 {
	total := userWords + agentWords
	if total == 0 {
		return 0
	}
	return round(float64(userWords)/float64(total), 3)
}

func wordsPerMinute(words int, callDurationMs int64) int {
	if callDurationMs <= 0 {
		return 0
	}
	minutes := float64(callDurationMs) / 60000.0
	if minutes <= 0 {
		return 0
	}
	return int(math.Round(float64(words) / minutes))
}

func countQuestions(userTurns []session.Turn) int {
	count := 0
	for _, t := range userTurns {
		if strings.Contains(t.Content, "?") {
			count++
			continue
		}
		fields := strings.Fields(t.Content)
		if len(fields) == 0 {
			continue
		}
		first := strings.ToLower(strings.Trim(fields[0], ".,!;:\"'"))
		if questionStarters[first] {
			count++
		}
	}
	return count
}

func countFillerWords(text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, phrase := range fillerWords {
		if strings.Contains(phrase, " ") {
			count += strings.Count(lower, phrase)
			continue
		}
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(phrase) + `\b`)
		count += len(re.FindAllString(lower, -1))
	}
	return count
}

func turnLengthStats(userTurns []session.Turn) (avg float64, longest int) {
	if len(userTurns) == 0 {
		return 0, 0
	}
	total := 0
	for _, t := range userTurns {
		n := countWords(t.Content)
		total += n
		if n > longest {
			longest = n
		}
	}
	avg = round(float64(total)/float64(len(userTurns)), 1)
	return avg, longest
}

func avgResponseLatency(timestamps []session.TurnTimestamp) float64 {
	var sum float64
	var count int
	for i := 1; i < len(timestamps); i++ {
		prev, cur := timestamps[i-1], timestamps[i]
		if prev.Role != session.RoleUser || cur.Role != session.RoleAssistant {
			continue
		}
		diff := float64(cur.MonotonicMs - prev.MonotonicMs)
		if diff > 0 && diff < 120000 {
			sum += diff
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return round(sum/float64(count), 0)
}

func rate1dp(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return round(100*float64(count)/float64(total), 1)
}

// engagementScore applies the deltas of spec.md §4.11 verbatim. rapportHits
// is the raw regex match count (not the CustomerRaisedRapport boolean),
// since the engagement rule thresholds on a count ("rapport>=3").
func engagementScore(m Conversation, interruptionCount int, questionRate float64, rapportHits int) float64 {
	score := 5.0

	switch {
	case m.TalkRatio >= 0.35 && m.TalkRatio <= 0.65:
		score += 1
	case m.TalkRatio < 0.2 || m.TalkRatio > 0.8:
		score -= 1
	}

	switch {
	case questionRate >= 0.25:
		score += 1.5
	case questionRate >= 0.10:
		score += 0.75
	}

	switch {
	case rapportHits >= 3:
		score += 1
	case rapportHits >= 1:
		score += 0.5
	}

	switch {
	case m.FillerWordRate > 5:
		score -= 1
	case m.FillerWordRate > 3:
		score -= 0.5
	}

	if m.CustomerRaisedClosing {
		score += 0.5
	}

	switch {
	case m.AvgTurnLength >= 10 && m.AvgTurnLength <= 50:
		score += 0.5
	case m.AvgTurnLength > 80:
		score -= 0.5
	}

	switch {
	case interruptionCount > 5:
		score -= 1
	case interruptionCount > 2:
		score -= 0.5
	}

	return round(clamp(score, 0, 10), 1)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
