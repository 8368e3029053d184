package heuristics

import (
	"fmt"
	"strings"

	"github.com/forensicate/forensicate/internal/rules"
)

// The NLP extension hooks described in §4.4 ("sentiment, part-of-speech
// imperative detection, entity impersonation, and sentence-structure
// anomaly") follow the identical text -> *rules.HeuristicOutcome
// contract and register through the same Registry() rehydration map, but
// are not part of the four built-in heuristics wired into the default
// catalog. They exist so a future catalog entry can
// reference them by HeuristicID without the engine needing a second
// registration mechanism.

// afinnLite is a small, hand-picked negative/positive lexicon — not the
// full AFINN-165 word list, just enough to demonstrate the sentiment
// hook's contract without vendoring a third-party corpus.
var afinnLite = map[string]int{
	"hate": -3, "kill": -3, "destroy": -3, "attack": -3, "threat": -3,
	"stupid": -2, "worthless": -2, "evil": -2, "broken": -2,
	"good": 2, "great": 3, "excellent": 3, "helpful": 2, "thanks": 2,
}

// SentimentExtreme flags text whose aggregate AFINN-lite sentiment score
// is strongly negative relative to its length — a weak standalone signal,
// intended to be combined with other rules rather than used alone.
func SentimentExtreme(text string) *rules.HeuristicOutcome {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) < 10 {
		return nil
	}
	score := 0
	for _, tok := range fields {
		score += afinnLite[trimPunct(tok)]
	}
	ratio := float64(score) / float64(len(fields))
	if ratio <= -0.3 {
		return &rules.HeuristicOutcome{
			Matched:    true,
			Details:    fmt.Sprintf("aggregate sentiment score %d over %d tokens", score, len(fields)),
			Confidence: 40,
		}
	}
	return nil
}

// entityImpersonationPhrases are fixed phrases claiming to speak as, or
// on behalf of, a named authority — a lightweight entity-impersonation
// proxy that does not require a real NER model.
var entityImpersonationPhrases = []string{
	"as openai", "as anthropic", "on behalf of the system vendor",
	"speaking as your creator", "as the model provider",
}

// EntityImpersonation flags fixed-phrase claims of speaking as a vendor
// or system authority.
func EntityImpersonation(text string) *rules.HeuristicOutcome {
	lower := strings.ToLower(text)
	var hits []string
	for _, phrase := range entityImpersonationPhrases {
		if strings.Contains(lower, phrase) {
			hits = append(hits, phrase)
		}
	}
	if len(hits) == 0 {
		return nil
	}
	return &rules.HeuristicOutcome{
		Matched:    true,
		Details:    fmt.Sprintf("impersonation phrase(s) found: %v", hits),
		Confidence: 55,
	}
}

// SentenceStructureAnomaly flags an unusually long run of short,
// imperative-looking sentences (many short, command-shaped clauses in a
// row) rather than analyzing full grammatical structure.
func SentenceStructureAnomaly(text string) *rules.HeuristicOutcome {
	sentences := splitSentences(text)
	if len(sentences) < 5 {
		return nil
	}
	short := 0
	for _, s := range sentences {
		words := strings.Fields(s)
		if len(words) > 0 && len(words) <= 4 {
			short++
		}
	}
	ratio := float64(short) / float64(len(sentences))
	if ratio >= 0.6 {
		return &rules.HeuristicOutcome{
			Matched:    true,
			Details:    fmt.Sprintf("%d/%d sentences are short imperative-shaped clauses", short, len(sentences)),
			Confidence: 35,
		}
	}
	return nil
}

func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			seg := strings.TrimSpace(text[start:i])
			if seg != "" {
				sentences = append(sentences, seg)
			}
			start = i + 1
		}
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}
