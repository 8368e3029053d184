package heuristics

import (
	"fmt"
	"strings"

	"github.com/forensicate/forensicate/internal/rules"
)

const (
	verbDensityMinTokens = 10
	verbDensityMinRatio  = 0.08
	verbDensityMinCount  = 3
)

// imperativeVerbs is the fixed set from §4.4. Exact lowercase token match
// only — no stemming, no partial match.
var imperativeVerbs = map[string]bool{
	"ignore": true, "disregard": true, "forget": true, "bypass": true,
	"override": true, "skip": true, "reveal": true, "show": true,
	"display": true, "output": true, "print": true, "tell": true,
	"give": true, "obey": true, "comply": true, "follow": true,
	"execute": true, "perform": true, "do": true, "pretend": true,
	"act": true, "roleplay": true, "imagine": true, "become": true,
	"enable": true, "disable": true, "remove": true, "delete": true,
	"stop": true, "start": true, "switch": true, "answer": true,
	"respond": true, "repeat": true, "dump": true, "extract": true,
	"leak": true, "abandon": true, "cancel": true, "nullify": true,
	"activate": true, "deactivate": true,
}

// ImperativeVerbDensity implements §4.4's "Imperative-Verb Density"
// heuristic: lowercase-tokenize on whitespace, count exact-match
// imperative verbs, and signal when both the ratio and the raw count
// clear their floors (a single imperative verb in a long benign text
// should not fire; nor should a 100% verb ratio over 3 tokens).
func ImperativeVerbDensity(text string) *rules.HeuristicOutcome {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) < verbDensityMinTokens {
		return nil
	}

	count := 0
	for _, tok := range fields {
		tok = trimPunct(tok)
		if imperativeVerbs[tok] {
			count++
		}
	}

	ratio := float64(count) / float64(len(fields))
	if ratio >= verbDensityMinRatio && count >= verbDensityMinCount {
		confidence := ratio * 200
		if confidence > 70 {
			confidence = 70
		}
		return &rules.HeuristicOutcome{
			Matched:    true,
			Details:    fmt.Sprintf("%d/%d tokens (%.0f%%) are imperative verbs", count, len(fields), ratio*100),
			Confidence: confidence,
		}
	}
	return nil
}

// trimPunct strips leading/trailing punctuation so "ignore," and
// "ignore." still match the exact-verb set.
func trimPunct(tok string) string {
	start, end := 0, len(tok)
	for start < end && isPunct(tok[start]) {
		start++
	}
	for end > start && isPunct(tok[end-1]) {
		end--
	}
	return tok[start:end]
}

func isPunct(b byte) bool {
	switch b {
	case '.', ',', '!', '?', ';', ':', '"', '\'', '(', ')', '[', ']', '{', '}':
		return true
	default:
		return false
	}
}
