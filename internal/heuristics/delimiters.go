package heuristics

import (
	"fmt"
	"regexp"

	"github.com/forensicate/forensicate/internal/rules"
)

const (
	delimiterMinKinds  = 3
	delimiterPerKindPt = 15
	delimiterMaxConf   = 70
)

// delimiterProbes is the fixed set of nine delimiter-kind probes from
// §4.4's "Nested Delimiter Survey". Each is a single regex test; a kind
// counts once no matter how many times it recurs in the text.
var delimiterProbes = []struct {
	name string
	re   *regexp.Regexp
}{
	{"square-brackets", regexp.MustCompile(`\[[^\[\]]*\]`)},
	{"curly-braces", regexp.MustCompile(`\{[^{}]*\}`)},
	{"angle-brackets", regexp.MustCompile(`<[^<>]*>`)},
	{"triple-backticks", regexp.MustCompile("```")},
	{"triple-double-quotes", regexp.MustCompile(`"""`)},
	// Go's RE2-backed regexp has no backreferences, so this probes for
	// "some opening tag, then some closing tag" rather than requiring the
	// closing tag name to match the opening one — adequate for a survey
	// signal, not an XML validator.
	{"xml-style-tag", regexp.MustCompile(`<[a-zA-Z][\w-]*[^>]*>[\s\S]*?</[a-zA-Z][\w-]*>`)},
	{"hash-headed-section", regexp.MustCompile(`(?m)^#{1,6}\s+\S`)},
	{"piped-spans", regexp.MustCompile(`\|[^|]+\|`)},
	{"parenthetical-blocks", regexp.MustCompile(`\([^()]*\)`)},
}

// NestedDelimiterSurvey implements §4.4's delimiter-kind count heuristic:
// probe for nine delimiter kinds, and signal when at least three distinct
// kinds are present (duplicates of the same kind never count twice).
func NestedDelimiterSurvey(text string) *rules.HeuristicOutcome {
	var present []string
	for _, p := range delimiterProbes {
		if p.re.MatchString(text) {
			present = append(present, p.name)
		}
	}
	if len(present) < delimiterMinKinds {
		return nil
	}
	confidence := float64(len(present) * delimiterPerKindPt)
	if confidence > delimiterMaxConf {
		confidence = delimiterMaxConf
	}
	return &rules.HeuristicOutcome{
		Matched:    true,
		Details:    fmt.Sprintf("%d distinct delimiter kinds present: %v", len(present), present),
		Confidence: confidence,
	}
}
