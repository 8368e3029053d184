package scanner

import (
	"fmt"
	"sort"
	"strings"
)

const (
	reasonMaxQuotedMatches = 3
	reasonMaxMatchChars    = 40
)

// renderReasons implements §4.5 step 8's three cases.
func renderReasons(matches []RuleMatch, confidence, threshold int, isPositive bool) []string {
	if len(matches) == 0 {
		return []string{"No injection patterns detected"}
	}

	if !isPositive {
		return []string{fmt.Sprintf("%d rule(s) matched but confidence %d%% is below threshold %d%%",
			len(matches), confidence, threshold)}
	}

	sorted := make([]RuleMatch, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Rank() < sorted[j].Severity.Rank()
	})

	reasons := make([]string, 0, len(sorted))
	for _, m := range sorted {
		reasons = append(reasons, fmt.Sprintf("[%s %s] %s: %s",
			m.Severity.Icon(), strings.ToUpper(string(m.Severity)), m.RuleName, matchDetail(m)))
	}
	return reasons
}

// matchDetail renders a match's detail segment: the heuristic's own
// details string, or up to 3 quoted/truncated literal hits with a
// "+N more" suffix when there are more.
func matchDetail(m RuleMatch) string {
	if m.Details != "" {
		return m.Details
	}
	if len(m.Matches) == 0 {
		return ""
	}

	shown := m.Matches
	more := 0
	if len(shown) > reasonMaxQuotedMatches {
		more = len(shown) - reasonMaxQuotedMatches
		shown = shown[:reasonMaxQuotedMatches]
	}

	quoted := make([]string, len(shown))
	for i, s := range shown {
		quoted[i] = fmt.Sprintf("%q", truncate(s, reasonMaxMatchChars))
	}

	detail := strings.Join(quoted, ", ")
	if more > 0 {
		detail += fmt.Sprintf(" +%d more", more)
	}
	return detail
}

func truncate(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	return string(r[:maxChars])
}
