// Package heuristics implements the built-in pure-function heuristic
// probes: Shannon entropy, imperative-verb density, nested-delimiter
// survey, and Unicode-script switching. Each follows the
// text -> *rules.HeuristicOutcome contract and is registered by id
// through Registry() so the rule catalog can rehydrate a HeuristicFunc
// after a rule crosses a serialization boundary.
package heuristics

import (
	"fmt"
	"math"

	"github.com/forensicate/forensicate/internal/rules"
)

const (
	entropyMinTextLen = 32
	entropyWindowSize = 64
	entropyWindowStep = 32
	entropyThreshold   = 4.5
	entropyMinHighWins = 2
	entropyMinRatio    = 0.3
)

// ShannonEntropy computes H = -sum(p_i * log2(p_i)) over the per-rune
// frequency distribution of s. Grounded directly on the sliding-window
// entropy probe used for secret/obfuscation detection: frequency counted
// by rune, normalized by rune count (not byte count), so multi-byte UTF-8
// text is never over-weighted.
func ShannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}
	if total == 0 {
		return 0
	}
	var entropy float64
	for _, c := range counts {
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// ShannonEntropyWindows is the §4.4 "Shannon Entropy (encoding probe)"
// heuristic: slide a 64-character window with step 32 across text,
// counting windows whose entropy exceeds entropyThreshold. Emits a match
// when at least 2 high-entropy windows are found AND they make up at
// least 30% of all windows surveyed.
func ShannonEntropyWindows(text string) *rules.HeuristicOutcome {
	runes := []rune(text)
	if len(runes) < entropyMinTextLen {
		return nil
	}

	total := 0
	high := 0
	for start := 0; start < len(runes); start += entropyWindowStep {
		end := start + entropyWindowSize
		if end > len(runes) {
			end = len(runes)
		}
		window := string(runes[start:end])
		total++
		if ShannonEntropy(window) > entropyThreshold {
			high++
		}
		if end == len(runes) {
			break
		}
	}

	if total == 0 {
		return nil
	}
	ratio := float64(high) / float64(total)
	if high >= entropyMinHighWins && ratio >= entropyMinRatio {
		confidence := ratio * 100
		if confidence > 80 {
			confidence = 80
		}
		return &rules.HeuristicOutcome{
			Matched: true,
			Details: fmt.Sprintf("%d/%d windows (%.0f%%) exceeded entropy %.1f", high, total, ratio*100, entropyThreshold),
			Confidence: confidence,
		}
	}
	return nil
}
