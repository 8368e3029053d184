package heuristics

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/forensicate/forensicate/internal/rules"
)

const scriptSwitchMinTextLen = 20

// scriptRanges maps the seven scripts called out in §4.4 to the
// unicode.RangeTable used to classify each rune. unicode.Arabic /
// unicode.Hebrew / unicode.Devanagari / unicode.Cyrillic / unicode.Greek
// / unicode.Han (CJK proxy) / unicode.Latin are all in the standard
// library's unicode package.
var scriptRanges = map[string]*unicode.RangeTable{
	"Latin":      unicode.Latin,
	"Cyrillic":   unicode.Cyrillic,
	"Greek":      unicode.Greek,
	"Arabic":     unicode.Arabic,
	"CJK":        unicode.Han,
	"Devanagari": unicode.Devanagari,
	"Hebrew":     unicode.Hebrew,
}

// scriptsIn returns the set of scripts any rune of word belongs to.
func scriptsIn(word string) map[string]bool {
	found := make(map[string]bool)
	for _, r := range word {
		for name, table := range scriptRanges {
			if unicode.Is(table, r) {
				found[name] = true
			}
		}
	}
	return found
}

// UnicodeScriptSwitch implements §4.4's "Unicode-Script Switching"
// heuristic. Two independent triggers, (a) preferred over (b) when both
// hold:
//
//	(a) homoglyph signal: >=2 words individually contain characters from
//	    >=2 scripts.
//	(b) confusable combo: >=3 distinct scripts overall, AND Latin is
//	    present together with either Cyrillic or Greek.
func UnicodeScriptSwitch(text string) *rules.HeuristicOutcome {
	if len([]rune(text)) < scriptSwitchMinTextLen {
		return nil
	}

	words := strings.Fields(text)
	mixedWordCount := 0
	overallScripts := make(map[string]bool)

	for _, w := range words {
		scripts := scriptsIn(w)
		for s := range scripts {
			overallScripts[s] = true
		}
		if len(scripts) >= 2 {
			mixedWordCount++
		}
	}

	if mixedWordCount >= 2 {
		confidence := float64(mixedWordCount * 20)
		if confidence > 70 {
			confidence = 70
		}
		return &rules.HeuristicOutcome{
			Matched:    true,
			Details:    fmt.Sprintf("%d words mix characters from 2+ scripts", mixedWordCount),
			Confidence: confidence,
		}
	}

	if len(overallScripts) >= 3 && overallScripts["Latin"] && (overallScripts["Cyrillic"] || overallScripts["Greek"]) {
		return &rules.HeuristicOutcome{
			Matched:    true,
			Details:    fmt.Sprintf("%d distinct scripts present including a Latin/confusable combination", len(overallScripts)),
			Confidence: 50,
		}
	}

	return nil
}
