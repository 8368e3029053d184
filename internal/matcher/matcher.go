// Package matcher executes a single Rule against a text and returns its
// raw hits (literal strings + primitive positions, or a heuristic
// detail string). It never computes confidence or severity weighting —
// that is the Scanner Driver's job — and it never mutates the Rule it
// is given.
package matcher

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/forensicate/forensicate/internal/position"
	"github.com/forensicate/forensicate/internal/rules"
)

// Diagnostics receives non-fatal problems discovered while executing
// rules, so a single malformed rule can be logged without aborting the
// scan (§4.3, §7: "a compile error is reported once... and the rule is
// skipped for this scan — it must not abort the whole scan").
type Diagnostics interface {
	CompileError(ruleID, pattern string, err error)
	HeuristicPanic(ruleID string, recovered any)
}

// NoopDiagnostics discards everything. Useful in tests.
type NoopDiagnostics struct{}

func (NoopDiagnostics) CompileError(string, string, error) {}
func (NoopDiagnostics) HeuristicPanic(string, any)          {}

// Result is one rule's raw execution outcome against one text.
type Result struct {
	Matched   bool
	Matches   []string // original-case literal text, index-aligned with Positions
	Positions []position.Primitive
	Details   string // populated for heuristic rules, or left as "" for keyword/regex
}

// Matcher caches compiled regexes across repeated Execute calls against
// the same (immutable) Rule, since a long-lived catalog is reused across
// many scans. Safe for concurrent use.
type Matcher struct {
	diag     Diagnostics
	compiled sync.Map // rule ID -> *compiledEntry
}

type compiledEntry struct {
	re  *regexp.Regexp
	err error
}

// New creates a Matcher reporting compile errors and heuristic panics to
// diag. A nil diag is replaced with NoopDiagnostics.
func New(diag Diagnostics) *Matcher {
	if diag == nil {
		diag = NoopDiagnostics{}
	}
	return &Matcher{diag: diag}
}

// Execute runs r against text, dispatching on r.Kind. byteToRune is the
// shared text-scoped byte->rune offset table from position.ByteToRuneOffsets;
// pass nil for keyword/heuristic-only callers that never need it.
func (m *Matcher) Execute(r *rules.Rule, text string, byteToRune []int) Result {
	switch r.Kind {
	case rules.KindKeyword:
		return m.executeKeyword(r, text)
	case rules.KindRegex, rules.KindEncoding, rules.KindStructural:
		return m.executeRegex(r, text, byteToRune)
	case rules.KindHeuristic:
		return m.executeHeuristic(r, text)
	default:
		return Result{}
	}
}

// executeKeyword implements §4.3's Keyword matcher: for each needle, a
// case-insensitive literal scan from search_index=0; each hit advances
// search_index to i+1 (not i+len(needle)), so overlapping matches of the
// same needle are allowed. The recorded text is the original-case slice
// text[i:i+len(needle)], never the needle itself.
func (m *Matcher) executeKeyword(r *rules.Rule, text string) Result {
	lower := strings.ToLower(text)
	runes := []rune(text)
	lowerRunes := []rune(lower)

	var matches []string
	var positions []position.Primitive

	for _, needle := range r.Keywords {
		needleLower := []rune(strings.ToLower(needle))
		needleLen := len(needleLower)
		if needleLen == 0 {
			continue
		}
		searchIndex := 0
		for searchIndex+needleLen <= len(lowerRunes) {
			i := indexRunes(lowerRunes, needleLower, searchIndex)
			if i < 0 {
				break
			}
			end := i + needleLen
			matches = append(matches, string(runes[i:end]))
			positions = append(positions, position.Primitive{Start: i, End: end})
			searchIndex = i + 1
		}
	}

	return Result{Matched: len(matches) > 0, Matches: matches, Positions: positions}
}

// indexRunes finds the first occurrence of needle within haystack at or
// after start, operating on rune slices so multi-byte text never shifts
// offsets.
func indexRunes(haystack, needle []rune, start int) int {
	for i := start; i+len(needle) <= len(haystack); i++ {
		if runesEqual(haystack[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// executeRegex implements §4.3's Regex/Encoding/Structural matcher:
// compile pattern+flags (default "gi"), execute a global iteration, and
// record each match's full span. A compile error is diagnosed once and
// the rule yields no matches rather than aborting the scan. Go's
// regexp.FindAllStringIndex already refuses to let a zero-length match
// abut a preceding one, which is exactly the livelock guard §4.3 asks
// implementers to provide by hand in engines that lack it.
func (m *Matcher) executeRegex(r *rules.Rule, text string, byteToRune []int) Result {
	re, err := m.compile(r)
	if err != nil {
		m.diag.CompileError(r.ID, r.Pattern, err)
		return Result{}
	}

	byteSpans := re.FindAllStringIndex(text, -1)
	if len(byteSpans) == 0 {
		return Result{}
	}

	var matches []string
	var positions []position.Primitive
	for _, span := range byteSpans {
		startByte, endByte := span[0], span[1]
		start, end := startByte, endByte
		if byteToRune != nil {
			start, end = byteToRune[startByte], byteToRune[endByte]
		}
		matches = append(matches, text[startByte:endByte])
		positions = append(positions, position.Primitive{Start: start, End: end})
	}
	return Result{Matched: true, Matches: matches, Positions: positions}
}

func (m *Matcher) compile(r *rules.Rule) (*regexp.Regexp, error) {
	if v, ok := m.compiled.Load(r.ID); ok {
		e := v.(*compiledEntry)
		return e.re, e.err
	}

	pattern := applyFlags(r.Pattern, r.Flags)
	re, err := regexp.Compile(pattern)
	entry := &compiledEntry{re: re, err: err}
	m.compiled.Store(r.ID, entry)
	return re, err
}

// applyFlags translates the spec's "gi"-style flag string into Go
// regexp inline flag syntax. "g" (global) has no Go equivalent — FindAll
// is always global — so only "i" (case-insensitive), "m" (multiline),
// and "s" (dot-matches-newline) are meaningful here.
func applyFlags(pattern, flags string) string {
	var inline string
	if strings.Contains(flags, "i") {
		inline += "i"
	}
	if strings.Contains(flags, "m") {
		inline += "m"
	}
	if strings.Contains(flags, "s") {
		inline += "s"
	}
	if inline == "" {
		return pattern
	}
	return fmt.Sprintf("(?%s)%s", inline, pattern)
}

// executeHeuristic implements §4.3's Heuristic matcher: invoke the
// function inside a protective boundary. A panic is caught, diagnosed,
// and treated as "no match" — the scan continues.
func (m *Matcher) executeHeuristic(r *rules.Rule, text string) (result Result) {
	if r.Func == nil {
		return Result{}
	}
	defer func() {
		if rec := recover(); rec != nil {
			m.diag.HeuristicPanic(r.ID, rec)
			result = Result{}
		}
	}()

	outcome := r.Func(text)
	if outcome == nil || !outcome.Matched {
		return Result{}
	}
	return Result{Matched: true, Details: outcome.Details}
}
