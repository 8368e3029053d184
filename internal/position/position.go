// Package position converts primitive character-offset spans into
// enhanced positions carrying the original-case text slice and a
// 1-based (line, column) pair.
//
// All offsets are character offsets (rune counts), never byte offsets,
// per the detection engine's position-units design note: mixing the two
// is the likeliest source of off-by-one bugs, so this package does the
// one normalization (converting the input to a []rune) at its single
// entry point and never touches a raw byte index again.
package position

// Primitive is a half-open character-offset span into the original text.
type Primitive struct {
	Start int
	End   int
}

// Enhanced adds the original-case text slice and 1-based line/column.
type Enhanced struct {
	Start  int
	End    int
	Text   string
	Line   int
	Column int
}

// Mapper precomputes the rune slice and newline index of a text once so
// that mapping many positions against the same text is O(log n) per
// position (a binary search over the newline index) after an O(n) prefix
// scan, rather than O(n) per call.
type Mapper struct {
	runes    []rune
	newlines []int // rune indices of every '\n' in runes, ascending
}

// NewMapper prepares a Mapper over text.
func NewMapper(text string) *Mapper {
	runes := []rune(text)
	var newlines []int
	for i, r := range runes {
		if r == '\n' {
			newlines = append(newlines, i)
		}
	}
	return &Mapper{runes: runes, newlines: newlines}
}

// Len returns the character length of the mapped text.
func (m *Mapper) Len() int { return len(m.runes) }

// Enhance converts a primitive span into its enhanced form. start/end are
// character offsets; the caller guarantees 0 <= start < end <= Len().
func (m *Mapper) Enhance(p Primitive) Enhanced {
	text := string(m.runes[p.Start:p.End])
	line, col := m.lineColumn(p.Start)
	return Enhanced{Start: p.Start, End: p.End, Text: text, Line: line, Column: col}
}

// EnhanceAll maps a whole slice of primitive positions, preserving order.
func (m *Mapper) EnhanceAll(ps []Primitive) []Enhanced {
	out := make([]Enhanced, len(ps))
	for i, p := range ps {
		out[i] = m.Enhance(p)
	}
	return out
}

// ByteToRuneOffsets returns, for every byte offset b in [0, len(text)]
// that begins a rune (plus the end-of-string sentinel), the
// corresponding rune (character) index. Go's regexp package reports
// match spans as byte offsets; since every offset it returns sits on a
// rune boundary, indexing into this table converts it to the character
// offset the rest of this package works in. Built once per scanned text
// and shared across every regex-kind rule in that scan, not recomputed
// per rule.
func ByteToRuneOffsets(text string) []int {
	offsets := make([]int, len(text)+1)
	runeIdx := 0
	for byteIdx := range text {
		offsets[byteIdx] = runeIdx
		runeIdx++
	}
	offsets[len(text)] = runeIdx
	return offsets
}

// lineColumn returns the 1-based line and column of character offset
// start, per the spec: line = count('\n') in text[:start] + 1; column =
// start - last_newline_index, where a missing prior newline counts as -1.
func (m *Mapper) lineColumn(start int) (line, column int) {
	// binary search for the number of newlines strictly before start
	lo, hi := 0, len(m.newlines)
	for lo < hi {
		mid := (lo + hi) / 2
		if m.newlines[mid] < start {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	count := lo // number of newline indices < start
	lastNewline := -1
	if count > 0 {
		lastNewline = m.newlines[count-1]
	}
	return count + 1, start - lastNewline
}
