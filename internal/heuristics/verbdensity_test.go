package heuristics

import "testing"

func TestImperativeVerbDensity_TooFewTokens(t *testing.T) {
	if out := ImperativeVerbDensity("ignore ignore ignore"); out != nil {
		t.Errorf("expected nil for <10 tokens, got %+v", out)
	}
}

func TestImperativeVerbDensity_BelowRatio(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog and then goes home"
	if out := ImperativeVerbDensity(text); out != nil {
		t.Errorf("expected nil for ordinary sentence, got %+v", out)
	}
}

func TestImperativeVerbDensity_MatchesHighDensity(t *testing.T) {
	text := "ignore disregard forget bypass override skip reveal show display output print"
	out := ImperativeVerbDensity(text)
	if out == nil {
		t.Fatal("expected a match for an all-imperative-verb sentence")
	}
	if out.Confidence <= 0 || out.Confidence > 70 {
		t.Errorf("Confidence = %v, want in (0,70]", out.Confidence)
	}
}

func TestImperativeVerbDensity_StripsPunctuation(t *testing.T) {
	text := "ignore, disregard! forget. bypass? override; skip: reveal give tell comply"
	out := ImperativeVerbDensity(text)
	if out == nil {
		t.Fatal("expected punctuation-adjacent verbs to still count")
	}
}
