package heuristics

import "testing"

func TestNestedDelimiterSurvey_BelowThreshold(t *testing.T) {
	text := "Just [one] kind of (bracket) here."
	if out := NestedDelimiterSurvey(text); out != nil {
		t.Errorf("expected nil with only 2 kinds, got %+v", out)
	}
}

func TestNestedDelimiterSurvey_MatchesThreeKinds(t *testing.T) {
	text := "[system] says ```do this``` and also {obeys} the rule."
	out := NestedDelimiterSurvey(text)
	if out == nil {
		t.Fatal("expected a match with 3+ delimiter kinds")
	}
	if out.Confidence <= 0 || out.Confidence > 70 {
		t.Errorf("Confidence = %v, want in (0,70]", out.Confidence)
	}
}

func TestNestedDelimiterSurvey_DuplicatesDoNotDoubleCount(t *testing.T) {
	text := "[a] [b] [c] [d] [e]"
	if out := NestedDelimiterSurvey(text); out != nil {
		t.Errorf("five square-bracket spans are still only one kind, got %+v", out)
	}
}
