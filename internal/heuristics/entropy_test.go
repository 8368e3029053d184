package heuristics

import "testing"

func TestShannonEntropy_Empty(t *testing.T) {
	if got := ShannonEntropy(""); got != 0 {
		t.Errorf("ShannonEntropy(\"\") = %v, want 0", got)
	}
}

func TestShannonEntropy_LowForRepeatedChar(t *testing.T) {
	if got := ShannonEntropy("aaaaaaaaaa"); got != 0 {
		t.Errorf("ShannonEntropy(repeated) = %v, want 0", got)
	}
}

func TestShannonEntropy_HighForRandomish(t *testing.T) {
	got := ShannonEntropy("aB3$kZ9!qW7&mP2#")
	if got < 3.0 {
		t.Errorf("ShannonEntropy(random-ish) = %v, want > 3.0", got)
	}
}

func TestShannonEntropyWindows_ShortTextReturnsNil(t *testing.T) {
	if out := ShannonEntropyWindows("too short"); out != nil {
		t.Errorf("expected nil for short text, got %+v", out)
	}
}

func TestShannonEntropyWindows_PlainEnglishTextDoesNotMatch(t *testing.T) {
	text := "This is a perfectly ordinary sentence about the weather and nothing else in particular today."
	if out := ShannonEntropyWindows(text); out != nil {
		t.Errorf("expected no match for plain English text, got %+v", out)
	}
}

func TestShannonEntropyWindows_HighEntropyBlobMatches(t *testing.T) {
	blob := "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz!@#$%^&*()_+-=[]{}" +
		"9876543210ZYXWVUTSRQPONMLKJIHGFEDCBAzyxwvutsrqponmlkjihgfedcba}{][=-+_)(*&^%$#@!"
	out := ShannonEntropyWindows(blob)
	if out == nil {
		t.Fatal("expected a match for a base64-looking high-entropy blob")
	}
	if out.Confidence <= 0 || out.Confidence > 80 {
		t.Errorf("Confidence = %v, want in (0,80]", out.Confidence)
	}
}
