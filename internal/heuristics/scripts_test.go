package heuristics

import "testing"

func TestUnicodeScriptSwitch_TooShort(t *testing.T) {
	if out := UnicodeScriptSwitch("short тext"); out != nil {
		t.Errorf("expected nil for <20 chars, got %+v", out)
	}
}

func TestUnicodeScriptSwitch_PureLatinNoMatch(t *testing.T) {
	text := "this is a perfectly ordinary english sentence"
	if out := UnicodeScriptSwitch(text); out != nil {
		t.Errorf("expected nil for pure Latin text, got %+v", out)
	}
}

func TestUnicodeScriptSwitch_HomoglyphWordsMatch(t *testing.T) {
	// "аdmin" and "pаssword" each mix a Cyrillic "а" (U+0430) into an
	// otherwise-Latin word - two mixed-script words triggers signal (a).
	text := "please аdmin reset the pаssword for this account right now"
	out := UnicodeScriptSwitch(text)
	if out == nil {
		t.Fatal("expected a homoglyph match for mixed-script words")
	}
}

func TestUnicodeScriptSwitch_ConfusableComboMatches(t *testing.T) {
	// Distinct Latin, Cyrillic, and Greek words (not mixed within a
	// single word) trigger signal (b): >=3 scripts with Latin+Cyrillic/Greek.
	text := "hello привет alpha βήτα world extra padding words here"
	out := UnicodeScriptSwitch(text)
	if out == nil {
		t.Fatal("expected a confusable-combo match across distinct-script words")
	}
}
