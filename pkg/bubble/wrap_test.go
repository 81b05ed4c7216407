package bubble

import (
	"strings"
	"testing"
)

// TestHardWrap_NoLineExceedsWidth verifies the character-count bound
func TestHardWrap_NoLineExceedsWidth(t *testing.T) {
	text := "this is a rather long single line of quoted text that must be sliced"
	for _, line := range HardWrap(text, 32) {
		if len([]rune(line)) > 32 {
			t.Errorf("line %q exceeds 32 runes", line)
		}
	}
}

// TestHardWrap_ConcatenationPreserved verifies slicing loses no characters
func TestHardWrap_ConcatenationPreserved(t *testing.T) {
	line := "abcdefghijklmnopqrstuvwxyz0123456789abcdefghij"
	got := strings.Join(HardWrap(line, 10), "")
	if got != line {
		t.Errorf("concatenation mismatch: %q != %q", got, line)
	}
}

// TestHardWrap_ExplicitNewlines verifies each input line wraps independently
func TestHardWrap_ExplicitNewlines(t *testing.T) {
	got := HardWrap("first\nsecond line\n\nthird", 32)
	want := []string{"first", "second line", "third"}
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

// TestHardWrap_EmptyInput verifies a placeholder line is produced
func TestHardWrap_EmptyInput(t *testing.T) {
	got := HardWrap("", 32)
	if len(got) != 1 || got[0] != " " {
		t.Errorf("expected single placeholder line, got %v", got)
	}
}

// TestHardWrap_MultiByteRunes verifies wrapping counts runes, not bytes
func TestHardWrap_MultiByteRunes(t *testing.T) {
	text := strings.Repeat("ç", 40)
	lines := HardWrap(text, 32)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if len([]rune(lines[0])) != 32 || len([]rune(lines[1])) != 8 {
		t.Errorf("unexpected split: %d + %d runes", len([]rune(lines[0])), len([]rune(lines[1])))
	}
}

// TestWordWrap_NeverSplitsWords verifies reassembly reproduces the input
func TestWordWrap_NeverSplitsWords(t *testing.T) {
	name := "Mehmet  Ali   Yilmazoglu Kara"
	lines := WordWrap(name, 18)

	for _, line := range lines {
		if len([]rune(line)) > 18 {
			t.Errorf("line %q exceeds 18 runes", line)
		}
	}

	rejoined := strings.Join(lines, " ")
	normalized := strings.Join(strings.Fields(name), " ")
	if rejoined != normalized {
		t.Errorf("words were altered: %q != %q", rejoined, normalized)
	}
}

// TestWordWrap_OverlongWordStandsAlone verifies a too-long word gets its own line
func TestWordWrap_OverlongWordStandsAlone(t *testing.T) {
	lines := WordWrap("hi Supercalifragilisticexpialidocious there", 18)
	found := false
	for _, line := range lines {
		if line == "Supercalifragilisticexpialidocious" {
			found = true
		}
	}
	if !found {
		t.Errorf("overlong word must stand alone unsplit, got %v", lines)
	}
}

// TestSanitize_StripsControlCharacters verifies unsafe bytes are removed
func TestSanitize_StripsControlCharacters(t *testing.T) {
	got := Sanitize("hel\x00lo\nworld\x1b")
	if got != "hello\nworld" {
		t.Errorf("expected %q, got %q", "hello\nworld", got)
	}
}
