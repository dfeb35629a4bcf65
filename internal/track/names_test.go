package track

import (
	"testing"
	"time"
)

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no diacritics", "Thomas", "Thomas"},
		{"spanish", "José", "Jose"},
		{"czech", "Tomáš Kožený", "Tomas Kozeny"},
		{"german umlaut", "Jürgen", "Jurgen"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemoveDiacritics(tt.input); got != tt.expected {
				t.Errorf("RemoveDiacritics(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "ALICE", "alice"},
		{"diacritics stripped", "José García", "jose garcia"},
		{"whitespace collapsed", "  anna   marie  ", "anna marie"},
		{"already normal", "bob", "bob"},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.expected {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCanonicalName(t *testing.T) {
	b := NewBank(testBankConfig())
	now := time.Now()

	id1 := promote(t, b, unitVec(4, 0), now)
	id2 := promote(t, b, unitVec(4, 1), now)
	b.AssignName(id1, "José García")
	b.AssignName(id2, "Anna")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"exact match", "José García", "José García"},
		{"accent variant", "jose garcia", "José García"},
		{"case variant", "ANNA", "Anna"},
		{"unknown name passes through", "Charlie", "Charlie"},
		{"blank passes through", "  ", "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.CanonicalName(tt.input); got != tt.expected {
				t.Errorf("CanonicalName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
