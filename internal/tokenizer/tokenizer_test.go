package tokenizer

import (
	"slices"
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"punctuation only", "...", nil},
		{"hello world", "Hello, World!", []string{"hello", "world"}},
		{"digits", "CS 121 and ICS-33", []string{"cs", "121", "and", "ics", "33"}},
		{"apostrophe splits", "don't", []string{"don", "t"}},
		{"trailing token", "  end", []string{"end"}},
		{"whitespace runs", "a\n\t b", []string{"a", "b"}},
		{"unicode letters", "Café Über", []string{"café", "über"}},
		{"unicode numbers", "x² ½cup Ⅻ", []string{"x²", "½cup", "ⅻ"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Collect(tt.text)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Collect(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTokenize_Restartable(t *testing.T) {
	seq := Tokenize("one two three")

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !slices.Equal(first, second) {
		t.Errorf("second iteration = %v, want %v", second, first)
	}
}

func TestTokenize_EarlyStop(t *testing.T) {
	var got []string
	for tok := range Tokenize("a b c d") {
		got = append(got, tok)
		if len(got) == 2 {
			break
		}
	}
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("got %v, want [a b]", got)
	}
}

func TestCount(t *testing.T) {
	text := strings.Repeat("word ", 100)
	if got := Count(text); got != 100 {
		t.Errorf("Count() = %d, want 100", got)
	}
}
