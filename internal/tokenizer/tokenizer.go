// Package tokenizer splits page text into lower-cased alphanumeric tokens.
package tokenizer

import (
	"iter"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tokenize returns a lazy sequence over the tokens of text.
// A token is a maximal run of letters and numbers (any Unicode number
// category, so superscripts and fractions count) after lower-casing.
// Each range over the returned sequence starts from the beginning.
func Tokenize(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if text == "" {
			return
		}

		// A Caser keeps per-call state, so one is created per sequence.
		lower := cases.Lower(language.Und).String(text)

		var buf strings.Builder
		for _, r := range lower {
			if unicode.IsLetter(r) || unicode.IsNumber(r) {
				buf.WriteRune(r)
				continue
			}
			if buf.Len() > 0 {
				if !yield(buf.String()) {
					return
				}
				buf.Reset()
			}
		}
		if buf.Len() > 0 {
			yield(buf.String())
		}
	}
}

// Collect returns all tokens of text as a slice.
func Collect(text string) []string {
	var tokens []string
	for tok := range Tokenize(text) {
		tokens = append(tokens, tok)
	}
	return tokens
}

// Count returns the number of tokens in text.
func Count(text string) int {
	n := 0
	for range Tokenize(text) {
		n++
	}
	return n
}
