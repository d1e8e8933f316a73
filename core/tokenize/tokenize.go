// Package tokenize splits transcription text into word, punctuation and
// whitespace runs. Character and entity references (&thorn;, &#254;) count
// as single word characters, so "bar&amp;baz" is one word.
package tokenize

import (
	"unicode"
	"unicode/utf8"

	"github.com/motheatensoul/menota-helper/core/encoding"
)

// Kind classifies a token.
type Kind uint8

const (
	// Word is a run of letters, combining marks, digits, '_', '(' , ')' and references.
	Word Kind = iota
	// Punctuation is a run of anything else that is not whitespace.
	Punctuation
	// Whitespace is a run of unicode.IsSpace characters.
	Whitespace
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case Word:
		return "word"
	case Punctuation:
		return "punctuation"
	case Whitespace:
		return "whitespace"
	default:
		return "unknown"
	}
}

// Token is one classified run of the input.
type Token struct {
	Kind Kind
	Text string
}

// IsWordRune reports whether r belongs in a word run.
func IsWordRune(r rune) bool {
	switch r {
	case '_', '(', ')':
		return true
	}
	return unicode.IsLetter(r) || unicode.Is(unicode.M, r) || unicode.Is(unicode.Nd, r)
}

// HasWordContent reports whether s contains at least one word rune or reference.
func HasWordContent(s string) bool {
	for i := 0; i < len(s); {
		if encoding.ReferenceAt(s, i) > 0 {
			return true
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if IsWordRune(r) {
			return true
		}
		i += size
	}
	return false
}

// Tokenize splits text into maximal runs. The token texts concatenate back
// to text exactly; empty input yields no tokens.
func Tokenize(text string) []Token {
	var tokens []Token
	for i := 0; i < len(text); {
		kind, n := classify(text, i)
		j := i + n
		for j < len(text) {
			next, m := classify(text, j)
			if next != kind {
				break
			}
			j += m
		}
		tokens = append(tokens, Token{Kind: kind, Text: text[i:j]})
		i = j
	}
	return tokens
}

// classify returns the kind of the unit starting at text[i] and its byte
// length. A unit is a reference or a single rune.
func classify(text string, i int) (Kind, int) {
	if n := encoding.ReferenceAt(text, i); n > 0 {
		return Word, n
	}
	r, size := utf8.DecodeRuneInString(text[i:])
	switch {
	case unicode.IsSpace(r):
		return Whitespace, size
	case IsWordRune(r):
		return Word, size
	default:
		return Punctuation, size
	}
}
