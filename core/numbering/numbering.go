// Package numbering computes the successor of a milestone numbering value.
//
// Manuscript numbering comes in a few shapes with disjoint surface syntax:
// cardinals ("12"), foliation with recto/verso sides ("12r", "12v") and small
// roman numerals ("iv", "IX"). Next tries them in a fixed order and falls back
// to appending "1", so it never fails.
package numbering

import (
	"math/big"
	"regexp"
	"strings"
)

var (
	romanPattern   = regexp.MustCompile(`^[IVXLCDMivxlcdm]+$`)
	foliumPattern  = regexp.MustCompile(`^(\d+)([rv])$`)
	integerPattern = regexp.MustCompile(`^(\d+)$`)
)

// romanValues holds the only numerals Next understands. Larger foliation
// numerals such as "xx" are not recognized and take the fallback rule.
var romanValues = map[string]int{
	"i": 1, "ii": 2, "iii": 3, "iv": 4, "v": 5,
	"vi": 6, "vii": 7, "viii": 8, "ix": 9, "x": 10,
}

var romanSymbols = []struct {
	value  int
	symbol string
}{
	{10, "x"},
	{9, "ix"},
	{5, "v"},
	{4, "iv"},
	{1, "i"},
}

// Next returns the value following current.
func Next(current string) string {
	if current == "" {
		return "1"
	}

	if romanPattern.MatchString(current) {
		if n, ok := romanValues[strings.ToLower(current)]; ok {
			next := toRoman(n + 1)
			if current == strings.ToUpper(current) {
				return strings.ToUpper(next)
			}
			return next
		}
	}

	if m := foliumPattern.FindStringSubmatch(current); m != nil {
		if m[2] == "r" {
			return canonical(m[1]) + "v"
		}
		return increment(m[1]) + "r"
	}

	if integerPattern.MatchString(current) {
		return increment(current)
	}

	return current + "1"
}

// toRoman encodes a small positive integer in lower case.
func toRoman(n int) string {
	var b strings.Builder
	for _, s := range romanSymbols {
		for n >= s.value {
			b.WriteString(s.symbol)
			n -= s.value
		}
	}
	return b.String()
}

// increment adds one to a decimal digit string of any length.
func increment(digits string) string {
	n, _ := new(big.Int).SetString(digits, 10)
	return n.Add(n, big.NewInt(1)).String()
}

// canonical drops leading zeros from a decimal digit string.
func canonical(digits string) string {
	n, _ := new(big.Int).SetString(digits, 10)
	return n.String()
}
