// Package encoding provides XML escaping and the character/entity reference
// handling shared by the tokenizer and the serializer.
package encoding

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ReferenceAt reports the byte length of the character or entity reference
// starting at s[i], or 0 if none starts there. Recognized forms are &name;,
// &#123; and &#x1F;.
func ReferenceAt(s string, i int) int {
	if i < 0 || i >= len(s) || s[i] != '&' {
		return 0
	}
	if n := referenceBody(s, i+1); n > 0 {
		return n + 1
	}
	return 0
}

// referenceBody reports the length of a reference without its ampersand
// ("name;", "#12;", "#x1F;") starting at s[j], or 0.
func referenceBody(s string, j int) int {
	i := j
	if j < len(s) && s[j] == '#' {
		j++
		hex := j < len(s) && s[j] == 'x'
		if hex {
			j++
		}
		start := j
		for j < len(s) && isRefDigit(s[j], hex) {
			j++
		}
		if j == start || j >= len(s) || s[j] != ';' {
			return 0
		}
		return j + 1 - i
	}

	first := true
	for j < len(s) {
		r, size := utf8.DecodeRuneInString(s[j:])
		if r == ';' {
			if first {
				return 0
			}
			return j + 1 - i
		}
		if first {
			if !unicode.IsLetter(r) && r != '_' {
				return 0
			}
		} else if !isNameRune(r) {
			return 0
		}
		first = false
		j += size
	}
	return 0
}

func isRefDigit(c byte, hex bool) bool {
	if c >= '0' && c <= '9' {
		return true
	}
	return hex && (c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F')
}

func isNameRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.M, r) ||
		r == '_' || r == '-' || r == '.'
}

// ProtectReferences rewrites the ampersand of every reference in s to &amp;,
// so an XML decoder hands the reference through as literal text instead of
// resolving it. RestoreReferences is its inverse.
func ProtectReferences(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + len(s)/16)
	for i := 0; i < len(s); {
		if n := ReferenceAt(s, i); n > 0 {
			b.WriteString("&amp;")
			b.WriteString(s[i+1 : i+n])
			i += n
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// RestoreReferences undoes the double escaping that serializing a protected
// reference produces: every &amp; immediately followed by a reference shape
// loses exactly its "amp;".
func RestoreReferences(s string) string {
	if !strings.Contains(s, "&amp;") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], "&amp;") {
			if n := referenceBody(s, i+5); n > 0 {
				b.WriteByte('&')
				b.WriteString(s[i+5 : i+5+n])
				i += 5 + n
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// EscapeXMLText escapes text content. Only '&' and '<' are always escaped;
// '>' is escaped only where it would close a "]]>" sequence, so text keeps
// the spelling it had in the source.
func EscapeXMLText(s string) string {
	if !strings.ContainsAny(s, "&<>") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			if i >= 2 && s[i-1] == ']' && s[i-2] == ']' {
				b.WriteString("&gt;")
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// EscapeXMLAttr escapes text for use in double-quoted XML attributes.
func EscapeXMLAttr(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}
