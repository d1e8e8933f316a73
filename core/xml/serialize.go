package xml

import (
	"fmt"
	"slices"
	"strings"

	"github.com/motheatensoul/menota-helper/core/encoding"
)

// Serialize renders the subtree rooted at id as XML. Elements left untouched
// since parsing are copied from the source verbatim, and so are the start and
// end tags of changed elements and every parsed processing instruction.
// Elsewhere references keep their source spelling, elements the source wrote
// as <x/> stay self-closing and childless elements created after parsing are
// written self-closing too.
func (d *Document) Serialize(id NodeID) string {
	s := &serializer{doc: d, clean: make(map[NodeID]bool)}
	var b strings.Builder
	s.write(&b, id)
	return encoding.RestoreReferences(b.String())
}

type serializer struct {
	doc   *Document
	clean map[NodeID]bool
}

// pristine reports whether the subtree at id is unchanged since parsing.
func (s *serializer) pristine(id NodeID) bool {
	if v, ok := s.clean[id]; ok {
		return v
	}
	n := &s.doc.nodes[id]
	v := n.kind == ElementNode && n.span.Start >= 0 && !n.dirty
	for _, c := range n.children {
		if !v {
			break
		}
		if s.doc.nodes[c].kind == ElementNode {
			v = s.pristine(c)
		}
	}
	s.clean[id] = v
	return v
}

func (s *serializer) write(b *strings.Builder, id NodeID) {
	n := &s.doc.nodes[id]
	switch n.kind {
	case DocumentNode:
		for _, c := range n.children {
			s.write(b, c)
		}

	case ElementNode:
		if s.pristine(id) {
			s.copySource(b, n.span.Start, n.span.End)
			return
		}
		if n.span.Start >= 0 && !n.empty {
			// Parsed tags keep their spelling; only the content is rebuilt.
			s.copySource(b, n.span.Start, n.openEnd)
			for _, c := range n.children {
				s.write(b, c)
			}
			s.copySource(b, n.closeStart, n.span.End)
			return
		}
		b.WriteByte('<')
		b.WriteString(n.name)
		for _, a := range n.attrs {
			b.WriteByte(' ')
			b.WriteString(a.Name)
			b.WriteString(`="`)
			b.WriteString(encoding.EscapeXMLAttr(a.Value))
			b.WriteByte('"')
		}
		if len(n.children) == 0 && (n.empty || n.span.Start < 0) {
			b.WriteString("/>")
			return
		}
		b.WriteByte('>')
		for _, c := range n.children {
			s.write(b, c)
		}
		b.WriteString("</")
		b.WriteString(n.name)
		b.WriteByte('>')

	case TextNode:
		b.WriteString(encoding.EscapeXMLText(n.data))

	case CharDataNode:
		b.WriteString("<![CDATA[")
		b.WriteString(n.data)
		b.WriteString("]]>")

	case CommentNode:
		b.WriteString("<!--")
		b.WriteString(n.data)
		b.WriteString("-->")

	case ProcInstNode:
		if n.span.Start >= 0 {
			s.copySource(b, n.span.Start, n.span.End)
			return
		}
		b.WriteString("<?")
		b.WriteString(n.name)
		if n.data != "" {
			b.WriteByte(' ')
			b.WriteString(n.data)
		}
		b.WriteString("?>")
	}
}

// copySource writes source[start:end] with line breaks folded to LF, as the
// parser sees them. References are protected so the final restore pass
// leaves them as written.
func (s *serializer) copySource(b *strings.Builder, start, end int) {
	src := s.doc.source[start:end]
	b.WriteString(encoding.ProtectReferences(strings.ReplaceAll(src, "\r\n", "\n")))
}

// Splice returns the document source with the source span of each element
// in ids replaced by that element's serialization. Everything outside those
// spans is returned byte for byte. An element nested inside another listed
// element is covered by the outer one. A span written with CRLF line endings
// gets them back, since the parser folds them into LF.
func (d *Document) Splice(ids ...NodeID) (string, error) {
	type edit struct {
		span Span
		id   NodeID
	}
	var edits []edit
	for _, id := range ids {
		span, ok := d.Span(id)
		if !ok || d.nodes[id].kind != ElementNode {
			return "", fmt.Errorf("node %d has no source span", id)
		}
		edits = append(edits, edit{span: span, id: id})
	}
	slices.SortFunc(edits, func(a, b edit) int { return a.span.Start - b.span.Start })

	var b strings.Builder
	b.Grow(len(d.source) + len(d.source)/4)
	pos := 0
	for _, e := range edits {
		if e.span.Start < pos {
			continue // nested in an earlier edit
		}
		b.WriteString(d.source[pos:e.span.Start])
		out := d.Serialize(e.id)
		if usesCRLF(d.source[e.span.Start:e.span.End]) {
			out = strings.ReplaceAll(out, "\n", "\r\n")
		}
		b.WriteString(out)
		pos = e.span.End
	}
	b.WriteString(d.source[pos:])
	return b.String(), nil
}

// usesCRLF reports whether every line break in s is CRLF.
func usesCRLF(s string) bool {
	crlf := strings.Count(s, "\r\n")
	return crlf > 0 && crlf == strings.Count(s, "\n")
}
