// Package milestone locates the latest page and line break in a transcription
// and computes the numbering value the next one should carry.
package milestone

import (
	"fmt"

	"github.com/motheatensoul/menota-helper/core/encoding"
	"github.com/motheatensoul/menota-helper/core/errors"
	"github.com/motheatensoul/menota-helper/core/numbering"
	"github.com/motheatensoul/menota-helper/core/xml"
)

// NumberAttr is the attribute holding a milestone's numbering value.
const NumberAttr = "n"

// Kind is a sequential milestone element.
type Kind string

const (
	PageBreak Kind = "pb"
	LineBreak Kind = "lb"
)

// Tag returns the element name of the milestone.
func (k Kind) Tag() string {
	return string(k)
}

// ParseKind converts a tag or long name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "pb", "page":
		return PageBreak, nil
	case "lb", "line":
		return LineBreak, nil
	}
	return "", errors.NewUnsupported("milestone kind", s)
}

// Info describes the latest milestone of a kind and its successor value.
type Info struct {
	Kind    Kind
	Current string
	Next    string
}

// Preview holds the milestone info of a document. A field is nil when the
// document has no milestone of that kind.
type Preview struct {
	PageBreak *Info
	LineBreak *Info
}

// Latest returns the last element named tag in document order.
func Latest(doc *xml.Document, tag string) (xml.NodeID, bool) {
	nodes, err := doc.XPath(fmt.Sprintf("//*[local-name()='%s']", tag))
	if err != nil || len(nodes) == 0 {
		return xml.NoNode, false
	}
	return nodes[len(nodes)-1], true
}

// Lookup reports the latest milestone of kind in doc.
func Lookup(doc *xml.Document, kind Kind) (*Info, bool) {
	id, ok := Latest(doc, kind.Tag())
	if !ok {
		return nil, false
	}
	current, _ := doc.Attr(id, NumberAttr)
	return &Info{
		Kind:    kind,
		Current: current,
		Next:    numbering.Next(current),
	}, true
}

// PreviewText parses text and reports its page and line break milestones.
func PreviewText(text string) (Preview, error) {
	doc, err := xml.Parse(text)
	if err != nil {
		return Preview{}, err
	}
	return PreviewDocument(doc), nil
}

// PreviewDocument reports the page and line break milestones of doc.
func PreviewDocument(doc *xml.Document) Preview {
	var p Preview
	if info, ok := Lookup(doc, PageBreak); ok {
		p.PageBreak = info
	}
	if info, ok := Lookup(doc, LineBreak); ok {
		p.LineBreak = info
	}
	return p
}

// Markup returns an empty milestone element carrying value, such as
// <pb n="2r"/>.
func Markup(kind Kind, value string) string {
	v := encoding.RestoreReferences(encoding.EscapeXMLAttr(value))
	return fmt.Sprintf(`<%s %s="%s"/>`, kind.Tag(), NumberAttr, v)
}
