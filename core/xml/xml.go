// Package xml parses TEI transcriptions into an arena document tree, runs
// XPath queries over it and serializes edited subtrees back into the source.
//
// Character and entity references are never resolved: Parse protects them
// before handing the text to xmlquery, so text nodes hold references in their
// source spelling ("&thorn;", "&#xFE;"), and Serialize restores them after
// escaping. Undeclared Menota/MUFI entities therefore parse fine.
//
// Security Notes:
//   - XXE (External Entity) attacks are mitigated by using Go's xml.Decoder
//     which doesn't fetch external entities, and no reference is ever expanded.
package xml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/motheatensoul/menota-helper/core/encoding"
	"github.com/motheatensoul/menota-helper/core/errors"
)

// ValidationResult contains the result of XML validation.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// ValidationError represents a single validation error.
type ValidationError struct {
	Line    int
	Message string
}

// Parse parses document text into a Document. Malformed input yields a
// *errors.ParseError.
func Parse(text string) (*Document, error) {
	protected := encoding.ProtectReferences(text)
	root, err := xmlquery.Parse(strings.NewReader(protected))
	if err != nil {
		return nil, parseError(err)
	}

	spans, insts, err := scanSource(text)
	if err != nil {
		return nil, parseError(err)
	}

	b := &builder{doc: newDocument(text), spans: spans, insts: insts}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := b.build(0, c); err != nil {
			return nil, err
		}
	}
	if b.next != len(spans) {
		return nil, errors.NewParse("XML", "", fmt.Sprintf("parsed %d elements, source has %d", b.next, len(spans)))
	}
	if b.nextInst != len(insts) {
		return nil, errors.NewParse("XML", "", fmt.Sprintf("parsed %d processing instructions, source has %d", b.nextInst, len(insts)))
	}
	if b.doc.Root() == NoNode {
		return nil, errors.NewParse("XML", "", "no root element")
	}
	return b.doc, nil
}

// Validate checks the well-formedness of document text.
// Schema validation is out of scope; only syntax is checked.
func Validate(text string) ValidationResult {
	result := ValidationResult{Valid: true}

	decoder := xml.NewDecoder(strings.NewReader(encoding.ProtectReferences(text)))

	// XXE Protection (CWE-611): no entity expansion beyond the predefined five,
	// and after protection only &amp; is left to expand.
	decoder.Entity = map[string]string{}

	for {
		_, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Line:    syntaxLine(err),
				Message: err.Error(),
			})
			break
		}
	}

	return result
}

func parseError(err error) error {
	return &errors.ParseError{
		Format:  "XML",
		Line:    syntaxLine(err),
		Message: err.Error(),
		Err:     err,
	}
}

func syntaxLine(err error) int {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return se.Line
	}
	return 0
}

// builder copies an xmlquery tree into a Document, pairing each element and
// processing instruction with its source span in document order.
type builder struct {
	doc      *Document
	spans    []elementSpan
	next     int
	insts    []instSpan
	nextInst int
}

func (b *builder) build(parent NodeID, n *xmlquery.Node) error {
	switch n.Type {
	case xmlquery.ElementNode:
		if b.next >= len(b.spans) || b.spans[b.next].local != n.Data {
			return errors.NewParse("XML", "", fmt.Sprintf("element <%s> does not match source", n.Data))
		}
		span := b.spans[b.next]
		b.next++

		name := n.Data
		if n.Prefix != "" {
			name = n.Prefix + ":" + n.Data
		}
		attrs := make([]Attr, 0, len(n.Attr))
		for _, a := range n.Attr {
			attrs = append(attrs, Attr{Name: attrName(a), Value: a.Value})
		}
		id := b.doc.add(node{
			kind:       ElementNode,
			name:       name,
			attrs:      attrs,
			parent:     NoNode,
			span:       Span{Start: span.start, End: span.end},
			openEnd:    span.openEnd,
			closeStart: span.closeStart,
			empty:      span.empty,
		})
		b.doc.appendChild(parent, id)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := b.build(id, c); err != nil {
				return err
			}
		}

	case xmlquery.TextNode:
		b.leaf(parent, TextNode, "", n.Data)
	case xmlquery.CharDataNode:
		b.leaf(parent, CharDataNode, "", n.Data)
	case xmlquery.CommentNode:
		b.leaf(parent, CommentNode, "", n.Data)
	case xmlquery.ProcessingInstruction:
		if b.nextInst >= len(b.insts) || b.insts[b.nextInst].target != n.ProcInst.Target {
			return errors.NewParse("XML", "", fmt.Sprintf("processing instruction <?%s?> does not match source", n.ProcInst.Target))
		}
		inst := b.insts[b.nextInst]
		b.nextInst++
		id := b.doc.add(node{
			kind:   ProcInstNode,
			name:   n.ProcInst.Target,
			data:   n.ProcInst.Inst,
			parent: NoNode,
			span:   Span{Start: inst.start, End: inst.end},
		})
		b.doc.appendChild(parent, id)
	}
	// The XML declaration (a DeclarationNode) belongs to the prolog, which is
	// never re-serialized.
	return nil
}

func (b *builder) leaf(parent NodeID, kind NodeKind, name, data string) {
	id := b.doc.add(node{
		kind:   kind,
		name:   name,
		data:   data,
		parent: NoNode,
		span:   Span{Start: -1, End: -1},
	})
	b.doc.appendChild(parent, id)
}

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

func attrName(a xmlquery.Attr) string {
	switch a.Name.Space {
	case "":
		return a.Name.Local
	case xmlNamespace:
		return "xml:" + a.Name.Local
	default:
		return a.Name.Space + ":" + a.Name.Local
	}
}

// elementSpan is the source extent of one element. openEnd is the offset
// just past the start tag and closeStart that of the end tag.
type elementSpan struct {
	local      string
	start      int
	openEnd    int
	closeStart int
	end        int
	empty      bool
}

// instSpan is the source extent of a processing instruction.
type instSpan struct {
	target string
	start  int
	end    int
}

// scanSource lists every element and processing instruction of text in
// document order with its byte span. The scan reads the unprotected source
// in non-strict mode so offsets are those of the original text. The XML
// declaration is not listed.
func scanSource(text string) ([]elementSpan, []instSpan, error) {
	d := xml.NewDecoder(strings.NewReader(text))
	d.Strict = false

	var spans []elementSpan
	var insts []instSpan
	var stack []int

	for {
		start := int(d.InputOffset())
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			spans = append(spans, elementSpan{local: t.Name.Local, start: start, openEnd: int(d.InputOffset()), end: -1})
			stack = append(stack, len(spans)-1)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, nil, fmt.Errorf("unexpected end element </%s>", t.Name.Local)
			}
			s := &spans[stack[len(stack)-1]]
			stack = stack[:len(stack)-1]
			s.closeStart = start
			s.end = int(d.InputOffset())
			// A self-closing tag yields a synthetic end element without
			// consuming input.
			s.empty = s.end == s.openEnd
		case xml.ProcInst:
			if t.Target != "xml" {
				insts = append(insts, instSpan{target: t.Target, start: start, end: int(d.InputOffset())})
			}
		}
	}
	if len(stack) > 0 {
		return nil, nil, fmt.Errorf("unclosed element <%s>", spans[stack[len(stack)-1]].local)
	}
	return spans, insts, nil
}
