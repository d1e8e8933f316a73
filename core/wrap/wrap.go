// Package wrap rewrites the prose of a TEI transcription so that every word
// and punctuation run sits in its own element, <w> and <pc> by default.
//
// Annotation regions (<note>) are never read or changed. Inline annotation
// elements such as <hi> or <supplied> that carry word content are wrapped
// whole. Rewriting is idempotent: elements already wrapped are recognised
// structurally and left as they are.
package wrap

import (
	"strings"

	"github.com/motheatensoul/menota-helper/core/errors"
	"github.com/motheatensoul/menota-helper/core/tokenize"
	"github.com/motheatensoul/menota-helper/core/xml"
)

// Rewriter wraps words and punctuation in place in a parsed document.
type Rewriter struct {
	doc     *xml.Document
	scheme  Scheme
	classes map[string]Category
	prefix  string
	changed []xml.NodeID
}

// NewRewriter returns a Rewriter for doc using scheme.
func NewRewriter(doc *xml.Document, scheme Scheme) *Rewriter {
	return &Rewriter{
		doc:     doc,
		scheme:  scheme,
		classes: make(map[string]Category),
	}
}

// Changed returns the elements whose children the rewriter replaced, in the
// order they were changed.
func (r *Rewriter) Changed() []xml.NodeID {
	return r.changed
}

// IsExcluded reports whether id is an annotation element or lies inside one.
func (r *Rewriter) IsExcluded(id xml.NodeID) bool {
	for n := id; n != xml.NoNode; n = r.doc.Parent(n) {
		if r.doc.IsElement(n) && r.classify(n) == CategoryAnnotation {
			return true
		}
	}
	return false
}

// Rewrite wraps the words and punctuation below the container element id.
// Wrappers take the container's namespace prefix.
func (r *Rewriter) Rewrite(id xml.NodeID) {
	r.prefix = r.doc.Prefix(id)
	r.rewrite(id)
}

func (r *Rewriter) rewrite(id xml.NodeID) {
	if r.IsExcluded(id) {
		return
	}
	// Children are visited last to first so replacing one never shifts the
	// index of a child still to be visited.
	children := r.doc.Children(id)
	for i := len(children) - 1; i >= 0; i-- {
		child := children[i]
		switch r.doc.Kind(child) {
		case xml.TextNode:
			r.rewriteText(id, i, child)
		case xml.ElementNode:
			r.rewriteElement(id, i, child)
		}
	}
}

func (r *Rewriter) rewriteText(parent xml.NodeID, i int, text xml.NodeID) {
	data := r.doc.Data(text)
	if strings.TrimSpace(data) == "" {
		return
	}
	tokens := tokenize.Tokenize(data)
	nodes := make([]xml.NodeID, 0, len(tokens))
	for _, tok := range tokens {
		switch tok.Kind {
		case tokenize.Whitespace:
			nodes = append(nodes, r.doc.NewText(tok.Text))
		case tokenize.Word:
			nodes = append(nodes, r.wrapper(r.scheme.Word, tok.Text))
		case tokenize.Punctuation:
			nodes = append(nodes, r.wrapper(r.scheme.Punctuation, tok.Text))
		}
	}
	r.doc.ReplaceChildAt(parent, i, nodes...)
	r.markChanged(parent)
}

func (r *Rewriter) rewriteElement(parent xml.NodeID, i int, el xml.NodeID) {
	switch r.classify(el) {
	case CategoryAnnotation, CategoryWord, CategoryPunctuation, CategoryMilestone:
		return
	case CategoryInline:
		if tokenize.HasWordContent(r.doc.InnerText(el)) && !r.soleWrapped(el) {
			r.doc.WrapChildAt(parent, i, r.doc.NewElement(r.qualify(r.scheme.Word)))
			r.markChanged(parent)
			return
		}
	}
	r.rewrite(el)
}

// soleWrapped reports whether id is the only child of a word or punctuation
// wrapper.
func (r *Rewriter) soleWrapped(id xml.NodeID) bool {
	p := r.doc.Parent(id)
	if !r.doc.IsElement(p) || r.doc.ChildCount(p) != 1 {
		return false
	}
	c := r.classify(p)
	return c == CategoryWord || c == CategoryPunctuation
}

func (r *Rewriter) wrapper(tag, text string) xml.NodeID {
	el := r.doc.NewElement(r.qualify(tag))
	r.doc.AppendChild(el, r.doc.NewText(text))
	return el
}

func (r *Rewriter) qualify(tag string) string {
	if r.prefix == "" {
		return tag
	}
	return r.prefix + ":" + tag
}

func (r *Rewriter) classify(id xml.NodeID) Category {
	name := r.doc.Name(id)
	c, ok := r.classes[name]
	if !ok {
		c = r.scheme.Classify(name)
		r.classes[name] = c
	}
	return c
}

func (r *Rewriter) markChanged(id xml.NodeID) {
	if n := len(r.changed); n > 0 && r.changed[n-1] == id {
		return
	}
	r.changed = append(r.changed, id)
}

// WrapWordsAndPunctuation parses text, wraps the words and punctuation of
// every prose container and returns the new document text. Only the source
// of elements that changed is rewritten; the prolog, the header and all
// other markup are returned byte for byte. A document without a container
// yields a *errors.StructuralError.
func WrapWordsAndPunctuation(text string, scheme Scheme) (string, error) {
	doc, err := xml.Parse(text)
	if err != nil {
		return "", err
	}
	containers := doc.ElementsByName(scheme.Container)
	if len(containers) == 0 {
		return "", errors.NewStructural(scheme.Container, "no prose container found")
	}

	r := NewRewriter(doc, scheme)
	for _, c := range containers {
		r.Rewrite(c)
	}
	if len(r.Changed()) == 0 {
		return text, nil
	}
	return doc.Splice(r.Changed()...)
}

// Range is a byte range of document text.
type Range struct {
	Start int
	End   int
}

// WrapParagraphAt wraps the words and punctuation of the innermost paragraph
// containing offset. It returns the paragraph's source range and the text
// that replaces it, leaving the rest of the document to the caller.
func WrapParagraphAt(text string, offset int, scheme Scheme) (Range, string, error) {
	doc, err := xml.Parse(text)
	if err != nil {
		return Range{}, "", err
	}

	// Spans are half-open, so an offset between </p><p> belongs to the second
	// paragraph and one just after a closing </p> only to an enclosing one.
	// Of the paragraphs containing offset, each later one in document order
	// lies inside the earlier ones.
	para := xml.NoNode
	for _, p := range doc.ElementsByName(scheme.Paragraph) {
		span, _ := doc.Span(p)
		if span.Start <= offset && offset < span.End {
			para = p
		}
	}
	if para == xml.NoNode {
		return Range{}, "", errors.NewStructural(scheme.Paragraph, "no paragraph at cursor")
	}

	span, _ := doc.Span(para)
	rng := Range{Start: span.Start, End: span.End}
	r := NewRewriter(doc, scheme)
	if r.IsExcluded(para) {
		return Range{}, "", errors.NewStructural(scheme.Paragraph, "paragraph is inside an annotation")
	}
	r.Rewrite(para)
	if len(r.Changed()) == 0 {
		return rng, text[span.Start:span.End], nil
	}
	out, err := doc.Splice(para)
	if err != nil {
		return Range{}, "", err
	}
	// Splice returned the whole document; cut out the paragraph.
	tail := len(text) - span.End
	return rng, out[span.Start : len(out)-tail], nil
}
