package xml

import (
	"slices"
	"strings"
)

// NodeID addresses a node in a Document's arena. IDs are stable for the
// lifetime of the document; detached nodes keep their ID.
type NodeID int

// NoNode is the ID of a missing node.
const NoNode NodeID = -1

// NodeKind identifies the type of a node.
type NodeKind uint8

const (
	DocumentNode NodeKind = iota
	ElementNode
	TextNode
	CharDataNode
	CommentNode
	ProcInstNode
)

// Attr is an attribute with its qualified name ("n", "xml:id", "xmlns:me").
type Attr struct {
	Name  string
	Value string
}

// Local returns the attribute name without its prefix.
func (a Attr) Local() string {
	return localName(a.Name)
}

// Span is a byte range of the document source. Start is -1 for nodes
// created after parsing.
type Span struct {
	Start int
	End   int
}

type node struct {
	kind     NodeKind
	name     string // qualified element name or PI target
	attrs    []Attr
	data     string // text, CDATA, comment or PI instruction
	parent   NodeID
	children []NodeID
	span     Span
	// openEnd and closeStart delimit the content of a parsed element: the
	// start tag is source[span.Start:openEnd], the end tag
	// source[closeStart:span.End].
	openEnd    int
	closeStart int
	empty      bool // source spelled the element <x/>
	dirty      bool // children changed since parsing
}

// Document is an XML document held as an arena of nodes. Node 0 is the
// document node; its element child is the root element.
type Document struct {
	source string
	nodes  []node
}

func newDocument(source string) *Document {
	d := &Document{source: source}
	d.nodes = append(d.nodes, node{
		kind:   DocumentNode,
		parent: NoNode,
		span:   Span{Start: 0, End: len(source)},
	})
	return d
}

func (d *Document) add(n node) NodeID {
	d.nodes = append(d.nodes, n)
	return NodeID(len(d.nodes) - 1)
}

// Source returns the text the document was parsed from.
func (d *Document) Source() string {
	return d.source
}

// Root returns the root element, or NoNode.
func (d *Document) Root() NodeID {
	for _, c := range d.nodes[0].children {
		if d.nodes[c].kind == ElementNode {
			return c
		}
	}
	return NoNode
}

// Kind returns the kind of node id.
func (d *Document) Kind(id NodeID) NodeKind {
	return d.nodes[id].kind
}

// IsElement reports whether id is an element.
func (d *Document) IsElement(id NodeID) bool {
	return id != NoNode && d.nodes[id].kind == ElementNode
}

// Name returns the local name of an element, the part after any prefix.
func (d *Document) Name(id NodeID) string {
	return localName(d.nodes[id].name)
}

// QName returns the qualified name of an element as spelled in the source.
func (d *Document) QName(id NodeID) string {
	return d.nodes[id].name
}

// Prefix returns the namespace prefix of an element, or "".
func (d *Document) Prefix(id NodeID) string {
	name := d.nodes[id].name
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i]
	}
	return ""
}

// Attrs returns a copy of the element's attributes in source order.
func (d *Document) Attrs(id NodeID) []Attr {
	return slices.Clone(d.nodes[id].attrs)
}

// Attr returns the value of the attribute with the given qualified name.
func (d *Document) Attr(id NodeID, name string) (string, bool) {
	for _, a := range d.nodes[id].attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Data returns the content of a text, CDATA, comment or PI node.
// Text keeps references in their source spelling.
func (d *Document) Data(id NodeID) string {
	return d.nodes[id].data
}

// Parent returns the parent of id, or NoNode.
func (d *Document) Parent(id NodeID) NodeID {
	return d.nodes[id].parent
}

// Children returns a snapshot of id's children. Mutating the document does
// not affect a snapshot already taken.
func (d *Document) Children(id NodeID) []NodeID {
	return slices.Clone(d.nodes[id].children)
}

// ChildCount returns the number of children of id.
func (d *Document) ChildCount(id NodeID) int {
	return len(d.nodes[id].children)
}

// Span returns the source span of id; ok is false for created nodes.
func (d *Document) Span(id NodeID) (Span, bool) {
	s := d.nodes[id].span
	return s, s.Start >= 0
}

// InnerText returns the concatenated text and CDATA content below id.
func (d *Document) InnerText(id NodeID) string {
	switch d.nodes[id].kind {
	case TextNode, CharDataNode:
		return d.nodes[id].data
	case CommentNode, ProcInstNode:
		return ""
	}
	var b strings.Builder
	d.Walk(id, func(n NodeID) bool {
		if k := d.nodes[n].kind; k == TextNode || k == CharDataNode {
			b.WriteString(d.nodes[n].data)
		}
		return true
	})
	return b.String()
}

// Walk visits id and its descendants in document order. Returning false
// from fn skips the children of the visited node.
func (d *Document) Walk(id NodeID, fn func(NodeID) bool) {
	stack := []NodeID{id}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			continue
		}
		children := d.nodes[n].children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}

// ElementsByName returns all elements with the given local name in document order.
func (d *Document) ElementsByName(local string) []NodeID {
	var out []NodeID
	d.Walk(0, func(n NodeID) bool {
		if d.nodes[n].kind == ElementNode && localName(d.nodes[n].name) == local {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Contains reports whether id is ancestor itself or lies below it.
func (d *Document) Contains(ancestor, id NodeID) bool {
	for n := id; n != NoNode; n = d.nodes[n].parent {
		if n == ancestor {
			return true
		}
	}
	return false
}

// NewElement creates a detached element.
func (d *Document) NewElement(qname string, attrs ...Attr) NodeID {
	return d.add(node{
		kind:   ElementNode,
		name:   qname,
		attrs:  slices.Clone(attrs),
		parent: NoNode,
		span:   Span{Start: -1, End: -1},
	})
}

// NewText creates a detached text node. References in s are kept literally.
func (d *Document) NewText(s string) NodeID {
	return d.add(node{
		kind:   TextNode,
		data:   s,
		parent: NoNode,
		span:   Span{Start: -1, End: -1},
	})
}

// AppendChild moves child to the end of parent's children.
func (d *Document) AppendChild(parent, child NodeID) {
	d.detach(child)
	d.appendChild(parent, child)
	d.nodes[parent].dirty = true
}

func (d *Document) appendChild(parent, child NodeID) {
	d.nodes[parent].children = append(d.nodes[parent].children, child)
	d.nodes[child].parent = parent
}

// ReplaceChildAt replaces the i-th child of parent with repl, in order.
// The replaced child is detached; nodes in repl are moved.
func (d *Document) ReplaceChildAt(parent NodeID, i int, repl ...NodeID) {
	old := d.nodes[parent].children[i]
	shifted := false
	for _, r := range repl {
		shifted = shifted || d.nodes[r].parent == parent
		d.detach(r)
	}
	if shifted {
		i = slices.Index(d.nodes[parent].children, old)
	}
	d.nodes[parent].children = slices.Replace(d.nodes[parent].children, i, i+1, repl...)
	d.nodes[parent].dirty = true
	d.nodes[old].parent = NoNode
	for _, r := range repl {
		d.nodes[r].parent = parent
	}
}

// WrapChildAt moves the i-th child of parent into wrapper, which takes its
// place. wrapper must be detached and empty.
func (d *Document) WrapChildAt(parent NodeID, i int, wrapper NodeID) {
	child := d.nodes[parent].children[i]
	d.nodes[parent].children[i] = wrapper
	d.nodes[parent].dirty = true
	d.nodes[wrapper].parent = parent
	d.nodes[wrapper].children = append(d.nodes[wrapper].children, child)
	d.nodes[child].parent = wrapper
}

func (d *Document) detach(id NodeID) {
	p := d.nodes[id].parent
	if p == NoNode {
		return
	}
	if i := slices.Index(d.nodes[p].children, id); i >= 0 {
		d.nodes[p].children = slices.Delete(d.nodes[p].children, i, i+1)
		d.nodes[p].dirty = true
	}
	d.nodes[id].parent = NoNode
}

func localName(qname string) string {
	if i := strings.LastIndexByte(qname, ':'); i >= 0 {
		return qname[i+1:]
	}
	return qname
}
