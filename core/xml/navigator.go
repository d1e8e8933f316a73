package xml

import (
	"fmt"
	"slices"

	"github.com/antchfx/xpath"
)

// XPath evaluates expr against the document and returns the matching nodes
// in document order. An attribute match yields its owning element.
func (d *Document) XPath(expr string) ([]NodeID, error) {
	e, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}

	var result []NodeID
	iter := e.Select(d.navigator(0))
	for iter.MoveNext() {
		nav, ok := iter.Current().(*navigator)
		if !ok {
			continue
		}
		result = append(result, nav.cur)
	}
	return result, nil
}

// XPathFirst returns the first node matching expr, or NoNode.
func (d *Document) XPathFirst(expr string) (NodeID, error) {
	nodes, err := d.XPath(expr)
	if err != nil {
		return NoNode, err
	}
	if len(nodes) == 0 {
		return NoNode, nil
	}
	return nodes[0], nil
}

// navigator implements xpath.NodeNavigator over the arena.
type navigator struct {
	doc  *Document
	cur  NodeID
	attr int // index into the element's attributes, -1 when on the node itself
	pos  int // index of cur among its siblings, -1 when not yet known
}

func (d *Document) navigator(id NodeID) *navigator {
	return &navigator{doc: d, cur: id, attr: -1, pos: -1}
}

func (n *navigator) node() *node {
	return &n.doc.nodes[n.cur]
}

func (n *navigator) NodeType() xpath.NodeType {
	switch n.node().kind {
	case DocumentNode:
		return xpath.RootNode
	case ElementNode:
		if n.attr != -1 {
			return xpath.AttributeNode
		}
		return xpath.ElementNode
	case TextNode, CharDataNode:
		return xpath.TextNode
	default:
		return xpath.CommentNode
	}
}

func (n *navigator) LocalName() string {
	if n.attr != -1 {
		return n.node().attrs[n.attr].Local()
	}
	if n.node().kind == ElementNode {
		return localName(n.node().name)
	}
	return ""
}

func (n *navigator) Prefix() string {
	name := ""
	switch {
	case n.attr != -1:
		name = n.node().attrs[n.attr].Name
	case n.node().kind == ElementNode:
		name = n.node().name
	}
	if local := localName(name); len(local) < len(name) {
		return name[:len(name)-len(local)-1]
	}
	return ""
}

func (n *navigator) Value() string {
	if n.attr != -1 {
		return n.node().attrs[n.attr].Value
	}
	switch n.node().kind {
	case DocumentNode, ElementNode:
		return n.doc.InnerText(n.cur)
	default:
		return n.node().data
	}
}

func (n *navigator) Copy() xpath.NodeNavigator {
	c := *n
	return &c
}

func (n *navigator) MoveToRoot() {
	n.cur, n.attr, n.pos = 0, -1, -1
}

func (n *navigator) MoveToParent() bool {
	if n.attr != -1 {
		n.attr = -1
		return true
	}
	p := n.node().parent
	if p == NoNode {
		return false
	}
	n.cur, n.pos = p, -1
	return true
}

func (n *navigator) MoveToNextAttribute() bool {
	if n.node().kind != ElementNode || n.attr+1 >= len(n.node().attrs) {
		return false
	}
	n.attr++
	return true
}

func (n *navigator) MoveToChild() bool {
	if n.attr != -1 || len(n.node().children) == 0 {
		return false
	}
	n.cur, n.pos = n.node().children[0], 0
	return true
}

func (n *navigator) MoveToFirst() bool {
	siblings, ok := n.siblings()
	if !ok {
		return false
	}
	n.cur, n.pos = siblings[0], 0
	return true
}

func (n *navigator) MoveToNext() bool {
	siblings, ok := n.siblings()
	if !ok || n.pos+1 >= len(siblings) {
		return false
	}
	n.pos++
	n.cur = siblings[n.pos]
	return true
}

func (n *navigator) MoveToPrevious() bool {
	siblings, ok := n.siblings()
	if !ok || n.pos == 0 {
		return false
	}
	n.pos--
	n.cur = siblings[n.pos]
	return true
}

func (n *navigator) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*navigator)
	if !ok || o.doc != n.doc {
		return false
	}
	*n = *o
	return true
}

// siblings returns the child list cur belongs to and makes sure pos is set.
func (n *navigator) siblings() ([]NodeID, bool) {
	if n.attr != -1 {
		return nil, false
	}
	p := n.node().parent
	if p == NoNode {
		return nil, false
	}
	siblings := n.doc.nodes[p].children
	if n.pos < 0 {
		n.pos = slices.Index(siblings, n.cur)
	}
	return siblings, true
}
