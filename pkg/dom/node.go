// Package dom is a small element tree with DOM-style event dispatch.
//
// Nodes implement [host.Element], so a parsed server rendering can be handed
// directly to a scheduler. Markup is parsed and rendered with
// golang.org/x/net/html.
package dom

import (
	"slices"
	"strings"
	"sync"

	"github.com/go-drift/ondemand/pkg/host"
)

// NodeType distinguishes elements from text.
type NodeType int

const (
	ElementNode NodeType = iota
	TextNode
)

// Attr is a name/value attribute pair.
type Attr struct {
	Name  string
	Value string
}

// Node is an element or text node.
type Node struct {
	Type NodeType
	// Tag is the lower-case tag name of an element.
	Tag string
	// Data is the content of a text node.
	Data string

	Parent   *Node
	Children []*Node

	attrs []Attr

	mu        sync.Mutex
	nextID    int
	listeners []*listener
}

type listener struct {
	id        int
	eventType string
	fn        func(host.Event)
	opts      host.ListenerOptions
}

// NewElement creates an element node.
func NewElement(tag string, attrs ...Attr) *Node {
	return &Node{Type: ElementNode, Tag: strings.ToLower(tag), attrs: slices.Clone(attrs)}
}

// NewText creates a text node.
func NewText(data string) *Node {
	return &Node{Type: TextNode, Data: data}
}

// Attribute implements host.Element.
func (n *Node) Attribute(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Attrs returns a copy of the node's attributes in document order.
func (n *Node) Attrs() []Attr {
	return slices.Clone(n.attrs)
}

// SetAttribute sets or replaces an attribute.
func (n *Node) SetAttribute(name, value string) {
	for i, a := range n.attrs {
		if a.Name == name {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, Attr{Name: name, Value: value})
}

// RemoveAttribute deletes an attribute if present.
func (n *Node) RemoveAttribute(name string) {
	n.attrs = slices.DeleteFunc(n.attrs, func(a Attr) bool { return a.Name == name })
}

// AppendChild adds c as the last child of n, detaching it from any
// previous parent.
func (n *Node) AppendChild(c *Node) {
	if c.Parent != nil {
		c.Parent.RemoveChild(c)
	}
	c.Parent = n
	n.Children = append(n.Children, c)
}

// RemoveChild detaches c from n.
func (n *Node) RemoveChild(c *Node) {
	i := slices.Index(n.Children, c)
	if i < 0 {
		return
	}
	n.Children = slices.Delete(n.Children, i, i+1)
	c.Parent = nil
}

// ReplaceChildren removes every child of n and appends cs.
func (n *Node) ReplaceChildren(cs ...*Node) {
	for _, c := range n.Children {
		c.Parent = nil
	}
	n.Children = nil
	for _, c := range cs {
		n.AppendChild(c)
	}
}

// TextContent returns the concatenated text of n and its descendants.
func (n *Node) TextContent() string {
	if n.Type == TextNode {
		return n.Data
	}
	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(c.TextContent())
	}
	return sb.String()
}

// Find returns the first node in n's subtree, n included, matching pred.
func (n *Node) Find(pred func(*Node) bool) *Node {
	if pred(n) {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(pred); found != nil {
			return found
		}
	}
	return nil
}

// FindText returns the deepest element whose text content contains s.
func (n *Node) FindText(s string) *Node {
	if n.Type != ElementNode || !strings.Contains(n.TextContent(), s) {
		return nil
	}
	for _, c := range n.Children {
		if found := c.FindText(s); found != nil {
			return found
		}
	}
	return n
}

// ByAttr matches elements carrying the named attribute.
func ByAttr(name string) func(*Node) bool {
	return func(n *Node) bool {
		if n.Type != ElementNode {
			return false
		}
		_, ok := n.Attribute(name)
		return ok
	}
}

// ByTag matches elements with the given tag.
func ByTag(tag string) func(*Node) bool {
	tag = strings.ToLower(tag)
	return func(n *Node) bool { return n.Type == ElementNode && n.Tag == tag }
}
