package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse parses an HTML fragment as if it were the content of a <body>
// element and returns its top-level nodes.
func Parse(r io.Reader) ([]*Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	out := make([]*Node, 0, len(nodes))
	for _, hn := range nodes {
		if n := fromHTML(hn); n != nil {
			out = append(out, n)
		}
	}
	return out, nil
}

// ParseString is Parse over a string.
func ParseString(s string) ([]*Node, error) {
	return Parse(strings.NewReader(s))
}

// SetInnerHTML replaces n's children with the parsed fragment.
func (n *Node) SetInnerHTML(s string) error {
	nodes, err := ParseString(s)
	if err != nil {
		return err
	}
	n.ReplaceChildren(nodes...)
	return nil
}

func fromHTML(hn *html.Node) *Node {
	switch hn.Type {
	case html.TextNode:
		return NewText(hn.Data)
	case html.ElementNode:
		n := NewElement(hn.Data)
		for _, a := range hn.Attr {
			n.attrs = append(n.attrs, Attr{Name: a.Key, Value: a.Val})
		}
		for c := hn.FirstChild; c != nil; c = c.NextSibling {
			if child := fromHTML(c); child != nil {
				n.AppendChild(child)
			}
		}
		return n
	default:
		// Comments and doctypes carry nothing the scheduler inspects.
		return nil
	}
}

func toHTML(n *Node) *html.Node {
	if n.Type == TextNode {
		return &html.Node{Type: html.TextNode, Data: n.Data}
	}
	hn := &html.Node{Type: html.ElementNode, Data: n.Tag, DataAtom: atom.Lookup([]byte(n.Tag))}
	for _, a := range n.attrs {
		hn.Attr = append(hn.Attr, html.Attribute{Key: a.Name, Val: a.Value})
	}
	for _, c := range n.Children {
		hn.AppendChild(toHTML(c))
	}
	return hn
}

// Render writes n and its subtree as HTML.
func Render(w io.Writer, n *Node) error {
	return html.Render(w, toHTML(n))
}

// OuterHTML returns n rendered as HTML.
func (n *Node) OuterHTML() string {
	var sb strings.Builder
	if err := Render(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}

// InnerHTML returns n's children rendered as HTML.
func (n *Node) InnerHTML() string {
	var sb strings.Builder
	for _, c := range n.Children {
		if err := Render(&sb, c); err != nil {
			return ""
		}
	}
	return sb.String()
}
