// CLAUDE:SUMMARY Node helpers over x/net/html trees — pre-order element walk, text content, attributes, DOM node equality.
package dom

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Elements returns every element below root in document order (depth-first,
// pre-order). The root itself is not included, matching querySelectorAll("*").
func Elements(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				out = append(out, c)
			}
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// TextContent concatenates the data of all descendant text nodes.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				b.WriteString(c.Data)
			case html.ElementNode:
				walk(c)
			}
		}
	}
	walk(n)
	return b.String()
}

// SetTextContent drops every child of n and, when s is non-empty, leaves a
// single text node holding s.
func SetTextContent(n *html.Node, s string) {
	removeChildren(n)
	if s != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
	}
}

// Attr returns the value of attribute key, or "" when absent.
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether n carries attribute key.
func HasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}

// SetAttr adds attribute a to n or overwrites the existing value.
// It reports whether the value changed.
func SetAttr(n *html.Node, a html.Attribute) bool {
	for i := range n.Attr {
		if n.Attr[i].Namespace == a.Namespace && n.Attr[i].Key == a.Key {
			if n.Attr[i].Val == a.Val {
				return false
			}
			n.Attr[i].Val = a.Val
			return true
		}
	}
	n.Attr = append(n.Attr, a)
	return true
}

// HasClass reports whether the class attribute of n lists class.
func HasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// ToggleClass flips class on n and returns the new class attribute value.
func ToggleClass(n *html.Node, class string) string {
	fields := strings.Fields(Attr(n, "class"))
	kept := fields[:0]
	found := false
	for _, c := range fields {
		if c == class {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		kept = append(kept, class)
	}
	v := strings.Join(kept, " ")
	SetAttr(n, html.Attribute{Key: "class", Val: v})
	return v
}

// IsEqualNode implements DOM node equality: same type, same name and
// namespace, same attribute set regardless of order, same data for
// character nodes, and pairwise equal children.
func IsEqualNode(a, b *html.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case html.ElementNode:
		if a.Data != b.Data || a.Namespace != b.Namespace {
			return false
		}
		if !sameAttrs(a.Attr, b.Attr) {
			return false
		}
	case html.TextNode, html.CommentNode:
		if a.Data != b.Data {
			return false
		}
	case html.DoctypeNode:
		if a.Data != b.Data {
			return false
		}
	}
	ca, cb := a.FirstChild, b.FirstChild
	for ca != nil && cb != nil {
		if !IsEqualNode(ca, cb) {
			return false
		}
		ca, cb = ca.NextSibling, cb.NextSibling
	}
	return ca == nil && cb == nil
}

func sameAttrs(a, b []html.Attribute) bool {
	if len(a) != len(b) {
		return false
	}
outer:
	for _, x := range a {
		for _, y := range b {
			if x.Namespace == y.Namespace && x.Key == y.Key {
				if x.Val != y.Val {
					return false
				}
				continue outer
			}
		}
		return false
	}
	return true
}

// InnerHTML serialises the children of n.
func InnerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		html.Render(&buf, c)
	}
	return buf.String()
}

// OuterHTML serialises n itself.
func OuterHTML(n *html.Node) string {
	var buf bytes.Buffer
	html.Render(&buf, n)
	return buf.String()
}

// ParseFragment parses markup as the content of an element shaped like
// context and returns an unattached root holding the parsed nodes. The
// returned tree shares nothing with context.
func ParseFragment(context *html.Node, markup string) (*html.Node, error) {
	shell := &html.Node{
		Type:      html.ElementNode,
		Data:      context.Data,
		DataAtom:  context.DataAtom,
		Namespace: context.Namespace,
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), shell)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		shell.AppendChild(n)
	}
	return shell, nil
}

func removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}
