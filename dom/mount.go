// CLAUDE:SUMMARY Mount point — a container element exclusively owned by one view, with clear/insert/innerHTML primitives.
package dom

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoElement is returned when a selector or index does not resolve.
var ErrNoElement = errors.New("dom: no such element")

// Mount is the container element a view renders into. The selector is the
// address clients use to find the same element in the browser.
type Mount struct {
	selector string
	el       *html.Node
}

// NewMount binds selector to el. el must be an element node.
func NewMount(selector string, el *html.Node) *Mount {
	return &Mount{selector: selector, el: el}
}

// NewElement creates an unattached element with a consistent DataAtom.
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// Selector returns the client-side address of the mount.
func (m *Mount) Selector() string { return m.selector }

// Node returns the mount element.
func (m *Mount) Node() *html.Node { return m.el }

// Clear removes all children of the mount element.
func (m *Mount) Clear() { removeChildren(m.el) }

// InsertHTML parses markup in the context of the mount element and inserts
// the nodes before its first child (insertAdjacentHTML "afterbegin").
func (m *Mount) InsertHTML(markup string) error {
	frag, err := ParseFragment(m.el, markup)
	if err != nil {
		return fmt.Errorf("dom: parse markup for %s: %w", m.selector, err)
	}
	first := m.el.FirstChild
	for c := frag.FirstChild; c != nil; {
		next := c.NextSibling
		frag.RemoveChild(c)
		m.el.InsertBefore(c, first)
		c = next
	}
	return nil
}

// Replace clears the mount and inserts markup as its sole content.
func (m *Mount) Replace(markup string) error {
	m.Clear()
	return m.InsertHTML(markup)
}

// InnerHTML serialises the current content of the mount.
func (m *Mount) InnerHTML() string { return InnerHTML(m.el) }

// Elements lists the elements under the mount in pre-order.
func (m *Mount) Elements() []*html.Node { return Elements(m.el) }

// Empty reports whether the mount holds nothing but whitespace.
func (m *Mount) Empty() bool {
	for c := m.el.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		if c.Type == html.CommentNode {
			continue
		}
		return false
	}
	return true
}

// Element resolves a record index: -1 is the mount element, anything else
// is a position in Elements.
func (m *Mount) Element(i int) (*html.Node, error) {
	if i == -1 {
		return m.el, nil
	}
	els := m.Elements()
	if i < 0 || i >= len(els) {
		return nil, fmt.Errorf("%w: %s[%d] of %d", ErrNoElement, m.selector, i, len(els))
	}
	return els[i], nil
}

// QuerySelector finds the first descendant of the mount matching selector.
func (m *Mount) QuerySelector(selector string) *html.Node {
	return QuerySelector(m.el, selector)
}

// IndexOf returns the pre-order index of n within the mount, -1 for the
// mount element itself, or -2 when n is not inside the mount.
func (m *Mount) IndexOf(n *html.Node) int {
	if n == m.el {
		return -1
	}
	for i, el := range m.Elements() {
		if el == n {
			return i
		}
	}
	return -2
}
