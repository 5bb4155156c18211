// CLAUDE:SUMMARY Parsed page document — resolves mount points by selector for explicit injection into views.
package dom

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a full page tree. It is the only place selectors are resolved
// against the whole page; views receive the resulting mounts.
type Document struct {
	root *html.Node
}

// ParseDocument parses a complete HTML page.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse document: %w", err)
	}
	return &Document{root: root}, nil
}

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

// Mount resolves selector to a mount point.
func (d *Document) Mount(selector string) (*Mount, error) {
	el := QuerySelector(d.root, selector)
	if el == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoElement, selector)
	}
	return NewMount(selector, el), nil
}

// Body returns the body element, or nil for a fragment-only tree.
func (d *Document) Body() *html.Node {
	for _, el := range Elements(d.root) {
		if el.DataAtom == atom.Body {
			return el
		}
	}
	return nil
}

// Render serialises the whole document.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}
