// CLAUDE:SUMMARY CSS selector subset (tag, .class, #id, [attr], [attr=val], descendant) for querying live and shadow trees.
package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// QuerySelectorAll returns the descendants of root matching selector, in
// document order. Supported grammar:
//   - tag: "div", "button"
//   - .class (repeatable): ".btn--inline", ".btn.btn--round"
//   - #id: "#recipe"
//   - [attr] and [attr=val]: "[data-goto]", "button[type=submit]"
//   - compounds of the above: "a.preview__link#x[href]"
//   - descendant combinator: ".search .search__field"
func QuerySelectorAll(root *html.Node, selector string) []*html.Node {
	parts := strings.Fields(selector)
	if len(parts) == 0 || root == nil {
		return nil
	}
	chain := make([]compound, len(parts))
	for i, p := range parts {
		chain[i] = parseCompound(p)
	}

	var out []*html.Node
	for _, el := range Elements(root) {
		if matchChain(el, root, chain) {
			out = append(out, el)
		}
	}
	return out
}

// QuerySelector returns the first descendant of root matching selector.
func QuerySelector(root *html.Node, selector string) *html.Node {
	if m := QuerySelectorAll(root, selector); len(m) > 0 {
		return m[0]
	}
	return nil
}

// Closest walks from n up to (and including) stop and returns the first
// element matching selector. A nil stop walks to the document root.
func Closest(n, stop *html.Node, selector string) *html.Node {
	c := parseCompound(strings.TrimSpace(selector))
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && c.matches(n) {
			return n
		}
		if n == stop {
			break
		}
	}
	return nil
}

// Matches reports whether n satisfies a single compound selector.
func Matches(n *html.Node, selector string) bool {
	return n != nil && n.Type == html.ElementNode && parseCompound(strings.TrimSpace(selector)).matches(n)
}

// matchChain checks the last compound against el and the preceding ones
// against its ancestors, stopping at root.
func matchChain(el, root *html.Node, chain []compound) bool {
	last := len(chain) - 1
	if !chain[last].matches(el) {
		return false
	}
	i := last - 1
	for p := el.Parent; i >= 0 && p != nil && p != root; p = p.Parent {
		if p.Type == html.ElementNode && chain[i].matches(p) {
			i--
		}
	}
	return i < 0
}

type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrMatch
}

type attrMatch struct {
	key    string
	val    string
	hasVal bool
}

func parseCompound(sel string) compound {
	var c compound
	for sel != "" {
		if i := strings.IndexByte(sel, '['); i >= 0 {
			j := strings.IndexByte(sel[i:], ']')
			if j < 0 {
				j = len(sel) - i
			}
			body := sel[i+1 : i+j]
			rest := ""
			if i+j+1 < len(sel) {
				rest = sel[i+j+1:]
			}
			sel = sel[:i] + rest
			am := attrMatch{key: body}
			if eq := strings.IndexByte(body, '='); eq >= 0 {
				am = attrMatch{key: body[:eq], val: strings.Trim(body[eq+1:], `"'`), hasVal: true}
			}
			c.attrs = append(c.attrs, am)
			continue
		}
		break
	}

	// Split the remainder on '.' and '#', keeping the marker with each token.
	start := 0
	kind := byte(0)
	flush := func(end int) {
		tok := sel[start:end]
		switch kind {
		case 0:
			c.tag = tok
		case '.':
			if tok != "" {
				c.classes = append(c.classes, tok)
			}
		case '#':
			c.id = tok
		}
	}
	for i := 0; i < len(sel); i++ {
		if sel[i] == '.' || sel[i] == '#' {
			flush(i)
			kind = sel[i]
			start = i + 1
		}
	}
	flush(len(sel))
	return c
}

func (c compound) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if c.tag != "" && c.tag != "*" && n.Data != c.tag {
		return false
	}
	if c.id != "" && Attr(n, "id") != c.id {
		return false
	}
	for _, cl := range c.classes {
		if !HasClass(n, cl) {
			return false
		}
	}
	for _, a := range c.attrs {
		if !HasAttr(n, a.key) {
			return false
		}
		if a.hasVal && Attr(n, a.key) != a.val {
			return false
		}
	}
	return true
}
