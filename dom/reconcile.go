// CLAUDE:SUMMARY Reconciliation engine — full render and index-paired incremental patch of text/attributes on a mount.
package dom

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/larder/mutation"
)

// ErrStructureMismatch is returned by Update under MismatchReject when the
// new markup does not enumerate the same elements as the mount.
var ErrStructureMismatch = errors.New("dom: structure mismatch")

// MismatchPolicy decides what Update does when positional pairing is not
// sound: element counts differ, or the tag at some index differs.
type MismatchPolicy int

const (
	// MismatchReplace falls back to a full render of the new markup.
	MismatchReplace MismatchPolicy = iota
	// MismatchTruncate pairs elements up to the shorter sequence and leaves
	// the rest untouched.
	MismatchTruncate
	// MismatchReject returns ErrStructureMismatch and mutates nothing.
	MismatchReject
)

func (p MismatchPolicy) String() string {
	switch p {
	case MismatchReplace:
		return "replace"
	case MismatchTruncate:
		return "truncate"
	case MismatchReject:
		return "reject"
	}
	return fmt.Sprintf("MismatchPolicy(%d)", int(p))
}

// ParseMismatchPolicy maps a config value to a policy. "" is MismatchReplace.
func ParseMismatchPolicy(s string) (MismatchPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "replace":
		return MismatchReplace, nil
	case "truncate":
		return MismatchTruncate, nil
	case "reject":
		return MismatchReject, nil
	}
	return 0, fmt.Errorf("dom: unknown mismatch policy %q", s)
}

// Patch describes what a render or update did to a mount.
type Patch struct {
	Records  []mutation.Record
	Replaced bool // content was replaced wholesale
	Paired   int  // element pairs visited
	Patched  int  // pairs that were not node-equal
}

// Reconciler applies markup to mounts.
type Reconciler struct {
	policy MismatchPolicy
	logger *slog.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithMismatchPolicy sets the length/shape mismatch policy. Default: MismatchReplace.
func WithMismatchPolicy(p MismatchPolicy) Option {
	return func(r *Reconciler) { r.policy = p }
}

// WithLogger sets the logger used for mismatch warnings.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// NewReconciler creates a Reconciler.
func NewReconciler(opts ...Option) *Reconciler {
	r := &Reconciler{policy: MismatchReplace, logger: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Policy returns the configured mismatch policy.
func (r *Reconciler) Policy() MismatchPolicy { return r.policy }

// Render clears the mount and inserts markup as its sole content. Any
// transient state held by the previous nodes is lost.
func (r *Reconciler) Render(m *Mount, markup string) (*Patch, error) {
	if err := m.Replace(markup); err != nil {
		return nil, err
	}
	return &Patch{
		Records:  []mutation.Record{{Op: mutation.OpReplace, Index: mutation.RootIndex, HTML: markup}},
		Replaced: true,
	}, nil
}

// Update patches the mount in place so that it matches markup, touching only
// the text and attributes of elements that differ.
//
// The markup is parsed into an unattached shadow fragment. Elements of the
// fragment and of the mount are enumerated in pre-order and paired by index.
// For each pair that is not node-equal, the live element's text content is
// overwritten when the new element starts with a non-blank text node, and
// every attribute of the new element is copied over. Attributes present only
// on the live element are kept.
//
// The mount must already hold rendered content.
func (r *Reconciler) Update(m *Mount, markup string) (*Patch, error) {
	shadow, err := ParseFragment(m.Node(), markup)
	if err != nil {
		return nil, fmt.Errorf("dom: parse markup for %s: %w", m.Selector(), err)
	}
	newEls := Elements(shadow)
	curEls := m.Elements()

	n, sound := pairable(newEls, curEls)
	if !sound {
		r.logger.Warn("dom: structure mismatch",
			"mount", m.Selector(),
			"new", len(newEls),
			"current", len(curEls),
			"policy", r.policy.String())
		switch r.policy {
		case MismatchReject:
			return nil, fmt.Errorf("%w: %s holds %d elements, markup has %d",
				ErrStructureMismatch, m.Selector(), len(curEls), len(newEls))
		case MismatchReplace:
			return r.Render(m, markup)
		}
	}

	p := &Patch{Paired: n}
	for i := 0; i < n; i++ {
		newEl, curEl := newEls[i], curEls[i]
		if IsEqualNode(newEl, curEl) {
			continue
		}
		p.Patched++

		if hasLeadingText(newEl) {
			text := TextContent(newEl)
			SetTextContent(curEl, text)
			p.Records = append(p.Records, mutation.Record{Op: mutation.OpText, Index: i, Value: text})
		}

		for _, a := range newEl.Attr {
			if SetAttr(curEl, a) {
				p.Records = append(p.Records, mutation.Record{Op: mutation.OpAttr, Index: i, Name: attrName(a), Value: a.Val})
			}
		}
	}
	return p, nil
}

// pairable returns how many positions can be paired and whether pairing by
// position is sound: same length and same tag at every index.
func pairable(newEls, curEls []*html.Node) (int, bool) {
	n := min(len(newEls), len(curEls))
	sound := len(newEls) == len(curEls)
	for i := 0; sound && i < n; i++ {
		if newEls[i].Data != curEls[i].Data || newEls[i].Namespace != curEls[i].Namespace {
			sound = false
		}
	}
	return n, sound
}

// hasLeadingText reports whether the first child of n is a text node with
// something other than whitespace. Elements without such a child are
// structural and keep their children.
func hasLeadingText(n *html.Node) bool {
	fc := n.FirstChild
	return fc != nil && fc.Type == html.TextNode && strings.TrimSpace(fc.Data) != ""
}

func attrName(a html.Attribute) string {
	if a.Namespace != "" {
		return a.Namespace + ":" + a.Key
	}
	return a.Key
}
