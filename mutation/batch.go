// Package mutation defines the records emitted when a mount point is
// rendered or reconciled. A thin browser client replays them on the real DOM;
// in-process consumers (tests, the stdout trace) read them directly.
package mutation

// Op is the type of DOM mutation applied.
type Op string

const (
	OpReplace  Op = "replace"  // mount content cleared, HTML inserted at the start
	OpText     Op = "text"     // textContent of the element overwritten
	OpAttr     Op = "attr"     // attribute added or overwritten
	OpValue    Op = "value"    // form control value set
	OpLocation Op = "location" // location hash pushed (history.pushState)
)

// RootIndex addresses the mount element itself rather than a descendant.
const RootIndex = -1

// Record is a single applied mutation. Index is the position of the target
// element in the pre-order element list of the mount, taken before the
// batch was applied.
type Record struct {
	Op    Op     `json:"op"`
	Index int    `json:"index"`
	Name  string `json:"name,omitempty"`  // attribute name for attr
	Value string `json:"value,omitempty"` // text, attribute value, control value or hash
	HTML  string `json:"html,omitempty"`  // new content for replace
}

// Batch groups the records produced by one view operation on one mount.
type Batch struct {
	ID        string   `json:"id"`      // UUIDv7
	Session   string   `json:"session"` // owning session
	Mount     string   `json:"mount"`   // selector of the mount element
	Seq       uint64   `json:"seq"`     // monotonically increasing per session
	Records   []Record `json:"records"`
	Timestamp int64    `json:"timestamp"` // epoch milliseconds
}
