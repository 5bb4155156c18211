package live

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"

	"github.com/hazyhaar/larder/dom"
	"github.com/hazyhaar/larder/event"
)

//go:embed static
var staticFS embed.FS

// Static is the client asset tree served under /static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

const bootSelector = "#larder-boot"

// boot is the data the client needs before its first event.
type boot struct {
	Session  string          `json:"session"`
	Seq      uint64          `json:"seq"`
	Bindings []event.Binding `json:"bindings"`
}

func parsePage() (*dom.Document, error) {
	raw, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		return nil, fmt.Errorf("live: read page: %w", err)
	}
	return dom.ParseDocument(bytes.NewReader(raw))
}

// writeBoot replaces the boot script content of doc with b.
func writeBoot(doc *dom.Document, b boot) error {
	el := dom.QuerySelector(doc.Root(), bootSelector)
	if el == nil {
		return fmt.Errorf("%w: %s", dom.ErrNoElement, bootSelector)
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("live: encode boot: %w", err)
	}
	dom.SetTextContent(el, string(data))
	return nil
}
