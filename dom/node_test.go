package dom

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func fragment(t *testing.T, markup string) *html.Node {
	t.Helper()
	frag, err := ParseFragment(NewElement("div"), markup)
	if err != nil {
		t.Fatal(err)
	}
	return frag
}

func TestElements_PreOrder(t *testing.T) {
	root := fragment(t, `<ul><li><a>1</a></li><li><a>2</a></li></ul><p></p>`)
	var tags []string
	for _, el := range Elements(root) {
		tags = append(tags, el.Data)
	}
	if got := strings.Join(tags, ","); got != "ul,li,a,li,a,p" {
		t.Fatalf("order: got %q", got)
	}
}

func TestTextContent(t *testing.T) {
	root := fragment(t, `<p>Hello <b>big</b> world<!-- c --></p>`)
	if got := TextContent(root.FirstChild); got != "Hello big world" {
		t.Fatalf("TextContent: got %q", got)
	}
	SetTextContent(root.FirstChild, "x")
	if got := InnerHTML(root); got != "<p>x</p>" {
		t.Fatalf("after set: got %q", got)
	}
	SetTextContent(root.FirstChild, "")
	if root.FirstChild.FirstChild != nil {
		t.Fatal("empty text should leave no children")
	}
}

func TestIsEqualNode(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{`<p class="a" id="x">t</p>`, `<p id="x" class="a">t</p>`, true},
		{`<p class="a">t</p>`, `<p class="b">t</p>`, false},
		{`<p class="a">t</p>`, `<p class="a" hidden>t</p>`, false},
		{`<p>t</p>`, `<p>u</p>`, false},
		{`<p><b>t</b></p>`, `<p><i>t</i></p>`, false},
		{`<p>t<b></b></p>`, `<p>t</p>`, false},
		{`<p><!--a--></p>`, `<p><!--b--></p>`, false},
	}
	for _, tt := range tests {
		a := fragment(t, tt.a).FirstChild
		b := fragment(t, tt.b).FirstChild
		if got := IsEqualNode(a, b); got != tt.want {
			t.Errorf("IsEqualNode(%s, %s): got %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSetAttr(t *testing.T) {
	el := NewElement("a", html.Attribute{Key: "href", Val: "#1"})
	if SetAttr(el, html.Attribute{Key: "href", Val: "#1"}) {
		t.Error("same value reported as change")
	}
	if !SetAttr(el, html.Attribute{Key: "href", Val: "#2"}) {
		t.Error("overwrite not reported")
	}
	if !SetAttr(el, html.Attribute{Key: "class", Val: "x"}) {
		t.Error("add not reported")
	}
	if Attr(el, "href") != "#2" || Attr(el, "class") != "x" {
		t.Errorf("attrs: got %v", el.Attr)
	}
}

func TestToggleClass(t *testing.T) {
	el := NewElement("div", html.Attribute{Key: "class", Val: "overlay hidden"})
	if got := ToggleClass(el, "hidden"); got != "overlay" {
		t.Errorf("remove: got %q", got)
	}
	if got := ToggleClass(el, "hidden"); got != "overlay hidden" {
		t.Errorf("add: got %q", got)
	}
}

func TestParseFragment_ListContext(t *testing.T) {
	frag, err := ParseFragment(NewElement("ul"), `<li class="preview">a</li><li class="preview">b</li>`)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(QuerySelectorAll(frag, "li.preview")); got != 2 {
		t.Fatalf("li count: got %d, want 2", got)
	}
}
