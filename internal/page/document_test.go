package page

import (
	"errors"
	"strings"
	"testing"
)

func TestBindBlankPage(t *testing.T) {
	doc := NewDocument()
	els, err := Bind(doc.Lookup)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if els.WebResults.ID() != IDWebResults {
		t.Errorf("WebResults bound to %q", els.WebResults.ID())
	}
	for _, el := range []Element{els.TextRegion, els.ImageRegion, els.Loading, els.DatabaseSection, els.WebSection} {
		if el.Visible() {
			t.Errorf("%s should start hidden", el.ID())
		}
	}
}

func TestBindMissingElements(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader(`<html><body><input id="searchInput"><div id="web-results"></div></body></html>`))
	if err != nil {
		t.Fatal(err)
	}
	_, err = Bind(doc.Lookup)

	var missing *MissingElementError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingElementError, got %v", err)
	}
	if len(missing.IDs) != 9 {
		t.Errorf("missing %d elements, want 9: %v", len(missing.IDs), missing.IDs)
	}
	for _, id := range missing.IDs {
		if id == IDSearchInput || id == IDWebResults {
			t.Errorf("%s reported missing but present", id)
		}
	}
}

func TestNodeVisibility(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader(`<div id="a" style="color: red; display: none"></div><div id="b"></div>`))
	if err != nil {
		t.Fatal(err)
	}
	a, b := doc.Node("a"), doc.Node("b")

	if a.Visible() {
		t.Error("a should be hidden")
	}
	if !b.Visible() {
		t.Error("b has no style and should be visible")
	}

	a.Show()
	if !a.Visible() {
		t.Error("a should be visible after Show")
	}
	if got := a.Attr("style"); got != "display:block; color: red" {
		t.Errorf("style = %q", got)
	}
	b.Hide()
	if b.Visible() {
		t.Error("b should be hidden after Hide")
	}
}

func TestNodeContent(t *testing.T) {
	doc := NewDocument()
	web := doc.Node(IDWebResults)

	web.SetHTML(`<div class="result-card">one</div><div class="result-card">two</div>`)
	if n := len(web.ByClass("result-card")); n != 2 {
		t.Fatalf("cards = %d, want 2", n)
	}
	web.SetHTML(`<div class="result-card">three</div>`)
	if got := web.Text(); got != "three" {
		t.Errorf("Text() = %q after replace", got)
	}
	web.SetHTML("")
	if len(web.Children()) != 0 {
		t.Error("SetHTML(\"\") should clear children")
	}

	web.SetText("<b>not markup</b>")
	if len(web.Children()) != 0 || web.Text() != "<b>not markup</b>" {
		t.Errorf("SetText should add a text node, got %q", web.HTML())
	}
}

func TestNodePrependMoves(t *testing.T) {
	doc := NewDocument()
	loading := doc.Node(IDLoading)
	region := doc.Node(IDImageRegion)

	region.Prepend(loading)

	if p := loading.Parent(); p == nil || p.ID() != IDImageRegion {
		t.Fatalf("loading parent = %v", p)
	}
	if first := region.Children()[0]; first.ID() != IDLoading {
		t.Errorf("first child = %q", first.ID())
	}
	for _, c := range doc.Node(IDResultsContainer).Children() {
		if c.ID() == IDLoading {
			t.Error("loading message still inside the text region")
		}
	}
}

func TestNodeInputValue(t *testing.T) {
	doc := NewDocument()
	in := doc.Node(IDSearchInput)
	in.SetValue("Kanishka")
	if in.Value() != "Kanishka" {
		t.Errorf("Value() = %q", in.Value())
	}

	el, ok := doc.Lookup("nope")
	if ok || el != nil {
		t.Error("Lookup of unknown ID should fail with a nil Element")
	}
}
