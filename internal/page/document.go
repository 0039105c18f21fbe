package page

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// blankPage is the smallest markup that binds. Result regions start hidden.
const blankPage = `<!DOCTYPE html><html><body>
<input type="text" id="searchInput">
<input type="file" id="coinInput">
<div id="image-id-results-container" style="display:none">
<img id="coinPreview" style="display:none">
<div id="ai-prediction-result"></div>
</div>
<div id="results-container" style="display:none">
<p id="loading-message" style="display:none"></p>
<div id="database-results-section" style="display:none"><div id="database-results"></div></div>
<div id="web-results-section" style="display:none"><div id="web-results"></div></div>
</div>
</body></html>`

// Document is an in-memory element tree the controller can drive outside a
// browser.
type Document struct {
	root *html.Node
}

// NewDocument returns a document holding every required element.
func NewDocument() *Document {
	d, err := ParseDocument(strings.NewReader(blankPage))
	if err != nil {
		panic(err)
	}
	return d
}

// ParseDocument parses HTML into a Document.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{root: root}, nil
}

// Lookup implements the Lookup signature for Bind.
func (d *Document) Lookup(id string) (Element, bool) {
	if n := d.Node(id); n != nil {
		return n, true
	}
	return nil, false
}

// Node returns the element with the given ID, or nil.
func (d *Document) Node(id string) *Node {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}
	return &Node{n: found}
}

// Node is one element of a Document.
type Node struct {
	n *html.Node
}

func (n *Node) ID() string { return attr(n.n, "id") }

func (n *Node) Show() { n.setDisplay("block") }

func (n *Node) Hide() { n.setDisplay("none") }

// Visible reports whether the element's own style hides it.
func (n *Node) Visible() bool {
	return display(attr(n.n, "style")) != "none"
}

func (n *Node) SetHTML(markup string) {
	removeChildren(n.n)
	if markup == "" {
		return
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), n.n)
	if err != nil {
		n.n.AppendChild(&html.Node{Type: html.TextNode, Data: markup})
		return
	}
	for _, c := range nodes {
		n.n.AppendChild(c)
	}
}

func (n *Node) SetText(text string) {
	removeChildren(n.n)
	if text != "" {
		n.n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

func (n *Node) SetSrc(src string) { setAttr(n.n, "src", src) }

func (n *Node) Prepend(child Element) {
	c, ok := child.(*Node)
	if !ok || c.n == n.n {
		return
	}
	if c.n.Parent != nil {
		c.n.Parent.RemoveChild(c.n)
	}
	n.n.InsertBefore(c.n, n.n.FirstChild)
}

func (n *Node) Value() string { return attr(n.n, "value") }

// SetValue sets the element's value attribute, as typing into an input would.
func (n *Node) SetValue(v string) { setAttr(n.n, "value", v) }

// Tag returns the element name, such as "div".
func (n *Node) Tag() string { return n.n.Data }

// Attr returns an attribute value, or "".
func (n *Node) Attr(key string) string { return attr(n.n, key) }

// Parent returns the enclosing element, or nil.
func (n *Node) Parent() *Node {
	if p := n.n.Parent; p != nil && p.Type == html.ElementNode {
		return &Node{n: p}
	}
	return nil
}

// Children returns the element children in order.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, &Node{n: c})
		}
	}
	return out
}

// ByClass returns descendant elements carrying the class, in document order.
func (n *Node) ByClass(class string) []*Node {
	var out []*Node
	walk(n.n, func(c *html.Node) bool {
		if c != n.n && c.Type == html.ElementNode && hasClass(c, class) {
			out = append(out, &Node{n: c})
		}
		return true
	})
	return out
}

// Text returns the concatenated text content.
func (n *Node) Text() string {
	var b strings.Builder
	walk(n.n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

// HTML renders the element's children.
func (n *Node) HTML() string {
	var buf bytes.Buffer
	for c := n.n.FirstChild; c != nil; c = c.NextSibling {
		html.Render(&buf, c)
	}
	return buf.String()
}

func (n *Node) setDisplay(value string) {
	decls := []string{"display:" + value}
	for _, d := range strings.Split(attr(n.n, "style"), ";") {
		key, _, _ := strings.Cut(d, ":")
		if strings.TrimSpace(d) == "" || strings.EqualFold(strings.TrimSpace(key), "display") {
			continue
		}
		decls = append(decls, strings.TrimSpace(d))
	}
	setAttr(n.n, "style", strings.Join(decls, "; "))
}

func display(style string) string {
	for _, d := range strings.Split(style, ";") {
		key, val, ok := strings.Cut(d, ":")
		if ok && strings.EqualFold(strings.TrimSpace(key), "display") {
			return strings.ToLower(strings.TrimSpace(val))
		}
	}
	return ""
}

// walk visits n and its descendants depth-first until visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

func removeChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// HTML renders the whole document.
func (d *Document) HTML() string {
	var buf bytes.Buffer
	html.Render(&buf, d.root)
	return buf.String()
}
