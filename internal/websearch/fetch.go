package websearch

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// maxPageBytes bounds how much of a result page is read.
const maxPageBytes = 4 << 20

// strippedElements never contribute page text.
var strippedElements = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
	atom.Header: true,
	atom.Footer: true,
	atom.Nav:    true,
	atom.Aside:  true,
	atom.Form:   true,
	atom.Button: true,
}

// contentSelectors locate the main article, most specific first.
// A leading "." matches a class, "#" an id, anything else a tag name.
var contentSelectors = []string{
	"article", "main", ".post-content", ".entry-content", "#content", "#main", ".td-post-content",
}

// HTTPFetcher downloads result pages with browser-like headers and waits
// Delay after each page.
type HTTPFetcher struct {
	client  *http.Client
	delay   time.Duration
	headers *headerPicker
}

// NewHTTPFetcher creates a fetcher with the given per-page timeout and
// politeness delay. rng may be nil.
func NewHTTPFetcher(timeout, delay time.Duration, rng *rand.Rand) *HTTPFetcher {
	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout},
		delay:   delay,
		headers: newHeaderPicker(rng),
	}
}

// Fetch downloads url and extracts its title and main text.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, fmt.Errorf("creating request: %w", err)
	}
	f.headers.apply(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Page{}, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	page, err := ExtractPage(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return Page{}, fmt.Errorf("parsing %s: %w", url, err)
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}
	return page, nil
}

// ExtractPage parses an HTML document and returns its cleaned title and
// the text of its main content region.
func ExtractPage(r io.Reader) (Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Page{}, err
	}

	var page Page
	if t := findFirst(doc, func(n *html.Node) bool { return n.DataAtom == atom.Title }); t != nil {
		page.Title = CleanText(textOf(t))
	}

	strip(doc)

	var content *html.Node
	for _, sel := range contentSelectors {
		if content = findFirst(doc, selectorMatcher(sel)); content != nil {
			break
		}
	}
	if content == nil {
		content = findFirst(doc, func(n *html.Node) bool { return n.DataAtom == atom.Body })
	}
	if content != nil {
		page.Text = strings.Join(strippedStrings(content), " ")
	}
	return page, nil
}

// strip removes comments and strippedElements from the tree.
func strip(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode || (c.Type == html.ElementNode && strippedElements[c.DataAtom]) {
			n.RemoveChild(c)
		} else {
			strip(c)
		}
		c = next
	}
}

func selectorMatcher(sel string) func(*html.Node) bool {
	switch {
	case strings.HasPrefix(sel, "."):
		class := sel[1:]
		return func(n *html.Node) bool {
			return n.Type == html.ElementNode && hasClass(n, class)
		}
	case strings.HasPrefix(sel, "#"):
		id := sel[1:]
		return func(n *html.Node) bool {
			return n.Type == html.ElementNode && attr(n, "id") == id
		}
	default:
		return func(n *html.Node) bool {
			return n.Type == html.ElementNode && n.Data == sel
		}
	}
}

// findFirst returns the first node in document order that satisfies match.
func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

// strippedStrings returns every non-blank text node under n, cleaned.
func strippedStrings(n *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := CleanText(n.Data); s != "" {
				out = append(out, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
