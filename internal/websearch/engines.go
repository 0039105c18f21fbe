package websearch

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Default engine endpoints.
const (
	GoogleBaseURL     = "https://www.google.com"
	DuckDuckGoBaseURL = "https://html.duckduckgo.com"
)

// engineClient is the HTTP plumbing shared by the engines.
type engineClient struct {
	baseURL string
	client  *http.Client
	headers *headerPicker
}

func newEngineClient(baseURL string, timeout time.Duration, rng *rand.Rand) engineClient {
	return engineClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		headers: newHeaderPicker(rng),
	}
}

func (c engineClient) get(ctx context.Context, path string, params url.Values) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.headers.apply(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return html.Parse(io.LimitReader(resp.Body, maxPageBytes))
}

// GoogleEngine scrapes result links from a Google results page. It does
// not return titles or snippets.
type GoogleEngine struct {
	engineClient
}

// NewGoogleEngine creates a Google engine. An empty baseURL uses GoogleBaseURL.
func NewGoogleEngine(baseURL string, timeout time.Duration, rng *rand.Rand) *GoogleEngine {
	if baseURL == "" {
		baseURL = GoogleBaseURL
	}
	return &GoogleEngine{newEngineClient(baseURL, timeout, rng)}
}

func (e *GoogleEngine) Name() string { return "Google" }

func (e *GoogleEngine) Search(ctx context.Context, query string, max int) ([]Result, error) {
	doc, err := e.get(ctx, "/search", url.Values{
		"q":   {query},
		"num": {strconv.Itoa(max + 2)},
		"hl":  {"en"},
	})
	if err != nil {
		return nil, fmt.Errorf("google search: %w", err)
	}

	var results []Result
	seen := map[string]bool{}
	walkElements(doc, func(n *html.Node) bool {
		if len(results) >= max {
			return false
		}
		if n.DataAtom != atom.A {
			return true
		}
		link := googleResultLink(attr(n, "href"))
		if link == "" || seen[link] {
			return true
		}
		seen[link] = true
		results = append(results, Result{Link: link, Engine: e.Name()})
		return true
	})
	return results, nil
}

// googleResultLink returns the target of a result anchor, or "" for
// Google's own navigation links.
func googleResultLink(href string) string {
	if strings.HasPrefix(href, "/url?") {
		u, err := url.Parse(href)
		if err != nil {
			return ""
		}
		href = u.Query().Get("q")
		if href == "" {
			href = u.Query().Get("url")
		}
	}
	u, err := url.Parse(href)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if strings.HasPrefix(host, "google.") || strings.Contains(host, ".google.") ||
		strings.HasSuffix(host, "googleusercontent.com") {
		return ""
	}
	return u.String()
}

// DuckDuckGoEngine scrapes the DuckDuckGo HTML endpoint, which returns
// titles and snippets alongside links.
type DuckDuckGoEngine struct {
	engineClient
}

// NewDuckDuckGoEngine creates a DuckDuckGo engine. An empty baseURL uses
// DuckDuckGoBaseURL.
func NewDuckDuckGoEngine(baseURL string, timeout time.Duration, rng *rand.Rand) *DuckDuckGoEngine {
	if baseURL == "" {
		baseURL = DuckDuckGoBaseURL
	}
	return &DuckDuckGoEngine{newEngineClient(baseURL, timeout, rng)}
}

func (e *DuckDuckGoEngine) Name() string { return "DuckDuckGo" }

func (e *DuckDuckGoEngine) Search(ctx context.Context, query string, max int) ([]Result, error) {
	doc, err := e.get(ctx, "/html/", url.Values{"q": {query}})
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search: %w", err)
	}

	var (
		results []Result
		current *Result
	)
	flush := func() {
		if current != nil && current.Link != "" {
			results = append(results, *current)
		}
		current = nil
	}

	walkElements(doc, func(n *html.Node) bool {
		switch {
		case hasClass(n, "result__a"):
			flush()
			if len(results) >= max {
				return false
			}
			current = &Result{
				Title:  CleanText(textOf(n)),
				Link:   duckDuckGoLink(attr(n, "href")),
				Engine: e.Name(),
			}
			return false
		case hasClass(n, "result__snippet"):
			if current != nil {
				current.Snippet = CleanText(textOf(n))
			}
			return false
		}
		return true
	})
	if len(results) < max {
		flush()
	}
	return results, nil
}

// duckDuckGoLink unwraps DuckDuckGo's redirect links. Ad links are dropped.
func duckDuckGoLink(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Hostname(), "duckduckgo.com") {
		if u.Path == "/y.js" {
			return ""
		}
		target := u.Query().Get("uddg")
		if target == "" {
			return ""
		}
		u, err = url.Parse(target)
		if err != nil {
			return ""
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

// walkElements visits element nodes in document order. Returning false
// from visit skips the node's children.
func walkElements(n *html.Node, visit func(*html.Node) bool) {
	if n.Type == html.ElementNode && !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkElements(c, visit)
	}
}
