package websearch

import "context"

// Result is a verified web page about the searched coin.
type Result struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Engine   string `json:"engine"`
	FullText string `json:"full_text,omitempty"`
}

// Engine finds candidate result links for a query. Engines that only
// return links leave Title and Snippet empty.
type Engine interface {
	Name() string
	Search(ctx context.Context, query string, max int) ([]Result, error)
}

// Page is the cleaned content of a fetched result page.
type Page struct {
	Title string
	Text  string
}

// Fetcher downloads and cleans a result page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// NoTitle is used for relevant pages that have no <title>.
const NoTitle = "No Title Found"
