package websearch

import (
	"math/rand/v2"
	"net/http"
	"sync"
)

// browserHeaders are complete header sets of common desktop browsers.
// One is picked at random for every outgoing request.
var browserHeaders = []map[string]string{
	{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	},
	{
		"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-GB,en;q=0.9",
	},
	{
		"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
	},
	{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
	},
}

// headerPicker chooses header sets. rand.Rand is not safe for concurrent use.
type headerPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newHeaderPicker(rng *rand.Rand) *headerPicker {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &headerPicker{rng: rng}
}

func (p *headerPicker) apply(req *http.Request) {
	p.mu.Lock()
	set := browserHeaders[p.rng.IntN(len(browserHeaders))]
	p.mu.Unlock()
	for k, v := range set {
		req.Header.Set(k, v)
	}
}
