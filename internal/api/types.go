package api

import (
	"context"

	"github.com/numisight/numisight/internal/catalog"
	"github.com/numisight/numisight/internal/history"
	"github.com/numisight/numisight/internal/identify"
	"github.com/numisight/numisight/internal/websearch"
)

// CatalogSearcher finds catalog coins matching any of the terms.
type CatalogSearcher interface {
	Search(ctx context.Context, terms []string) ([]catalog.Match, error)
}

// WebSearcher finds verified web pages for a query.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]websearch.Result, error)
}

// Classifier identifies the coin in an image.
type Classifier interface {
	Predict(ctx context.Context, data []byte) (identify.Prediction, error)
}

// Recorder stores request history.
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) (string, error)
}

// SearchResponse is the body of a successful GET /api/search.
type SearchResponse struct {
	DatabaseResults []catalog.Match    `json:"database_results"`
	WebResults      []websearch.Result `json:"web_results"`
}

// IdentifyResponse is the body of POST /api/ai-identify. Error is set
// only when the web search failed after a successful prediction.
type IdentifyResponse struct {
	AIPrediction    identify.Prediction `json:"ai_prediction"`
	DatabaseResults []catalog.Match     `json:"database_results"`
	WebResults      []websearch.Result  `json:"web_results"`
	Error           string              `json:"error,omitempty"`
}

// ErrorResponse is the body of every other failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Error messages returned to clients.
const (
	MsgQueryRequired    = "A query parameter is required."
	MsgInternal         = "Sorry, something went wrong on our end."
	MsgModelUnavailable = "AI model is not available. Check server logs."
	MsgNoImage          = "No image file provided."
	MsgEmptyImage       = "Image file is empty."
	MsgImageTooLarge    = "Image file is too large."
	MsgWebSearchFailed  = "An error occurred during web search."
)
