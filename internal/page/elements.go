// Package page drives the coin identification page: it turns search and
// upload events into API calls and renders the responses as HTML cards.
package page

import (
	"fmt"
	"strings"
)

// Element IDs the page markup must provide.
const (
	IDSearchInput      = "searchInput"
	IDCoinInput        = "coinInput"
	IDLoading          = "loading-message"
	IDResultsContainer = "results-container"
	IDDatabaseSection  = "database-results-section"
	IDDatabaseResults  = "database-results"
	IDWebSection       = "web-results-section"
	IDWebResults       = "web-results"
	IDImageRegion      = "image-id-results-container"
	IDPreview          = "coinPreview"
	IDPrediction       = "ai-prediction-result"
)

// Element is the subset of a DOM element the controller touches.
type Element interface {
	ID() string
	Show()
	Hide()
	Visible() bool
	// SetHTML replaces the element's children with the parsed markup.
	SetHTML(markup string)
	SetText(text string)
	SetSrc(src string)
	// Prepend moves child to become this element's first child.
	Prepend(child Element)
	Value() string
}

// Lookup finds an element by ID.
type Lookup func(id string) (Element, bool)

// Elements holds every element the controller uses, resolved once.
type Elements struct {
	SearchInput     Element
	FileInput       Element
	Loading         Element
	TextRegion      Element
	DatabaseSection Element
	DatabaseResults Element
	WebSection      Element
	WebResults      Element
	ImageRegion     Element
	Preview         Element
	Prediction      Element
}

// MissingElementError reports required elements the page does not have.
type MissingElementError struct {
	IDs []string
}

func (e *MissingElementError) Error() string {
	return fmt.Sprintf("page is missing required elements: %s", strings.Join(e.IDs, ", "))
}

// Bind resolves all required elements. A page missing any of them cannot
// be driven, so the error is meant to be fatal.
func Bind(lookup Lookup) (*Elements, error) {
	var (
		els     Elements
		missing []string
	)
	for _, b := range []struct {
		id  string
		dst *Element
	}{
		{IDSearchInput, &els.SearchInput},
		{IDCoinInput, &els.FileInput},
		{IDLoading, &els.Loading},
		{IDResultsContainer, &els.TextRegion},
		{IDDatabaseSection, &els.DatabaseSection},
		{IDDatabaseResults, &els.DatabaseResults},
		{IDWebSection, &els.WebSection},
		{IDWebResults, &els.WebResults},
		{IDImageRegion, &els.ImageRegion},
		{IDPreview, &els.Preview},
		{IDPrediction, &els.Prediction},
	} {
		el, ok := lookup(b.id)
		if !ok || el == nil {
			missing = append(missing, b.id)
			continue
		}
		*b.dst = el
	}
	if len(missing) > 0 {
		return nil, &MissingElementError{IDs: missing}
	}
	return &els, nil
}
