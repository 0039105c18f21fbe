package page

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/numisight/numisight/internal/logger"
)

// Loading messages.
const (
	SearchingMessage   = "Searching our database and the web..."
	IdentifyingMessage = "Uploading image and running AI analysis..."
)

// Controller wires the page's inputs to the API. It is the only writer of
// the page's elements; every write happens under mu.
type Controller struct {
	mu      sync.Mutex
	el      *Elements
	backend Backend
	console *zap.Logger
	seq     uint64 // most recently started action
}

// New creates a controller for bound page elements.
func New(el *Elements, backend Backend, log *zap.Logger) *Controller {
	return &Controller{
		el:      el,
		backend: backend,
		console: logger.OrNop(log).Named("console"),
	}
}

// HandleKey submits the search input's text when key is Enter.
func (c *Controller) HandleKey(ctx context.Context, key string) *Action {
	if key != "Enter" {
		return skippedAction()
	}
	return c.SubmitTextSearch(ctx, c.el.SearchInput.Value())
}

// HandleFileChange identifies the first selected file.
func (c *Controller) HandleFileChange(ctx context.Context, uploads []Upload) *Action {
	if len(uploads) == 0 {
		return skippedAction()
	}
	u := uploads[0]
	return c.SubmitImageIdentify(ctx, &u)
}

// SubmitTextSearch searches the catalog and the web. A blank query is
// ignored.
func (c *Controller) SubmitTextSearch(ctx context.Context, query string) *Action {
	query = strings.TrimSpace(query)
	if query == "" {
		return skippedAction()
	}

	a := c.start(ctx, func() {
		c.el.ImageRegion.Hide()
		c.showLoading(SearchingMessage, c.el.TextRegion)
	})

	go func() {
		defer a.finish()
		resp, err := c.backend.Search(a.ctx, query)
		c.complete(a, err, func() {
			c.el.ImageRegion.Hide()
			shown := c.showResults(resp.DatabaseResults, resp.WebResults)
			if !shown {
				c.el.TextRegion.Hide()
			}
		})
	}()
	return a
}

// SubmitImageIdentify shows a preview of the upload and asks the server to
// identify it. The preview read and the request run independently; either
// may finish first. A nil upload is ignored.
func (c *Controller) SubmitImageIdentify(ctx context.Context, upload *Upload) *Action {
	if upload == nil || upload.Open == nil {
		return skippedAction()
	}
	u := *upload

	a := c.start(ctx, func() {
		c.el.TextRegion.Hide()
		c.showLoading(IdentifyingMessage, c.el.ImageRegion)
	})

	go func() {
		defer a.finish()

		var g errgroup.Group
		g.Go(func() error {
			dataURL, err := u.DataURL()
			if err != nil {
				return fmt.Errorf("reading preview of %s: %w", u.Name, err)
			}
			c.showPreview(a, dataURL)
			return nil
		})
		g.Go(func() error {
			resp, err := c.backend.Identify(a.ctx, u)
			c.complete(a, err, func() { c.showIdentification(resp) })
			return nil
		})
		if err := g.Wait(); err != nil {
			c.console.Warn("preview failed", zap.Error(err))
		}
	}()
	return a
}

// start registers a new action as the current one and enters its loading
// state.
func (c *Controller) start(ctx context.Context, enter func()) *Action {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	a := newAction(ctx, c.seq)
	enter()
	return a
}

// complete renders an action's outcome unless a newer action has started
// since. The loading indicator belongs to the current action, so a stale
// completion leaves it alone.
func (c *Controller) complete(a *Action, err error, onSuccess func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a.err = err
	if a.seq != c.seq {
		a.superseded.Store(true)
		c.console.Debug("dropping superseded response", zap.Uint64("action", a.seq), zap.Uint64("current", c.seq))
		return
	}
	defer c.el.Loading.Hide()

	switch {
	case err == nil:
		onSuccess()
	case errors.Is(err, context.Canceled) && a.ctx.Err() != nil:
		c.console.Debug("action cancelled", zap.Uint64("action", a.seq))
	default:
		c.console.Error("fetch error", zap.Error(err))
		c.showError(err)
	}
}

func (c *Controller) showLoading(message string, region Element) {
	c.el.Loading.SetText(message)
	region.Prepend(c.el.Loading)
	c.el.Loading.Show()
	region.Show()

	c.el.DatabaseSection.Hide()
	c.el.WebSection.Hide()
	c.render(c.el.Prediction, "")
	c.render(c.el.DatabaseResults, "")
	c.render(c.el.WebResults, "")
}

func (c *Controller) showPreview(a *Action, dataURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if a.seq != c.seq {
		return
	}
	c.el.Preview.SetSrc(dataURL)
	c.el.Preview.Show()
	c.el.ImageRegion.Show()
}

// showIdentification leaves the image region visible when there is no
// prediction, since it still holds the preview.
func (c *Controller) showIdentification(resp *IdentifyResponse) {
	if p := resp.AIPrediction; p != nil {
		markup, err := predictionHTML(*p)
		if err != nil {
			c.console.Error("rendering prediction", zap.Error(err))
		} else {
			c.render(c.el.Prediction, markup)
			c.el.ImageRegion.Show()
		}
	}
	c.showResults(resp.DatabaseResults, resp.WebResults)
}

// showResults renders non-empty result sets and reports whether any were.
func (c *Controller) showResults(db []DbResult, web []WebResult) bool {
	shown := false
	if len(db) > 0 {
		if markup, err := databaseCards(db); err != nil {
			c.console.Error("rendering database results", zap.Error(err))
		} else {
			c.render(c.el.DatabaseResults, markup)
			c.el.TextRegion.Show()
			c.el.DatabaseSection.Show()
			shown = true
		}
	}
	if len(web) > 0 {
		if markup, err := webCards(web); err != nil {
			c.console.Error("rendering web results", zap.Error(err))
		} else {
			c.render(c.el.WebResults, markup)
			c.el.TextRegion.Show()
			c.el.WebSection.Show()
			shown = true
		}
	}
	return shown
}

func (c *Controller) showError(err error) {
	c.el.DatabaseSection.Hide()
	c.render(c.el.Prediction, "")
	c.render(c.el.DatabaseResults, "")

	c.el.TextRegion.Show()
	c.render(c.el.WebResults, errorCard(err.Error()))
	c.el.WebSection.Show()
}

// render replaces everything in el with markup. Containers are only ever
// written through render, so earlier content cannot leak into a new result.
func (c *Controller) render(el Element, markup string) {
	el.SetHTML(markup)
}
