package websearch

import (
	"context"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/numisight/numisight/internal/metrics"
)

// Options configures a Searcher.
type Options struct {
	MaxResults         int
	RelevanceThreshold int
	FetchConcurrency   int
	// Rand drives result shuffling. Nil uses a randomly seeded source.
	Rand *rand.Rand
}

// Searcher queries every engine, verifies each candidate page is about
// coins and returns a shuffled selection of the relevant ones.
type Searcher struct {
	engines []Engine
	fetcher Fetcher
	opts    Options
	logger  *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSearcher creates a Searcher over the engines, queried in order.
func NewSearcher(engines []Engine, fetcher Fetcher, opts Options, logger *zap.Logger) *Searcher {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 3
	}
	if opts.FetchConcurrency <= 0 {
		opts.FetchConcurrency = 1
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{
		engines: engines,
		fetcher: fetcher,
		opts:    opts,
		logger:  logger.Named("websearch"),
		rng:     rng,
	}
}

// Search returns at most MaxResults relevant pages for query. Engine and
// page failures are logged and skipped; an error is returned only when
// ctx ends.
func (s *Searcher) Search(ctx context.Context, query string) ([]Result, error) {
	candidates := s.collect(ctx, query)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.logger.Debug("verifying candidate pages", zap.String("query", query), zap.Int("candidates", len(candidates)))

	relevant := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.FetchConcurrency)
	for i := range candidates {
		g.Go(func() error {
			relevant[i] = s.verify(gctx, &candidates[i])
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(candidates))
	for i, ok := range relevant {
		if ok {
			results = append(results, candidates[i])
		}
	}

	s.mu.Lock()
	s.rng.Shuffle(len(results), func(i, j int) { results[i], results[j] = results[j], results[i] })
	s.mu.Unlock()

	if len(results) > s.opts.MaxResults {
		results = results[:s.opts.MaxResults]
	}
	return results, nil
}

// collect gathers de-duplicated candidate links from every engine.
func (s *Searcher) collect(ctx context.Context, query string) []Result {
	var candidates []Result
	seen := map[string]bool{}
	for _, e := range s.engines {
		if ctx.Err() != nil {
			return candidates
		}
		found, err := e.Search(ctx, query, s.opts.MaxResults)
		if err != nil {
			metrics.WebEngineErrorsTotal.WithLabelValues(e.Name()).Inc()
			s.logger.Warn("search engine failed", zap.String("engine", e.Name()), zap.Error(err))
			continue
		}
		for _, r := range found {
			if r.Link == "" || seen[r.Link] {
				continue
			}
			seen[r.Link] = true
			candidates = append(candidates, r)
		}
	}
	return candidates
}

// verify fetches the candidate page and fills FullText and Title when the
// page is relevant.
func (s *Searcher) verify(ctx context.Context, r *Result) bool {
	page, err := s.fetcher.Fetch(ctx, r.Link)
	if err != nil {
		metrics.WebPagesTotal.WithLabelValues("error").Inc()
		s.logger.Info("fetching result page failed", zap.String("link", r.Link), zap.Error(err))
		return false
	}
	if !Relevant(page.Text, s.opts.RelevanceThreshold) {
		metrics.WebPagesTotal.WithLabelValues("irrelevant").Inc()
		s.logger.Debug("discarding irrelevant page", zap.String("link", r.Link))
		return false
	}
	metrics.WebPagesTotal.WithLabelValues("relevant").Inc()

	r.FullText = page.Text
	if r.Title == "" {
		r.Title = page.Title
	}
	if r.Title == "" {
		r.Title = NoTitle
	}
	return true
}
