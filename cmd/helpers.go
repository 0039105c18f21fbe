package cmd

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/numisight/numisight/internal/api"
	"github.com/numisight/numisight/internal/catalog"
	"github.com/numisight/numisight/internal/config"
	"github.com/numisight/numisight/internal/db"
	"github.com/numisight/numisight/internal/identify"
	"github.com/numisight/numisight/internal/llm"
	"github.com/numisight/numisight/internal/logger"
	"github.com/numisight/numisight/internal/websearch"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `numisight init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the configured logger; --verbose forces debug level.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logger.New(cfg.Log.Env, level)
}

func openDatabase(cfg *config.Config) (*db.DB, error) {
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.Database.Path, err)
	}
	return database, nil
}

func catalogPeriods(cfg *config.Config) ([]catalog.Period, error) {
	periods := make([]catalog.Period, 0, len(cfg.Catalog.Periods))
	for _, name := range cfg.Catalog.Periods {
		p, ok := catalog.ParsePeriod(name)
		if !ok {
			return nil, fmt.Errorf("unknown catalog period %q", name)
		}
		periods = append(periods, p)
	}
	return periods, nil
}

// newCatalogStore opens the catalog over database with image lookup in the
// configured asset directory.
func newCatalogStore(cfg *config.Config, database *db.DB) (*catalog.Store, error) {
	periods, err := catalogPeriods(cfg)
	if err != nil {
		return nil, err
	}
	var images catalog.ImageLocator
	if cfg.Catalog.AssetDir != "" {
		images = catalog.NewImageFinder(cfg.Catalog.AssetDir, assetURLPrefix(cfg), cfg.Catalog.PeriodFolders)
	}
	return catalog.NewStore(database, periods, images), nil
}

// assetURLPrefix maps the asset directory to its URL under /static/,
// falling back to /static/asset when it lies outside the static directory.
func assetURLPrefix(cfg *config.Config) string {
	rel, err := filepath.Rel(cfg.Server.StaticDir, cfg.Catalog.AssetDir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "/static/asset"
	}
	return path.Join("/static", filepath.ToSlash(rel))
}

func newWebSearcher(cfg *config.Config, log *zap.Logger) *websearch.Searcher {
	ws := cfg.WebSearch
	var engines []websearch.Engine
	for _, name := range ws.Engines {
		switch name {
		case "google":
			engines = append(engines, websearch.NewGoogleEngine("", ws.FetchTimeout, nil))
		case "duckduckgo":
			engines = append(engines, websearch.NewDuckDuckGoEngine("", ws.FetchTimeout, nil))
		}
	}
	fetcher := websearch.NewHTTPFetcher(ws.FetchTimeout, ws.FetchDelay, nil)
	return websearch.NewSearcher(engines, fetcher, websearch.Options{
		MaxResults:         ws.MaxResults,
		RelevanceThreshold: ws.RelevanceThreshold,
		FetchConcurrency:   ws.FetchConcurrency,
	}, log)
}

// newClassifier returns nil when no vision provider can be created, so the
// identify endpoint answers 503 instead of the server failing to start.
func newClassifier(cfg *config.Config, log *zap.Logger) api.Classifier {
	provider, err := llm.NewProvider(string(cfg.AI.Provider), cfg.AI.Model)
	if err != nil {
		log.Warn("image identification disabled", zap.Error(err))
		return nil
	}
	if cfg.AI.RequestsPerMinute > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.AI.RequestsPerMinute)
	}

	classes, err := identify.ResolveClasses(cfg.AI.Classes, cfg.AI.ClassesDir)
	if err != nil {
		log.Warn("could not load coin classes; the model will name coins freely", zap.Error(err))
		classes = nil
	}

	log.Info("vision classifier ready",
		zap.String("provider", provider.Name()),
		zap.String("model", cfg.AI.Model),
		zap.Int("classes", len(classes)),
	)
	return identify.NewClassifier(provider, cfg.AI.Model, classes, log)
}
