package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "NUMISIGHT_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (NUMISIGHT_*). A double underscore
// separates nested keys: NUMISIGHT_SERVER__PORT -> server.port.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	// Lists from the file replace their defaults instead of merging by index.
	for key, dst := range map[string]*[]string{
		"catalog.periods":    &cfg.Catalog.Periods,
		"web_search.engines": &cfg.WebSearch.Engines,
		"ai.classes":         &cfg.AI.Classes,
	} {
		if k.Exists(key) {
			*dst = nil
		}
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderAnthropic:  true,
	ProviderOpenAI:     true,
	ProviderGoogle:     true,
	ProviderOllama:     true,
	ProviderOpenRouter: true,
}

var validEngines = map[string]bool{
	"google":     true,
	"duckduckgo": true,
}

var validLogEnvs = map[string]bool{
	"":      true,
	"local": true,
	"dev":   true,
	"prod":  true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if len(c.Catalog.Periods) == 0 {
		return fmt.Errorf("catalog.periods must list at least one period")
	}
	for _, p := range c.Catalog.Periods {
		if _, ok := DefaultPeriodFolders[p]; !ok {
			return fmt.Errorf("invalid catalog period %q: must be one of ancient, medieval, modern", p)
		}
	}

	for _, e := range c.WebSearch.Engines {
		if !validEngines[e] {
			return fmt.Errorf("invalid web_search engine %q: must be google or duckduckgo", e)
		}
	}
	if c.WebSearch.MaxResults <= 0 {
		return fmt.Errorf("web_search.max_results must be positive")
	}
	if c.WebSearch.FetchConcurrency <= 0 {
		return fmt.Errorf("web_search.fetch_concurrency must be positive")
	}
	if c.WebSearch.RelevanceThreshold < 0 {
		return fmt.Errorf("web_search.relevance_threshold must be non-negative")
	}
	if c.WebSearch.FetchDelay < 0 {
		return fmt.Errorf("web_search.fetch_delay must be non-negative")
	}

	if c.AI.Provider == "" {
		return fmt.Errorf("ai.provider is required")
	}
	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("invalid ai.provider %q: must be one of anthropic, openai, google, ollama, openrouter", c.AI.Provider)
	}
	if c.AI.Model == "" {
		return fmt.Errorf("ai.model is required")
	}
	if c.AI.RequestsPerMinute < 0 {
		return fmt.Errorf("ai.requests_per_minute must be non-negative")
	}

	if !validLogEnvs[c.Log.Env] {
		return fmt.Errorf("invalid log.env %q: must be one of local, dev, prod", c.Log.Env)
	}

	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	default:
		return ""
	}
}
