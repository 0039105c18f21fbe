package config

import "time"

// defaultModels maps each provider to a vision-capable model.
var defaultModels = map[ProviderType]string{
	ProviderAnthropic:  "claude-sonnet-4-5-20250929",
	ProviderOpenAI:     "gpt-4o",
	ProviderGoogle:     "gemini-2.0-flash",
	ProviderOllama:     "llava",
	ProviderOpenRouter: "openai/gpt-4o-mini",
}

// DefaultPeriods are the catalog periods searched, in order.
var DefaultPeriods = []string{"ancient", "medieval", "modern"}

// DefaultPeriodFolders maps catalog periods to their image folder names.
var DefaultPeriodFolders = map[string]string{
	"ancient":  "Ancient India",
	"medieval": "Medieval India",
	"modern":   "Modern India",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	folders := make(map[string]string, len(DefaultPeriodFolders))
	for k, v := range DefaultPeriodFolders {
		folders[k] = v
	}
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			MaxUploadMB: 10,
			StaticDir:   "static",
		},
		Database: DatabaseConfig{
			Path: "data/numisight.db",
		},
		Catalog: CatalogConfig{
			Periods:       append([]string(nil), DefaultPeriods...),
			AssetDir:      "static/asset",
			PeriodFolders: folders,
		},
		WebSearch: WebSearchConfig{
			Engines:            []string{"google", "duckduckgo"},
			MaxResults:         3,
			QuerySuffix:        "coin numismatics",
			FetchTimeout:       15 * time.Second,
			FetchDelay:         time.Second,
			FetchConcurrency:   3,
			RelevanceThreshold: 3,
		},
		AI: AIConfig{
			Provider:          ProviderOpenAI,
			Model:             defaultModels[ProviderOpenAI],
			RequestsPerMinute: 30,
		},
		Log: LogConfig{
			Env:   "dev",
			Level: "info",
		},
		Client: ClientConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 2 * time.Minute,
		},
	}
}

// DefaultModel returns the default vision model for a provider, falling back
// to the OpenAI default when the provider is unknown.
func DefaultModel(provider ProviderType) string {
	if m, ok := defaultModels[provider]; ok {
		return m
	}
	return defaultModels[ProviderOpenAI]
}
