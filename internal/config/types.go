package config

import "time"

// ProviderType identifies a vision LLM provider used for coin identification.
type ProviderType string

const (
	ProviderAnthropic  ProviderType = "anthropic"
	ProviderOpenAI     ProviderType = "openai"
	ProviderGoogle     ProviderType = "google"
	ProviderOllama     ProviderType = "ollama"
	ProviderOpenRouter ProviderType = "openrouter"
)

// Config is the top-level numisight configuration, corresponding to numisight.yml.
type Config struct {
	Server    ServerConfig    `yaml:"server" koanf:"server"`
	Database  DatabaseConfig  `yaml:"database" koanf:"database"`
	Catalog   CatalogConfig   `yaml:"catalog" koanf:"catalog"`
	WebSearch WebSearchConfig `yaml:"web_search" koanf:"web_search"`
	AI        AIConfig        `yaml:"ai" koanf:"ai"`
	Log       LogConfig       `yaml:"log" koanf:"log"`
	Client    ClientConfig    `yaml:"client" koanf:"client"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string `yaml:"host" koanf:"host"`
	Port            int    `yaml:"port" koanf:"port"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	MaxUploadMB     int    `yaml:"max_upload_mb" koanf:"max_upload_mb"`
	StaticDir       string `yaml:"static_dir" koanf:"static_dir"`
}

// DatabaseConfig points at the SQLite file holding the catalog and history.
type DatabaseConfig struct {
	Path string `yaml:"path" koanf:"path"`
}

// CatalogConfig controls the coin catalog search.
type CatalogConfig struct {
	Periods          []string          `yaml:"periods" koanf:"periods"`
	AssetDir         string            `yaml:"asset_dir" koanf:"asset_dir"`
	PeriodFolders    map[string]string `yaml:"period_folders" koanf:"period_folders"`
	SearchOnIdentify bool              `yaml:"search_on_identify" koanf:"search_on_identify"`
}

// WebSearchConfig controls the multi-engine web search and page verification.
type WebSearchConfig struct {
	Engines            []string      `yaml:"engines" koanf:"engines"`
	MaxResults         int           `yaml:"max_results" koanf:"max_results"`
	QuerySuffix        string        `yaml:"query_suffix" koanf:"query_suffix"`
	FetchTimeout       time.Duration `yaml:"fetch_timeout" koanf:"fetch_timeout"`
	FetchDelay         time.Duration `yaml:"fetch_delay" koanf:"fetch_delay"`
	FetchConcurrency   int           `yaml:"fetch_concurrency" koanf:"fetch_concurrency"`
	RelevanceThreshold int           `yaml:"relevance_threshold" koanf:"relevance_threshold"`
}

// AIConfig selects the vision model used by the coin classifier.
type AIConfig struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	ClassesDir        string       `yaml:"classes_dir" koanf:"classes_dir"`
	Classes           []string     `yaml:"classes" koanf:"classes"`
	RequestsPerMinute int          `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Env   string `yaml:"env" koanf:"env"`     // dev, local, prod
	Level string `yaml:"level" koanf:"level"` // debug, info, warn, error
}

// ClientConfig is used by the search/identify commands to reach a running server.
type ClientConfig struct {
	BaseURL string        `yaml:"base_url" koanf:"base_url"`
	Timeout time.Duration `yaml:"timeout" koanf:"timeout"`
}
