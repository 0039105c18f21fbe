package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to numisight! Let's configure your coin identification server.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Vision provider.
	providerPrompt := promptui.Select{
		Label: "Select vision model provider",
		Items: []string{"openai", "anthropic", "google", "ollama", "openrouter"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.AI.Provider = ProviderType(providerStr)

	// 2. Model.
	modelPrompt := promptui.Prompt{
		Label:   "Vision model",
		Default: DefaultModel(cfg.AI.Provider),
	}
	if cfg.AI.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Database location.
	dbPrompt := promptui.Prompt{
		Label:   "Catalog database path",
		Default: cfg.Database.Path,
	}
	if cfg.Database.Path, err = dbPrompt.Run(); err != nil {
		return nil, fmt.Errorf("database path: %w", err)
	}

	// 4. Coin image assets.
	assetPrompt := promptui.Prompt{
		Label:   "Coin image asset directory",
		Default: cfg.Catalog.AssetDir,
	}
	if cfg.Catalog.AssetDir, err = assetPrompt.Run(); err != nil {
		return nil, fmt.Errorf("asset dir: %w", err)
	}

	// 5. Periods.
	periodPrompt := promptui.Prompt{
		Label:   "Catalog periods (comma-separated)",
		Default: strings.Join(cfg.Catalog.Periods, ","),
	}
	periodStr, err := periodPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("periods: %w", err)
	}
	cfg.Catalog.Periods = splitAndTrim(periodStr)

	// 6. Port.
	portPrompt := promptui.Prompt{
		Label:   "Port to listen on",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("invalid port")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if envVar := APIKeyEnvVar(cfg.AI.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: set %s before running numisight serve, or image identification will be unavailable.\n", envVar)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace,
// dropping empty tokens.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
