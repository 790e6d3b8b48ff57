package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file structure.
type FileConfig struct {
	ServerPort            string             `toml:"server_port"`
	AdapterTimeoutSeconds *int               `toml:"adapter_timeout_seconds"`
	HistoryLimit          *int               `toml:"history_limit"`
	Guardrail             string             `toml:"guardrail"`
	Providers             []ProviderEndpoint `toml:"providers"`
}

// ProviderEndpoint overrides the base URL for a provider's API.
// Useful for pointing the "openai" provider at a compatible local server.
type ProviderEndpoint struct {
	Provider string `toml:"provider"`
	BaseURL  string `toml:"base_url"`
}

// ConfigPath returns the path to the config file (~/.modelbench/config.toml).
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// LoadFile loads configuration from the TOML file.
// Returns an empty FileConfig if the file doesn't exist.
func LoadFile() (*FileConfig, error) {
	cfg := &FileConfig{}

	path := ConfigPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// EnsureConfigFile creates a default config file with commented examples if none exists.
func EnsureConfigFile() error {
	path := ConfigPath()

	// If config already exists, do nothing
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	// Ensure directory exists
	if err := EnsureDataDir(); err != nil {
		return err
	}

	defaultConfig := `# modelbench Configuration
# server_port = ":8080"
# adapter_timeout_seconds = 60
# history_limit = 50
# guardrail = "contentfilter"

# Provider endpoint overrides
# [[providers]]
# provider = "openai"
# base_url = "https://api.openai.com/v1"

# [[providers]]
# provider = "local"
# base_url = "http://localhost:11434/v1"
`

	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
