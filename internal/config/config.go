package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration loaded from environment and file.
// Priority: Env vars → config.toml → defaults
type Config struct {
	// ServerPort is the address to bind the server to (e.g., ":8080")
	ServerPort string

	// AdapterTimeout bounds a single model invocation. A call that exceeds
	// it is recorded as a failed test result, not retried.
	AdapterTimeout time.Duration

	// HistoryLimit caps the test history store (FIFO eviction).
	HistoryLimit int

	// Guardrail selects the configured guardrail ("contentfilter" or "none").
	Guardrail string

	// Providers contains provider endpoint overrides (base URLs).
	Providers []ProviderEndpoint
}

// Load reads configuration from file and environment variables.
// Environment variables override file config values.
func Load() *Config {
	fileConfig, _ := LoadFile() // Ignore error, use defaults

	return &Config{
		ServerPort:     getEnvOrFile("SERVER_PORT", fileConfig.ServerPort, ":8080"),
		AdapterTimeout: getEnvDurationOrFile("ADAPTER_TIMEOUT_SECONDS", fileConfig.AdapterTimeoutSeconds, 60*time.Second),
		HistoryLimit:   getEnvIntOrFile("HISTORY_LIMIT", fileConfig.HistoryLimit, 50),
		Guardrail:      getEnvOrFile("GUARDRAIL", fileConfig.Guardrail, "contentfilter"),
		Providers:      fileConfig.Providers,
	}
}

// getEnvOrFile returns env value, file value, or default (in priority order)
func getEnvOrFile(key, fileValue, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// getEnvIntOrFile returns env int, file int, or default (in priority order)
func getEnvIntOrFile(key string, fileValue *int, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	if fileValue != nil && *fileValue > 0 {
		return *fileValue
	}
	return defaultValue
}

// getEnvDurationOrFile returns a duration in seconds from env, file, or default.
func getEnvDurationOrFile(key string, fileValue *int, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	if fileValue != nil && *fileValue > 0 {
		return time.Duration(*fileValue) * time.Second
	}
	return defaultValue
}
