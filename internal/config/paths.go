package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DataDir returns the path to the modelbench data directory.
// - Windows: %APPDATA%\modelbench
// - Other OS: ~/.modelbench
func DataDir() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "modelbench")
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".modelbench"
	}
	return filepath.Join(home, ".modelbench")
}

// DBPath returns the path to the SQLite database file.
func DBPath() string {
	return filepath.Join(DataDir(), "modelbench.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0700)
}
