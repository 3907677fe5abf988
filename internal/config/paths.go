package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DataDir returns the default data directory for concierge.
// Windows: %LOCALAPPDATA%\concierge
// Linux/Mac: ~/.local/share/concierge
func DataDir() string {
	if dir := os.Getenv("CONCIERGE_DATA_DIR"); dir != "" {
		return dir
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "concierge")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "concierge")
}

// UploadDir returns the directory where uploaded documents are stored.
func UploadDir() string {
	return filepath.Join(DataDir(), "uploads")
}

// DBPath returns the default SQLite database path.
func DBPath() string {
	return filepath.Join(DataDir(), "concierge.db")
}

// KnowledgePath returns the keyword knowledge-base snapshot path.
func KnowledgePath() string {
	return filepath.Join(DataDir(), "knowledge.json")
}

// EnsureDirs creates the required directories if they don't exist.
func EnsureDirs(cfg *Config) error {
	dirs := []string{cfg.DataDir, cfg.UploadDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
