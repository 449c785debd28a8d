// File path: internal/data/orchestrator/config.go
package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config controls the construction of the orchestrator.
type Config struct {
	SQLitePath string
	IndexName  string
	SchemaPath string
}

// DefaultConfig returns the baseline configuration used when no overrides
// are supplied.
func DefaultConfig() Config {
	return Config{
		SQLitePath: filepath.Join("data", "raglens.db"),
		IndexName:  "raglens-docs",
		SchemaPath: filepath.Join("schemas", "index.json"),
	}
}

// LoadConfig builds a Config from defaults and environment variables.
func LoadConfig() Config {
	cfg := DefaultConfig()
	if value := strings.TrimSpace(os.Getenv("RAGLENS_CATALOG_PATH")); value != "" {
		cfg.SQLitePath = value
	}
	if value := strings.TrimSpace(os.Getenv("RAGLENS_INDEX_NAME")); value != "" {
		cfg.IndexName = value
	}
	if value := strings.TrimSpace(os.Getenv("RAGLENS_SCHEMA_PATH")); value != "" {
		cfg.SchemaPath = value
	}
	return applyDefaults(cfg)
}

func applyDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if strings.TrimSpace(cfg.SQLitePath) == "" {
		cfg.SQLitePath = defaults.SQLitePath
	}
	if strings.TrimSpace(cfg.IndexName) == "" {
		cfg.IndexName = defaults.IndexName
	}
	if strings.TrimSpace(cfg.SchemaPath) == "" {
		cfg.SchemaPath = defaults.SchemaPath
	}
	return cfg
}

func (c Config) validate() error {
	if strings.TrimSpace(c.SQLitePath) == "" {
		return fmt.Errorf("catalog path required")
	}
	if strings.TrimSpace(c.IndexName) == "" {
		return fmt.Errorf("index name required")
	}
	return nil
}
