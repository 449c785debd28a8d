// File path: internal/ingest/config.go
package ingest

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/raglens/raglens/internal/kb"
)

// Config controls chunking and index targeting for a pipeline run.
type Config struct {
	MaxChunkTokens int     `yaml:"max_chunk_tokens"`
	OverlapRate    float64 `yaml:"overlap_rate"`
	Overlap        string  `yaml:"overlap"`
	IndexName      string  `yaml:"index_name"`
	SchemaPath     string  `yaml:"schema_path"`
}

func LoadConfig() Config {
	var cfg Config
	if raw := strings.TrimSpace(os.Getenv("INGEST_MAX_CHUNK_TOKENS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			cfg.MaxChunkTokens = parsed
		}
	}
	if raw := strings.TrimSpace(os.Getenv("INGEST_OVERLAP_RATE")); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed >= 0 {
			cfg.OverlapRate = parsed
		}
	}
	cfg.Overlap = strings.TrimSpace(os.Getenv("INGEST_OVERLAP"))
	cfg.IndexName = strings.TrimSpace(os.Getenv("INGEST_INDEX_NAME"))
	cfg.SchemaPath = strings.TrimSpace(os.Getenv("INGEST_SCHEMA_PATH"))
	cfg.applyDefaults()
	return cfg
}

// LoadConfigFile reads a YAML pipeline config and fills unset fields with
// defaults.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read ingest config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse ingest config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) Merge(other Config) {
	if other.MaxChunkTokens > 0 {
		c.MaxChunkTokens = other.MaxChunkTokens
	}
	if other.OverlapRate > 0 {
		c.OverlapRate = other.OverlapRate
	}
	if other.Overlap != "" {
		c.Overlap = other.Overlap
	}
	if other.IndexName != "" {
		c.IndexName = other.IndexName
	}
	if other.SchemaPath != "" {
		c.SchemaPath = other.SchemaPath
	}
}

func (c *Config) applyDefaults() {
	if c.MaxChunkTokens <= 0 {
		c.MaxChunkTokens = 2048
	}
	if c.Overlap == "" {
		c.Overlap = string(kb.OverlapNone)
	}
}

func (c Config) chunkOptions() kb.ChunkOptions {
	return kb.ChunkOptions{
		MaxTokens:   c.MaxChunkTokens,
		OverlapRate: c.OverlapRate,
		Overlap:     kb.ParseOverlapType(c.Overlap),
	}
}
