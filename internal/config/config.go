// Package config provides configuration loading and structs for the kreuzsuche pipeline and server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Vector    VectorConfig    `yaml:"vector"`
	Search    SearchConfig    `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the corpus database and the vector index artifact.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	VectorIndexPath string `yaml:"vector_index_path"`
}

// CorpusConfig holds parallel-corpus source settings. SourceURL points at a
// TSV export of German-English sentence pairs; CachePath is where the raw
// download is kept so a re-run does not hit the network again.
type CorpusConfig struct {
	SourceURL string `yaml:"source_url"`
	CachePath string `yaml:"cache_path"`
	Size      int    `yaml:"size"`
}

// EmbeddingConfig holds ONNX embedder settings. UseMock selects the
// deterministic hash-based embedder instead of the ONNX model; it exists for
// development and tests and is never chosen implicitly.
type EmbeddingConfig struct {
	ModelPath string `yaml:"model_path"`
	Dimensions int   `yaml:"dimensions"`
	MaxTokens  int   `yaml:"max_tokens"`
	BatchSize  int   `yaml:"batch_size"`
	CacheSize  int   `yaml:"cache_size"`
	UseMock    bool  `yaml:"use_mock"`
}

// VectorConfig selects the nearest-neighbor index implementation.
type VectorConfig struct {
	IndexType string `yaml:"index_type"`
}

// SearchConfig holds query-time settings.
type SearchConfig struct {
	DefaultTopK int `yaml:"default_top_k"`
	MaxTopK     int `yaml:"max_top_k"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.VectorIndexPath = expandPath(cfg.Storage.VectorIndexPath, configDir)
	cfg.Corpus.CachePath = expandPath(cfg.Corpus.CachePath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative
// to configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
