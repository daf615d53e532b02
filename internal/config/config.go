// Package config provides configuration loading and structs for the ragcheck CLI and server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/ragcheck/internal/embedding"
	"github.com/hyperjump/ragcheck/internal/keyword"
	"github.com/hyperjump/ragcheck/internal/vector"
	"github.com/hyperjump/ragcheck/internal/verify"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool              `yaml:"debug"`
	Server     ServerConfig      `yaml:"server"`
	Storage    StorageConfig     `yaml:"storage"`
	Embedding  EmbeddingConfig   `yaml:"embedding"`
	Index      IndexConfig       `yaml:"index"`
	HNSW       vector.HNSWParams `yaml:"hnsw"`
	Thresholds ThresholdsConfig  `yaml:"thresholds"`
	Keyword    KeywordConfig     `yaml:"keyword"`
	Verify     VerifyConfig      `yaml:"verify"`
	Watch      WatchConfig       `yaml:"watch"`
}

// ServerConfig holds HTTP server settings. RateLimit is in requests per second; 0 disables limiting.
type ServerConfig struct {
	Host      string  `yaml:"host"`
	Port      int     `yaml:"port"`
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

// StorageConfig holds the verification history database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Dimensions int    `yaml:"dimensions"`
	CacheSize  int    `yaml:"cache_size"`
	ModelPath  string `yaml:"model_path"`
	MaxTokens  int    `yaml:"max_tokens"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
}

// IndexConfig selects the nearest-neighbor index built per verification.
type IndexConfig struct {
	Type string `yaml:"type"`
}

// ThresholdsConfig holds the issue thresholds. Unset fields take the default of 0.5;
// an explicit 0 disables the check.
type ThresholdsConfig struct {
	Accuracy           *float64 `yaml:"accuracy"`
	Consistency        *float64 `yaml:"consistency"`
	Relevance          *float64 `yaml:"relevance"`
	SemanticSimilarity *float64 `yaml:"semantic_similarity"`
}

// Values returns the thresholds with defaults for unset fields.
func (t ThresholdsConfig) Values() verify.Thresholds {
	v := verify.DefaultThresholds()
	if t.Accuracy != nil {
		v.Accuracy = *t.Accuracy
	}
	if t.Consistency != nil {
		v.Consistency = *t.Consistency
	}
	if t.Relevance != nil {
		v.Relevance = *t.Relevance
	}
	if t.SemanticSimilarity != nil {
		v.SemanticSimilarity = *t.SemanticSimilarity
	}
	return v
}

// KeywordConfig selects the keyword scorer used for accuracy.
type KeywordConfig struct {
	Scorer   string `yaml:"scorer"`
	Analyzer string `yaml:"analyzer"`
}

// VerifyConfig holds verification behavior settings.
type VerifyConfig struct {
	RelevanceMode string `yaml:"relevance_mode"`
	RecordHistory *bool  `yaml:"record_history"`
}

// RecordHistoryOrDefault returns whether verifications are stored; defaults to true when unset.
func (v *VerifyConfig) RecordHistoryOrDefault() bool {
	if v.RecordHistory != nil {
		return *v.RecordHistory
	}
	return true
}

// WatchConfig holds case directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
}

// VerifierConfig maps the file configuration to the verifier's settings.
func (c *Config) VerifierConfig() verify.Config {
	return verify.Config{
		Thresholds:    c.Thresholds.Values(),
		IndexType:     c.Index.Type,
		HNSW:          c.HNSW,
		RelevanceMode: c.Verify.RelevanceMode,
	}
}

// EmbeddingOptions maps the file configuration to embedding provider options.
func (c *Config) EmbeddingOptions() embedding.Options {
	return embedding.Options{
		Provider:   c.Embedding.Provider,
		Dimensions: c.Embedding.Dimensions,
		CacheSize:  c.Embedding.CacheSize,
		ModelPath:  c.Embedding.ModelPath,
		MaxTokens:  c.Embedding.MaxTokens,
		Model:      c.Embedding.Model,
		BaseURL:    c.Embedding.BaseURL,
		APIKey:     c.Embedding.APIKey,
	}
}

// Default returns the built-in configuration used when no config file exists.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	return &cfg
}

// Load reads and parses the config file at path, applies defaults, expands paths and
// validates the result. Returns an error if the file cannot be read, parsed or is invalid.
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
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
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

// Validate checks value ranges and enumerations.
func Validate(cfg *Config) error {
	if err := cfg.Thresholds.Values().Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port %d out of range", cfg.Server.Port)
	}
	if cfg.Server.RateLimit < 0 || cfg.Server.Burst < 0 {
		return fmt.Errorf("invalid config: server.rate_limit and server.burst must not be negative")
	}
	if !embedding.ValidProvider(cfg.Embedding.Provider) {
		return fmt.Errorf("invalid config: unknown embedding.provider %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Dimensions < 0 || cfg.Embedding.CacheSize < 0 {
		return fmt.Errorf("invalid config: embedding.dimensions and embedding.cache_size must not be negative")
	}
	if !vector.ValidType(cfg.Index.Type) {
		return fmt.Errorf("invalid config: unknown index.type %q", cfg.Index.Type)
	}
	if cfg.HNSW.Connections < 0 || cfg.HNSW.EfConstruction < 0 || cfg.HNSW.EfSearch < 0 {
		return fmt.Errorf("invalid config: hnsw parameters must not be negative")
	}
	if cfg.HNSW.Connections == 1 {
		return fmt.Errorf("invalid config: hnsw.connections must be at least 2")
	}
	switch cfg.Keyword.Scorer {
	case "", keyword.ScorerOverlap, keyword.ScorerWeighted:
	default:
		return fmt.Errorf("invalid config: unknown keyword.scorer %q", cfg.Keyword.Scorer)
	}
	switch cfg.Verify.RelevanceMode {
	case "", verify.RelevanceDocuments, verify.RelevanceResponse:
	default:
		return fmt.Errorf("invalid config: unknown verify.relevance_mode %q", cfg.Verify.RelevanceMode)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
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
