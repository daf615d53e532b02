package config

import (
	"github.com/hyperjump/ragcheck/internal/embedding"
	"github.com/hyperjump/ragcheck/internal/keyword"
	"github.com/hyperjump/ragcheck/internal/vector"
	"github.com/hyperjump/ragcheck/internal/verify"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = 20
	}
	if cfg.Server.Burst == 0 {
		cfg.Server.Burst = 40
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/ragcheck/data/db/verifications.db"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = embedding.ProviderHashing
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.Provider == embedding.ProviderONNX && cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/ragcheck/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.Provider == embedding.ProviderOpenAI && cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = string(vector.IndexTypeHNSW)
	}
	if cfg.HNSW.Connections == 0 {
		cfg.HNSW.Connections = vector.DefaultConnections
	}
	if cfg.HNSW.EfConstruction == 0 {
		cfg.HNSW.EfConstruction = vector.DefaultEfConstruction
	}
	if cfg.HNSW.EfSearch == 0 {
		cfg.HNSW.EfSearch = vector.DefaultEfSearch
	}
	if cfg.Keyword.Scorer == "" {
		cfg.Keyword.Scorer = keyword.ScorerOverlap
	}
	if cfg.Keyword.Analyzer == "" {
		cfg.Keyword.Analyzer = keyword.AnalyzerWhitespace
	}
	if cfg.Verify.RelevanceMode == "" {
		cfg.Verify.RelevanceMode = verify.RelevanceDocuments
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".yaml", ".yml"}
	}
}
