package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/hyperjump/ragcheck/internal/config"
	"github.com/hyperjump/ragcheck/internal/embedding"
	"github.com/hyperjump/ragcheck/internal/keyword"
	"github.com/hyperjump/ragcheck/internal/metrics"
	"github.com/hyperjump/ragcheck/internal/storage"
	"github.com/hyperjump/ragcheck/internal/vector"
	"github.com/hyperjump/ragcheck/internal/verify"
)

// Components holds initialized services.
type Components struct {
	Embedder embedding.Embedder
	Verifier *verify.Verifier
	Store    storage.Store // nil when history is disabled or unavailable
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
}

// Close releases the store and the embedder.
func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, withHistory bool) (*Components, error) {
	embedder, err := embedding.New(cfg.EmbeddingOptions())
	if err != nil {
		if cfg.Embedding.Provider != embedding.ProviderONNX {
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
		// Fall back to hashing when the ONNX runtime or model is missing.
		logger.Warn("onnx embedder unavailable, falling back to hashing", zap.Error(err))
		fallback := cfg.EmbeddingOptions()
		fallback.Provider = embedding.ProviderHashing
		if embedder, err = embedding.New(fallback); err != nil {
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
	}

	verifierCfg := cfg.VerifierConfig()
	if verifierCfg.IndexType == string(vector.IndexTypeFAISS) && !vector.IsFAISSAvailable() {
		logger.Warn("faiss index unavailable, falling back to hnsw")
		verifierCfg.IndexType = string(vector.IndexTypeHNSW)
	}
	logger.Debug("vector index selected",
		zap.String("type", verifierCfg.IndexType),
		zap.Int("connections", verifierCfg.HNSW.Connections),
		zap.Int("ef_construction", verifierCfg.HNSW.EfConstruction),
		zap.Int("ef_search", verifierCfg.HNSW.EfSearch),
	)

	scorer, err := keyword.NewScorer(cfg.Keyword.Scorer, cfg.Keyword.Analyzer)
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize keyword scorer: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	verifier, err := verify.New(embedder, verifierCfg,
		verify.WithLogger(logger),
		verify.WithKeywordScorer(scorer),
		verify.WithRecorder(m),
	)
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize verifier: %w", err)
	}

	c := &Components{Embedder: embedder, Verifier: verifier, Metrics: m, Registry: registry}
	if withHistory && cfg.Verify.RecordHistoryOrDefault() {
		store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
		if err != nil {
			logger.Warn("verification history disabled", zap.String("database_path", cfg.Storage.DatabasePath), zap.Error(err))
		} else {
			c.Store = store
		}
	}
	return c, nil
}
