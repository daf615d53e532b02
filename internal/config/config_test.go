package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_HNSWSeed(t *testing.T) {
	for _, seed := range []int64{0, 7} {
		cfg, err := Load(writeConfig(t, fmt.Sprintf("hnsw:\n  seed: %d\n", seed)))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.HNSW.Seed != seed || cfg.VerifierConfig().HNSW.Seed != seed {
			t.Errorf("seed = %d, want %d", cfg.HNSW.Seed, seed)
		}
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
hnsw:
  connections: 16
  ef_search: 64
thresholds:
  accuracy: 0.7
  relevance: 0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.HNSW.Connections != 16 || cfg.HNSW.EfSearch != 64 || cfg.HNSW.EfConstruction != 40 {
		t.Errorf("hnsw = %+v, want connections 16, ef_search 64, ef_construction 40", cfg.HNSW)
	}

	th := cfg.Thresholds.Values()
	if th.Accuracy != 0.7 {
		t.Errorf("accuracy threshold = %v, want 0.7", th.Accuracy)
	}
	if th.Relevance != 0 {
		t.Errorf("explicit zero relevance threshold = %v, want 0", th.Relevance)
	}
	if th.Consistency != 0.5 || th.SemanticSimilarity != 0.5 {
		t.Errorf("unset thresholds = %+v, want 0.5", th)
	}
}

func TestLoad_debugTrue(t *testing.T) {
	path := writeConfig(t, `
debug: true
storage:
  database_path: "test.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: "./data/db/verifications.db"
watch:
  directories: ["./cases"]
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "verifications.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	if len(cfg.Watch.Directories) != 1 {
		t.Fatalf("watch directories: got %d", len(cfg.Watch.Directories))
	}
	if want := filepath.Join(dir, "cases"); cfg.Watch.Directories[0] != want {
		t.Errorf("watch directory = %s, want %s", cfg.Watch.Directories[0], want)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"threshold above one", "thresholds:\n  accuracy: 1.2\n"},
		{"negative threshold", "thresholds:\n  consistency: -0.1\n"},
		{"unknown index", "index:\n  type: annoy\n"},
		{"unknown provider", "embedding:\n  provider: word2vec\n"},
		{"unknown scorer", "keyword:\n  scorer: bm25\n"},
		{"unknown relevance mode", "verify:\n  relevance_mode: question\n"},
		{"single connection", "hnsw:\n  connections: 1\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"malformed yaml", "server: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Embedding.Provider != "hashing" || cfg.Embedding.Dimensions != 384 {
		t.Errorf("default embedding: got %+v", cfg.Embedding)
	}
	if cfg.Index.Type != "hnsw" {
		t.Errorf("default index type: got %s", cfg.Index.Type)
	}
	if cfg.HNSW.Connections != 32 || cfg.HNSW.EfConstruction != 40 || cfg.HNSW.EfSearch != 16 {
		t.Errorf("default hnsw: got %+v", cfg.HNSW)
	}
	if cfg.Keyword.Scorer != "overlap" || cfg.Keyword.Analyzer != "whitespace" {
		t.Errorf("default keyword: got %+v", cfg.Keyword)
	}
	if cfg.Verify.RelevanceMode != "documents" || !cfg.Verify.RecordHistoryOrDefault() {
		t.Errorf("default verify: got %+v", cfg.Verify)
	}
	if len(cfg.Watch.Extensions) != 2 || cfg.Watch.Extensions[0] != ".yaml" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestApplyDefaults_ProviderSpecific(t *testing.T) {
	cfg := &Config{Embedding: EmbeddingConfig{Provider: "openai"}}
	ApplyDefaults(cfg)
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("openai model: got %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.ModelPath != "" {
		t.Errorf("model_path should stay empty for openai, got %q", cfg.Embedding.ModelPath)
	}

	cfg = &Config{Embedding: EmbeddingConfig{Provider: "onnx"}}
	ApplyDefaults(cfg)
	if cfg.Embedding.ModelPath == "" {
		t.Error("onnx model_path should default")
	}
}

func TestVerifierConfig(t *testing.T) {
	zero := 0.0
	cfg := &Config{Thresholds: ThresholdsConfig{SemanticSimilarity: &zero}}
	ApplyDefaults(cfg)
	vc := cfg.VerifierConfig()
	if vc.Thresholds.SemanticSimilarity != 0 || vc.Thresholds.Accuracy != 0.5 {
		t.Errorf("thresholds = %+v", vc.Thresholds)
	}
	if vc.IndexType != "hnsw" || vc.RelevanceMode != "documents" || vc.HNSW.Connections != 32 {
		t.Errorf("verifier config = %+v", vc)
	}
	opts := cfg.EmbeddingOptions()
	if opts.Provider != "hashing" || opts.CacheSize != 10000 {
		t.Errorf("embedding options = %+v", opts)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	f := false
	acc := 0.6
	cfg := &Config{
		Storage:    StorageConfig{DatabasePath: filepath.Join(dir, "v.db")},
		Thresholds: ThresholdsConfig{Accuracy: &acc},
		Verify:     VerifyConfig{RecordHistory: &f},
	}
	ApplyDefaults(cfg)
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Thresholds.Values().Accuracy != 0.6 {
		t.Errorf("accuracy threshold = %v, want 0.6", loaded.Thresholds.Values().Accuracy)
	}
	if loaded.Verify.RecordHistoryOrDefault() {
		t.Error("record_history should stay false")
	}
	if loaded.Storage.DatabasePath != cfg.Storage.DatabasePath {
		t.Errorf("database_path = %s, want %s", loaded.Storage.DatabasePath, cfg.Storage.DatabasePath)
	}
}

func TestDefault(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg := Default()
	if cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("api key = %q, want env value", cfg.Embedding.APIKey)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Default() should validate: %v", err)
	}
}
