package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hyperjump/ragcheck/internal/config"
	"github.com/hyperjump/ragcheck/internal/embedding"
	"github.com/hyperjump/ragcheck/internal/metrics"
	"github.com/hyperjump/ragcheck/internal/storage"
	"github.com/hyperjump/ragcheck/internal/verify"
)

const franceRequest = `{
	"case_name": "france",
	"response": "The capital of France is Paris.",
	"context": {
		"question": "What is the capital of France?",
		"retrieved_docs": ["Paris is the capital of France.", "France is a country in Europe."]
	}
}`

type testEnv struct {
	srv     *Server
	handler http.Handler
	store   *storage.SQLiteStore
	cfg     *config.Config
}

func newTestEnv(t *testing.T, withStore bool, mutate func(*config.Config)) *testEnv {
	t.Helper()
	cfg := &config.Config{Storage: config.StorageConfig{DatabasePath: filepath.Join(t.TempDir(), "v.db")}}
	if mutate != nil {
		mutate(cfg)
	}
	config.ApplyDefaults(cfg)

	reg := prometheus.NewRegistry()
	verifier, err := verify.New(embedding.NewHashingEmbedder(4096), cfg.VerifierConfig(),
		verify.WithRecorder(metrics.New(reg)))
	if err != nil {
		t.Fatal(err)
	}

	env := &testEnv{cfg: cfg}
	var store storage.Store
	if withStore {
		env.store, err = storage.NewSQLiteStore(cfg.Storage.DatabasePath)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { env.store.Close() })
		store = env.store
	}
	env.srv = NewServer(verifier, store, cfg, zap.NewNop(), reg)
	env.handler = env.srv.Handler()
	return env
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatal(err)
	}
}

type verifyOut struct {
	ID     string `json:"id"`
	Result struct {
		Accuracy           float64  `json:"accuracy"`
		Consistency        float64  `json:"consistency"`
		Relevance          float64  `json:"relevance"`
		SemanticSimilarity float64  `json:"semantic_similarity"`
		Confidence         float64  `json:"confidence"`
		OverallScore       float64  `json:"overall_score"`
		Issues             []string `json:"issues"`
	} `json:"result"`
}

func TestHandleVerify(t *testing.T) {
	env := newTestEnv(t, true, nil)
	w := env.do(http.MethodPost, "/api/v1/verify", franceRequest)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var out verifyOut
	decode(t, w, &out)
	if out.ID == "" {
		t.Error("verification should be recorded and return an id")
	}
	if out.Result.Issues == nil || len(out.Result.Issues) != 0 {
		t.Errorf("issues = %v, want empty list", out.Result.Issues)
	}
	if out.Result.SemanticSimilarity <= 0.5 || out.Result.Accuracy <= 0.5 {
		t.Errorf("result = %+v, want high similarity and accuracy", out.Result)
	}
	if out.Result.OverallScore <= 0 || out.Result.OverallScore > 1 {
		t.Errorf("overall_score = %v", out.Result.OverallScore)
	}

	rec, err := env.store.GetRecord(testContext(t), out.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Source != storage.SourceAPI || rec.CaseName != "france" {
		t.Errorf("stored record = %+v", rec)
	}
}

func TestHandleVerify_BadRequests(t *testing.T) {
	env := newTestEnv(t, false, nil)
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"response":`},
		{"missing question", `{"response":"x","context":{"retrieved_docs":["a"]}}`},
		{"missing documents", `{"response":"x","context":{"question":"q"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/v1/verify", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", w.Code)
			}
		})
	}
}

func TestHandleVerify_EmptyDocuments(t *testing.T) {
	env := newTestEnv(t, false, nil)
	w := env.do(http.MethodPost, "/api/v1/verify",
		`{"response":"anything","context":{"question":"q","retrieved_docs":[]}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var out verifyOut
	decode(t, w, &out)
	if out.ID != "" {
		t.Error("no id without a store")
	}
	if out.Result.Consistency != 0 || out.Result.Relevance != 0 || out.Result.SemanticSimilarity != 0 {
		t.Errorf("result = %+v, want zero document-based scores", out.Result)
	}
}

func TestHandleVerify_HistoryDisabled(t *testing.T) {
	off := false
	env := newTestEnv(t, true, func(c *config.Config) { c.Verify.RecordHistory = &off })
	w := env.do(http.MethodPost, "/api/v1/verify", franceRequest)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out verifyOut
	decode(t, w, &out)
	if out.ID != "" {
		t.Errorf("id = %q, want none when record_history is false", out.ID)
	}
	if n, _ := env.store.CountRecords(testContext(t)); n != 0 {
		t.Errorf("stored %d records, want 0", n)
	}
}

func TestVerificationHistoryEndpoints(t *testing.T) {
	env := newTestEnv(t, true, nil)
	var ids []string
	for i := 0; i < 3; i++ {
		w := env.do(http.MethodPost, "/api/v1/verify", franceRequest)
		var out verifyOut
		decode(t, w, &out)
		ids = append(ids, out.ID)
	}

	w := env.do(http.MethodGet, "/api/v1/verifications?limit=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status: got %d", w.Code)
	}
	var list struct {
		Verifications []storage.Record `json:"verifications"`
		Total         int64            `json:"total"`
		Limit         int              `json:"limit"`
	}
	decode(t, w, &list)
	if list.Total != 3 || len(list.Verifications) != 2 || list.Limit != 2 {
		t.Fatalf("list = total %d, len %d, limit %d", list.Total, len(list.Verifications), list.Limit)
	}
	if list.Verifications[0].ID != ids[2] {
		t.Errorf("first = %s, want newest %s", list.Verifications[0].ID, ids[2])
	}

	w = env.do(http.MethodGet, "/api/v1/verifications/"+ids[0], "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status: got %d", w.Code)
	}
	var rec storage.Record
	decode(t, w, &rec)
	if rec.ID != ids[0] || rec.Context.Question != "What is the capital of France?" {
		t.Errorf("record = %+v", rec)
	}

	if w := env.do(http.MethodDelete, "/api/v1/verifications/"+ids[0], ""); w.Code != http.StatusOK {
		t.Errorf("delete status: got %d", w.Code)
	}
	if w := env.do(http.MethodGet, "/api/v1/verifications/"+ids[0], ""); w.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d, want 404", w.Code)
	}
	if w := env.do(http.MethodDelete, "/api/v1/verifications/"+ids[0], ""); w.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d, want 404", w.Code)
	}
}

func TestListVerifications_InvalidParams(t *testing.T) {
	env := newTestEnv(t, true, nil)
	for _, q := range []string{"offset=-1", "offset=x", "limit=0", "limit=abc"} {
		if w := env.do(http.MethodGet, "/api/v1/verifications?"+q, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", q, w.Code)
		}
	}
}

func TestHistoryEndpoints_NotEnabled(t *testing.T) {
	env := newTestEnv(t, false, nil)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/verifications"},
		{http.MethodGet, "/api/v1/verifications/abc"},
		{http.MethodDelete, "/api/v1/verifications/abc"},
	} {
		if w := env.do(tc.method, tc.path, ""); w.Code != http.StatusNotImplemented {
			t.Errorf("%s %s: got %d, want 501", tc.method, tc.path, w.Code)
		}
	}
}

func TestHandleStatus(t *testing.T) {
	env := newTestEnv(t, true, nil)
	env.do(http.MethodPost, "/api/v1/verify", franceRequest)

	w := env.do(http.MethodGet, "/api/v1/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Verifications  int64 `json:"verifications"`
		HistoryEnabled bool  `json:"history_enabled"`
		DiskUsageBytes int64 `json:"disk_usage_bytes"`
		Config         struct {
			IndexType     string             `json:"index_type"`
			RelevanceMode string             `json:"relevance_mode"`
			HNSW          map[string]float64 `json:"hnsw"`
			Thresholds    map[string]float64 `json:"thresholds"`
		} `json:"config"`
	}
	decode(t, w, &out)
	if out.Verifications != 1 || !out.HistoryEnabled {
		t.Errorf("status = %+v", out)
	}
	if out.DiskUsageBytes <= 0 {
		t.Errorf("disk_usage_bytes = %d, want > 0", out.DiskUsageBytes)
	}
	if out.Config.IndexType != "hnsw" || out.Config.RelevanceMode != "documents" {
		t.Errorf("config = %+v", out.Config)
	}
	if out.Config.HNSW["connections"] != 32 || out.Config.HNSW["ef_construction"] != 40 || out.Config.HNSW["ef_search"] != 16 {
		t.Errorf("hnsw = %v, want snake_case keys with defaults", out.Config.HNSW)
	}
	if out.Config.Thresholds["accuracy"] != 0.5 {
		t.Errorf("thresholds = %v", out.Config.Thresholds)
	}
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t, false, nil)
	w := env.do(http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("health: %d %s", w.Code, w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, false, nil)
	env.do(http.MethodPost, "/api/v1/verify", franceRequest)
	w := env.do(http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status: got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `ragcheck_verifications_total{outcome="passed"} 1`) {
		t.Errorf("metrics output missing passed counter:\n%s", body)
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, false, func(c *config.Config) {
		c.Server.RateLimit = 0.001
		c.Server.Burst = 1
	})
	if w := env.do(http.MethodGet, "/api/v1/status", ""); w.Code != http.StatusOK {
		t.Fatalf("first request: got %d", w.Code)
	}
	if w := env.do(http.MethodGet, "/api/v1/status", ""); w.Code != http.StatusTooManyRequests {
		t.Errorf("second request: got %d, want 429", w.Code)
	}
	if w := env.do(http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("health is not rate limited: got %d", w.Code)
	}
}
