package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// embeddingServer answers /v1/embeddings with vectors [len(input), i] in reverse order,
// so tests can check that results are placed by index.
func embeddingServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, item{
				Object:    "embedding",
				Embedding: []float32{float32(len(req.Input[i])), float32(i)},
				Index:     i,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
		})
	}))
}

func TestOpenAIEmbedder_EmbedBatch(t *testing.T) {
	srv := embeddingServer(t)
	defer srv.Close()

	e, err := NewOpenAIEmbedder(OpenAIOptions{
		APIKey:     "sk-test",
		BaseURL:    srv.URL + "/v1",
		Model:      "text-embedding-3-small",
		Dimensions: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	embs, err := e.EmbedBatch(context.Background(), []string{"a", "bbb"})
	if err != nil {
		t.Fatal(err)
	}
	if len(embs) != 2 {
		t.Fatalf("len = %d, want 2", len(embs))
	}
	if embs[0][0] != 1 || embs[0][1] != 0 || embs[1][0] != 3 || embs[1][1] != 1 {
		t.Errorf("embeddings = %v, want [[1 0] [3 1]]", embs)
	}

	single, err := e.Embed(context.Background(), "cc")
	if err != nil {
		t.Fatal(err)
	}
	if single[0] != 2 {
		t.Errorf("Embed = %v, want [2 0]", single)
	}
}

func TestOpenAIEmbedder_DimensionMismatch(t *testing.T) {
	srv := embeddingServer(t)
	defer srv.Close()

	e, _ := NewOpenAIEmbedder(OpenAIOptions{BaseURL: srv.URL + "/v1", Model: "m", Dimensions: 3})
	if _, err := e.Embed(context.Background(), "a"); err == nil {
		t.Error("expected error for dimension mismatch")
	}
}

func TestOpenAIEmbedder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"nope"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	e, _ := NewOpenAIEmbedder(OpenAIOptions{BaseURL: srv.URL + "/v1", Model: "m", Dimensions: 2})
	if _, err := e.Embed(context.Background(), "a"); err == nil {
		t.Error("expected error from failing server")
	}
}

func TestOpenAIEmbedder_EmptyBatch(t *testing.T) {
	e, _ := NewOpenAIEmbedder(OpenAIOptions{Model: "m", Dimensions: 2})
	embs, err := e.EmbedBatch(context.Background(), nil)
	if err != nil || len(embs) != 0 {
		t.Errorf("EmbedBatch(nil) = %v, %v", embs, err)
	}
}
