package embedding

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ragchat/config"
)

func TestOpenAIEmbedder_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			// Return vectors out of input order; the client must
			// reassemble by index.
			data[len(req.Input)-1-i] = map[string]any{
				"embedding": []float32{float32(i), 1, 2, 3},
				"index":     i,
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	defer server.Close()

	embedder, err := New(config.EmbeddingConfig{
		Provider:  "ollama",
		Model:     "test",
		BaseURL:   server.URL,
		Dimension: 4,
		BatchSize: 10,
	})
	if err != nil {
		t.Fatal(err)
	}

	vectors, err := embedder.Embed([]string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vectors))
	}
	for i, vec := range vectors {
		if len(vec) != 4 {
			t.Errorf("vector %d has dimension %d, want 4", i, len(vec))
		}
		if vec[0] != float32(i) {
			t.Errorf("vector %d out of order: first element %f", i, vec[0])
		}
	}
}

func TestOpenAIEmbedder_DimensionEnforced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{
			{"embedding": []float32{1, 2}, "index": 0},
		}})
	}))
	defer server.Close()

	embedder, err := New(config.EmbeddingConfig{
		Provider:  "ollama",
		Model:     "test",
		BaseURL:   server.URL,
		Dimension: 4,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := embedder.Embed([]string{"a"}); err == nil {
		t.Error("expected error for wrong-dimension embedding")
	}
}

func TestMockEmbedder_Deterministic(t *testing.T) {
	embedder := NewMockEmbedder(8)

	first, err := embedder.Embed([]string{"same text"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := embedder.Embed([]string{"same text"})
	if err != nil {
		t.Fatal(err)
	}

	for i := range first[0] {
		if first[0][i] != second[0][i] {
			t.Fatalf("mock embedder not deterministic at %d", i)
		}
	}
}

func TestMockEmbedder_Dimension(t *testing.T) {
	embedder := NewMockEmbedder(8)
	vectors, err := embedder.Embed([]string{"short", "a considerably longer text input"})
	if err != nil {
		t.Fatal(err)
	}
	for i, vec := range vectors {
		if len(vec) != 8 {
			t.Errorf("vector %d has dimension %d, want 8", i, len(vec))
		}
	}
}
