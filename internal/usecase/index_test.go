package usecase

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"ragchat/internal/adapter/embedding"
	"ragchat/internal/adapter/fs"
	"ragchat/internal/adapter/store"
	"ragchat/internal/domain"
)

func TestBuildFromDir(t *testing.T) {
	corpusDir := t.TempDir()
	content := "Transformers use attention.\n\nAttention is all you need."
	if err := os.WriteFile(filepath.Join(corpusDir, "p1.txt"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	embedder := embedding.NewMockEmbedder(16)
	loader := fs.NewLoader([]string{"**/*.txt"}, nil)
	uc := NewIndexUseCase(loader, embedder, zap.NewNop())

	indexPath := filepath.Join(t.TempDir(), "index.db")
	var progressCalls int
	stats, err := uc.BuildFromDir(corpusDir, indexPath, func(done, total int) {
		progressCalls++
		if total != 2 {
			t.Errorf("expected total 2, got %d", total)
		}
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if stats.Vectors != 2 {
		t.Errorf("expected 2 vectors, got %d", stats.Vectors)
	}
	if progressCalls == 0 {
		t.Error("progress callback never invoked")
	}

	idx, err := store.Open(indexPath, embedder)
	if err != nil {
		t.Fatalf("open after build failed: %v", err)
	}
	defer idx.Close()

	query, _ := embedder.Embed([]string{"What is attention?"})
	results, err := idx.Search(query[0], 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Passage.SourceID != "p1.txt" {
		t.Errorf("unexpected top result: %+v", results)
	}
}

func TestBuildFromDir_EmptyCorpus(t *testing.T) {
	loader := fs.NewLoader([]string{"**/*.txt"}, nil)
	uc := NewIndexUseCase(loader, embedding.NewMockEmbedder(16), zap.NewNop())

	indexPath := filepath.Join(t.TempDir(), "index.db")
	_, err := uc.BuildFromDir(t.TempDir(), indexPath, nil)
	if !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Errorf("expected ErrEmptyCorpus, got %v", err)
	}
}
