package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSplitPassages(t *testing.T) {
	content := "First paragraph.\n\nSecond paragraph\nspans two lines.\n\n\n\nThird.\n"
	passages := SplitPassages(content)

	if len(passages) != 3 {
		t.Fatalf("expected 3 passages, got %d: %q", len(passages), passages)
	}
	if passages[1] != "Second paragraph\nspans two lines." {
		t.Errorf("unexpected second passage: %q", passages[1])
	}
}

func TestSplitPassages_CRLF(t *testing.T) {
	passages := SplitPassages("a\r\n\r\nb")
	if len(passages) != 2 || passages[0] != "a" || passages[1] != "b" {
		t.Errorf("CRLF content not split correctly: %q", passages)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	writeFile(t, tmpDir, "p1.txt", "Transformers use attention.\n\nAttention is all you need.")
	writeFile(t, tmpDir, "p2.txt", "Cats are mammals.")
	writeFile(t, tmpDir, "skip.bin", "binary junk")
	writeFile(t, tmpDir, "empty.txt", "\n\n")

	loader := NewLoader([]string{"**/*.txt"}, nil)
	corpus, err := loader.Load(tmpDir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if len(corpus) != 2 {
		t.Fatalf("expected 2 sources, got %d: %v", len(corpus), corpus)
	}
	if len(corpus["p1.txt"]) != 2 {
		t.Errorf("expected 2 passages in p1.txt, got %d", len(corpus["p1.txt"]))
	}
	if _, ok := corpus["skip.bin"]; ok {
		t.Error("excluded file leaked into corpus")
	}
	if _, ok := corpus["empty.txt"]; ok {
		t.Error("file with no passages should be dropped")
	}
}

func TestLoad_Excludes(t *testing.T) {
	tmpDir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(tmpDir, ".hidden"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, tmpDir, "keep.txt", "kept")
	writeFile(t, tmpDir, filepath.Join(".hidden", "drop.txt"), "dropped")

	loader := NewLoader([]string{"**/*.txt"}, []string{".hidden/**"})
	corpus, err := loader.Load(tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	if len(corpus) != 1 {
		t.Fatalf("expected 1 source, got %d: %v", len(corpus), corpus)
	}
	if _, ok := corpus["keep.txt"]; !ok {
		t.Error("keep.txt missing from corpus")
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
