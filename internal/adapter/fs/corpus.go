package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"ragchat/internal/domain"
)

// Loader reads a directory of pre-segmented passage files into a corpus.
// One file per source; passages separated by blank lines. Acquisition and
// segmentation themselves happen upstream.
type Loader struct {
	includes []string
	excludes []string
}

func NewLoader(includes, excludes []string) *Loader {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Loader{
		includes: includes,
		excludes: excludes,
	}
}

// Load walks root and returns the corpus keyed by each file's relative
// path. Files are visited in deterministic (sorted) order.
func (l *Loader) Load(root string) (domain.Corpus, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if l.shouldExclude(relPath + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if l.shouldInclude(relPath) && !l.shouldExclude(relPath) {
			paths = append(paths, relPath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk corpus directory: %w", err)
	}
	sort.Strings(paths)

	corpus := make(domain.Corpus, len(paths))
	for _, relPath := range paths {
		content, err := os.ReadFile(filepath.Join(root, relPath))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", relPath, err)
		}

		passages := SplitPassages(string(content))
		if len(passages) == 0 {
			continue
		}
		corpus[filepath.ToSlash(relPath)] = passages
	}

	return corpus, nil
}

// SplitPassages splits file content into passages on blank lines,
// dropping empty segments.
func SplitPassages(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var passages []string
	for _, block := range strings.Split(content, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			passages = append(passages, block)
		}
	}
	return passages
}

func (l *Loader) shouldInclude(path string) bool {
	for _, pattern := range l.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (l *Loader) shouldExclude(path string) bool {
	for _, pattern := range l.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}
