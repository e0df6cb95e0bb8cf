package usecase

import (
	"fmt"

	"go.uber.org/zap"

	"ragchat/internal/adapter/fs"
	"ragchat/internal/adapter/store"
	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// IndexUseCase builds the vector index from a corpus. Building is a batch
// operation, separate from serving; it must not run concurrently with
// itself for the same index location.
type IndexUseCase struct {
	loader   *fs.Loader
	embedder port.Embedder
	logger   *zap.Logger
}

func NewIndexUseCase(loader *fs.Loader, embedder port.Embedder, logger *zap.Logger) *IndexUseCase {
	return &IndexUseCase{
		loader:   loader,
		embedder: embedder,
		logger:   logger,
	}
}

// BuildFromDir loads the corpus from corpusDir and builds the index at
// indexPath. progress, if non-nil, is called after each embedding batch.
func (u *IndexUseCase) BuildFromDir(corpusDir, indexPath string, progress func(done, total int)) (domain.IndexStats, error) {
	corpus, err := u.loader.Load(corpusDir)
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("failed to load corpus: %w", err)
	}

	return u.Build(corpus, indexPath, progress)
}

// Build embeds the corpus and persists the index. An empty corpus fails
// with domain.ErrEmptyCorpus before anything is written.
func (u *IndexUseCase) Build(corpus domain.Corpus, indexPath string, progress func(done, total int)) (domain.IndexStats, error) {
	stats, err := store.Build(indexPath, corpus, u.embedder, progress)
	if err != nil {
		return domain.IndexStats{}, err
	}

	u.logger.Info("index built",
		zap.String("path", indexPath),
		zap.Int("vectors", stats.Vectors),
		zap.Int("dimension", stats.Dimension),
		zap.String("model", stats.Model))

	return stats, nil
}
