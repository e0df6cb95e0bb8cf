package cli

import (
	"fmt"
	"time"

	"ragchat/config"
	"ragchat/internal/adapter/cache"
	"ragchat/internal/adapter/embedding"
	"ragchat/internal/adapter/history"
	"ragchat/internal/adapter/llm"
	"ragchat/internal/adapter/retriever"
	"ragchat/internal/adapter/store"
	"ragchat/internal/port"
	"ragchat/internal/usecase"
)

// askService bundles everything an ask-path command needs. Construction is
// explicit at startup; no component reaches for process-wide state.
type askService struct {
	ask       *usecase.AskUseCase
	retriever *retriever.PassageRetriever
	store     port.HistoryStore
	close     func()
}

func newAskService() (*askService, error) {
	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	indexPath := config.IndexDBPath(rootDir)
	queryCache := cache.NewQueryCache(cfg.Retrieve.CacheSize, time.Duration(cfg.Retrieve.CacheTTL)*time.Second)
	ret := retriever.New(
		embedder,
		func() (port.VectorIndex, error) {
			idx, err := store.Open(indexPath, embedder)
			if err != nil {
				return nil, err
			}
			return idx, nil
		},
		cfg.Retrieve.MaxTopK,
		cfg.Retrieve.MinScore,
		queryCache,
	)

	model, err := llm.New(cfg.Generate)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	hist, closeHist, err := newHistoryStore()
	if err != nil {
		return nil, err
	}

	ask := usecase.NewAskUseCase(hist, ret, model, logger, cfg.Retrieve.TopK, cfg.Generate.ContextBudget)

	return &askService{
		ask:       ask,
		retriever: ret,
		store:     hist,
		close: func() {
			ret.Close()
			closeHist()
		},
	}, nil
}

func newHistoryStore() (port.HistoryStore, func(), error) {
	switch cfg.Memory.Driver {
	case "", "sqlite":
		path := cfg.Memory.Path
		if path == "" {
			if err := config.EnsureDataDir(rootDir); err != nil {
				return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
			}
			path = config.HistoryDBPath(rootDir)
		}
		st, err := history.NewSQLiteStore(path)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { st.Close() }, nil
	case "memory":
		return history.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported memory driver: %s", cfg.Memory.Driver)
	}
}
