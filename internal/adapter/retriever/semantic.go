package retriever

import (
	"context"
	"fmt"
	"sync"

	"ragchat/internal/adapter/cache"
	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// PassageRetriever embeds queries and searches the vector index. The index
// is opened lazily on first use and the handle cached for the process
// lifetime; if no index exists the first retrieval surfaces
// domain.ErrIndexNotFound and the orchestrator treats the service as
// unavailable rather than retrying.
type PassageRetriever struct {
	embedder port.Embedder
	open     func() (port.VectorIndex, error)
	maxTopK  int
	minScore float64
	cache    *cache.QueryCache

	once    sync.Once
	index   port.VectorIndex
	openErr error
}

// New creates a passage retriever. open is called once, on first use.
// queryCache may be nil to disable result caching.
func New(embedder port.Embedder, open func() (port.VectorIndex, error), maxTopK int, minScore float64, queryCache *cache.QueryCache) *PassageRetriever {
	if maxTopK <= 0 {
		maxTopK = 20
	}
	return &PassageRetriever{
		embedder: embedder,
		open:     open,
		maxTopK:  maxTopK,
		minScore: minScore,
		cache:    queryCache,
	}
}

// Retrieve returns the top-k passages for the query by descending
// similarity. k must be positive; values above the configured maximum are
// clamped, not rejected.
func (r *PassageRetriever) Retrieve(ctx context.Context, query string, k int) ([]domain.ScoredPassage, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if k > r.maxTopK {
		k = r.maxTopK
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if r.cache != nil {
		if results, ok := r.cache.Get(query, k); ok {
			return results, nil
		}
	}

	r.once.Do(func() {
		r.index, r.openErr = r.open()
	})
	if r.openErr != nil {
		return nil, r.openErr
	}

	embeddings, err := r.embedder.Embed([]string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedder returned empty result")
	}

	results, err := r.index.Search(embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	if r.minScore > 0 {
		filtered := make([]domain.ScoredPassage, 0, len(results))
		for _, sp := range results {
			if sp.Score >= r.minScore {
				filtered = append(filtered, sp)
			}
		}
		results = filtered
	}

	if r.cache != nil {
		r.cache.Put(query, k, results)
	}

	return results, nil
}

// Close releases the cached index handle, if one was opened.
func (r *PassageRetriever) Close() error {
	if r.index != nil {
		return r.index.Close()
	}
	return nil
}
