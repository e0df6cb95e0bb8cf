package port

import (
	"context"

	"ragchat/internal/domain"
)

// Retriever searches the indexed corpus for passages relevant to a query.
type Retriever interface {
	// Retrieve embeds the query and returns the top-k passages by
	// descending similarity.
	Retrieve(ctx context.Context, query string, k int) ([]domain.ScoredPassage, error)
}
