package port

import "ragchat/internal/domain"

// VectorIndex serves nearest-neighbor lookups over embedded passages.
// Read-only during serving and safe for concurrent use.
type VectorIndex interface {
	// Search finds the k most similar passages to the query vector.
	// Results are sorted by descending score and at most k long.
	Search(query []float32, k int) ([]domain.ScoredPassage, error)

	// Stats returns the dimension, model and vector count of the index.
	Stats() domain.IndexStats

	Close() error
}
