package domain

import (
	"sort"
	"time"
)

// Passage is a segment of source text indexed for retrieval.
// (SourceID, Position) is unique and stable across index rebuilds.
type Passage struct {
	SourceID string `json:"source_id"`
	Position int    `json:"position"`
	Text     string `json:"text"`
}

// ScoredPassage pairs a passage with its similarity score.
// Higher score means more relevant.
type ScoredPassage struct {
	Passage Passage
	Score   float64
}

// Corpus is the ingestion input shape: source identifier mapped to its
// ordered passage texts. Acquisition and segmentation happen upstream.
type Corpus map[string][]string

// Passages flattens the corpus into passages with stable positions,
// ordered by source id then position.
func (c Corpus) Passages() []Passage {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var passages []Passage
	for _, id := range ids {
		for i, text := range c[id] {
			passages = append(passages, Passage{SourceID: id, Position: i, Text: text})
		}
	}
	return passages
}

// ChatTurn is one message in a conversation. Immutable once written.
// Turns for a user are retrieved in non-decreasing timestamp order,
// ties broken by insertion order.
type ChatTurn struct {
	UserID    string
	Role      Role
	Content   string
	Timestamp time.Time
}

// IndexStats describes a built vector index.
type IndexStats struct {
	Vectors   int
	Dimension int
	Model     string
}
