package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"go.etcd.io/bbolt"

	"ragchat/internal/domain"
	"ragchat/internal/port"
)

var (
	bucketVectors  = []byte("vectors")
	bucketPassages = []byte("passages")
	bucketMeta     = []byte("meta")
)

type storedVector struct {
	Vector []float32 `json:"v"`
}

type storedPassage struct {
	SourceID string `json:"source_id"`
	Position int    `json:"position"`
	Text     string `json:"text"`
}

// Index is an opened vector index. The full vector set is held in memory
// for brute-force cosine search; the index is read-only during serving and
// safe for concurrent use without locking.
type Index struct {
	db        *bbolt.DB
	dimension int
	model     string
	vectors   [][]float32
	passages  []domain.Passage
}

// Build embeds every passage of the corpus with the given embedder and
// persists the index at path: a vectors bucket and a passages bucket
// aligned by ordinal position, plus schema metadata. An existing index at
// the same path is cleared first, so rebuilding with the same corpus and
// embedder configuration is idempotent.
//
// progress, if non-nil, is called after each embedding batch.
func Build(path string, corpus domain.Corpus, embedder port.Embedder, progress func(done, total int)) (domain.IndexStats, error) {
	passages := corpus.Passages()
	if len(passages) == 0 {
		return domain.IndexStats{}, domain.ErrEmptyCorpus
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return domain.IndexStats{}, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("failed to open index db: %w", err)
	}
	defer db.Close()

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}

	// Embed in slices so progress can be reported per batch.
	const batch = 100
	vectors := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += batch {
		end := i + batch
		if end > len(texts) {
			end = len(texts)
		}
		embedded, err := embedder.Embed(texts[i:end])
		if err != nil {
			return domain.IndexStats{}, fmt.Errorf("failed to embed passages: %w", err)
		}
		vectors = append(vectors, embedded...)
		if progress != nil {
			progress(len(vectors), len(texts))
		}
	}

	if len(vectors) != len(texts) {
		return domain.IndexStats{}, fmt.Errorf("embedder returned %d vectors for %d passages", len(vectors), len(texts))
	}

	dimension := embedder.Dimension()
	for _, vec := range vectors {
		if len(vec) != dimension {
			return domain.IndexStats{}, &domain.DimensionMismatchError{Stored: dimension, Current: len(vec)}
		}
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		// Clear any previous build at this location.
		for _, name := range [][]byte{bucketVectors, bucketPassages, bucketMeta} {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return err
				}
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}

		vb := tx.Bucket(bucketVectors)
		pb := tx.Bucket(bucketPassages)

		for i := range passages {
			key := ordinalKey(uint64(i))

			vdata, err := json.Marshal(storedVector{Vector: vectors[i]})
			if err != nil {
				return err
			}
			if err := vb.Put(key, vdata); err != nil {
				return err
			}

			pdata, err := json.Marshal(storedPassage{
				SourceID: passages[i].SourceID,
				Position: passages[i].Position,
				Text:     passages[i].Text,
			})
			if err != nil {
				return err
			}
			if err := pb.Put(key, pdata); err != nil {
				return err
			}
		}

		return writeSchemaInfo(tx, schemaInfo{
			Version:   currentSchemaVersion,
			Dimension: dimension,
			Model:     embedder.ModelName(),
			Count:     len(passages),
		})
	})
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("failed to write index: %w", err)
	}

	return domain.IndexStats{
		Vectors:   len(passages),
		Dimension: dimension,
		Model:     embedder.ModelName(),
	}, nil
}

// Open loads a persisted index from path and verifies it against the
// current embedder configuration. Returns domain.ErrIndexNotFound when no
// index exists, a *domain.DimensionMismatchError when the stored dimension
// does not match the embedder, and a plain error when the vector and
// passage buckets have drifted out of sync.
func Open(path string, embedder port.Embedder) (*Index, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, path)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open index db: %w", err)
	}

	idx := &Index{db: db}
	if err := idx.load(embedder); err != nil {
		db.Close()
		return nil, err
	}

	return idx, nil
}

func (idx *Index) load(embedder port.Embedder) error {
	return idx.db.View(func(tx *bbolt.Tx) error {
		info, err := readSchemaInfo(tx)
		if err != nil {
			return err
		}
		if info.Version != currentSchemaVersion {
			return fmt.Errorf("index schema version %d not supported (current is %d): rebuild the index", info.Version, currentSchemaVersion)
		}
		if info.Dimension != embedder.Dimension() {
			return &domain.DimensionMismatchError{Stored: info.Dimension, Current: embedder.Dimension()}
		}

		vb := tx.Bucket(bucketVectors)
		pb := tx.Bucket(bucketPassages)
		if vb == nil || pb == nil {
			return fmt.Errorf("%w: index buckets missing", domain.ErrIndexNotFound)
		}
		if vb.Stats().KeyN != info.Count || pb.Stats().KeyN != info.Count {
			return fmt.Errorf("index corrupted: metadata records %d vectors, found %d vectors and %d passages",
				info.Count, vb.Stats().KeyN, pb.Stats().KeyN)
		}

		idx.dimension = info.Dimension
		idx.model = info.Model
		idx.vectors = make([][]float32, 0, info.Count)
		idx.passages = make([]domain.Passage, 0, info.Count)

		// Cursor order over big-endian ordinal keys is ordinal order, so the
		// vector at position i always pairs with the passage at position i.
		vc := vb.Cursor()
		for k, v := vc.First(); k != nil; k, v = vc.Next() {
			var sv storedVector
			if err := json.Unmarshal(v, &sv); err != nil {
				return fmt.Errorf("index corrupted: bad vector record %d: %w", ordinalOf(k), err)
			}
			if len(sv.Vector) != idx.dimension {
				return &domain.DimensionMismatchError{Stored: idx.dimension, Current: len(sv.Vector)}
			}

			p := pb.Get(k)
			if p == nil {
				return fmt.Errorf("index corrupted: passage %d missing for stored vector", ordinalOf(k))
			}
			var sp storedPassage
			if err := json.Unmarshal(p, &sp); err != nil {
				return fmt.Errorf("index corrupted: bad passage record %d: %w", ordinalOf(k), err)
			}

			idx.vectors = append(idx.vectors, sv.Vector)
			idx.passages = append(idx.passages, domain.Passage{
				SourceID: sp.SourceID,
				Position: sp.Position,
				Text:     sp.Text,
			})
		}

		return nil
	})
}

// Search finds the k most similar passages to the query vector using
// cosine similarity. Results are sorted by descending score.
func (idx *Index) Search(query []float32, k int) ([]domain.ScoredPassage, error) {
	if len(query) != idx.dimension {
		return nil, &domain.DimensionMismatchError{Stored: idx.dimension, Current: len(query)}
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	scored := make([]domain.ScoredPassage, len(idx.vectors))
	for i, vec := range idx.vectors {
		scored[i] = domain.ScoredPassage{
			Passage: idx.passages[i],
			Score:   cosineSimilarity(query, vec),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Stats returns the dimension, model and vector count of the index.
func (idx *Index) Stats() domain.IndexStats {
	return domain.IndexStats{
		Vectors:   len(idx.vectors),
		Dimension: idx.dimension,
		Model:     idx.model,
	}
}

func (idx *Index) Close() error {
	return idx.db.Close()
}

func ordinalKey(i uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, i)
	return key
}

func ordinalOf(key []byte) uint64 {
	if len(key) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(key)
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
