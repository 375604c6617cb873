package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"ragserver/models"
)

// MemoryStore is a brute-force cosine-similarity store. It backs local runs
// without a Qdrant instance and serves as the substitute store in tests.
type MemoryStore struct {
	mu         sync.RWMutex
	collection string
	dim        int
	index      map[string]int
	records    []memoryRecord
}

type memoryRecord struct {
	id      string
	vector  []float32
	payload models.ChunkPayload
}

func NewMemoryStore(collection string) *MemoryStore {
	return &MemoryStore{
		collection: collection,
		index:      make(map[string]int),
	}
}

func (s *MemoryStore) EnsureCollection(_ context.Context, dim int) error {
	if dim <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dim != 0 && s.dim != dim {
		return &DimensionMismatchError{Collection: s.collection, Want: dim, Got: s.dim}
	}
	s.dim = dim
	return nil
}

func (s *MemoryStore) Upsert(_ context.Context, ids []string, vectors [][]float32, payloads []models.ChunkPayload) error {
	if len(ids) != len(vectors) || len(ids) != len(payloads) {
		return fmt.Errorf("ids (%d), vectors (%d) and payloads (%d) must have equal length",
			len(ids), len(vectors), len(payloads))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Validate the whole batch before touching the records, so a bad vector
	// never leaves a partially written batch behind.
	for i := range vectors {
		if s.dim != 0 && len(vectors[i]) != s.dim {
			return fmt.Errorf("vector %d has dimension %d, want %d", i, len(vectors[i]), s.dim)
		}
	}
	for i := range ids {
		rec := memoryRecord{id: ids[i], vector: vectors[i], payload: payloads[i]}
		if j, ok := s.index[ids[i]]; ok {
			s.records[j] = rec
			continue
		}
		s.index[ids[i]] = len(s.records)
		s.records = append(s.records, rec)
	}
	return nil
}

func (s *MemoryStore) Search(_ context.Context, vector []float32, topK int) ([]models.ScoredChunk, error) {
	if topK <= 0 {
		topK = 5
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]models.ScoredChunk, 0, len(s.records))
	for _, rec := range s.records {
		if rec.payload.Text == "" {
			continue
		}
		scored = append(scored, models.ScoredChunk{
			Text:   rec.payload.Text,
			Source: rec.payload.Source,
			Score:  cosineSimilarity(rec.vector, vector),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if topK < len(scored) {
		scored = scored[:topK]
	}
	return scored, nil
}

// Count reports how many records the store holds.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) Close() error { return nil }

func cosineSimilarity(a, b []float32) float32 {
	n := min(len(a), len(b))
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
