package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"ragserver/models"
)

// VectorStore persists (id, vector, payload) triples in a named collection
// and answers nearest-neighbour queries over them.
type VectorStore interface {
	// EnsureCollection creates the collection if absent. An existing
	// collection configured with a different dimension is a
	// *DimensionMismatchError.
	EnsureCollection(ctx context.Context, dim int) error
	// Upsert overwrites records by id. The three slices must have equal
	// length, checked before any network call.
	Upsert(ctx context.Context, ids []string, vectors [][]float32, payloads []models.ChunkPayload) error
	// Search returns up to topK ranked hits. Hits without payload text are
	// dropped, they contribute nothing to an answer.
	Search(ctx context.Context, vector []float32, topK int) ([]models.ScoredChunk, error)
	Close() error
}

// ChunkPointID derives the point id for a chunk as a UUIDv5 over
// "<source>: <ordinal>" in the URL namespace. Re-ingesting the same source
// regenerates the same ids, so upserts overwrite instead of duplicating.
func ChunkPointID(sourceID string, ordinal int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s: %d", sourceID, ordinal))).String()
}

// upsertBatchSize bounds how many points go into a single upsert call.
const upsertBatchSize = 64

// QdrantConfig configures the Qdrant-backed store.
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
	Distance   string
	Timeout    time.Duration
}

// QdrantStore talks to a Qdrant instance over gRPC.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	distance   qdrant.Distance
	timeout    time.Duration

	// upsertBatch performs one batched point write. Tests substitute it to
	// exercise the partial-failure path without a live instance.
	upsertBatch func(ctx context.Context, points []*qdrant.PointStruct) error
}

// NewQdrantStore connects to Qdrant. The configured timeout bounds every
// store operation so a dead instance fails fast instead of hanging.
func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	distance, err := ParseDistance(cfg.Distance)
	if err != nil {
		return nil, err
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	s := &QdrantStore{
		client:     client,
		collection: cfg.Collection,
		distance:   distance,
		timeout:    timeout,
	}
	s.upsertBatch = s.upsertViaClient
	return s, nil
}

func (s *QdrantStore) upsertViaClient(ctx context.Context, points []*qdrant.PointStruct) error {
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	return err
}

// ParseDistance maps a configured metric name onto the Qdrant distance enum.
func ParseDistance(name string) (qdrant.Distance, error) {
	switch strings.ToLower(name) {
	case "", "cosine":
		return qdrant.Distance_Cosine, nil
	case "euclid":
		return qdrant.Distance_Euclid, nil
	case "dot":
		return qdrant.Distance_Dot, nil
	default:
		return qdrant.Distance_UnknownDistance, fmt.Errorf("unknown distance metric: %s", name)
	}
}

func (s *QdrantStore) EnsureCollection(ctx context.Context, dim int) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return &StoreUnavailableError{Op: "collection-exists", Err: err}
	}
	if exists {
		info, err := s.client.GetCollectionInfo(ctx, s.collection)
		if err != nil {
			return &StoreUnavailableError{Op: "collection-info", Err: err}
		}
		got := int(info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize())
		if got != dim {
			return &DimensionMismatchError{Collection: s.collection, Want: dim, Got: got}
		}
		return nil
	}

	if err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(dim),
					Distance: s.distance,
				},
			},
		},
	}); err != nil {
		return &StoreUnavailableError{Op: "create-collection", Err: err}
	}
	return nil
}

func (s *QdrantStore) Upsert(ctx context.Context, ids []string, vectors [][]float32, payloads []models.ChunkPayload) error {
	if len(ids) != len(vectors) || len(ids) != len(payloads) {
		return fmt.Errorf("ids (%d), vectors (%d) and payloads (%d) must have equal length",
			len(ids), len(vectors), len(payloads))
	}

	points := make([]*qdrant.PointStruct, len(ids))
	for i := range ids {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(ids[i]),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"source": payloads[i].Source,
				"text":   payloads[i].Text,
			}),
		}
	}

	for start := 0; start < len(points); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(points))
		batchCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.upsertBatch(batchCtx, points[start:end])
		cancel()
		if err != nil {
			if start == 0 {
				// Nothing was written yet.
				return &StoreUnavailableError{Op: "upsert", Err: err}
			}
			return &PartialUpsertError{FailedIDs: ids[start:], Err: err}
		}
	}
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, vector []float32, topK int) ([]models.ScoredChunk, error) {
	if topK <= 0 {
		topK = 5
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	limit := uint64(topK)
	resp, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, &StoreUnavailableError{Op: "search", Err: err}
	}

	hits := make([]models.ScoredChunk, 0, len(resp))
	for _, p := range resp {
		text := p.GetPayload()["text"].GetStringValue()
		if text == "" {
			continue
		}
		hits = append(hits, models.ScoredChunk{
			Text:   text,
			Source: p.GetPayload()["source"].GetStringValue(),
			Score:  p.GetScore(),
		})
	}
	return hits, nil
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}
