package services

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder maps batches of texts to fixed-dimension vectors, one vector per
// input in the same order.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder wraps an OpenAI-compatible embeddings endpoint. The batch
// size is the capability's input limit per call; inputs above it are split by
// the underlying embedder.
type OpenAIEmbedder struct {
	impl *embeddings.EmbedderImpl
}

// NewOpenAIEmbedder creates an embedder for the given model. Authentication
// comes from the OPENAI_API_KEY environment variable.
func NewOpenAIEmbedder(model string, batchSize int) (*OpenAIEmbedder, error) {
	llm, err := openai.New(openai.WithEmbeddingModel(model))
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}
	impl, err := embeddings.NewEmbedder(llm, embeddings.WithBatchSize(batchSize))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return &OpenAIEmbedder{impl: impl}, nil
}

func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, &EmbeddingServiceError{Err: err}
	}
	if len(vectors) != len(texts) {
		return nil, &EmbeddingServiceError{Err: fmt.Errorf("got %d vectors for %d inputs", len(vectors), len(texts))}
	}
	return vectors, nil
}

func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, &EmbeddingServiceError{Err: err}
	}
	return vector, nil
}
