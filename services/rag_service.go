package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"ragserver/models"
)

// RAGService runs the retrieval pipeline: chunk -> embed -> upsert on ingest
// and embed -> search on query. The Load/Embed/Search methods are the
// individually retryable steps; IngestFile, IngestText and Answer compose
// them in strict order.
type RAGService interface {
	LoadAndChunk(ctx context.Context, path, sourceID string) (*models.ChunkAndSource, error)
	EmbedAndUpsert(ctx context.Context, in *models.ChunkAndSource) (*models.UpsertResult, error)
	IngestFile(ctx context.Context, path, sourceID string) (*models.UpsertResult, error)
	IngestText(ctx context.Context, sourceID, text string) (*models.UpsertResult, error)
	Search(ctx context.Context, question string, topK int) (*models.SearchResult, error)
	Answer(ctx context.Context, question string, topK int) (*models.QueryResult, error)
}

// PipelineOptions carries the completion-service tuning for Answer.
type PipelineOptions struct {
	MaxTokens   int
	Temperature float64
	DefaultTopK int
}

// ragServiceImpl holds the pipeline dependencies. Every collaborator is
// injected so tests can substitute the store and the models.
type ragServiceImpl struct {
	chunker  *ChunkerService
	embedder Embedder
	store    VectorStore
	llm      llms.Model
	opts     PipelineOptions
}

// NewRAGService creates the pipeline over the given collaborators.
func NewRAGService(chunker *ChunkerService, embedder Embedder, store VectorStore, llm llms.Model, opts PipelineOptions) RAGService {
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = 5
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	return &ragServiceImpl{
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		llm:      llm,
		opts:     opts,
	}
}

// LoadAndChunk extracts a document's text and splits it into chunks. A
// document with no extractable text at all is ErrEmptyInput: it must be
// reported, since it means ingestion would produce nothing.
func (r *ragServiceImpl) LoadAndChunk(_ context.Context, path, sourceID string) (*models.ChunkAndSource, error) {
	if sourceID == "" {
		sourceID = path
	}
	pages, err := ExtractPages(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	var chunks []string
	for _, page := range pages {
		chunks = append(chunks, r.chunker.Split(page)...)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%s: %w", sourceID, ErrEmptyInput)
	}
	log.Printf("SERVICE: Split %s into %d chunks.", sourceID, len(chunks))
	return &models.ChunkAndSource{Chunks: chunks, SourceID: sourceID}, nil
}

// EmbedAndUpsert embeds every chunk in one batched call and upserts the
// records under deterministic ids. Re-running the step for the same input
// overwrites the same points, so orchestrator retries are safe.
func (r *ragServiceImpl) EmbedAndUpsert(ctx context.Context, in *models.ChunkAndSource) (*models.UpsertResult, error) {
	if in == nil {
		return nil, ErrEmptyInput
	}
	if len(in.Chunks) == 0 {
		return nil, fmt.Errorf("%s: %w", in.SourceID, ErrEmptyInput)
	}

	vectors, err := r.embedder.EmbedDocuments(ctx, in.Chunks)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(in.Chunks))
	payloads := make([]models.ChunkPayload, len(in.Chunks))
	for i, chunk := range in.Chunks {
		ids[i] = ChunkPointID(in.SourceID, i)
		payloads[i] = models.ChunkPayload{Source: in.SourceID, Text: chunk}
	}

	if err := r.store.Upsert(ctx, ids, vectors, payloads); err != nil {
		return nil, err
	}
	log.Printf("SERVICE: Upserted %d chunks for source %s.", len(ids), in.SourceID)
	return &models.UpsertResult{Ingested: len(in.Chunks)}, nil
}

func (r *ragServiceImpl) IngestFile(ctx context.Context, path, sourceID string) (*models.UpsertResult, error) {
	chunked, err := r.LoadAndChunk(ctx, path, sourceID)
	if err != nil {
		return nil, err
	}
	return r.EmbedAndUpsert(ctx, chunked)
}

// IngestText ingests already-extracted text under the given source id.
func (r *ragServiceImpl) IngestText(ctx context.Context, sourceID, text string) (*models.UpsertResult, error) {
	chunks := r.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%s: %w", sourceID, ErrEmptyInput)
	}
	return r.EmbedAndUpsert(ctx, &models.ChunkAndSource{Chunks: chunks, SourceID: sourceID})
}

// Search embeds the question and retrieves the topK nearest chunks,
// partitioned into rank-ordered context texts and deduplicated sources.
func (r *ragServiceImpl) Search(ctx context.Context, question string, topK int) (*models.SearchResult, error) {
	if topK <= 0 {
		topK = r.opts.DefaultTopK
	}
	vector, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, err
	}
	hits, err := r.store.Search(ctx, vector, topK)
	if err != nil {
		return nil, err
	}

	contexts := make([]string, 0, len(hits))
	sources := make([]string, 0, len(hits))
	seen := make(map[string]bool, len(hits))
	for _, hit := range hits {
		contexts = append(contexts, hit.Text)
		if !seen[hit.Source] {
			seen[hit.Source] = true
			sources = append(sources, hit.Source)
		}
	}
	return &models.SearchResult{Contexts: contexts, Sources: sources}, nil
}

// Answer retrieves context for the question and asks the completion service
// to compose an answer from it. Without any retrieved context no answer is
// fabricated.
func (r *ragServiceImpl) Answer(ctx context.Context, question string, topK int) (*models.QueryResult, error) {
	found, err := r.Search(ctx, question, topK)
	if err != nil {
		return nil, err
	}
	if len(found.Contexts) == 0 {
		return &models.QueryResult{
			Answer:      "I could not find anything relevant to that question in the ingested documents.",
			Sources:     []string{},
			NumContexts: 0,
		}, nil
	}

	var block strings.Builder
	for _, c := range found.Contexts {
		block.WriteString("- ")
		block.WriteString(c)
		block.WriteString("\n\n")
	}
	userContent := fmt.Sprintf(
		"Use the following context to answer the question.\n\nContext:\n%s\nQuestion: %s\nAnswer concisely using the context above.",
		block.String(), question,
	)

	resp, err := r.llm.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, "You answer questions using only the provided context."),
			llms.TextParts(llms.ChatMessageTypeHuman, userContent),
		},
		llms.WithMaxTokens(r.opts.MaxTokens),
		llms.WithTemperature(r.opts.Temperature),
	)
	if err != nil {
		return nil, fmt.Errorf("completion service: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("completion service returned no choices")
	}

	return &models.QueryResult{
		Answer:      strings.TrimSpace(resp.Choices[0].Content),
		Sources:     found.Sources,
		NumContexts: len(found.Contexts),
	}, nil
}
