package models

// The pipeline step payloads below are plain structured data on purpose: an
// external orchestrator may persist a step's output and replay it into the
// next step, so nothing here holds a live connection or handle.

// ChunkAndSource is the output of the load-and-chunk step and the input of
// the embed-and-upsert step.
type ChunkAndSource struct {
	Chunks   []string `json:"chunks"`
	SourceID string   `json:"source_id"`
}

// UpsertResult reports how many chunks the embed-and-upsert step persisted.
type UpsertResult struct {
	Ingested int `json:"ingested"`
}

// ChunkPayload is the metadata stored alongside each vector.
type ChunkPayload struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// ScoredChunk is a single ranked hit returned by the vector store.
type ScoredChunk struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float32 `json:"score"`
}

// SearchResult is the output of the embed-and-search step: the retrieved
// context texts in rank order plus the deduplicated source identifiers in
// first-seen order.
type SearchResult struct {
	Contexts []string `json:"contexts"`
	Sources  []string `json:"sources"`
}

// QueryResult is the final answer composed from a SearchResult.
type QueryResult struct {
	Answer      string   `json:"answer"`
	Sources     []string `json:"sources"`
	NumContexts int      `json:"num_contexts"`
}
