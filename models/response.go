package models

type IngestResponse struct {
	SourceID string `json:"source_id"`
	Ingested int    `json:"ingested"`
	Error    string `json:"error,omitempty"`
}

type QueryResponse struct {
	Answer      string   `json:"answer"`
	Sources     []string `json:"sources"`
	NumContexts int      `json:"num_contexts"`
	Error       string   `json:"error,omitempty"`
}
