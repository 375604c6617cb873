package models

type IngestFileRequest struct {
	Path     string `json:"path" binding:"required"`
	SourceID string `json:"source_id,omitempty"`
}

type QueryRequest struct {
	Question string `json:"question" binding:"required"`
	TopK     int    `json:"top_k,omitempty"`
}
