package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragserver/models"
	"ragserver/services"
)

// stubRAG is a canned RAGService for handler tests.
type stubRAG struct {
	chunked   *models.ChunkAndSource
	loadErr   error
	upserted  *models.UpsertResult
	upsertErr error
	answer    *models.QueryResult
	answerErr error
}

func (s *stubRAG) LoadAndChunk(_ context.Context, _, _ string) (*models.ChunkAndSource, error) {
	return s.chunked, s.loadErr
}

func (s *stubRAG) EmbedAndUpsert(_ context.Context, _ *models.ChunkAndSource) (*models.UpsertResult, error) {
	return s.upserted, s.upsertErr
}

func (s *stubRAG) IngestFile(_ context.Context, _, _ string) (*models.UpsertResult, error) {
	return s.upserted, s.upsertErr
}

func (s *stubRAG) IngestText(_ context.Context, _, _ string) (*models.UpsertResult, error) {
	return s.upserted, s.upsertErr
}

func (s *stubRAG) Search(_ context.Context, _ string, _ int) (*models.SearchResult, error) {
	return nil, nil
}

func (s *stubRAG) Answer(_ context.Context, _ string, _ int) (*models.QueryResult, error) {
	return s.answer, s.answerErr
}

func newRouter(svc services.RAGService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	c := NewRAGController(svc, nil)
	router := gin.New()
	router.POST("/api/v1/ingest", c.IngestFile)
	router.POST("/api/v1/query", c.Query)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIngestFileSuccess(t *testing.T) {
	router := newRouter(&stubRAG{
		chunked:  &models.ChunkAndSource{Chunks: []string{"a", "b", "c"}, SourceID: "doc.pdf"},
		upserted: &models.UpsertResult{Ingested: 3},
	})

	w := postJSON(t, router, "/api/v1/ingest", models.IngestFileRequest{Path: "/docs/doc.pdf", SourceID: "doc.pdf"})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.IngestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "doc.pdf", resp.SourceID)
	assert.Equal(t, 3, resp.Ingested)
}

func TestIngestFileDefaultSourceIDFromPipeline(t *testing.T) {
	// No source_id in the request; the response carries the id the pipeline
	// settled on, not one recomputed by the handler.
	router := newRouter(&stubRAG{
		chunked:  &models.ChunkAndSource{Chunks: []string{"a"}, SourceID: "/docs/doc.pdf"},
		upserted: &models.UpsertResult{Ingested: 1},
	})

	w := postJSON(t, router, "/api/v1/ingest", models.IngestFileRequest{Path: "/docs/doc.pdf"})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.IngestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "/docs/doc.pdf", resp.SourceID)
}

func TestIngestFileEmptyDocument(t *testing.T) {
	router := newRouter(&stubRAG{
		loadErr: fmt.Errorf("scan.pdf: %w", services.ErrEmptyInput),
	})

	w := postJSON(t, router, "/api/v1/ingest", models.IngestFileRequest{Path: "/docs/scan.pdf"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestIngestFileMissingPath(t *testing.T) {
	router := newRouter(&stubRAG{})

	w := postJSON(t, router, "/api/v1/ingest", map[string]string{"source_id": "doc.pdf"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestFileUpsertFailure(t *testing.T) {
	router := newRouter(&stubRAG{
		chunked:   &models.ChunkAndSource{Chunks: []string{"a"}, SourceID: "doc.pdf"},
		upsertErr: fmt.Errorf("store down"),
	})

	w := postJSON(t, router, "/api/v1/ingest", models.IngestFileRequest{Path: "/docs/doc.pdf"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestQuerySuccess(t *testing.T) {
	router := newRouter(&stubRAG{
		answer: &models.QueryResult{
			Answer:      "Refunds take 30 days.",
			Sources:     []string{"policy.pdf"},
			NumContexts: 2,
		},
	})

	w := postJSON(t, router, "/api/v1/query", models.QueryRequest{Question: "What is the refund policy?"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.QueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Refunds take 30 days.", resp.Answer)
	assert.Equal(t, []string{"policy.pdf"}, resp.Sources)
	assert.Equal(t, 2, resp.NumContexts)
}

func TestQueryMissingQuestion(t *testing.T) {
	router := newRouter(&stubRAG{})

	w := postJSON(t, router, "/api/v1/query", map[string]int{"top_k": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryFailure(t *testing.T) {
	router := newRouter(&stubRAG{answerErr: fmt.Errorf("embedding service: auth")})

	w := postJSON(t, router, "/api/v1/query", models.QueryRequest{Question: "anything"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
