package controller

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"ragserver/models"
	"ragserver/services"
)

// RAGController handles the HTTP requests for the RAG API. It depends on the
// RAGService to perform the actual pipeline work.
type RAGController struct {
	ragService services.RAGService
	alerts     *services.AlertService
}

// NewRAGController is called from main.go to inject the dependencies. alerts
// may be nil when mail alerting is not configured.
func NewRAGController(service services.RAGService, alerts *services.AlertService) *RAGController {
	return &RAGController{
		ragService: service,
		alerts:     alerts,
	}
}

// IngestFile is the Gin handler for POST /api/v1/ingest. It runs the
// load-and-chunk and embed-and-upsert steps in order and fires the alert
// mail in the background.
func (c *RAGController) IngestFile(ctx *gin.Context) {
	var req models.IngestFileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	// An absent source id defaults to the path inside LoadAndChunk.
	chunked, err := c.ragService.LoadAndChunk(ctx.Request.Context(), req.Path, req.SourceID)
	if err != nil {
		if errors.Is(err, services.ErrEmptyInput) {
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Document has no extractable text"})
			return
		}
		log.Printf("CONTROLLER ERROR: load %s: %v", req.Path, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load document"})
		return
	}

	result, err := c.ragService.EmbedAndUpsert(ctx.Request.Context(), chunked)
	if err != nil {
		log.Printf("CONTROLLER ERROR: ingest %s: %v", chunked.SourceID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest document"})
		return
	}

	if c.alerts != nil {
		// The notification is its own unit of work; its failure never fails
		// the ingest response.
		go func(sourceID string, chunks []string) {
			if _, err := c.alerts.NotifyNewDocument(context.Background(), sourceID, chunks); err != nil {
				log.Printf("ALERT ERROR: %v", err)
			}
		}(chunked.SourceID, chunked.Chunks)
	}

	ctx.JSON(http.StatusCreated, models.IngestResponse{
		SourceID: chunked.SourceID,
		Ingested: result.Ingested,
	})
}

// Query is the Gin handler for POST /api/v1/query.
func (c *RAGController) Query(ctx *gin.Context) {
	var req models.QueryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	result, err := c.ragService.Answer(ctx.Request.Context(), req.Question, req.TopK)
	if err != nil {
		log.Printf("CONTROLLER ERROR: query: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to answer question"})
		return
	}

	ctx.JSON(http.StatusOK, models.QueryResponse{
		Answer:      result.Answer,
		Sources:     result.Sources,
		NumContexts: result.NumContexts,
	})
}
