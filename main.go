package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/tmc/langchaingo/llms/openai"

	"ragserver/config"
	"ragserver/controller"
	"ragserver/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// Vector store: Qdrant by default, in-memory for local runs.
	var store services.VectorStore
	switch cfg.StoreBackend {
	case "memory":
		store = services.NewMemoryStore(cfg.Collection)
	default:
		store, err = services.NewQdrantStore(services.QdrantConfig{
			Host:       cfg.QdrantHost,
			Port:       cfg.QdrantPort,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.Collection,
			Distance:   cfg.Distance,
			Timeout:    cfg.StoreTimeout,
		})
		if err != nil {
			log.Fatalf("FATAL: Failed to create vector store: %v", err)
		}
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Warning: Failed to close vector store: %v", err)
		}
	}()

	ctx := context.Background()

	// The dimension invariant is checked once here, not at upsert time.
	if err := store.EnsureCollection(ctx, cfg.EmbedDim); err != nil {
		log.Fatalf("FATAL: Failed to ensure collection %q: %v", cfg.Collection, err)
	}
	log.Printf("Collection %q ready (dim=%d, distance=%s).", cfg.Collection, cfg.EmbedDim, cfg.Distance)

	embedder, err := services.NewOpenAIEmbedder(cfg.EmbedModel, cfg.EmbedBatchSize)
	if err != nil {
		log.Fatalf("FATAL: Failed to create embedder: %v. Make sure OPENAI_API_KEY is set.", err)
	}

	llm, err := openai.New(openai.WithModel(cfg.ChatModel))
	if err != nil {
		log.Fatalf("FATAL: Failed to create completion client: %v", err)
	}

	chunker := services.NewChunkerService(cfg.ChunkSize, cfg.ChunkOverlap)
	ragService := services.NewRAGService(chunker, embedder, store, llm, services.PipelineOptions{
		MaxTokens:   cfg.ChatMaxTokens,
		Temperature: cfg.ChatTemperature,
		DefaultTopK: cfg.DefaultTopK,
	})

	var alerts *services.AlertService
	if cfg.AlertingEnabled() {
		mailer := &services.SMTPMailer{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Sender:    cfg.SMTPSender,
			Password:  cfg.SMTPPassword,
			Recipient: cfg.SMTPRecipient,
		}
		alerts = services.NewAlertService(llm, mailer, cfg.ChatMaxTokens, cfg.ChatTemperature)
		log.Printf("Mail alerting enabled, notifications go to %s.", cfg.SMTPRecipient)
	}

	if cfg.WatchDir != "" {
		indexer := services.NewFileIndexingService(ragService, alerts)
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			indexer.ScanAndIndexDirectory(watchCtx, cfg.WatchDir)
			indexer.WatchDirectory(watchCtx, cfg.WatchDir)
		}()
	}

	ragController := controller.NewRAGController(ragService, alerts)

	router := gin.Default()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "RAG API",
		})
	})

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/ingest", ragController.IngestFile) // Ingest a document from disk
		apiV1.POST("/query", ragController.Query)       // Ask a question
	}

	log.Printf("RAG server starting on http://localhost:%s", cfg.HTTPPort)
	if err := router.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}
