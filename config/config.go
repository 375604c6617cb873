package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration, loaded from the environment.
type Config struct {
	HTTPPort string `validate:"required"`

	StoreBackend string `validate:"oneof=qdrant memory"`
	QdrantHost   string
	QdrantPort   int
	QdrantAPIKey string
	Collection   string        `validate:"required"`
	StoreTimeout time.Duration `validate:"gt=0"`
	Distance     string        `validate:"oneof=cosine euclid dot Cosine Euclid Dot"`

	EmbedModel     string `validate:"required"`
	EmbedDim       int    `validate:"gt=0"`
	EmbedBatchSize int    `validate:"gt=0"`

	ChunkSize    int `validate:"gt=0"`
	ChunkOverlap int `validate:"gte=0,ltfield=ChunkSize"`

	ChatModel       string `validate:"required"`
	ChatMaxTokens   int    `validate:"gt=0"`
	ChatTemperature float64
	DefaultTopK     int `validate:"gt=0"`

	WatchDir string

	SMTPHost      string
	SMTPPort      int
	SMTPSender    string
	SMTPPassword  string
	SMTPRecipient string
}

// Load reads the environment (plus an optional .env file) into a validated
// Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		StoreBackend:    getEnv("STORE_BACKEND", "qdrant"),
		QdrantHost:      getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:      getEnvInt("QDRANT_PORT", 6334),
		QdrantAPIKey:    os.Getenv("QDRANT_API_KEY"),
		Collection:      getEnv("QDRANT_COLLECTION", "docs"),
		StoreTimeout:    getEnvDuration("STORE_TIMEOUT", 30*time.Second),
		Distance:        getEnv("DISTANCE_METRIC", "Cosine"),
		EmbedModel:      getEnv("EMBED_MODEL", "text-embedding-3-large"),
		EmbedDim:        getEnvInt("EMBED_DIM", 3072),
		EmbedBatchSize:  getEnvInt("EMBED_BATCH_SIZE", 512),
		ChunkSize:       getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:    getEnvInt("CHUNK_OVERLAP", 200),
		ChatModel:       getEnv("CHAT_MODEL", "gpt-4o-mini"),
		ChatMaxTokens:   getEnvInt("CHAT_MAX_TOKENS", 1024),
		ChatTemperature: getEnvFloat("CHAT_TEMPERATURE", 0.2),
		DefaultTopK:     getEnvInt("DEFAULT_TOP_K", 5),
		WatchDir:        os.Getenv("WATCH_DIR"),
		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPPort:        getEnvInt("SMTP_PORT", 587),
		SMTPSender:      os.Getenv("SMTP_SENDER"),
		SMTPPassword:    os.Getenv("SMTP_PASSWORD"),
		SMTPRecipient:   os.Getenv("SMTP_RECIPIENT"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// AlertingEnabled reports whether mail alerting is fully configured.
func (c *Config) AlertingEnabled() bool {
	return c.SMTPHost != "" && c.SMTPSender != "" && c.SMTPRecipient != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("CONFIG WARN: %s=%q is not an integer, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("CONFIG WARN: %s=%q is not a number, using %g", key, v, fallback)
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("CONFIG WARN: %s=%q is not a duration, using %s", key, v, fallback)
		return fallback
	}
	return d
}
