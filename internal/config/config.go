// Package config collects environment-derived configuration for everything
// outside the database (which keeps its own config, see internal/database).
package config

import (
	"os"
	"time"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// External news APIs
	NewsAPIKey  string
	GNewsAPIKey string

	// Redis (request cache, task progress, work queue)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Enrichment sidecar
	EmbedderURL    string
	ClassifierURL  string
	LabelMapsPath  string
	EmbeddingModel string

	// Auth
	JWTSecret string
	JWTTTL    time.Duration

	// Worker pool
	WorkerCount int
}

// Load reads configuration from environment variables with sane defaults for
// local development.
func Load() *Config {
	return &Config{
		NewsAPIKey:  os.Getenv("NEWS_API_KEY"),
		GNewsAPIKey: os.Getenv("GNEWS_API_KEY"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       0,

		EmbedderURL:    getEnv("EMBEDDER_URL", "http://localhost:8100/embed"),
		ClassifierURL:  getEnv("CLASSIFIER_URL", "http://localhost:8100/classify"),
		LabelMapsPath:  getEnv("LABEL_MAPS_PATH", "nlp/label_maps.json"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "all-MiniLM-L6-v2"),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTTTL:    24 * time.Hour,

		WorkerCount: 2,
	}
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
