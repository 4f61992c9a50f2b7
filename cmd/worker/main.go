// Standalone ingestion worker. Runs the same pipeline as the embedded
// workers in the server process, for deployments that scale ingestion
// separately from the HTTP tier.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"news-aggregator/internal/config"
	"news-aggregator/internal/database"
	"news-aggregator/internal/enrichment"
	"news-aggregator/internal/extractor"
	"news-aggregator/internal/ingest"
	"news-aggregator/internal/notify"
	"news-aggregator/internal/tasks"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	workers := flag.Int("workers", 0, "number of worker goroutines (defaults to WORKER_COUNT)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	if *workers > 0 {
		cfg.WorkerCount = *workers
	}

	if err := database.Connect(database.LoadConfig()); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// A worker process has no websocket clients; the hub publishes into the
	// void, which Publish treats as a no-op.
	progress := tasks.NewProgressStore(rdb)
	pipeline := ingest.NewPipeline(
		ingest.NewStore(database.DB),
		extractor.New(),
		enrichment.NewHTTPEmbedder(cfg.EmbedderURL, cfg.EmbeddingModel),
		enrichment.NewClassifier(cfg.ClassifierURL, cfg.LabelMapsPath),
		progress,
		notify.NewHub(),
	)
	coordinator := tasks.NewCoordinator(rdb, database.DB, pipeline, progress)

	workerService := tasks.NewWorkerService(coordinator, cfg.WorkerCount)
	workerService.Start()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("Received shutdown signal, stopping workers...")
	workerService.Stop()
	log.Println("Shutdown complete")
}
