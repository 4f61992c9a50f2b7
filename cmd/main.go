package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"news-aggregator/internal/auth"
	"news-aggregator/internal/cache"
	"news-aggregator/internal/config"
	"news-aggregator/internal/database"
	"news-aggregator/internal/enrichment"
	"news-aggregator/internal/extractor"
	"news-aggregator/internal/fetchers"
	"news-aggregator/internal/handlers"
	"news-aggregator/internal/ingest"
	"news-aggregator/internal/notify"
	"news-aggregator/internal/recommend"
	"news-aggregator/internal/tasks"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Connect to database
	dbConfig := database.LoadConfig()
	if err := database.Connect(dbConfig); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// Assemble the ingestion pipeline and its collaborators
	hub := notify.NewHub()
	embedder := enrichment.NewHTTPEmbedder(cfg.EmbedderURL, cfg.EmbeddingModel)
	classifier := enrichment.NewClassifier(cfg.ClassifierURL, cfg.LabelMapsPath)
	progress := tasks.NewProgressStore(rdb)
	pipeline := ingest.NewPipeline(
		ingest.NewStore(database.DB),
		extractor.New(),
		embedder,
		classifier,
		progress,
		hub,
	)
	coordinator := tasks.NewCoordinator(rdb, database.DB, pipeline, progress)

	// Start background workers
	workerService := tasks.NewWorkerService(coordinator, cfg.WorkerCount)
	workerService.Start()

	setupGracefulShutdown(workerService)
	setupServer(cfg, rdb, hub, coordinator)
}

func setupGracefulShutdown(workerService *tasks.WorkerService) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Received shutdown signal, gracefully shutting down...")

		workerService.Stop()
		database.Close()

		log.Println("Shutdown complete")
		os.Exit(0)
	}()
}

func setupServer(cfg *config.Config, rdb *redis.Client, hub *notify.Hub, coordinator *tasks.Coordinator) {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	registry := fetchers.NewRegistry(
		fetchers.NewNewsAPIFetcher(cfg.NewsAPIKey),
		fetchers.NewGNewsFetcher(cfg.GNewsAPIKey),
		fetchers.NewGoogleRSSFetcher(),
	)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)

	searchHandler := handlers.NewSearchHandler(database.DB, registry, cache.New(rdb), coordinator)
	articlesHandler := handlers.NewArticlesHandler(database.DB)
	socialHandler := handlers.NewSocialHandler(database.DB)
	recommendationsHandler := handlers.NewRecommendationsHandler(recommend.NewEngine(database.DB))
	authHandler := handlers.NewAuthHandler(database.DB, tokens)
	docsHandler := handlers.NewDocsHandler()
	wsHandler := notify.NewWSHandler(hub, database.DB)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Serve Markdown documentation as HTML
	r.GET("/doc/:doc", docsHandler.ServeMarkdownAsHTML)

	// Live article updates
	r.GET("/ws/news", wsHandler.Serve)

	// API routes
	api := r.Group("/api")
	{
		api.GET("/search", searchHandler.Search)
		api.GET("/poll/:task_id", searchHandler.Poll)

		api.GET("/articles", articlesHandler.List)
		api.GET("/articles/:id", articlesHandler.Get)
		api.GET("/articles/category/:category", articlesHandler.ByCategory)
		api.GET("/sources", articlesHandler.Sources)
		api.GET("/sources/:id/articles", articlesHandler.SourceArticles)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		protected := api.Group("", tokens.Middleware(database.DB))
		{
			social := protected.Group("/social")
			{
				social.POST("/likes", socialHandler.ToggleLike)
				social.GET("/likes/:article_id", socialHandler.LikeStatus)
				social.POST("/comments", socialHandler.AddComment)
				social.GET("/comments/:article_id", socialHandler.Comments)
				social.POST("/saved", socialHandler.ToggleSave)
				social.POST("/views", socialHandler.RecordView)
			}

			protected.GET("/collections", socialHandler.Collections)
			protected.POST("/collections", socialHandler.CreateCollection)
			protected.GET("/collections/:id/articles", socialHandler.CollectionArticles)
			protected.GET("/user/stats", socialHandler.UserStats)

			protected.POST("/recommendations/refresh", recommendationsHandler.Refresh)
			protected.GET("/recommendations", recommendationsHandler.List)
		}
	}

	// Get port from environment or default to 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
