// Package handlers contains the gin HTTP handlers. Handlers stay thin:
// parsing and response shaping here, domain behavior in the services they
// wrap.
package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"news-aggregator/internal/cache"
	"news-aggregator/internal/fetchers"
	"news-aggregator/internal/ingest"
	"news-aggregator/internal/models"
	"news-aggregator/internal/query"
	"news-aggregator/internal/tasks"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// freshWindow is the default recency restriction on search results.
const freshWindow = 24 * time.Hour

// SearchHandler serves the aggregation endpoint: immediate results from the
// store, background fetch and ingestion for anything new.
type SearchHandler struct {
	db          *gorm.DB
	registry    *fetchers.Registry
	cache       *cache.Cache
	coordinator *tasks.Coordinator
}

// NewSearchHandler creates the search handler.
func NewSearchHandler(db *gorm.DB, registry *fetchers.Registry, resultCache *cache.Cache, coordinator *tasks.Coordinator) *SearchHandler {
	return &SearchHandler{
		db:          db,
		registry:    registry,
		cache:       resultCache,
		coordinator: coordinator,
	}
}

// Search handles GET /api/search. Stored matches are returned immediately;
// unless a recent identical query is cached, the upstream sources are
// queried and the results enqueued for background ingestion. Staleness is
// preferred over blocking: the response never waits for ingestion.
func (h *SearchHandler) Search(c *gin.Context) {
	rawQuery := c.Query("q")
	if rawQuery == "" {
		rawQuery = c.Query("query")
	}
	if rawQuery == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}
	if len(rawQuery) > fetchers.MaxQueryLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query too long"})
		return
	}

	language := c.DefaultQuery("language", "en")
	country := c.DefaultQuery("country", "")
	mode := query.ModeAnd
	if c.DefaultQuery("mode", "and") == "or" {
		mode = query.ModeOr
	}
	freshOnly := c.DefaultQuery("fresh_only", "true") == "true"
	refresh := c.DefaultQuery("refresh", "false") == "true"

	parsed := query.Parse(rawQuery)

	stored, err := h.storedResults(parsed, language, country, freshOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load articles"})
		return
	}

	response := gin.H{
		"articles": models.NewArticleViews(stored, true),
		"count":    len(stored),
	}

	ctx := c.Request.Context()
	if _, hit := h.cache.Get(ctx, rawQuery, language); hit && !refresh {
		response["cached"] = true
		c.JSON(http.StatusOK, response)
		return
	}

	raw := h.registry.FetchAll(ctx, parsed.RenderBoolean(mode), parsed.RenderPlain(), language, country)
	if len(raw) > 0 {
		if err := h.cache.Set(ctx, rawQuery, language, raw); err != nil {
			log.Printf("Failed to cache results for %q: %v", rawQuery, err)
		}

		taskID, err := h.coordinator.Enqueue(ctx, ingest.Job{
			Query:    rawQuery,
			Terms:    parsed.Terms,
			Phrases:  parsed.Phrases,
			Language: language,
			Country:  country,
			Articles: raw,
		})
		if err != nil {
			log.Printf("Failed to enqueue ingestion for %q: %v", rawQuery, err)
		} else {
			response["task_id"] = taskID
		}
	}

	c.JSON(http.StatusOK, response)
}

// storedResults loads already-ingested articles matching the query.
func (h *SearchHandler) storedResults(parsed query.Query, language, country string, freshOnly bool) ([]models.Article, error) {
	db := h.db.Model(&models.Article{}).
		Scopes(query.ArticleFilter(parsed)).
		Preload("Source")

	if language != "" {
		db = db.Where("articles.language = ? OR articles.language = ''", language)
	}
	if country != "" {
		db = db.Where("articles.country = ? OR articles.country = ''", country)
	}
	if freshOnly {
		db = db.Where("articles.created_at >= ?", time.Now().Add(-freshWindow))
	}

	var articles []models.Article
	err := db.Distinct("articles.*").
		Order("articles.created_at DESC").
		Limit(50).
		Find(&articles).Error
	return articles, err
}

// Poll handles GET /api/poll/:task_id.
func (h *SearchHandler) Poll(c *gin.Context) {
	taskID := c.Param("task_id")

	result, err := h.coordinator.Poll(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to poll task"})
		return
	}

	if result.Status == tasks.StatusNotFound {
		c.JSON(http.StatusNotFound, gin.H{"status": tasks.StatusNotFound})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   result.Status,
		"articles": models.NewArticleViews(result.Articles, true),
		"count":    result.Count,
	})
}

// parsePositiveInt reads a positive integer query parameter with a default.
func parsePositiveInt(c *gin.Context, name string, fallback int) int {
	value, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(fallback)))
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
