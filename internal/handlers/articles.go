package handlers

import (
	"net/http"
	"strings"

	"news-aggregator/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ArticlesHandler serves the stored-article browse endpoints.
type ArticlesHandler struct {
	db *gorm.DB
}

// NewArticlesHandler creates the articles handler.
func NewArticlesHandler(db *gorm.DB) *ArticlesHandler {
	return &ArticlesHandler{db: db}
}

// List handles GET /api/articles with paging, sorting, and optional
// category, language, and country filters.
func (h *ArticlesHandler) List(c *gin.Context) {
	page := parsePositiveInt(c, "page", 1)
	pageSize := parsePositiveInt(c, "page_size", defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	db := h.db.Model(&models.Article{}).Preload("Source")
	db = applyArticleFilters(db, c.Query("category"), c.Query("language"), c.Query("country"))

	var total int64
	if err := db.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count articles"})
		return
	}

	switch c.DefaultQuery("sort", "newest") {
	case "oldest":
		db = db.Order("published_date ASC").Order("created_at ASC")
	case "random":
		db = db.Order("RANDOM()")
	case "popular":
		db = db.Order("(SELECT COUNT(*) FROM user_interactions ui WHERE ui.article_id = articles.id) DESC").
			Order("created_at DESC")
	default:
		db = db.Order("published_date DESC").Order("created_at DESC")
	}

	var articles []models.Article
	err := db.Offset((page - 1) * pageSize).Limit(pageSize).Find(&articles).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load articles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles":  models.NewArticleViews(articles, true),
		"count":     len(articles),
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// Get handles GET /api/articles/:id and returns the full, untruncated
// article.
func (h *ArticlesHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}

	var article models.Article
	if err := h.db.Preload("Source").Preload("Keywords").First(&article, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}

	c.JSON(http.StatusOK, models.NewArticleView(&article, false))
}

// ByCategory handles GET /api/articles/category/:category.
func (h *ArticlesHandler) ByCategory(c *gin.Context) {
	category := strings.TrimSpace(c.Param("category"))
	if category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category is required"})
		return
	}

	page := parsePositiveInt(c, "page", 1)
	pageSize := parsePositiveInt(c, "page_size", defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var articles []models.Article
	err := h.db.Preload("Source").
		Where("LOWER(categories) LIKE ?", "%"+strings.ToLower(category)+"%").
		Order("published_date DESC").Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&articles).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load articles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"articles": models.NewArticleViews(articles, true),
		"count":    len(articles),
	})
}

// Sources handles GET /api/sources.
func (h *ArticlesHandler) Sources(c *gin.Context) {
	var sources []models.Source
	if err := h.db.Order("name ASC").Find(&sources).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sources"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sources": sources, "count": len(sources)})
}

// SourceArticles handles GET /api/sources/:id/articles.
func (h *ArticlesHandler) SourceArticles(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source id"})
		return
	}

	var source models.Source
	if err := h.db.First(&source, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
		return
	}

	page := parsePositiveInt(c, "page", 1)
	pageSize := parsePositiveInt(c, "page_size", defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var articles []models.Article
	err = h.db.Preload("Source").
		Where("source_id = ?", id).
		Order("published_date DESC").Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&articles).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load articles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source":   source,
		"articles": models.NewArticleViews(articles, true),
		"count":    len(articles),
	})
}

// applyArticleFilters narrows an article query by the optional browse
// filters.
func applyArticleFilters(db *gorm.DB, category, language, country string) *gorm.DB {
	if category != "" {
		db = db.Where("LOWER(categories) LIKE ?", "%"+strings.ToLower(category)+"%")
	}
	if language != "" {
		db = db.Where("language = ?", language)
	}
	if country != "" {
		db = db.Where("country = ?", country)
	}
	return db
}
