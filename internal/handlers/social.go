package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"news-aggregator/internal/auth"
	"news-aggregator/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// defaultCollectionName receives saves made without an explicit collection.
const defaultCollectionName = "Saved"

// SocialHandler serves likes, comments, saved articles, and collections.
// Every engagement write also upserts the user's interaction row so the
// recommendation engine sees it.
type SocialHandler struct {
	db *gorm.DB
}

// NewSocialHandler creates the social handler.
func NewSocialHandler(db *gorm.DB) *SocialHandler {
	return &SocialHandler{db: db}
}

type articleRef struct {
	ArticleID string `json:"article_id" binding:"required"`
}

// ToggleLike handles POST /api/social/likes. Liking twice unlikes.
func (h *SocialHandler) ToggleLike(c *gin.Context) {
	user := auth.CurrentUser(c)

	articleID, ok := h.bindArticleID(c)
	if !ok {
		return
	}

	var existing models.Like
	err := h.db.Where("user_id = ? AND article_id = ?", user.ID, articleID).First(&existing).Error
	switch {
	case err == nil:
		if err := h.db.Delete(&existing).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove like"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"liked": false, "likes": h.likeCount(articleID)})
	case err == gorm.ErrRecordNotFound:
		like := models.Like{UserID: user.ID, ArticleID: articleID}
		if err := h.db.Create(&like).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to like article"})
			return
		}
		h.recordInteraction(user.ID, articleID, "like")
		c.JSON(http.StatusOK, gin.H{"liked": true, "likes": h.likeCount(articleID)})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up like"})
	}
}

// LikeStatus handles GET /api/social/likes/:article_id.
func (h *SocialHandler) LikeStatus(c *gin.Context) {
	user := auth.CurrentUser(c)

	articleID, err := uuid.Parse(c.Param("article_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}

	var count int64
	h.db.Model(&models.Like{}).
		Where("user_id = ? AND article_id = ?", user.ID, articleID).
		Count(&count)

	c.JSON(http.StatusOK, gin.H{"liked": count > 0, "likes": h.likeCount(articleID)})
}

type commentRequest struct {
	ArticleID string `json:"article_id" binding:"required"`
	Content   string `json:"content" binding:"required"`
}

// AddComment handles POST /api/social/comments.
func (h *SocialHandler) AddComment(c *gin.Context) {
	user := auth.CurrentUser(c)

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "article_id and content are required"})
		return
	}
	articleID, err := uuid.Parse(req.ArticleID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "comment content is empty"})
		return
	}

	comment := models.Comment{UserID: user.ID, ArticleID: articleID, Content: content}
	if err := h.db.Create(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store comment"})
		return
	}
	h.recordInteraction(user.ID, articleID, "comment")

	c.JSON(http.StatusCreated, gin.H{
		"id":         comment.ID,
		"article_id": comment.ArticleID,
		"content":    comment.Content,
		"username":   user.Username,
		"created_at": comment.CreatedAt,
	})
}

// Comments handles GET /api/social/comments/:article_id.
func (h *SocialHandler) Comments(c *gin.Context) {
	articleID, err := uuid.Parse(c.Param("article_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}

	var comments []models.Comment
	err = h.db.Preload("User").
		Where("article_id = ?", articleID).
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load comments"})
		return
	}

	views := make([]gin.H, len(comments))
	for i, comment := range comments {
		views[i] = gin.H{
			"id":         comment.ID,
			"content":    comment.Content,
			"username":   comment.User.Username,
			"created_at": comment.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{"comments": views, "count": len(views)})
}

type saveRequest struct {
	ArticleID  string `json:"article_id" binding:"required"`
	Collection string `json:"collection"`
}

// ToggleSave handles POST /api/social/saved. Saving into the same
// collection twice removes the saved entry.
func (h *SocialHandler) ToggleSave(c *gin.Context) {
	user := auth.CurrentUser(c)

	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "article_id is required"})
		return
	}
	articleID, err := uuid.Parse(req.ArticleID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}

	collectionName := strings.TrimSpace(req.Collection)
	if collectionName == "" {
		collectionName = defaultCollectionName
	}

	collection, err := h.getOrCreateCollection(user.ID, collectionName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve collection"})
		return
	}

	var existing models.SavedArticle
	err = h.db.Where("user_id = ? AND article_id = ? AND collection_id = ?", user.ID, articleID, collection.ID).
		First(&existing).Error
	switch {
	case err == nil:
		if err := h.db.Delete(&existing).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove saved article"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"saved": false, "collection": collection.Name})
	case err == gorm.ErrRecordNotFound:
		saved := models.SavedArticle{UserID: user.ID, ArticleID: articleID, CollectionID: collection.ID}
		if err := h.db.Create(&saved).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save article"})
			return
		}
		h.recordInteraction(user.ID, articleID, "save")
		c.JSON(http.StatusOK, gin.H{"saved": true, "collection": collection.Name})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up saved article"})
	}
}

// Collections handles GET /api/collections.
func (h *SocialHandler) Collections(c *gin.Context) {
	user := auth.CurrentUser(c)

	var collections []models.SavedCollection
	err := h.db.Where("user_id = ?", user.ID).Order("created_at ASC").Find(&collections).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load collections"})
		return
	}

	views := make([]gin.H, len(collections))
	for i, collection := range collections {
		var count int64
		h.db.Model(&models.SavedArticle{}).Where("collection_id = ?", collection.ID).Count(&count)
		views[i] = gin.H{
			"id":            collection.ID,
			"name":          collection.Name,
			"article_count": count,
			"created_at":    collection.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{"collections": views, "count": len(views)})
}

type collectionRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateCollection handles POST /api/collections.
func (h *SocialHandler) CreateCollection(c *gin.Context) {
	user := auth.CurrentUser(c)

	var req collectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	collection, err := h.getOrCreateCollection(user.ID, name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create collection"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": collection.ID, "name": collection.Name})
}

// CollectionArticles handles GET /api/collections/:id/articles.
func (h *SocialHandler) CollectionArticles(c *gin.Context) {
	user := auth.CurrentUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid collection id"})
		return
	}

	var collection models.SavedCollection
	if err := h.db.Where("id = ? AND user_id = ?", id, user.ID).First(&collection).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "collection not found"})
		return
	}

	var articles []models.Article
	err = h.db.Preload("Source").
		Where("id IN (SELECT article_id FROM saved_articles WHERE collection_id = ?)", collection.ID).
		Order("created_at DESC").
		Find(&articles).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load articles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"collection": gin.H{"id": collection.ID, "name": collection.Name},
		"articles":   models.NewArticleViews(articles, true),
		"count":      len(articles),
	})
}

// UserStats handles GET /api/user/stats.
func (h *SocialHandler) UserStats(c *gin.Context) {
	user := auth.CurrentUser(c)

	var likes, comments, saved, collections int64
	h.db.Model(&models.Like{}).Where("user_id = ?", user.ID).Count(&likes)
	h.db.Model(&models.Comment{}).Where("user_id = ?", user.ID).Count(&comments)
	h.db.Model(&models.SavedArticle{}).Where("user_id = ?", user.ID).Count(&saved)
	h.db.Model(&models.SavedCollection{}).Where("user_id = ?", user.ID).Count(&collections)

	c.JSON(http.StatusOK, gin.H{
		"username":       user.Username,
		"likes":          likes,
		"comments":       comments,
		"saved_articles": saved,
		"collections":    collections,
	})
}

// RecordView handles POST /api/social/views so clients can report reads.
func (h *SocialHandler) RecordView(c *gin.Context) {
	user := auth.CurrentUser(c)

	articleID, ok := h.bindArticleID(c)
	if !ok {
		return
	}

	h.recordInteraction(user.ID, articleID, "view")
	c.JSON(http.StatusOK, gin.H{"recorded": true})
}

func (h *SocialHandler) bindArticleID(c *gin.Context) (uuid.UUID, bool) {
	var req articleRef
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "article_id is required"})
		return uuid.Nil, false
	}
	articleID, err := uuid.Parse(req.ArticleID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return uuid.Nil, false
	}
	return articleID, true
}

func (h *SocialHandler) likeCount(articleID uuid.UUID) int64 {
	var count int64
	h.db.Model(&models.Like{}).Where("article_id = ?", articleID).Count(&count)
	return count
}

// recordInteraction upserts the (user, article) interaction row. The row
// keeps the latest interaction type and its strength; a weaker later
// interaction does not downgrade a stronger one.
func (h *SocialHandler) recordInteraction(userID, articleID uuid.UUID, interactionType string) {
	strength := models.InteractionStrength(interactionType)

	var existing models.UserInteraction
	err := h.db.Where("user_id = ? AND article_id = ?", userID, articleID).First(&existing).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		interaction := models.UserInteraction{
			UserID:          userID,
			ArticleID:       articleID,
			InteractionType: interactionType,
			Strength:        strength,
		}
		if err := h.db.Create(&interaction).Error; err != nil {
			log.Printf("Failed to record %s interaction for user %s: %v", interactionType, userID, err)
		}
	case err == nil:
		if strength < existing.Strength {
			return
		}
		updates := map[string]any{
			"interaction_type": interactionType,
			"strength":         strength,
			"timestamp":        time.Now(),
		}
		if err := h.db.Model(&existing).Updates(updates).Error; err != nil {
			log.Printf("Failed to update interaction for user %s: %v", userID, err)
		}
	default:
		log.Printf("Failed to look up interaction for user %s: %v", userID, err)
	}
}

func (h *SocialHandler) getOrCreateCollection(userID uuid.UUID, name string) (*models.SavedCollection, error) {
	var collection models.SavedCollection
	err := h.db.Where("user_id = ? AND name = ?", userID, name).First(&collection).Error
	if err == nil {
		return &collection, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	collection = models.SavedCollection{UserID: userID, Name: name}
	if err := h.db.Create(&collection).Error; err != nil {
		// Concurrent create; the row exists now.
		if readErr := h.db.Where("user_id = ? AND name = ?", userID, name).First(&collection).Error; readErr == nil {
			return &collection, nil
		}
		return nil, err
	}
	return &collection, nil
}
