package handlers

import (
	"net/http"

	"news-aggregator/internal/auth"
	"news-aggregator/internal/models"
	"news-aggregator/internal/recommend"

	"github.com/gin-gonic/gin"
)

// RecommendationsHandler exposes the per-user recommendation set.
type RecommendationsHandler struct {
	engine *recommend.Engine
}

// NewRecommendationsHandler creates the recommendations handler.
func NewRecommendationsHandler(engine *recommend.Engine) *RecommendationsHandler {
	return &RecommendationsHandler{engine: engine}
}

// Refresh handles POST /api/recommendations/refresh.
func (h *RecommendationsHandler) Refresh(c *gin.Context) {
	user := auth.CurrentUser(c)

	if err := h.engine.Refresh(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to refresh recommendations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"refreshed": true})
}

// List handles GET /api/recommendations.
func (h *RecommendationsHandler) List(c *gin.Context) {
	user := auth.CurrentUser(c)

	recs, err := h.engine.Recommendations(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load recommendations"})
		return
	}

	views := make([]gin.H, len(recs))
	for i, rec := range recs {
		views[i] = gin.H{
			"article":             models.NewArticleView(&rec.Article, true),
			"score":               rec.Score,
			"recommendation_type": rec.Type,
		}
	}

	c.JSON(http.StatusOK, gin.H{"recommendations": views, "count": len(views)})
}
