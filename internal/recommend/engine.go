// Package recommend ranks articles for a user by similarity to the mean
// embedding of the articles they engaged with. Users without enough
// embedded interactions get a category-and-recency fallback list.
package recommend

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"news-aggregator/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// MinEmbeddedInteractions is the number of distinct embedded articles a
	// user must have engaged with before similarity ranking kicks in.
	MinEmbeddedInteractions = 3
	// TopK is the size of a materialized recommendation set.
	TopK = 10

	TypeFallback   = "fallback"
	TypeSimilarity = "similarity"
)

// RecommendedArticle is one ranked article with its provenance tag. Score
// is the cosine distance to the user's mean embedding and is only
// meaningful for similarity results.
type RecommendedArticle struct {
	Article models.Article `json:"article"`
	Score   float64        `json:"score"`
	Type    string         `json:"recommendation_type"`
}

// Engine computes and materializes per-user recommendations.
type Engine struct {
	db *gorm.DB
}

// NewEngine creates a recommendation engine over the given database.
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// Refresh recomputes the user's recommendation set and replaces the stored
// rows. Users still below the interaction threshold keep no materialized
// rows; Recommendations serves them the fallback list instead.
func (e *Engine) Refresh(ctx context.Context, userID uuid.UUID) error {
	ranked, err := e.similarityRank(ctx, userID)
	if err != nil {
		return err
	}

	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.Recommendation{}).Error; err != nil {
			return fmt.Errorf("clearing recommendations for user %s: %w", userID, err)
		}
		for _, rec := range ranked {
			row := models.Recommendation{
				UserID:    userID,
				ArticleID: rec.Article.ID,
				Score:     rec.Score,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("storing recommendation for user %s: %w", userID, err)
			}
		}
		return nil
	})
}

// Recommendations returns the user's materialized similarity set, or the
// fallback list when none exists.
func (e *Engine) Recommendations(ctx context.Context, userID uuid.UUID) ([]RecommendedArticle, error) {
	var rows []models.Recommendation
	err := e.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("score ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("loading recommendations for user %s: %w", userID, err)
	}

	if len(rows) == 0 {
		return e.fallback(ctx, userID)
	}

	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.ArticleID
	}
	var articles []models.Article
	if err := e.db.WithContext(ctx).Preload("Source").Where("id IN ?", ids).Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("loading recommended articles: %w", err)
	}
	byID := make(map[uuid.UUID]models.Article, len(articles))
	for _, article := range articles {
		byID[article.ID] = article
	}

	results := make([]RecommendedArticle, 0, len(rows))
	for _, row := range rows {
		article, ok := byID[row.ArticleID]
		if !ok {
			continue
		}
		results = append(results, RecommendedArticle{
			Article: article,
			Score:   row.Score,
			Type:    TypeSimilarity,
		})
	}
	return results, nil
}

// similarityRank computes the top-K embedded, un-interacted articles by
// ascending cosine distance to the user's mean interaction embedding. An
// empty result means the user is below the threshold.
func (e *Engine) similarityRank(ctx context.Context, userID uuid.UUID) ([]RecommendedArticle, error) {
	interacted, err := e.interactedArticles(ctx, userID)
	if err != nil {
		return nil, err
	}

	var embeddings [][]float32
	interactedIDs := make([]uuid.UUID, 0, len(interacted))
	for _, article := range interacted {
		interactedIDs = append(interactedIDs, article.ID)
		if article.HasEmbedding() {
			embeddings = append(embeddings, article.Embedding.Slice())
		}
	}

	if len(embeddings) < MinEmbeddedInteractions {
		log.Printf("User %s has %d embedded interactions, below the similarity threshold", userID, len(embeddings))
		return nil, nil
	}

	mean := meanVector(embeddings)

	var candidates []models.Article
	candidateQuery := e.db.WithContext(ctx).Where("embedding IS NOT NULL")
	if len(interactedIDs) > 0 {
		candidateQuery = candidateQuery.Where("id NOT IN ?", interactedIDs)
	}
	if err := candidateQuery.Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("loading candidate articles: %w", err)
	}

	ranked := make([]RecommendedArticle, 0, len(candidates))
	for _, article := range candidates {
		if !article.HasEmbedding() {
			continue
		}
		ranked = append(ranked, RecommendedArticle{
			Article: article,
			Score:   CosineDistance(mean, article.Embedding.Slice()),
			Type:    TypeSimilarity,
		})
	}

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Score < ranked[j].Score })
	if len(ranked) > TopK {
		ranked = ranked[:TopK]
	}
	return ranked, nil
}

// fallback serves users below the interaction threshold: recent articles,
// filtered to the categories they have touched when any are known.
func (e *Engine) fallback(ctx context.Context, userID uuid.UUID) ([]RecommendedArticle, error) {
	interacted, err := e.interactedArticles(ctx, userID)
	if err != nil {
		return nil, err
	}

	categories := map[string]bool{}
	for _, article := range interacted {
		if article.Categories == nil {
			continue
		}
		for _, category := range strings.Split(*article.Categories, ",") {
			if c := strings.TrimSpace(strings.ToLower(category)); c != "" {
				categories[c] = true
			}
		}
	}

	db := e.db.WithContext(ctx).Preload("Source")
	if len(categories) > 0 {
		var clauses []string
		var args []any
		for category := range categories {
			clauses = append(clauses, "LOWER(categories) LIKE ?")
			args = append(args, "%"+category+"%")
		}
		db = db.Where(strings.Join(clauses, " OR "), args...)
	}

	var articles []models.Article
	err = db.Order("published_date DESC").Order("created_at DESC").Limit(TopK).Find(&articles).Error
	if err != nil {
		return nil, fmt.Errorf("loading fallback articles: %w", err)
	}

	results := make([]RecommendedArticle, len(articles))
	for i, article := range articles {
		results[i] = RecommendedArticle{Article: article, Type: TypeFallback}
	}
	return results, nil
}

// interactedArticles loads the distinct articles the user engaged with.
func (e *Engine) interactedArticles(ctx context.Context, userID uuid.UUID) ([]models.Article, error) {
	var articles []models.Article
	err := e.db.WithContext(ctx).
		Where("id IN (SELECT article_id FROM user_interactions WHERE user_id = ?)", userID).
		Find(&articles).Error
	if err != nil {
		return nil, fmt.Errorf("loading interacted articles for user %s: %w", userID, err)
	}
	return articles, nil
}

// meanVector is the arithmetic mean of equal-length vectors.
func meanVector(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	mean := make([]float32, len(vectors[0]))
	for _, vec := range vectors {
		for i, v := range vec {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float32(len(vectors))
	}
	return mean
}

// CosineDistance is 1 minus the cosine similarity of two vectors. Zero
// vectors are maximally distant.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
