package ingest

import (
	"context"
	"log"
	"strings"

	"news-aggregator/internal/enrichment"
	"news-aggregator/internal/extractor"
	"news-aggregator/internal/fetchers"
	"news-aggregator/internal/models"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// BatchSize bounds the number of articles handled per chunk so one slow
// chunk cannot hold progress updates hostage.
const BatchSize = 20

// ProgressRecorder persists ingestion progress under a task id for polling
// clients. Implementations must tolerate repeated writes for the same task.
type ProgressRecorder interface {
	RecordProcessing(ctx context.Context, taskID string, articleIDs []uuid.UUID) error
	RecordCompleted(ctx context.Context, taskID string, articleIDs []uuid.UUID) error
}

// Notifier publishes article events to subscribers grouped by the
// originating search. Delivery is best-effort; implementations never return
// errors to the pipeline.
type Notifier interface {
	PublishArticle(query, language, country string, article *models.Article)
	PublishBatch(query, language, country string, articles []*models.Article)
}

// Job is one ingestion unit of work: the raw articles from a search, plus
// the context needed to normalize, tag, and notify.
type Job struct {
	TaskID   string                `json:"task_id"`
	Query    string                `json:"query"`
	Terms    []string              `json:"terms"`
	Phrases  []string              `json:"phrases"`
	Language string                `json:"language"`
	Country  string                `json:"country"`
	Articles []fetchers.RawArticle `json:"articles"`
}

// Keywords returns the query tokens an article stored by this job is
// tagged with.
func (j Job) Keywords() []string {
	return append(append([]string{}, j.Terms...), j.Phrases...)
}

// Pipeline drives raw articles through normalize, store, enrich, and
// notify. Enrichment failures are logged per article and never abort the
// batch; the store-level upsert makes redelivered jobs safe.
type Pipeline struct {
	store      *Store
	extractor  *extractor.Extractor
	embedder   enrichment.Embedder
	classifier *enrichment.Classifier
	progress   ProgressRecorder
	notifier   Notifier
}

// NewPipeline assembles the pipeline. extractor, progress, and notifier may
// be nil; the corresponding steps are skipped.
func NewPipeline(store *Store, ext *extractor.Extractor, embedder enrichment.Embedder, classifier *enrichment.Classifier, progress ProgressRecorder, notifier Notifier) *Pipeline {
	if embedder == nil {
		embedder = enrichment.NullEmbedder{}
	}
	return &Pipeline{
		store:      store,
		extractor:  ext,
		embedder:   embedder,
		classifier: classifier,
		progress:   progress,
		notifier:   notifier,
	}
}

// ProcessAndStore runs one job to completion and returns the ids of newly
// stored articles. Progress is recorded after every chunk and terminally.
func (p *Pipeline) ProcessAndStore(ctx context.Context, job Job) ([]uuid.UUID, error) {
	normalized := make([]NormalizedArticle, 0, len(job.Articles))
	for _, raw := range job.Articles {
		normalized = append(normalized, Normalize(raw, job.Language, job.Country))
	}

	keywords := job.Keywords()
	var storedIDs []uuid.UUID

	for start := 0; start < len(normalized); start += BatchSize {
		end := start + BatchSize
		if end > len(normalized) {
			end = len(normalized)
		}

		stored, err := p.processChunk(ctx, normalized[start:end], keywords)
		if err != nil {
			return storedIDs, err
		}

		for _, article := range stored {
			storedIDs = append(storedIDs, article.ID)
			if p.notifier != nil {
				p.notifier.PublishArticle(job.Query, job.Language, job.Country, article)
			}
		}
		if p.notifier != nil && len(stored) > 0 {
			p.notifier.PublishBatch(job.Query, job.Language, job.Country, stored)
		}

		if p.progress != nil && job.TaskID != "" {
			if err := p.progress.RecordProcessing(ctx, job.TaskID, storedIDs); err != nil {
				log.Printf("Failed to record progress for task %s: %v", job.TaskID, err)
			}
		}
	}

	if p.progress != nil && job.TaskID != "" {
		if err := p.progress.RecordCompleted(ctx, job.TaskID, storedIDs); err != nil {
			log.Printf("Failed to record completion for task %s: %v", job.TaskID, err)
		}
	}

	log.Printf("Processed and stored %d articles", len(storedIDs))
	return storedIDs, nil
}

// processChunk stores one chunk of normalized articles and enriches the
// newly created rows. Returns the created articles with enrichment fields
// populated.
func (p *Pipeline) processChunk(ctx context.Context, chunk []NormalizedArticle, keywords []string) ([]*models.Article, error) {
	var created []*models.Article

	for _, norm := range chunk {
		article, isNew, err := p.storeOne(ctx, norm, keywords)
		if err != nil {
			log.Printf("Failed to store article %s: %v", norm.URL, err)
			continue
		}
		if article != nil && isNew {
			created = append(created, article)
		}
	}

	p.enrich(ctx, created)
	return created, nil
}

// storeOne persists a single normalized article inside its own transaction.
// A nil article with a nil error means the article was deliberately
// discarded (no URL, or no usable content after extraction).
func (p *Pipeline) storeOne(ctx context.Context, norm NormalizedArticle, keywords []string) (*models.Article, bool, error) {
	if norm.URL == "" {
		return nil, false, nil
	}

	if norm.Content == "" && p.extractor != nil {
		content, err := p.extractor.GetArticleContent(ctx, norm.URL, norm.Title)
		if err != nil || content == nil {
			if err != nil {
				log.Printf("Content extraction failed for %s: %v", norm.URL, err)
			}
			// Thin articles are discarded, not stored as stubs.
			return nil, false, nil
		}
		norm.Content = content.Truncated
	}

	var article *models.Article
	var isNew bool

	err := p.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sourceID *uuid.UUID
		if norm.SourceURL != "" {
			source, _, err := p.store.GetOrCreateSource(tx, norm.SourceName, norm.SourceURL, norm.Language, norm.Country)
			if err != nil {
				return err
			}
			sourceID = &source.ID
		}

		candidate := &models.Article{
			Title:         norm.Title,
			URL:           norm.URL,
			Content:       norm.Content,
			Author:        norm.Author,
			ImageURL:      norm.ImageURL,
			SourceID:      sourceID,
			PublishedDate: norm.PublishedDate,
			Language:      norm.Language,
			Country:       norm.Country,
			IsFake:        norm.IsFake,
			Sentiment:     norm.Sentiment,
			FakeScore:     norm.FakeScore,
		}
		if norm.Categories != "" {
			candidate.Categories = &norm.Categories
		}

		stored, createdNow, err := p.store.GetOrCreateArticle(tx, candidate)
		if err != nil {
			return err
		}

		if !createdNow {
			if err := p.store.UpdateArticleFields(tx, stored, candidate); err != nil {
				return err
			}
		}

		if err := p.store.LinkKeywords(tx, stored, createdNow, keywords); err != nil {
			return err
		}

		article = stored
		isNew = createdNow
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return article, isNew, nil
}

// enrich computes embeddings and classifier predictions for newly stored
// articles. Each article's enrichment fields are written in their own
// transaction; a failure leaves the article stored but unenriched.
func (p *Pipeline) enrich(ctx context.Context, articles []*models.Article) {
	if len(articles) == 0 {
		return
	}

	texts := make([]string, len(articles))
	for i, article := range articles {
		texts[i] = strings.TrimSpace(article.Title + " " + article.Content)
	}

	embeddings, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		log.Printf("Embedding failed for batch of %d articles: %v", len(articles), err)
		embeddings = nil
	}

	var predictions []enrichment.Prediction
	if p.classifier != nil {
		predictions = p.classifier.PredictBatch(ctx, texts)
	}

	for i, article := range articles {
		if texts[i] == "" {
			log.Printf("Skipping enrichment for article %s: empty text", article.ID)
			continue
		}

		updates := map[string]any{}
		if i < len(embeddings) && len(embeddings[i]) > 0 {
			vec := pgvector.NewVector(embeddings[i])
			article.Embedding = &vec
			updates["embedding"] = &vec
		}
		if i < len(predictions) {
			pred := predictions[i]
			if pred.IsFake != nil {
				article.IsFake = pred.IsFake
				article.FakeScore = fakeScoreFor(*pred.IsFake)
				updates["is_fake"] = pred.IsFake
				updates["fake_score"] = article.FakeScore
			}
			if pred.Sentiment != nil {
				article.Sentiment = pred.Sentiment
				updates["sentiment"] = pred.Sentiment
			}
		}
		if len(updates) == 0 {
			continue
		}

		err := p.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Model(&models.Article{}).Where("id = ?", article.ID).Updates(updates).Error
		})
		if err != nil {
			log.Printf("Failed to persist enrichment for article %s: %v", article.ID, err)
		}
	}
}

// fakeScoreFor mirrors the boolean prediction as a numeric score for legacy
// consumers.
func fakeScoreFor(isFake bool) *float64 {
	score := 0.0
	if isFake {
		score = 1.0
	}
	return &score
}
