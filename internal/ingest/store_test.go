package ingest

import (
	"context"
	"fmt"
	"testing"

	"news-aggregator/internal/enrichment"
	"news-aggregator/internal/fetchers"
	"news-aggregator/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func rawArticle(url string) fetchers.RawArticle {
	return fetchers.RawArticle{
		Title:       "Headline for " + url,
		URL:         url,
		Content:     "Body text long enough to be worth storing for testing purposes.",
		PublishedAt: "2025-06-01T10:30:00Z",
		Source:      fetchers.RawSource{Name: "Test Wire", URL: "https://testwire.example"},
	}
}

func TestGetOrCreateArticleDedup(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	first := &models.Article{Title: "A", URL: "http://dup/1", Content: "x"}
	stored, created, err := store.GetOrCreateArticle(db, first)
	require.NoError(t, err)
	assert.True(t, created)

	second := &models.Article{Title: "B", URL: "http://dup/1", Content: "y"}
	existing, created, err := store.GetOrCreateArticle(db, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, stored.ID, existing.ID)

	var count int64
	db.Model(&models.Article{}).Where("url = ?", "http://dup/1").Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestGetOrCreateSourceDedup(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	first, created, err := store.GetOrCreateSource(db, "Wire", "https://wire.example", "en", "us")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := store.GetOrCreateSource(db, "Different Name", "https://wire.example", "en", "us")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Wire", second.Name, "first writer's name wins")
}

func TestLinkKeywordsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	article := &models.Article{Title: "A", URL: "http://kw/1"}
	require.NoError(t, db.Create(article).Error)

	require.NoError(t, store.LinkKeywords(db, article, true, []string{"Climate", "energy"}))
	require.NoError(t, store.LinkKeywords(db, article, false, []string{"climate", "policy"}))

	var linked []models.Keyword
	require.NoError(t, db.Model(article).Association("Keywords").Find(&linked))
	assert.Len(t, linked, 3)

	var keywordCount int64
	db.Model(&models.Keyword{}).Count(&keywordCount)
	assert.EqualValues(t, 3, keywordCount, "keywords are shared rows, created once")
}

// recordingProgress captures progress writes for assertions.
type recordingProgress struct {
	processing [][]uuid.UUID
	completed  [][]uuid.UUID
}

func (r *recordingProgress) RecordProcessing(_ context.Context, _ string, ids []uuid.UUID) error {
	r.processing = append(r.processing, append([]uuid.UUID{}, ids...))
	return nil
}

func (r *recordingProgress) RecordCompleted(_ context.Context, _ string, ids []uuid.UUID) error {
	r.completed = append(r.completed, append([]uuid.UUID{}, ids...))
	return nil
}

// recordingNotifier counts published events.
type recordingNotifier struct {
	articles int
	batches  int
}

func (r *recordingNotifier) PublishArticle(_, _, _ string, _ *models.Article) { r.articles++ }
func (r *recordingNotifier) PublishBatch(_, _, _ string, _ []*models.Article) { r.batches++ }

// stubEmbedder returns a fixed-dimension vector per text.
type stubEmbedder struct{}

func (stubEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

func TestPipelineStoresAndEnriches(t *testing.T) {
	db := setupTestDB(t)
	progress := &recordingProgress{}
	notifier := &recordingNotifier{}
	pipeline := NewPipeline(NewStore(db), nil, stubEmbedder{}, nil, progress, notifier)

	job := Job{
		TaskID:   "task-1",
		Query:    "energy",
		Terms:    []string{"energy"},
		Language: "en",
		Articles: []fetchers.RawArticle{rawArticle("http://a/1")},
	}

	ids, err := pipeline.ProcessAndStore(context.Background(), job)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	var article models.Article
	require.NoError(t, db.Preload("Source").Preload("Keywords").Where("url = ?", "http://a/1").First(&article).Error)
	assert.Equal(t, "Test Wire", article.Source.Name)
	assert.True(t, article.HasEmbedding())
	assert.False(t, article.CreatedAt.IsZero())
	require.Len(t, article.Keywords, 1)
	assert.Equal(t, "energy", article.Keywords[0].Keyword)

	assert.Equal(t, 1, notifier.articles)
	assert.Equal(t, 1, notifier.batches)
	require.NotEmpty(t, progress.completed)
	assert.Equal(t, ids, progress.completed[0])
}

func TestPipelineChunksAndRecordsProgress(t *testing.T) {
	db := setupTestDB(t)
	progress := &recordingProgress{}
	pipeline := NewPipeline(NewStore(db), nil, nil, nil, progress, nil)

	var raws []fetchers.RawArticle
	for i := 0; i < BatchSize+5; i++ {
		raws = append(raws, rawArticle(fmt.Sprintf("http://chunk/%d", i)))
	}

	ids, err := pipeline.ProcessAndStore(context.Background(), Job{TaskID: "task-2", Articles: raws})
	require.NoError(t, err)
	assert.Len(t, ids, BatchSize+5)

	// One processing write per chunk plus the terminal completed write.
	assert.Len(t, progress.processing, 2)
	require.Len(t, progress.completed, 1)
	assert.Len(t, progress.completed[0], BatchSize+5)
}

func TestPipelineReingestIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	pipeline := NewPipeline(NewStore(db), nil, nil, nil, nil, nil)

	first := rawArticle("http://dup/2")
	_, err := pipeline.ProcessAndStore(context.Background(), Job{Terms: []string{"solar"}, Articles: []fetchers.RawArticle{first}})
	require.NoError(t, err)

	updated := first
	updated.Content = "Updated and longer body text replacing the original content entirely."
	ids, err := pipeline.ProcessAndStore(context.Background(), Job{Terms: []string{"solar"}, Articles: []fetchers.RawArticle{updated}})
	require.NoError(t, err)
	assert.Empty(t, ids, "re-ingest creates no new rows")

	var count int64
	db.Model(&models.Article{}).Where("url = ?", "http://dup/2").Count(&count)
	assert.EqualValues(t, 1, count)

	var article models.Article
	require.NoError(t, db.Preload("Keywords").Where("url = ?", "http://dup/2").First(&article).Error)
	assert.Equal(t, updated.Content, article.Content, "content updated in place")
	assert.Len(t, article.Keywords, 1, "keyword linkage not duplicated")
}

func TestPipelineDuplicateWithinOneBatch(t *testing.T) {
	db := setupTestDB(t)
	pipeline := NewPipeline(NewStore(db), nil, nil, nil, nil, nil)

	job := Job{Articles: []fetchers.RawArticle{rawArticle("http://dup/3"), rawArticle("http://dup/3")}}
	ids, err := pipeline.ProcessAndStore(context.Background(), job)
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	var count int64
	db.Model(&models.Article{}).Where("url = ?", "http://dup/3").Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestPipelineSkipsArticlesWithoutURL(t *testing.T) {
	db := setupTestDB(t)
	pipeline := NewPipeline(NewStore(db), nil, nil, nil, nil, nil)

	raw := rawArticle("")
	ids, err := pipeline.ProcessAndStore(context.Background(), Job{Articles: []fetchers.RawArticle{raw}})
	require.NoError(t, err)
	assert.Empty(t, ids)

	var count int64
	db.Model(&models.Article{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

// degradedClassifier note: classifier behavior is covered in the enrichment
// package; here we only assert the pipeline survives a nil classifier.
func TestPipelineNilCollaborators(t *testing.T) {
	db := setupTestDB(t)
	pipeline := NewPipeline(NewStore(db), nil, enrichment.NullEmbedder{}, nil, nil, nil)

	ids, err := pipeline.ProcessAndStore(context.Background(), Job{Articles: []fetchers.RawArticle{rawArticle("http://nil/1")}})
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}
