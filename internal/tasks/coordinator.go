// Package tasks is the work-queue layer: it enqueues ingestion jobs onto a
// redis list, runs worker loops that execute them with a retry policy, and
// answers progress polls. Delivery is at-least-once; the store-level upsert
// makes redelivered jobs safe.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"news-aggregator/internal/ingest"
	"news-aggregator/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// QueueKey is the redis list holding pending ingestion jobs.
const QueueKey = "news:ingest:queue"

// popTimeout bounds each blocking pop so worker loops notice cancellation.
const popTimeout = 2 * time.Second

// PollResult is the answer to a progress poll. On completed status the
// articles are fully loaded and enriched.
type PollResult struct {
	Status   string           `json:"status"`
	Articles []models.Article `json:"articles,omitempty"`
	Count    int              `json:"count"`
}

// Coordinator owns the queue, the progress store, and the pipeline the
// workers execute jobs against.
type Coordinator struct {
	rdb      *redis.Client
	db       *gorm.DB
	pipeline *ingest.Pipeline
	progress *ProgressStore
	retry    RetryPolicy
}

// NewCoordinator assembles the coordinator.
func NewCoordinator(rdb *redis.Client, db *gorm.DB, pipeline *ingest.Pipeline, progress *ProgressStore) *Coordinator {
	return &Coordinator{
		rdb:      rdb,
		db:       db,
		pipeline: pipeline,
		progress: progress,
		retry:    DefaultRetryPolicy,
	}
}

// Progress exposes the progress store for pipeline wiring.
func (c *Coordinator) Progress() *ProgressStore {
	return c.progress
}

// Enqueue assigns the job a task id, records an initial processing snapshot
// so polls answer immediately, and pushes the job onto the queue.
func (c *Coordinator) Enqueue(ctx context.Context, job ingest.Job) (string, error) {
	job.TaskID = uuid.NewString()

	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshalling job: %w", err)
	}

	if err := c.progress.RecordProcessing(ctx, job.TaskID, nil); err != nil {
		return "", err
	}
	if err := c.rdb.RPush(ctx, QueueKey, data).Err(); err != nil {
		return "", fmt.Errorf("enqueueing job %s: %w", job.TaskID, err)
	}

	return job.TaskID, nil
}

// RunWorker consumes jobs until the context is cancelled. A job that keeps
// failing past the retry budget is logged and dropped; its poll record stays
// at processing until the TTL expires.
func (c *Coordinator) RunWorker(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		result, err := c.rdb.BLPop(ctx, popTimeout, QueueKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Queue pop failed: %v (retrying in 5s)", err)
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		// BLPop returns [key, value].
		if len(result) < 2 {
			continue
		}
		c.execute(ctx, []byte(result[1]))
	}
}

func (c *Coordinator) execute(ctx context.Context, payload []byte) {
	var job ingest.Job
	if err := json.Unmarshal(payload, &job); err != nil {
		log.Printf("Dropping malformed job payload: %v", err)
		return
	}

	err := c.retry.Run(ctx, job.TaskID, func(ctx context.Context) error {
		_, err := c.pipeline.ProcessAndStore(ctx, job)
		return err
	})
	if err != nil {
		log.Printf("Giving up on task %s after %d attempts: %v", job.TaskID, c.retry.MaxAttempts, err)
	}
}

// Poll answers a progress poll. Completed tasks get their articles loaded by
// id, enrichment fields included.
func (c *Coordinator) Poll(ctx context.Context, taskID string) (*PollResult, error) {
	progress, err := c.progress.Get(ctx, taskID)
	if errors.Is(err, ErrTaskNotFound) {
		return &PollResult{Status: StatusNotFound}, nil
	}
	if err != nil {
		return nil, err
	}

	result := &PollResult{Status: progress.Status}
	if progress.Status == StatusCompleted && len(progress.ArticleIDs) > 0 {
		var articles []models.Article
		if err := c.db.WithContext(ctx).Preload("Source").Where("id IN ?", progress.ArticleIDs).Find(&articles).Error; err != nil {
			return nil, fmt.Errorf("loading articles for task %s: %w", taskID, err)
		}
		result.Articles = articles
		result.Count = len(articles)
	}
	return result, nil
}
