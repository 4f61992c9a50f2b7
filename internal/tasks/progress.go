package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// ProgressTTL bounds how long a task's progress record survives; after
	// expiry polling clients get a terminal not_found.
	ProgressTTL = time.Hour

	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusNotFound   = "not_found"
)

// ErrTaskNotFound is returned by Get when a task's progress record never
// existed or its TTL expired.
var ErrTaskNotFound = errors.New("task not found")

// Progress is the poll-able status record for one ingestion task. The key
// format and TTL are a versioned contract with polling clients.
type Progress struct {
	ArticleIDs []uuid.UUID `json:"article_ids"`
	Status     string      `json:"status"`
}

// ProgressStore persists task progress in redis under "articles_task:{id}".
type ProgressStore struct {
	rdb *redis.Client
}

// NewProgressStore creates a progress store over the given redis client.
func NewProgressStore(rdb *redis.Client) *ProgressStore {
	return &ProgressStore{rdb: rdb}
}

func progressKey(taskID string) string {
	return fmt.Sprintf("articles_task:%s", taskID)
}

// RecordProcessing writes a non-terminal progress snapshot.
func (s *ProgressStore) RecordProcessing(ctx context.Context, taskID string, articleIDs []uuid.UUID) error {
	return s.write(ctx, taskID, Progress{ArticleIDs: articleIDs, Status: StatusProcessing})
}

// RecordCompleted writes the terminal progress record.
func (s *ProgressStore) RecordCompleted(ctx context.Context, taskID string, articleIDs []uuid.UUID) error {
	return s.write(ctx, taskID, Progress{ArticleIDs: articleIDs, Status: StatusCompleted})
}

func (s *ProgressStore) write(ctx context.Context, taskID string, progress Progress) error {
	if progress.ArticleIDs == nil {
		progress.ArticleIDs = []uuid.UUID{}
	}
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("marshalling progress for task %s: %w", taskID, err)
	}
	if err := s.rdb.Set(ctx, progressKey(taskID), data, ProgressTTL).Err(); err != nil {
		return fmt.Errorf("writing progress for task %s: %w", taskID, err)
	}
	return nil
}

// Get loads the progress record for a task. ErrTaskNotFound means the record
// expired or never existed.
func (s *ProgressStore) Get(ctx context.Context, taskID string) (*Progress, error) {
	data, err := s.rdb.Get(ctx, progressKey(taskID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading progress for task %s: %w", taskID, err)
	}

	var progress Progress
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, fmt.Errorf("parsing progress for task %s: %w", taskID, err)
	}
	return &progress, nil
}
