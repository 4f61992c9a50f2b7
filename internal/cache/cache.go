// Package cache is the request-level result cache for search queries. A
// cache hit means the same query was fetched recently and background
// ingestion can be skipped; the stored value is the raw fetch result.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"news-aggregator/internal/fetchers"

	"github.com/redis/go-redis/v9"
)

// TTL is how long a fetched query result suppresses re-fetching.
const TTL = 36000 * time.Second

// Cache wraps redis with the search-result key schema.
type Cache struct {
	rdb *redis.Client
}

// New creates a cache over the given redis client.
func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Key builds the cache key for a query/language pair. An empty language
// maps to the catch-all bucket.
func Key(query, language string) string {
	if language == "" {
		language = "all"
	}
	return fmt.Sprintf("news:%s:%s", query, language)
}

// Get returns the cached fetch result for the query, with ok=false on a
// miss. Redis errors degrade to a miss; the cache is an optimization, not a
// dependency.
func (c *Cache) Get(ctx context.Context, query, language string) ([]fetchers.RawArticle, bool) {
	data, err := c.rdb.Get(ctx, Key(query, language)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		return nil, false
	}

	var articles []fetchers.RawArticle
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, false
	}
	return articles, true
}

// Set stores a fetch result under the query's key.
func (c *Cache) Set(ctx context.Context, query, language string, articles []fetchers.RawArticle) error {
	data, err := json.Marshal(articles)
	if err != nil {
		return fmt.Errorf("marshalling cached articles: %w", err)
	}
	if err := c.rdb.Set(ctx, Key(query, language), data, TTL).Err(); err != nil {
		return fmt.Errorf("caching result for %q: %w", query, err)
	}
	return nil
}

// Invalidate drops the cached result for a query, forcing the next search
// to re-fetch.
func (c *Cache) Invalidate(ctx context.Context, query, language string) error {
	return c.rdb.Del(ctx, Key(query, language)).Err()
}
