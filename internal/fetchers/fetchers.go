// Package fetchers contains the per-source clients that turn one external
// news provider's query and response shapes into the pipeline's raw article
// shape. Each provider's wire types stay private to its adapter file; only
// RawArticle crosses the package boundary.
package fetchers

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// MaxQueryLength is the longest query string any adapter accepts.
const MaxQueryLength = 500

// RawSource is the source/publisher block attached to a raw article.
type RawSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// RawArticle is the common output shape of all adapters and the input
// contract of the normalizer. Fields an adapter cannot populate stay zero.
type RawArticle struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Content     string    `json:"content"`
	Description string    `json:"description"`
	PublishedAt string    `json:"publishedAt"`
	Author      string    `json:"author"`
	ImageURL    string    `json:"image_url"`
	Source      RawSource `json:"source"`
	Language    string    `json:"language"`
	Country     string    `json:"country"`
	Categories  []string  `json:"categories"`

	// Pre-computed enrichment values occasionally present when an article
	// round-trips through a queue payload. Adapters leave them empty;
	// IsFake may arrive as a bool or a string and is coerced downstream.
	IsFake    any      `json:"is_fake,omitempty"`
	Sentiment string   `json:"sentiment,omitempty"`
	FakeScore *float64 `json:"fake_score,omitempty"`
}

// Fetcher is the capability every source adapter provides. "No results" is an
// empty slice and a nil error; transport and auth failures are a *FetchError;
// malformed caller input is a *ValidationError.
type Fetcher interface {
	FetchArticles(ctx context.Context, query string, language, country string) ([]RawArticle, error)
	Name() string
}

// FetchError reports a failed upstream request. It carries the status code
// and response body for diagnostics.
type FetchError struct {
	Source     string
	StatusCode int
	Body       string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch failed with status %d: %s", e.Source, e.StatusCode, e.Body)
}

// ValidationError reports malformed caller input (bad query length,
// unrecognized language or country code). It is never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// validateQuery enforces the shared query length rule.
func validateQuery(query string) (string, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return "", &ValidationError{Message: "query must be a non-empty string"}
	}
	if len(trimmed) > MaxQueryLength {
		return "", &ValidationError{Message: fmt.Sprintf("query must not exceed %d characters", MaxQueryLength)}
	}
	return trimmed, nil
}

// Registry holds the closed set of source adapters.
type Registry struct {
	fetchers []Fetcher
}

// NewRegistry creates a registry over the given adapters.
func NewRegistry(fetchers ...Fetcher) *Registry {
	return &Registry{fetchers: fetchers}
}

// Fetchers returns the registered adapters.
func (r *Registry) Fetchers() []Fetcher {
	return r.fetchers
}

// FetchAll queries every registered adapter and merges the results. A failing
// adapter is logged and contributes nothing; sibling adapters are unaffected.
func (r *Registry) FetchAll(ctx context.Context, boolQuery, plainQuery, language, country string) []RawArticle {
	var merged []RawArticle

	for _, fetcher := range r.fetchers {
		q := boolQuery
		if _, plain := fetcher.(*GoogleRSSFetcher); plain {
			q = plainQuery
		}

		articles, err := fetcher.FetchArticles(ctx, q, language, country)
		if err != nil {
			log.Printf("Fetcher %s failed: %v", fetcher.Name(), err)
			continue
		}
		merged = append(merged, articles...)
	}

	return merged
}
