package fetchers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewsAPIFetchArticles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, `"climate" OR "renewable"`, r.URL.Query().Get("q"))
		assert.Equal(t, "popularity", r.URL.Query().Get("sortBy"))
		assert.Equal(t, "en", r.URL.Query().Get("language"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "ok",
			"totalResults": 1,
			"articles": [{
				"source": {"id": "bbc-news", "name": "BBC News"},
				"author": "Jane Doe",
				"title": "Climate progress",
				"description": "A summary",
				"url": "https://bbc.com/news/1",
				"urlToImage": "https://bbc.com/img/1.jpg",
				"publishedAt": "2025-01-15T10:00:00Z",
				"content": "Full content here"
			}]
		}`))
	}))
	defer server.Close()

	fetcher := NewNewsAPIFetcher("test-key")
	fetcher.baseURL = server.URL

	articles, err := fetcher.FetchArticles(context.Background(), `"climate" OR "renewable"`, "en", "")
	require.NoError(t, err)
	require.Len(t, articles, 1)

	assert.Equal(t, "Climate progress", articles[0].Title)
	assert.Equal(t, "https://bbc.com/news/1", articles[0].URL)
	assert.Equal(t, "Full content here", articles[0].Content)
	assert.Equal(t, "BBC News", articles[0].Source.Name)
	assert.Equal(t, "https://bbc.com/img/1.jpg", articles[0].ImageURL)
	assert.Equal(t, "en", articles[0].Language)
}

func TestNewsAPIFetchArticlesNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok", "totalResults": 0, "articles": []}`))
	}))
	defer server.Close()

	fetcher := NewNewsAPIFetcher("test-key")
	fetcher.baseURL = server.URL

	articles, err := fetcher.FetchArticles(context.Background(), "nothing matches this", "", "")
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestNewsAPIFetchArticlesUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"status": "error", "code": "rateLimited"}`))
	}))
	defer server.Close()

	fetcher := NewNewsAPIFetcher("test-key")
	fetcher.baseURL = server.URL

	_, err := fetcher.FetchArticles(context.Background(), "anything", "", "")
	require.Error(t, err)

	fetchErr, ok := err.(*FetchError)
	require.True(t, ok, "expected a *FetchError, got %T", err)
	assert.Equal(t, http.StatusTooManyRequests, fetchErr.StatusCode)
	assert.Contains(t, fetchErr.Body, "rateLimited")
}

func TestNewsAPIRejectsInvalidLanguage(t *testing.T) {
	fetcher := NewNewsAPIFetcher("test-key")

	_, err := fetcher.FetchArticles(context.Background(), "tech", "xx", "")
	require.Error(t, err)

	_, ok := err.(*ValidationError)
	assert.True(t, ok, "expected a *ValidationError, got %T", err)
}

func TestNewsAPIRejectsOverlongQuery(t *testing.T) {
	fetcher := NewNewsAPIFetcher("test-key")

	_, err := fetcher.FetchArticles(context.Background(), strings.Repeat("a", MaxQueryLength+1), "", "")
	require.Error(t, err)

	_, ok := err.(*ValidationError)
	assert.True(t, ok)
}

func TestGNewsFetchArticles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		assert.Equal(t, "10", r.URL.Query().Get("max"))
		assert.Equal(t, "relevance", r.URL.Query().Get("sortby"))
		assert.Equal(t, "de", r.URL.Query().Get("country"))

		w.Write([]byte(`{
			"totalArticles": 1,
			"articles": [{
				"title": "Energiewende",
				"description": "Kurz",
				"content": "Lang",
				"url": "https://example.de/a/1",
				"image": "https://example.de/img.jpg",
				"publishedAt": "2025-01-15T10:00:00Z",
				"source": {"name": "Example", "url": "https://example.de"}
			}]
		}`))
	}))
	defer server.Close()

	fetcher := NewGNewsFetcher("test-key")
	fetcher.baseURL = server.URL

	articles, err := fetcher.FetchArticles(context.Background(), "energie", "de", "de")
	require.NoError(t, err)
	require.Len(t, articles, 1)

	assert.Equal(t, "Energiewende", articles[0].Title)
	assert.Equal(t, "Example", articles[0].Source.Name)
	assert.Equal(t, "https://example.de", articles[0].Source.URL)
}

func TestGNewsRejectsInvalidCountry(t *testing.T) {
	fetcher := NewGNewsFetcher("test-key")

	_, err := fetcher.FetchArticles(context.Background(), "tech", "en", "zz")
	require.Error(t, err)

	_, ok := err.(*ValidationError)
	assert.True(t, ok, "expected a *ValidationError, got %T", err)
}

func TestGoogleRSSFetchArticles(t *testing.T) {
	feedXML := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
	<title>"technology" - Google News</title>
	<item>
		<title>Big chip launch - The Verge</title>
		<link>https://news.google.com/rss/articles/abc123</link>
		<pubDate>Wed, 15 Jan 2025 10:00:00 GMT</pubDate>
		<description>&lt;a href="https://www.theverge.com/chips/1"&gt;Big chip launch&lt;/a&gt;&amp;nbsp;&amp;nbsp;&lt;font color="#6f6f6f"&gt;The Verge&lt;/font&gt;</description>
	</item>
</channel></rss>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "technology", r.URL.Query().Get("q"))
		assert.Equal(t, "US:en", r.URL.Query().Get("ceid"))
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedXML))
	}))
	defer server.Close()

	fetcher := NewGoogleRSSFetcher()
	fetcher.baseURL = server.URL

	articles, err := fetcher.FetchArticles(context.Background(), "technology", "", "")
	require.NoError(t, err)
	require.Len(t, articles, 1)

	assert.Equal(t, "Big chip launch - The Verge", articles[0].Title)
	assert.Equal(t, "The Verge", articles[0].Source.Name)
	assert.Equal(t, "https://www.theverge.com", articles[0].Source.URL)
	assert.Equal(t, "en", articles[0].Language)
	assert.Equal(t, "US", articles[0].Country)
}

func TestGoogleRSSMalformedFeedYieldsNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not xml at all"))
	}))
	defer server.Close()

	fetcher := NewGoogleRSSFetcher()
	fetcher.baseURL = server.URL

	articles, err := fetcher.FetchArticles(context.Background(), "anything", "en", "us")
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestGoogleRSSDescriptionMissingMarkup(t *testing.T) {
	name, sourceURL, link := parseGoogleDescription("just plain text, no tags")

	assert.Empty(t, name)
	assert.Empty(t, sourceURL)
	assert.Empty(t, link)
}

func TestRegistryPartialFailureIsolation(t *testing.T) {
	failing := &stubFetcher{name: "broken", err: &FetchError{Source: "broken", StatusCode: 500, Body: "boom"}}
	working := &stubFetcher{name: "working", articles: []RawArticle{{Title: "ok", URL: "http://a/1"}}}

	registry := NewRegistry(failing, working)
	merged := registry.FetchAll(context.Background(), "query", "query", "en", "")

	require.Len(t, merged, 1)
	assert.Equal(t, "ok", merged[0].Title)
}

type stubFetcher struct {
	name     string
	articles []RawArticle
	err      error
}

func (s *stubFetcher) Name() string { return s.name }

func (s *stubFetcher) FetchArticles(ctx context.Context, query string, language, country string) ([]RawArticle, error) {
	return s.articles, s.err
}
