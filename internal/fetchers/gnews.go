package fetchers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const gnewsBaseURL = "https://gnews.io/api/v4/search"

var gnewsValidLanguages = map[string]bool{
	"ar": true, "de": true, "el": true, "en": true, "es": true, "fr": true,
	"he": true, "hi": true, "it": true, "ja": true, "ml": true, "mr": true,
	"nl": true, "no": true, "pt": true, "ro": true, "ru": true, "sv": true,
	"ta": true, "te": true, "uk": true, "zh": true,
}

var gnewsValidCountries = map[string]bool{
	"au": true, "br": true, "ca": true, "ch": true, "cn": true, "de": true,
	"eg": true, "es": true, "fr": true, "gb": true, "gr": true, "hk": true,
	"ie": true, "il": true, "in": true, "it": true, "jp": true, "nl": true,
	"no": true, "pe": true, "ph": true, "pk": true, "pt": true, "ro": true,
	"ru": true, "se": true, "sg": true, "tw": true, "ua": true, "us": true,
}

// GNewsFetcher fetches articles from the GNews API, requesting the top ten
// by relevance. The query is sent verbatim; GNews understands quoted phrases
// and AND/OR/NOT.
type GNewsFetcher struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGNewsFetcher creates a GNews adapter.
func NewGNewsFetcher(apiKey string) *GNewsFetcher {
	return &GNewsFetcher{
		apiKey:  apiKey,
		baseURL: gnewsBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name identifies the adapter in logs.
func (f *GNewsFetcher) Name() string {
	return "gnews"
}

type gnewsResponse struct {
	TotalArticles int `json:"totalArticles"`
	Articles      []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		Image       string `json:"image"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"source"`
	} `json:"articles"`
}

// FetchArticles implements Fetcher.
func (f *GNewsFetcher) FetchArticles(ctx context.Context, query string, language, country string) ([]RawArticle, error) {
	query, err := validateQuery(query)
	if err != nil {
		return nil, err
	}
	if language != "" && !gnewsValidLanguages[language] {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid language code %q for GNews", language)}
	}
	if country != "" && !gnewsValidCountries[country] {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid country code %q for GNews", country)}
	}

	params := url.Values{}
	params.Set("apikey", f.apiKey)
	params.Set("q", query)
	params.Set("max", "10")
	params.Set("sortby", "relevance")
	if language != "" {
		params.Set("lang", language)
	}
	if country != "" {
		params.Set("country", country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from GNews: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read GNews response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Source: f.Name(), StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed gnewsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse GNews response: %w", err)
	}

	articles := make([]RawArticle, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		articles = append(articles, RawArticle{
			Title:       a.Title,
			URL:         a.URL,
			Content:     a.Content,
			Description: a.Description,
			PublishedAt: a.PublishedAt,
			ImageURL:    a.Image,
			Source:      RawSource{Name: a.Source.Name, URL: a.Source.URL},
			Language:    language,
			Country:     country,
		})
	}

	return articles, nil
}
