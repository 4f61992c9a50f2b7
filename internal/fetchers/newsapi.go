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

const newsAPIBaseURL = "https://newsapi.org/v2/everything"

// newsAPIValidLanguages is the language allow-list documented by NewsAPI.
var newsAPIValidLanguages = map[string]bool{
	"ar": true, "de": true, "en": true, "es": true, "fr": true, "he": true,
	"it": true, "nl": true, "no": true, "pt": true, "ru": true, "sv": true,
	"ud": true, "zh": true,
}

// NewsAPIFetcher fetches articles from NewsAPI. The query is sent verbatim:
// NewsAPI understands quoted phrases and AND/OR/NOT natively. Results are
// scoped to the last seven days.
type NewsAPIFetcher struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewNewsAPIFetcher creates a NewsAPI adapter.
func NewNewsAPIFetcher(apiKey string) *NewsAPIFetcher {
	return &NewsAPIFetcher{
		apiKey:  apiKey,
		baseURL: newsAPIBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name identifies the adapter in logs.
func (f *NewsAPIFetcher) Name() string {
	return "newsapi"
}

type newsAPIResponse struct {
	Status       string `json:"status"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"source"`
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
		Content     string `json:"content"`
	} `json:"articles"`
}

// FetchArticles implements Fetcher. The country parameter is ignored:
// NewsAPI's everything endpoint does not filter by country.
func (f *NewsAPIFetcher) FetchArticles(ctx context.Context, query string, language, country string) ([]RawArticle, error) {
	query, err := validateQuery(query)
	if err != nil {
		return nil, err
	}
	if language != "" && !newsAPIValidLanguages[language] {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid language code %q for NewsAPI", language)}
	}

	oneWeekAgo := time.Now().AddDate(0, 0, -7).Format(time.RFC3339)

	params := url.Values{}
	params.Set("q", query)
	params.Set("sortBy", "popularity")
	params.Set("pageSize", "100")
	params.Set("from", oneWeekAgo)
	if language != "" {
		params.Set("language", language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", f.apiKey)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from NewsAPI: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read NewsAPI response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Source: f.Name(), StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed newsAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse NewsAPI response: %w", err)
	}

	articles := make([]RawArticle, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		articles = append(articles, RawArticle{
			Title:       a.Title,
			URL:         a.URL,
			Content:     a.Content,
			Description: a.Description,
			PublishedAt: a.PublishedAt,
			Author:      a.Author,
			ImageURL:    a.URLToImage,
			Source:      RawSource{Name: a.Source.Name},
			Language:    language,
			Country:     country,
		})
	}

	return articles, nil
}
