package fetchers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const googleRSSBaseURL = "https://news.google.com/rss"

// GoogleRSSFetcher fetches articles from the Google News RSS search feed.
// The feed has no boolean query support, so callers pass the plain-rendered
// query. A malformed feed yields zero results, never an error.
type GoogleRSSFetcher struct {
	baseURL string
	parser  *gofeed.Parser
}

// NewGoogleRSSFetcher creates a Google News RSS adapter.
func NewGoogleRSSFetcher() *GoogleRSSFetcher {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{
		Timeout: 10 * time.Second,
	}

	return &GoogleRSSFetcher{
		baseURL: googleRSSBaseURL,
		parser:  parser,
	}
}

// Name identifies the adapter in logs.
func (f *GoogleRSSFetcher) Name() string {
	return "google-rss"
}

// FetchArticles implements Fetcher. Language defaults to "en" and country to
// "US" because the feed requires both parameters.
func (f *GoogleRSSFetcher) FetchArticles(ctx context.Context, searchQuery string, language, country string) ([]RawArticle, error) {
	searchQuery, err := validateQuery(searchQuery)
	if err != nil {
		return nil, err
	}

	if language == "" {
		language = "en"
	}
	if country == "" {
		country = "US"
	}
	region := strings.ToUpper(country)

	params := url.Values{}
	params.Set("q", searchQuery)
	params.Set("hl", language)
	params.Set("gl", region)
	params.Set("ceid", fmt.Sprintf("%s:%s", region, language))
	feedURL := f.baseURL + "/search?" + params.Encode()

	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		if httpErr, ok := err.(gofeed.HTTPError); ok {
			return nil, &FetchError{Source: f.Name(), StatusCode: httpErr.StatusCode, Body: httpErr.Status}
		}
		// A feed that fetched but failed to parse is the "bozo" case:
		// zero results, not a failure.
		log.Printf("Google News RSS feed malformed for query %q: %v", searchQuery, err)
		return []RawArticle{}, nil
	}

	articles := make([]RawArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		sourceName, sourceURL, itemLink := parseGoogleDescription(item.Description)
		if itemLink == "" {
			itemLink = item.Link
		}

		author := ""
		if item.Author != nil {
			author = item.Author.Name
		}

		imageURL := ""
		if item.Image != nil {
			imageURL = item.Image.URL
		}

		articles = append(articles, RawArticle{
			ImageURL:    imageURL,
			Title:       item.Title,
			URL:         item.Link,
			Description: item.Description,
			PublishedAt: item.Published,
			Author:      author,
			Source:      RawSource{Name: sourceName, URL: sourceURL},
			Language:    language,
			Country:     country,
			Categories:  item.Categories,
		})
	}

	return articles, nil
}

// parseGoogleDescription extracts the best-effort source name, source URL and
// article link from the HTML blob Google News embeds in item descriptions.
// The markup is undocumented and shifts over time, so every lookup degrades
// to an empty string instead of failing.
func parseGoogleDescription(description string) (sourceName, sourceURL, link string) {
	if description == "" {
		return "", "", ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return "", "", ""
	}

	if anchor := doc.Find("a").First(); anchor.Length() > 0 {
		link, _ = anchor.Attr("href")
	}

	// The publisher name is the trailing <font> element when present.
	if font := doc.Find("font").Last(); font.Length() > 0 {
		sourceName = strings.TrimSpace(font.Text())
	}

	if sourceName != "" && link != "" {
		if parsed, err := url.Parse(link); err == nil && parsed.Host != "" {
			sourceURL = parsed.Scheme + "://" + parsed.Host
		}
	}

	return sourceName, sourceURL, link
}
