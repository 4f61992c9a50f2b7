// Package ingest turns raw adapter output into stored, enriched articles.
// It owns the normalizer, the URL-deduplicating upsert store, and the batch
// pipeline that drives fetch results through storage, enrichment, and
// notification.
package ingest

import (
	"fmt"
	"strings"
	"time"

	"news-aggregator/internal/fetchers"
)

// DefaultImageURL is stored when no source provides an article image.
const DefaultImageURL = "https://raw.githubusercontent.com/mMelnic/news-fake-detection/refs/heads/users/news_aggregator/newspaper_beige.jpg"

// dateLayouts are tried in order when parsing a published date. Feeds and
// APIs disagree on formats; an unparseable date becomes nil, never an error.
var dateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
}

// NormalizedArticle is the canonical article input produced by Normalize and
// consumed by the store. All source-specific shape differences end here.
type NormalizedArticle struct {
	Title         string
	URL           string
	Content       string
	Author        string
	ImageURL      string
	PublishedDate *time.Time
	SourceName    string
	SourceURL     string
	Language      string
	Country       string
	Categories    string
	IsFake        *bool
	Sentiment     *string
	FakeScore     *float64
}

// Normalize maps one raw adapter article into the canonical shape.
// defaultLanguage and defaultCountry come from the originating request
// context and fill in what the source omitted.
func Normalize(raw fetchers.RawArticle, defaultLanguage, defaultCountry string) NormalizedArticle {
	content := raw.Content
	if content == "" {
		content = raw.Description
	}

	imageURL := raw.ImageURL
	if imageURL == "" {
		imageURL = DefaultImageURL
	}

	language := raw.Language
	if language == "" {
		language = defaultLanguage
	}
	if language == "" {
		language = "en"
	}

	country := raw.Country
	if country == "" {
		country = defaultCountry
	}

	sourceName := raw.Source.Name
	sourceURL := raw.Source.URL
	if sourceURL == "" && sourceName != "" {
		sourceURL = slugSourceURL(sourceName)
	}

	return NormalizedArticle{
		Title:         raw.Title,
		URL:           raw.URL,
		Content:       content,
		Author:        raw.Author,
		ImageURL:      imageURL,
		PublishedDate: ParseDate(raw.PublishedAt),
		SourceName:    sourceName,
		SourceURL:     sourceURL,
		Language:      language,
		Country:       country,
		Categories:    strings.Join(raw.Categories, ", "),
		IsFake:        CoerceBool(raw.IsFake),
		Sentiment:     optionalString(raw.Sentiment),
		FakeScore:     raw.FakeScore,
	}
}

// slugSourceURL synthesizes a publisher URL from its name when the upstream
// API omits one. The result is best-effort and known to be unreliable; it
// exists so the source row has a stable unique key.
func slugSourceURL(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "")
	slug = strings.ReplaceAll(slug, ".", "")
	return fmt.Sprintf("https://www.%s.com", slug)
}

// ParseDate parses a published-date string permissively. Parse failure
// yields nil rather than an error; a missing date is not a reason to drop
// an article.
func ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// CoerceBool converts the loosely-typed is_fake value that round-trips
// through JSON payloads. Native booleans pass through; the strings "true",
// "1" and "yes" (case-insensitive) are true; any other present value is
// false; absent stays nil.
func CoerceBool(value any) *bool {
	if value == nil {
		return nil
	}
	var b bool
	switch v := value.(type) {
	case bool:
		b = v
	case string:
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			b = true
		default:
			b = false
		}
	case float64:
		b = v != 0
	default:
		b = false
	}
	return &b
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
