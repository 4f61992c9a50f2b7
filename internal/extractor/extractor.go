// Package extractor fetches an article page and extracts clean body text,
// filtering boilerplate. It is a collaborator of the ingestion pipeline: the
// pipeline decides what to do with thin or missing content.
package extractor

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// MinContentWords is the gate below which a paragraph is not considered
	// article body text.
	MinContentWords = 100
	// MaxContentWords caps the stored content; longer text is truncated with
	// an elision marker.
	MaxContentWords = 500
	// ElisionMarker is appended when content is truncated.
	ElisionMarker = " [...]"
)

var boilerplatePhrases = []string{
	"cookie policy", "privacy policy", "terms of use",
	"all rights reserved", "©", "sign up for our newsletter",
	"related articles", "continue reading", "click here",
	"published on", "last updated", "photo credit",
	"please share", "follow us", "comments", "cookies",
}

var whitespacePattern = regexp.MustCompile(`\s+`)

// Content is the result of a successful extraction.
type Content struct {
	Full           string
	Truncated      string
	WordCount      int
	ParagraphCount int
}

// Extractor fetches pages and pulls out article body paragraphs.
type Extractor struct {
	httpClient *http.Client
}

// New creates a content extractor with a bounded request timeout.
func New() *Extractor {
	return &Extractor{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetArticleContent fetches the page at url and returns its cleaned body
// text, or nil when the page is unreachable or has no usable paragraphs.
// It never returns an error for content-quality reasons; the nil result is
// the signal.
func (e *Extractor) GetArticleContent(ctx context.Context, pageURL, title string) (*Content, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}

	return ExtractFromDocument(doc, title), nil
}

// ExtractFromDocument pulls clean paragraphs out of an already-parsed page.
// Split out so tests can exercise the filtering without a live fetch.
func ExtractFromDocument(doc *goquery.Document, title string) *Content {
	var paragraphs []string

	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if isArticleContent(text, title) {
			paragraphs = append(paragraphs, whitespacePattern.ReplaceAllString(text, " "))
		}
	})

	if len(paragraphs) == 0 {
		return nil
	}

	full := strings.Join(paragraphs, "\n\n")
	words := strings.Fields(full)

	truncated := full
	if len(words) > MaxContentWords {
		truncated = strings.Join(words[:MaxContentWords], " ") + ElisionMarker
	}

	return &Content{
		Full:           full,
		Truncated:      truncated,
		WordCount:      len(words),
		ParagraphCount: len(paragraphs),
	}
}

// isArticleContent decides whether a paragraph is meaningful body text.
func isArticleContent(text, title string) bool {
	text = strings.TrimSpace(text)

	if len(strings.Fields(text)) < MinContentWords {
		return false
	}

	lower := strings.ToLower(text)
	for _, phrase := range boilerplatePhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}

	if title != "" && strings.Contains(lower, strings.ToLower(title)) {
		return false
	}

	if len(text) < 60 && (strings.HasSuffix(text, ".") || strings.HasSuffix(text, ":")) {
		return false
	}

	return true
}
