package models

import "time"

// listContentLimit caps article content in list views; full content is only
// served from detail endpoints.
const listContentLimit = 200

// ArticleView is the serialized article shape shared by the HTTP handlers
// and the websocket notifier.
type ArticleView struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	URL           string   `json:"url"`
	ImageURL      string   `json:"image_url"`
	Author        string   `json:"author"`
	PublishedDate *string  `json:"published_date"`
	Source        string   `json:"source"`
	HasEmbedding  bool     `json:"has_embedding"`
	IsFake        *bool    `json:"is_fake"`
	FakeScore     *float64 `json:"fake_score"`
	Sentiment     *string  `json:"sentiment"`
	Language      string   `json:"language"`
	Country       string   `json:"country"`
	Categories    *string  `json:"categories"`
}

// NewArticleView serializes an article. With truncate set, content is cut
// to the list-view limit with an ellipsis.
func NewArticleView(a *Article, truncate bool) ArticleView {
	content := a.Content
	if truncate {
		// Truncation counts runes, not bytes, so a multi-byte character is
		// never split at the boundary.
		if runes := []rune(content); len(runes) > listContentLimit {
			content = string(runes[:listContentLimit]) + "..."
		}
	}

	var published *string
	if a.PublishedDate != nil {
		iso := a.PublishedDate.Format(time.RFC3339)
		published = &iso
	}

	sourceName := "Unknown"
	if a.Source != nil && a.Source.Name != "" {
		sourceName = a.Source.Name
	}

	return ArticleView{
		ID:            a.ID.String(),
		Title:         a.Title,
		Content:       content,
		URL:           a.URL,
		ImageURL:      a.ImageURL,
		Author:        a.Author,
		PublishedDate: published,
		Source:        sourceName,
		HasEmbedding:  a.HasEmbedding(),
		IsFake:        a.IsFake,
		FakeScore:     a.FakeScore,
		Sentiment:     a.Sentiment,
		Language:      a.Language,
		Country:       a.Country,
		Categories:    a.Categories,
	}
}

// NewArticleViews serializes a slice of articles for list responses.
func NewArticleViews(articles []Article, truncate bool) []ArticleView {
	views := make([]ArticleView, len(articles))
	for i := range articles {
		views[i] = NewArticleView(&articles[i], truncate)
	}
	return views
}
