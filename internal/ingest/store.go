package ingest

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"news-aggregator/internal/models"

	"gorm.io/gorm"
)

// Store is the deduplicating persistence layer for articles and sources.
// The article URL is the uniqueness key; concurrent writers racing on the
// same URL are resolved by re-reading the winner's row, never by surfacing
// the constraint violation.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store over the given database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for callers composing transactions.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// GetOrCreateSource finds the source row for url or creates it with the
// given name. Sources are created lazily on the first article referencing
// them.
func (s *Store) GetOrCreateSource(tx *gorm.DB, name, url, language, country string) (*models.Source, bool, error) {
	if url == "" {
		return nil, false, fmt.Errorf("source url is required")
	}

	var source models.Source
	err := tx.Where("url = ?", url).First(&source).Error
	if err == nil {
		return &source, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("looking up source %s: %w", url, err)
	}

	source = models.Source{
		Name:     name,
		URL:      url,
		Language: language,
		Country:  country,
	}
	if createErr := tx.Create(&source).Error; createErr != nil {
		// A concurrent writer may have created it between the read and the
		// create; the existing row wins.
		var existing models.Source
		if readErr := tx.Where("url = ?", url).First(&existing).Error; readErr == nil {
			return &existing, false, nil
		}
		return nil, false, fmt.Errorf("creating source %s: %w", url, createErr)
	}

	return &source, true, nil
}

// GetOrCreateArticle stores the candidate article unless a row with the same
// URL already exists. On a uniqueness race the existing row is re-read and
// returned with created=false; exactly one row per URL survives regardless
// of how many writers raced.
func (s *Store) GetOrCreateArticle(tx *gorm.DB, candidate *models.Article) (*models.Article, bool, error) {
	if candidate.URL == "" {
		return nil, false, fmt.Errorf("article url is required")
	}

	var existing models.Article
	err := tx.Where("url = ?", candidate.URL).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("looking up article %s: %w", candidate.URL, err)
	}

	if createErr := tx.Create(candidate).Error; createErr != nil {
		if readErr := tx.Where("url = ?", candidate.URL).First(&existing).Error; readErr == nil {
			log.Printf("Skipping duplicate article: %s", candidate.URL)
			return &existing, false, nil
		}
		return nil, false, fmt.Errorf("creating article %s: %w", candidate.URL, createErr)
	}

	return candidate, true, nil
}

// UpdateArticleFields refreshes the mutable content fields of an existing
// row from a re-ingested candidate. Empty candidate fields never overwrite
// stored values.
func (s *Store) UpdateArticleFields(tx *gorm.DB, existing *models.Article, candidate *models.Article) error {
	updates := map[string]any{}
	if candidate.Title != "" && candidate.Title != existing.Title {
		updates["title"] = candidate.Title
	}
	if candidate.Content != "" && candidate.Content != existing.Content {
		updates["content"] = candidate.Content
	}
	if candidate.Author != "" && candidate.Author != existing.Author {
		updates["author"] = candidate.Author
	}
	if candidate.ImageURL != "" && candidate.ImageURL != DefaultImageURL && candidate.ImageURL != existing.ImageURL {
		updates["image_url"] = candidate.ImageURL
	}
	if len(updates) == 0 {
		return nil
	}

	if err := tx.Model(existing).Updates(updates).Error; err != nil {
		return fmt.Errorf("updating article %s: %w", existing.URL, err)
	}
	return nil
}

// LinkKeywords attaches the query keywords to an article, creating keyword
// rows lazily and skipping linkages the article already has. Re-ingesting
// an article with the same query must not duplicate the m2m rows.
func (s *Store) LinkKeywords(tx *gorm.DB, article *models.Article, created bool, keywords []string) error {
	if len(keywords) == 0 {
		return nil
	}

	existing := map[string]bool{}
	if !created {
		var linked []models.Keyword
		if err := tx.Model(article).Association("Keywords").Find(&linked); err != nil {
			return fmt.Errorf("loading keywords for article %s: %w", article.URL, err)
		}
		for _, kw := range linked {
			existing[kw.Keyword] = true
		}
	}

	for _, raw := range keywords {
		keyword := strings.ToLower(strings.TrimSpace(raw))
		if keyword == "" || existing[keyword] {
			continue
		}

		var kw models.Keyword
		err := tx.Where("keyword = ?", keyword).First(&kw).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			kw = models.Keyword{Keyword: keyword}
			if createErr := tx.Create(&kw).Error; createErr != nil {
				if readErr := tx.Where("keyword = ?", keyword).First(&kw).Error; readErr != nil {
					return fmt.Errorf("creating keyword %q: %w", keyword, createErr)
				}
			}
		} else if err != nil {
			return fmt.Errorf("looking up keyword %q: %w", keyword, err)
		}

		if err := tx.Model(article).Association("Keywords").Append(&kw); err != nil {
			return fmt.Errorf("linking keyword %q to article %s: %w", keyword, article.URL, err)
		}
		existing[keyword] = true
	}

	return nil
}
