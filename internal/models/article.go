package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// Article is the canonical article record, independent of the source it was
// ingested from. The URL is the dedup key: a second ingestion of the same URL
// must never create a second row.
type Article struct {
	ID            uuid.UUID  `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	Title         string     `json:"title" db:"title" gorm:"not null"`
	URL           string     `json:"url" db:"url" gorm:"uniqueIndex;not null"`
	Content       string     `json:"content" db:"content" gorm:"type:text"`
	Author        string     `json:"author" db:"author"`
	ImageURL      string     `json:"image_url" db:"image_url"`
	SourceID      *uuid.UUID `json:"source_id" db:"source_id" gorm:"type:uuid;index"`
	Source        *Source    `json:"source,omitempty" gorm:"foreignKey:SourceID"`
	PublishedDate *time.Time `json:"published_date" db:"published_date" gorm:"index"`
	Language      string     `json:"language" db:"language"`
	Country       string     `json:"country" db:"country"`
	Categories    *string    `json:"categories" db:"categories" gorm:"type:text"`

	// Enrichment fields, null until the enrichment pipeline has run
	Embedding *pgvector.Vector `json:"-" db:"embedding" gorm:"type:vector(384)"`
	IsFake    *bool            `json:"is_fake" db:"is_fake" gorm:"index"`
	FakeScore *float64         `json:"fake_score" db:"fake_score"` // 1.0/0.0 mirror of IsFake, kept for legacy consumers
	Sentiment *string          `json:"sentiment" db:"sentiment" gorm:"index"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Keywords []Keyword `json:"keywords,omitempty" gorm:"many2many:article_keywords"`
}

// TableName sets the table name for the Article model
func (Article) TableName() string {
	return "articles"
}

// BeforeCreate assigns a UUID so the model also works on databases without a
// server-side uuid generator (the test database is sqlite)
func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// HasEmbedding reports whether the semantic embedding has been computed
func (a *Article) HasEmbedding() bool {
	return a.Embedding != nil
}

// Keyword is a normalized lowercase token or quoted phrase extracted from a
// user query; many-to-many with Article. Created lazily, never deleted.
type Keyword struct {
	ID      uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	Keyword string    `json:"keyword" db:"keyword" gorm:"uniqueIndex;not null"`

	Articles []Article `json:"articles,omitempty" gorm:"many2many:article_keywords"`
}

// TableName sets the table name for the Keyword model
func (Keyword) TableName() string {
	return "keywords"
}

func (k *Keyword) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}
