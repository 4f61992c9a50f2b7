package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Source represents a publisher. Sources are created lazily on the first
// article that references them; when the upstream API omits a source URL one
// is synthesized from the name, which makes the URL a best-effort value.
type Source struct {
	ID          uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	Name        string    `json:"name" db:"name"`
	URL         string    `json:"url" db:"url" gorm:"uniqueIndex;not null"`
	Country     string    `json:"country" db:"country"`
	Language    string    `json:"language" db:"language"`
	LastFetched time.Time `json:"last_fetched" db:"last_fetched" gorm:"autoCreateTime"`

	// Relationships
	Articles []Article `json:"articles,omitempty" gorm:"foreignKey:SourceID"`
}

// TableName sets the table name for the Source model
func (Source) TableName() string {
	return "sources"
}

func (s *Source) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
