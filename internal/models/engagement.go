package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Interaction strength weights consumed by the recommendation engine.
const (
	StrengthView    = 0.5
	StrengthLike    = 2.0
	StrengthSave    = 3.0
	StrengthComment = 2.0
)

// InteractionStrength returns the weight for an interaction type, defaulting
// to the view weight for unknown types.
func InteractionStrength(interactionType string) float64 {
	switch interactionType {
	case "like":
		return StrengthLike
	case "save":
		return StrengthSave
	case "comment":
		return StrengthComment
	default:
		return StrengthView
	}
}

// UserInteraction is one row per (user, article), upserted rather than
// appended: the strongest recent interaction wins.
type UserInteraction struct {
	ID              uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	UserID          uuid.UUID `json:"user_id" db:"user_id" gorm:"type:uuid;uniqueIndex:idx_interactions_user_article;index:idx_interactions_user_type"`
	ArticleID       uuid.UUID `json:"article_id" db:"article_id" gorm:"type:uuid;uniqueIndex:idx_interactions_user_article;index"`
	InteractionType string    `json:"interaction_type" db:"interaction_type" gorm:"default:view;index:idx_interactions_user_type"`
	Strength        float64   `json:"strength" db:"strength" gorm:"default:1.0"`
	Timestamp       time.Time `json:"timestamp" db:"timestamp" gorm:"autoCreateTime;index"`

	User    User    `json:"-" gorm:"foreignKey:UserID"`
	Article Article `json:"-" gorm:"foreignKey:ArticleID"`
}

// TableName sets the table name for the UserInteraction model
func (UserInteraction) TableName() string {
	return "user_interactions"
}

func (i *UserInteraction) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Like is an explicit engagement entity, unique per (user, article).
type Like struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	UserID    uuid.UUID `json:"user_id" db:"user_id" gorm:"type:uuid;uniqueIndex:idx_likes_user_article"`
	ArticleID uuid.UUID `json:"article_id" db:"article_id" gorm:"type:uuid;uniqueIndex:idx_likes_user_article;index"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`

	User    User    `json:"-" gorm:"foreignKey:UserID"`
	Article Article `json:"-" gorm:"foreignKey:ArticleID"`
}

// TableName sets the table name for the Like model
func (Like) TableName() string {
	return "likes"
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Comment is a user comment on an article.
type Comment struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	UserID    uuid.UUID `json:"user_id" db:"user_id" gorm:"type:uuid;index"`
	ArticleID uuid.UUID `json:"article_id" db:"article_id" gorm:"type:uuid;index"`
	Content   string    `json:"content" db:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`

	User    User    `json:"-" gorm:"foreignKey:UserID"`
	Article Article `json:"-" gorm:"foreignKey:ArticleID"`
}

// TableName sets the table name for the Comment model
func (Comment) TableName() string {
	return "comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// SavedCollection is a user-named group of saved articles, unique per
// (user, name).
type SavedCollection struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	UserID    uuid.UUID `json:"user_id" db:"user_id" gorm:"type:uuid;uniqueIndex:idx_collections_user_name"`
	Name      string    `json:"name" db:"name" gorm:"size:100;uniqueIndex:idx_collections_user_name"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`

	User          User           `json:"-" gorm:"foreignKey:UserID"`
	SavedArticles []SavedArticle `json:"saved_articles,omitempty" gorm:"foreignKey:CollectionID"`
}

// TableName sets the table name for the SavedCollection model
func (SavedCollection) TableName() string {
	return "saved_collections"
}

func (sc *SavedCollection) BeforeCreate(tx *gorm.DB) error {
	if sc.ID == uuid.Nil {
		sc.ID = uuid.New()
	}
	return nil
}

// SavedArticle places an article in a collection, unique per
// (user, article, collection).
type SavedArticle struct {
	ID           uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	UserID       uuid.UUID `json:"user_id" db:"user_id" gorm:"type:uuid;uniqueIndex:idx_saved_user_article_collection"`
	ArticleID    uuid.UUID `json:"article_id" db:"article_id" gorm:"type:uuid;uniqueIndex:idx_saved_user_article_collection;index"`
	CollectionID uuid.UUID `json:"collection_id" db:"collection_id" gorm:"type:uuid;uniqueIndex:idx_saved_user_article_collection;index"`
	CreatedAt    time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`

	User       User            `json:"-" gorm:"foreignKey:UserID"`
	Article    Article         `json:"-" gorm:"foreignKey:ArticleID"`
	Collection SavedCollection `json:"-" gorm:"foreignKey:CollectionID"`
}

// TableName sets the table name for the SavedArticle model
func (SavedArticle) TableName() string {
	return "saved_articles"
}

func (sa *SavedArticle) BeforeCreate(tx *gorm.DB) error {
	if sa.ID == uuid.Nil {
		sa.ID = uuid.New()
	}
	return nil
}

// Recommendation is one materialized recommendation row; a user's set is
// replaced wholesale on each explicit refresh.
type Recommendation struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	UserID    uuid.UUID `json:"user_id" db:"user_id" gorm:"type:uuid;index"`
	ArticleID uuid.UUID `json:"article_id" db:"article_id" gorm:"type:uuid;index"`
	Score     float64   `json:"score" db:"score"` // cosine distance to the user's mean embedding, lower is closer
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`

	User    User    `json:"-" gorm:"foreignKey:UserID"`
	Article Article `json:"-" gorm:"foreignKey:ArticleID"`
}

// TableName sets the table name for the Recommendation model
func (Recommendation) TableName() string {
	return "recommendations"
}

func (r *Recommendation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
