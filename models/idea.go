package models

import "time"

// Idea lifecycle statuses. Transitions between them go through
// services.Transition only.
const (
	StatusDraft       = "DRAFT"
	StatusSubmitted   = "SUBMITTED"
	StatusUnderReview = "UNDER_REVIEW"
	StatusAccepted    = "ACCEPTED"
	StatusRejected    = "REJECTED"
)

// Idea visibility.
const (
	VisibilityPublic  = "PUBLIC"
	VisibilityPrivate = "PRIVATE"
)

// Idea represents the ideas table. Title, description and category may be
// empty while the idea is still a draft; draft_expires_at and
// is_expired_draft are only meaningful in status DRAFT.
type Idea struct {
	IdeaID         int        `gorm:"primaryKey;column:idea_id" json:"idea_id"`
	IdeaNumber     string     `gorm:"column:idea_number;unique" json:"idea_number"`
	Title          *string    `gorm:"column:title" json:"title"`
	Description    *string    `gorm:"column:description" json:"description"`
	CategorySlug   *string    `gorm:"column:category_slug" json:"category_slug"`
	Status         string     `gorm:"column:status" json:"status"`
	AuthorID       int        `gorm:"column:author_id" json:"author_id"`
	Visibility     string     `gorm:"column:visibility" json:"visibility"`
	DraftExpiresAt *time.Time `gorm:"column:draft_expires_at" json:"draft_expires_at,omitempty"`
	IsExpiredDraft bool       `gorm:"column:is_expired_draft" json:"is_expired_draft"`
	SubmittedAt    *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	DecidedAt      *time.Time `gorm:"column:decided_at" json:"decided_at,omitempty"`
	CreatedAt      time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt      *time.Time `gorm:"column:deleted_at" json:"deleted_at,omitempty"`

	// Relations
	Author *User `gorm:"foreignKey:AuthorID;references:UserID" json:"author,omitempty"`

	// Masked author name, filled on read paths. Never persisted.
	AuthorDisplayName string `gorm:"-" json:"author_display_name,omitempty"`
}

func (Idea) TableName() string {
	return "ideas"
}

// DraftExpired reports whether a draft must be treated as expired at the
// given instant. The stored flag may lag behind the timestamp; read paths
// use this instead of the flag alone.
func (i *Idea) DraftExpired(now time.Time) bool {
	if i.Status != StatusDraft {
		return false
	}
	if i.IsExpiredDraft {
		return true
	}
	return i.DraftExpiresAt != nil && i.DraftExpiresAt.Before(now)
}
