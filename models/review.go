package models

import "time"

// Review decisions recorded on the legacy single-stage path.
const (
	DecisionAccepted = "ACCEPTED"
	DecisionRejected = "REJECTED"
)

// SingleStageReview is the legacy one-shot review record. The unique index
// on idea_id is the authoritative guard against two reviewers claiming the
// same idea; the application-level existence check only produces the nicer
// error message.
type SingleStageReview struct {
	ReviewID   int        `gorm:"primaryKey;column:review_id" json:"review_id"`
	IdeaID     int        `gorm:"column:idea_id;uniqueIndex" json:"idea_id"`
	ReviewerID int        `gorm:"column:reviewer_id" json:"reviewer_id"`
	StartedAt  time.Time  `gorm:"column:started_at" json:"started_at"`
	Decision   *string    `gorm:"column:decision" json:"decision,omitempty"`
	Comment    *string    `gorm:"column:comment" json:"comment,omitempty"`
	DecidedAt  *time.Time `gorm:"column:decided_at" json:"decided_at,omitempty"`

	// Relations
	Reviewer *User `gorm:"foreignKey:ReviewerID;references:UserID" json:"reviewer,omitempty"`
}

// TableName specifies the table name for SingleStageReview.
func (SingleStageReview) TableName() string {
	return "single_stage_reviews"
}
