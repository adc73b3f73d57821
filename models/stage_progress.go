package models

import "time"

// Stage outcomes. PASS and ESCALATE are legal only on non-decision stages;
// ACCEPTED and REJECTED only on the decision stage.
const (
	OutcomePass     = "PASS"
	OutcomeEscalate = "ESCALATE"
	OutcomeAccepted = "ACCEPTED"
	OutcomeRejected = "REJECTED"
)

// IdeaStageProgress is the execution record of one pipeline stage for one
// idea. All rows for an idea are created together when the idea enters
// multi-stage review, so the pipeline shape is frozen at claim time. A row
// is active iff started_at is set and completed_at is not.
type IdeaStageProgress struct {
	ProgressID  int        `gorm:"primaryKey;column:progress_id" json:"progress_id"`
	IdeaID      int        `gorm:"column:idea_id;uniqueIndex:idx_idea_stage" json:"idea_id"`
	StageID     int        `gorm:"column:stage_id;uniqueIndex:idx_idea_stage" json:"stage_id"`
	ReviewerID  *int       `gorm:"column:reviewer_id" json:"reviewer_id,omitempty"`
	StartedAt   *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	Outcome     *string    `gorm:"column:outcome" json:"outcome,omitempty"`
	Comment     *string    `gorm:"column:comment" json:"comment,omitempty"`

	// Relations
	Stage    *ReviewPipelineStage `gorm:"foreignKey:StageID;references:StageID" json:"stage,omitempty"`
	Idea     *Idea                `gorm:"foreignKey:IdeaID;references:IdeaID" json:"idea,omitempty"`
	Reviewer *User                `gorm:"foreignKey:ReviewerID;references:UserID" json:"reviewer,omitempty"`
}

func (IdeaStageProgress) TableName() string {
	return "idea_stage_progress"
}

// Active reports whether the stage has been reached but not yet completed.
func (p *IdeaStageProgress) Active() bool {
	return p.StartedAt != nil && p.CompletedAt == nil
}
