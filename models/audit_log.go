package models

import "time"

// Audit actions recorded by the review engine.
const (
	AuditIdeaReviewStarted   = "IDEA_REVIEW_STARTED"
	AuditIdeaReviewed        = "IDEA_REVIEWED"
	AuditIdeaReviewAbandoned = "IDEA_REVIEW_ABANDONED"
	AuditStageStarted        = "STAGE_STARTED"
	AuditStageAssigned       = "STAGE_ASSIGNED"
	AuditStageCompleted      = "STAGE_COMPLETED"
	AuditEscalationResolved  = "ESCALATION_RESOLVED"
	AuditDraftCreated        = "DRAFT_CREATED"
	AuditDraftDeleted        = "DRAFT_DELETED"
	AuditIdeaSubmitted       = "IDEA_SUBMITTED"
	AuditPipelineCreated     = "PIPELINE_CREATED"
	AuditPipelineUpdated     = "PIPELINE_UPDATED"
	AuditPipelineDeleted     = "PIPELINE_DELETED"
)

// AuditLog is the append-only trail of every state-changing action. Rows are
// inserted inside the same transaction as the change they record and are
// never updated or deleted.
type AuditLog struct {
	LogID        int       `gorm:"primaryKey;column:log_id" json:"log_id"`
	UserID       int       `gorm:"column:user_id;index" json:"user_id"`
	Action       string    `gorm:"column:action;index" json:"action"`
	EntityType   string    `gorm:"column:entity_type" json:"entity_type"`
	EntityID     *int      `gorm:"column:entity_id;index" json:"entity_id,omitempty"`
	EntityNumber *string   `gorm:"column:entity_number" json:"entity_number,omitempty"`
	NewValues    *string   `gorm:"column:new_values" json:"new_values,omitempty"`
	Description  *string   `gorm:"column:description" json:"description,omitempty"`
	IPAddress    string    `gorm:"column:ip_address" json:"ip_address"`
	UserAgent    *string   `gorm:"column:user_agent" json:"user_agent,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at;index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
