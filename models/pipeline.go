package models

import "time"

// ReviewPipeline is a named, ordered set of review stages bound to one idea
// category. System-seeded pipelines carry is_default and are not deletable.
type ReviewPipeline struct {
	PipelineID   int        `gorm:"primaryKey;column:pipeline_id" json:"pipeline_id"`
	Name         string     `gorm:"column:name" json:"name"`
	CategorySlug string     `gorm:"column:category_slug;uniqueIndex" json:"category_slug"`
	IsDefault    bool       `gorm:"column:is_default" json:"is_default"`
	BlindReview  bool       `gorm:"column:blind_review" json:"blind_review"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt    *time.Time `gorm:"column:deleted_at" json:"deleted_at,omitempty"`

	// Relations
	Stages []ReviewPipelineStage `gorm:"foreignKey:PipelineID" json:"stages,omitempty"`
}

// ReviewPipelineStage is one ordered step of a pipeline. stage_order values
// are contiguous starting at 1; exactly one stage per pipeline is the
// decision stage.
type ReviewPipelineStage struct {
	StageID         int    `gorm:"primaryKey;column:stage_id" json:"stage_id"`
	PipelineID      int    `gorm:"column:pipeline_id;index" json:"pipeline_id"`
	Name            string `gorm:"column:name" json:"name"`
	Description     string `gorm:"column:description" json:"description"`
	StageOrder      int    `gorm:"column:stage_order" json:"stage_order"`
	IsDecisionStage bool   `gorm:"column:is_decision_stage" json:"is_decision_stage"`
}

func (ReviewPipeline) TableName() string {
	return "review_pipelines"
}

func (ReviewPipelineStage) TableName() string {
	return "review_pipeline_stages"
}
