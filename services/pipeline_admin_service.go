package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"idea-review-api/models"
	"idea-review-api/utils"

	"gorm.io/gorm"
)

// StageInput describes one stage of a pipeline being created or replaced.
// Order is implied by position: the first entry becomes stage_order 1.
type StageInput struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	IsDecisionStage bool   `json:"is_decision_stage"`
}

// PipelineInput is the payload for pipeline create/update.
type PipelineInput struct {
	Name         string       `json:"name"`
	CategorySlug string       `json:"category_slug"`
	BlindReview  bool         `json:"blind_review"`
	Stages       []StageInput `json:"stages"`
}

// PipelineAdminService is the SUPERADMIN-only CRUD surface for review
// pipelines and their stages.
type PipelineAdminService struct {
	db *gorm.DB
}

func NewPipelineAdminService(db *gorm.DB) *PipelineAdminService {
	return &PipelineAdminService{db: db}
}

// CreatePipeline creates a pipeline with its ordered stages.
func (s *PipelineAdminService) CreatePipeline(actor Actor, input PipelineInput) (*models.ReviewPipeline, error) {
	if actor.RoleID != models.RoleSuperadmin {
		return nil, engineErr(CodeForbidden, "only a superadmin may manage pipelines")
	}
	if err := validatePipelineInput(input); err != nil {
		return nil, err
	}

	var pipeline models.ReviewPipeline
	err := s.db.Transaction(func(tx *gorm.DB) error {
		slug := utils.SanitizeInput(input.CategorySlug)

		var existing int64
		if err := tx.Model(&models.ReviewPipeline{}).
			Where("category_slug = ? AND deleted_at IS NULL", slug).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return engineErr(CodePipelineExists, "a pipeline already exists for this category")
		}

		now := time.Now()
		pipeline = models.ReviewPipeline{
			Name:         utils.SanitizeInput(input.Name),
			CategorySlug: slug,
			BlindReview:  input.BlindReview,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(&pipeline).Error; err != nil {
			if isDuplicateKey(err) {
				return engineErr(CodePipelineExists, "a pipeline already exists for this category")
			}
			return err
		}

		stages, err := createStages(tx, pipeline.PipelineID, input.Stages)
		if err != nil {
			return err
		}
		pipeline.Stages = stages

		return writeAudit(tx, actor, auditEntry{
			Action:     models.AuditPipelineCreated,
			EntityType: "pipeline",
			EntityID:   pipeline.PipelineID,
			Values: map[string]interface{}{
				"category_slug": pipeline.CategorySlug,
				"stage_count":   len(stages),
			},
			Description: "Review pipeline created",
		})
	})
	if err != nil {
		return nil, err
	}
	return &pipeline, nil
}

// UpdatePipeline replaces a pipeline's attributes and stage list. Stages are
// blocked from replacement while any progress row referencing them is still
// open, since the open review depends on the frozen pipeline shape.
func (s *PipelineAdminService) UpdatePipeline(actor Actor, pipelineID int, input PipelineInput) (*models.ReviewPipeline, error) {
	if actor.RoleID != models.RoleSuperadmin {
		return nil, engineErr(CodeForbidden, "only a superadmin may manage pipelines")
	}
	if err := validatePipelineInput(input); err != nil {
		return nil, err
	}

	var pipeline models.ReviewPipeline
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pipeline_id = ? AND deleted_at IS NULL", pipelineID).First(&pipeline).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return engineErr(CodePipelineNotFound, "pipeline not found")
			}
			return err
		}

		open, err := countOpenProgress(tx, pipeline.PipelineID)
		if err != nil {
			return err
		}
		if open > 0 {
			return engineErr(CodeStageInUse, "pipeline stages are referenced by open reviews")
		}

		slug := utils.SanitizeInput(input.CategorySlug)
		if slug != pipeline.CategorySlug {
			var existing int64
			if err := tx.Model(&models.ReviewPipeline{}).
				Where("category_slug = ? AND pipeline_id <> ? AND deleted_at IS NULL", slug, pipeline.PipelineID).
				Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				return engineErr(CodePipelineExists, "a pipeline already exists for this category")
			}
		}

		now := time.Now()
		if err := tx.Model(&models.ReviewPipeline{}).
			Where("pipeline_id = ?", pipeline.PipelineID).
			Updates(map[string]interface{}{
				"name":          utils.SanitizeInput(input.Name),
				"category_slug": slug,
				"blind_review":  input.BlindReview,
				"updated_at":    now,
			}).Error; err != nil {
			return err
		}
		pipeline.Name = utils.SanitizeInput(input.Name)
		pipeline.CategorySlug = slug
		pipeline.BlindReview = input.BlindReview
		pipeline.UpdatedAt = now

		if err := tx.Where("pipeline_id = ?", pipeline.PipelineID).
			Delete(&models.ReviewPipelineStage{}).Error; err != nil {
			return err
		}
		stages, err := createStages(tx, pipeline.PipelineID, input.Stages)
		if err != nil {
			return err
		}
		pipeline.Stages = stages

		return writeAudit(tx, actor, auditEntry{
			Action:     models.AuditPipelineUpdated,
			EntityType: "pipeline",
			EntityID:   pipeline.PipelineID,
			Values: map[string]interface{}{
				"category_slug": pipeline.CategorySlug,
				"stage_count":   len(stages),
			},
			Description: "Review pipeline updated",
		})
	})
	if err != nil {
		return nil, err
	}
	return &pipeline, nil
}

// DeletePipeline soft-deletes a pipeline. System-seeded defaults are not
// deletable, and neither is a pipeline with open progress rows.
func (s *PipelineAdminService) DeletePipeline(actor Actor, pipelineID int) error {
	if actor.RoleID != models.RoleSuperadmin {
		return engineErr(CodeForbidden, "only a superadmin may manage pipelines")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var pipeline models.ReviewPipeline
		if err := tx.Where("pipeline_id = ? AND deleted_at IS NULL", pipelineID).First(&pipeline).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return engineErr(CodePipelineNotFound, "pipeline not found")
			}
			return err
		}
		if pipeline.IsDefault {
			return engineErr(CodeCannotDeleteDefault, "default pipelines can not be deleted")
		}

		open, err := countOpenProgress(tx, pipeline.PipelineID)
		if err != nil {
			return err
		}
		if open > 0 {
			return engineErr(CodePipelineInUse, "pipeline is referenced by open reviews")
		}

		now := time.Now()
		if err := tx.Model(&models.ReviewPipeline{}).
			Where("pipeline_id = ?", pipeline.PipelineID).
			Updates(map[string]interface{}{
				"deleted_at": now,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		return writeAudit(tx, actor, auditEntry{
			Action:      models.AuditPipelineDeleted,
			EntityType:  "pipeline",
			EntityID:    pipeline.PipelineID,
			Values:      map[string]interface{}{"category_slug": pipeline.CategorySlug},
			Description: "Review pipeline deleted",
		})
	})
}

// ListPipelines returns all live pipelines with their stages, for reviewers
// and admins.
func (s *PipelineAdminService) ListPipelines(actor Actor) ([]models.ReviewPipeline, error) {
	if !models.IsReviewer(actor.RoleID) {
		return nil, engineErr(CodeForbidden, "only reviewers may list pipelines")
	}

	var pipelines []models.ReviewPipeline
	err := s.db.Preload("Stages", func(db *gorm.DB) *gorm.DB {
		return db.Order("stage_order ASC")
	}).Where("deleted_at IS NULL").Order("category_slug ASC").Find(&pipelines).Error
	if err != nil {
		return nil, err
	}
	return pipelines, nil
}

// EnsureDefaultPipelines seeds the default two-stage pipeline for the
// general category when no pipeline exists for it yet. Called at startup.
func (s *PipelineAdminService) EnsureDefaultPipelines() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.ReviewPipeline{}).
			Where("category_slug = ? AND deleted_at IS NULL", "general").
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		now := time.Now()
		pipeline := models.ReviewPipeline{
			Name:         "General review",
			CategorySlug: "general",
			IsDefault:    true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(&pipeline).Error; err != nil {
			return err
		}

		_, err := createStages(tx, pipeline.PipelineID, []StageInput{
			{Name: "Screening", Description: "Initial screening of the proposal"},
			{Name: "Decision", Description: "Final accept or reject decision", IsDecisionStage: true},
		})
		if err != nil {
			return err
		}

		log.Println("Seeded default review pipeline for category 'general'")
		return nil
	})
}

func createStages(tx *gorm.DB, pipelineID int, inputs []StageInput) ([]models.ReviewPipelineStage, error) {
	stages := make([]models.ReviewPipelineStage, 0, len(inputs))
	for i, in := range inputs {
		stage := models.ReviewPipelineStage{
			PipelineID:      pipelineID,
			Name:            utils.SanitizeInput(in.Name),
			Description:     utils.SanitizeInput(in.Description),
			StageOrder:      i + 1,
			IsDecisionStage: in.IsDecisionStage,
		}
		if err := tx.Create(&stage).Error; err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

// countOpenProgress counts progress rows referencing the pipeline's stages
// that are not yet completed.
func countOpenProgress(tx *gorm.DB, pipelineID int) (int64, error) {
	var open int64
	err := tx.Model(&models.IdeaStageProgress{}).
		Joins("JOIN review_pipeline_stages ON review_pipeline_stages.stage_id = idea_stage_progress.stage_id").
		Where("review_pipeline_stages.pipeline_id = ?", pipelineID).
		Where("idea_stage_progress.completed_at IS NULL").
		Count(&open).Error
	return open, err
}

func validatePipelineInput(input PipelineInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return validationErr("name", "Pipeline name is required")
	}
	if strings.TrimSpace(input.CategorySlug) == "" {
		return validationErr("category_slug", "Category slug is required")
	}
	if len(input.Stages) < 2 {
		return validationErr("stages", "A pipeline requires at least 2 stages")
	}
	decisionStages := 0
	for _, stage := range input.Stages {
		if strings.TrimSpace(stage.Name) == "" {
			return validationErr("stages", "Every stage requires a name")
		}
		if stage.IsDecisionStage {
			decisionStages++
		}
	}
	if decisionStages != 1 {
		return validationErr("stages", "Exactly one stage must be the decision stage")
	}
	if !input.Stages[len(input.Stages)-1].IsDecisionStage {
		return validationErr("stages", "The decision stage must be the final stage")
	}
	return nil
}
