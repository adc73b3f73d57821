package services

import (
	"errors"
	"fmt"
	"time"

	"idea-review-api/config"
	"idea-review-api/models"
	"idea-review-api/utils"

	"gorm.io/gorm"
)

// PipelineService drives the multi-stage review path: claiming an idea into
// its category's pipeline, assigning and completing stages, and exposing
// the escalation queue.
type PipelineService struct {
	db       *gorm.DB
	features config.Features
	notifier *NotificationService
}

func NewPipelineService(db *gorm.DB, features config.Features, notifier *NotificationService) *PipelineService {
	return &PipelineService{db: db, features: features, notifier: notifier}
}

// ClaimStage moves a SUBMITTED idea into multi-stage review. Progress rows
// for every pipeline stage are created up front so the pipeline shape is
// fixed at claim time; only the first stage becomes active, owned by the
// actor. Returns the first stage's progress row.
func (s *PipelineService) ClaimStage(actor Actor, ideaID int) (*models.IdeaStageProgress, error) {
	if !s.features.MultiStageReview {
		return nil, engineErr(CodeFeatureDisabled, "multi-stage review is disabled")
	}
	if !models.IsReviewer(actor.RoleID) {
		return nil, engineErr(CodeForbidden, "only reviewers may claim a review stage")
	}

	var first models.IdeaStageProgress
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var idea models.Idea
		if err := tx.Where("idea_id = ? AND deleted_at IS NULL", ideaID).First(&idea).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return engineErr(CodeIdeaNotFound, "idea not found")
			}
			return err
		}
		if idea.Status != models.StatusSubmitted {
			return engineErr(CodeInvalidStatus, fmt.Sprintf("idea is %s, expected SUBMITTED", idea.Status))
		}
		if idea.CategorySlug == nil || *idea.CategorySlug == "" {
			return engineErr(CodePipelineNotFound, "idea has no category with a review pipeline")
		}

		var pipeline models.ReviewPipeline
		if err := tx.Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("stage_order ASC")
		}).Where("category_slug = ? AND deleted_at IS NULL", *idea.CategorySlug).
			First(&pipeline).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return engineErr(CodePipelineNotFound, "no review pipeline configured for this category")
			}
			return err
		}
		if len(pipeline.Stages) == 0 {
			return engineErr(CodePipelineNotFound, "review pipeline has no stages")
		}

		var claimed int64
		if err := tx.Model(&models.IdeaStageProgress{}).
			Where("idea_id = ?", idea.IdeaID).
			Count(&claimed).Error; err != nil {
			return err
		}
		if claimed > 0 {
			return engineErr(CodeAlreadyClaimed, "idea was already claimed into a pipeline")
		}

		nextStatus, err := Transition(idea.Status, ActionStartReview, actor.RoleID)
		if err != nil {
			return err
		}

		now := time.Now()
		for _, stage := range pipeline.Stages {
			progress := models.IdeaStageProgress{
				IdeaID:  idea.IdeaID,
				StageID: stage.StageID,
			}
			if stage.StageOrder == 1 {
				startedAt := now
				reviewerID := actor.UserID
				progress.StartedAt = &startedAt
				progress.ReviewerID = &reviewerID
			}
			if err := tx.Create(&progress).Error; err != nil {
				if isDuplicateKey(err) {
					return engineErr(CodeAlreadyClaimed, "idea was already claimed into a pipeline")
				}
				return err
			}
			if stage.StageOrder == 1 {
				first = progress
				first.Stage = &pipeline.Stages[0]
			}
		}

		if err := tx.Model(&models.Idea{}).
			Where("idea_id = ?", idea.IdeaID).
			Updates(map[string]interface{}{
				"status":     nextStatus,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		if err := writeAudit(tx, actor, auditEntry{
			Action:     models.AuditStageStarted,
			EntityType: "stage_progress",
			EntityID:   first.ProgressID,
			Values: map[string]interface{}{
				"idea_id":     idea.IdeaID,
				"stage_order": 1,
				"reviewer_id": actor.UserID,
			},
			Description: "Stage 1 activated",
		}); err != nil {
			return err
		}

		return writeAudit(tx, actor, auditEntry{
			Action:       models.AuditIdeaReviewStarted,
			EntityType:   "idea",
			EntityID:     idea.IdeaID,
			EntityNumber: idea.IdeaNumber,
			Values:       map[string]interface{}{"pipeline_id": pipeline.PipelineID},
			Description:  "Idea entered multi-stage review",
		})
	})
	if err != nil {
		return nil, err
	}
	return &first, nil
}

// AssignStage lets a reviewer take ownership of an activated, unassigned
// stage, typically the successor stage after a PASS.
func (s *PipelineService) AssignStage(actor Actor, progressID int) (*models.IdeaStageProgress, error) {
	if !s.features.MultiStageReview {
		return nil, engineErr(CodeFeatureDisabled, "multi-stage review is disabled")
	}
	if !models.IsReviewer(actor.RoleID) {
		return nil, engineErr(CodeForbidden, "only reviewers may take a review stage")
	}

	var progress models.IdeaStageProgress
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("progress_id = ?", progressID).First(&progress).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return engineErr(CodeProgressNotFound, "stage progress not found")
			}
			return err
		}
		if progress.CompletedAt != nil {
			return engineErr(CodeAlreadyCompleted, "stage was already completed")
		}
		if progress.StartedAt == nil {
			return engineErr(CodeStageNotStarted, "stage has not been reached yet")
		}
		if progress.ReviewerID != nil {
			return engineErr(CodeAlreadyClaimed, "stage already has a reviewer")
		}

		var idea models.Idea
		if err := tx.Where("idea_id = ? AND deleted_at IS NULL", progress.IdeaID).First(&idea).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return engineErr(CodeIdeaNotFound, "idea not found")
			}
			return err
		}
		if idea.Status != models.StatusUnderReview {
			return engineErr(CodeInvalidStatus, fmt.Sprintf("idea is %s, expected UNDER_REVIEW", idea.Status))
		}
		if idea.AuthorID == actor.UserID {
			return engineErr(CodeSelfReviewForbidden, "authors may not review their own ideas")
		}

		result := tx.Model(&models.IdeaStageProgress{}).
			Where("progress_id = ? AND reviewer_id IS NULL", progress.ProgressID).
			Update("reviewer_id", actor.UserID)
		if result.Error != nil {
			return result.Error
		}
		// Zero rows means another reviewer won the assignment between the
		// read and the guarded update.
		if result.RowsAffected == 0 {
			return engineErr(CodeAlreadyClaimed, "stage already has a reviewer")
		}
		reviewerID := actor.UserID
		progress.ReviewerID = &reviewerID

		return writeAudit(tx, actor, auditEntry{
			Action:     models.AuditStageAssigned,
			EntityType: "stage_progress",
			EntityID:   progress.ProgressID,
			Values: map[string]interface{}{
				"idea_id":     progress.IdeaID,
				"reviewer_id": actor.UserID,
			},
			Description: "Stage reviewer assigned",
		})
	})
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// CompleteStage records the active stage's outcome and advances, escalates
// or finalizes the idea. Only the assigned reviewer may complete a stage,
// through this path superadmins included.
func (s *PipelineService) CompleteStage(actor Actor, progressID int, outcome, comment string) error {
	if !s.features.MultiStageReview {
		return engineErr(CodeFeatureDisabled, "multi-stage review is disabled")
	}
	switch outcome {
	case models.OutcomePass, models.OutcomeEscalate, models.OutcomeAccepted, models.OutcomeRejected:
	default:
		return validationErr("outcome", "Outcome must be one of PASS, ESCALATE, ACCEPTED, REJECTED")
	}
	if message, ok := utils.ValidateComment(comment); !ok {
		return validationErr("comment", message)
	}
	trimmed := utils.SanitizeInput(comment)

	var decided *models.Idea
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var progress models.IdeaStageProgress
		if err := tx.Preload("Stage").Where("progress_id = ?", progressID).First(&progress).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return engineErr(CodeProgressNotFound, "stage progress not found")
			}
			return err
		}
		if progress.ReviewerID == nil || *progress.ReviewerID != actor.UserID {
			return engineErr(CodeForbidden, "only the assigned reviewer may complete this stage")
		}
		if progress.CompletedAt != nil {
			return engineErr(CodeAlreadyCompleted, "stage was already completed")
		}
		if progress.StartedAt == nil {
			return engineErr(CodeStageNotStarted, "stage has not been reached yet")
		}
		if progress.Stage == nil {
			return engineErr(CodePipelineMisconfig, "stage configuration is missing")
		}

		if progress.Stage.IsDecisionStage {
			if outcome == models.OutcomePass || outcome == models.OutcomeEscalate {
				return engineErr(CodeInvalidOutcome, "decision stage requires ACCEPTED or REJECTED")
			}
		} else {
			if outcome == models.OutcomeAccepted || outcome == models.OutcomeRejected {
				return engineErr(CodeInvalidOutcome, "non-decision stage allows only PASS or ESCALATE")
			}
		}

		now := time.Now()
		if err := tx.Model(&models.IdeaStageProgress{}).
			Where("progress_id = ?", progress.ProgressID).
			Updates(map[string]interface{}{
				"outcome":      outcome,
				"comment":      trimmed,
				"completed_at": now,
			}).Error; err != nil {
			return err
		}

		if err := writeAudit(tx, actor, auditEntry{
			Action:     models.AuditStageCompleted,
			EntityType: "stage_progress",
			EntityID:   progress.ProgressID,
			Values: map[string]interface{}{
				"idea_id": progress.IdeaID,
				"outcome": outcome,
				"comment": trimmed,
			},
			Description: "Stage completed",
		}); err != nil {
			return err
		}

		switch outcome {
		case models.OutcomePass:
			return s.activateNextStage(tx, actor, &progress, now)
		case models.OutcomeEscalate:
			// The completed row with outcome ESCALATE is the escalation
			// queue entry; nothing else moves until a superadmin resolves it.
			return nil
		default:
			idea, err := finalizeIdea(tx, actor, progress.IdeaID, outcome, now)
			if err != nil {
				return err
			}
			decided = idea
			return nil
		}
	})
	if err != nil {
		return err
	}

	if decided != nil {
		s.notifier.NotifyDecision(decided)
	}
	return nil
}

// activateNextStage opens the successor stage after a PASS. Reviewer
// assignment for the new stage happens later via AssignStage. A PASS on a
// stage with no successor means the pipeline was misconfigured with a
// non-decision final stage; the transaction fails rather than finalizing.
func (s *PipelineService) activateNextStage(tx *gorm.DB, actor Actor, progress *models.IdeaStageProgress, now time.Time) error {
	var nextStage models.ReviewPipelineStage
	if err := tx.Where("pipeline_id = ? AND stage_order = ?", progress.Stage.PipelineID, progress.Stage.StageOrder+1).
		First(&nextStage).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return engineErr(CodePipelineMisconfig, "non-decision stage has no successor stage")
		}
		return err
	}

	if err := tx.Model(&models.IdeaStageProgress{}).
		Where("idea_id = ? AND stage_id = ?", progress.IdeaID, nextStage.StageID).
		Update("started_at", now).Error; err != nil {
		return err
	}

	return writeAudit(tx, actor, auditEntry{
		Action:     models.AuditStageStarted,
		EntityType: "stage_progress",
		Values: map[string]interface{}{
			"idea_id":     progress.IdeaID,
			"stage_id":    nextStage.StageID,
			"stage_order": nextStage.StageOrder,
		},
		Description: "Next stage activated",
	})
}

// EscalationQueue lists completed stages with outcome ESCALATE whose idea is
// still UNDER_REVIEW, i.e. escalations awaiting superadmin resolution.
func (s *PipelineService) EscalationQueue(actor Actor) ([]models.IdeaStageProgress, error) {
	if !s.features.MultiStageReview {
		return nil, engineErr(CodeFeatureDisabled, "multi-stage review is disabled")
	}
	if actor.RoleID != models.RoleSuperadmin {
		return nil, engineErr(CodeForbidden, "only a superadmin may view the escalation queue")
	}

	var rows []models.IdeaStageProgress
	err := s.db.Preload("Stage").Preload("Idea").Preload("Reviewer").
		Joins("JOIN ideas ON ideas.idea_id = idea_stage_progress.idea_id").
		Where("idea_stage_progress.outcome = ?", models.OutcomeEscalate).
		Where("ideas.status = ? AND ideas.deleted_at IS NULL", models.StatusUnderReview).
		Order("idea_stage_progress.completed_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// finalizeIdea moves an UNDER_REVIEW idea to its terminal status inside the
// caller's transaction and writes the IDEA_REVIEWED audit entry. Shared by
// stage completion and escalation resolution.
func finalizeIdea(tx *gorm.DB, actor Actor, ideaID int, outcome string, now time.Time) (*models.Idea, error) {
	var idea models.Idea
	if err := tx.Where("idea_id = ? AND deleted_at IS NULL", ideaID).First(&idea).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, engineErr(CodeIdeaNotFound, "idea not found")
		}
		return nil, err
	}

	action := ActionAccept
	if outcome == models.OutcomeRejected {
		action = ActionReject
	}
	nextStatus, err := Transition(idea.Status, action, actor.RoleID)
	if err != nil {
		return nil, err
	}

	if err := tx.Model(&models.Idea{}).
		Where("idea_id = ?", idea.IdeaID).
		Updates(map[string]interface{}{
			"status":     nextStatus,
			"decided_at": now,
			"updated_at": now,
		}).Error; err != nil {
		return nil, err
	}
	idea.Status = nextStatus
	idea.DecidedAt = &now

	if err := writeAudit(tx, actor, auditEntry{
		Action:       models.AuditIdeaReviewed,
		EntityType:   "idea",
		EntityID:     idea.IdeaID,
		EntityNumber: idea.IdeaNumber,
		Values:       map[string]interface{}{"decision": nextStatus},
		Description:  "Idea review decided",
	}); err != nil {
		return nil, err
	}

	return &idea, nil
}
