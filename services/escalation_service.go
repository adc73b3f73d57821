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

// Escalation resolution actions.
const (
	ResolvePass   = "PASS"
	ResolveReject = "REJECT"
)

// EscalationService is the superadmin override for stalled stages: a stage
// completed with outcome ESCALATE is either passed forward or the idea is
// terminated, with a resolution audit entry distinct from normal stage
// progression.
type EscalationService struct {
	db       *gorm.DB
	features config.Features
	notifier *NotificationService
}

func NewEscalationService(db *gorm.DB, features config.Features, notifier *NotificationService) *EscalationService {
	return &EscalationService{db: db, features: features, notifier: notifier}
}

// ResolveEscalation acts on one escalated stage. PASS behaves like a normal
// stage pass, except that a PASS on the pipeline's last stage accepts the
// idea directly. REJECT terminates the idea regardless of stage position.
// A resolved row can not be resolved twice: PASS rewrites its outcome, and
// both terminal paths leave the idea outside UNDER_REVIEW.
func (s *EscalationService) ResolveEscalation(actor Actor, progressID int, action, comment string) error {
	if !s.features.MultiStageReview {
		return engineErr(CodeFeatureDisabled, "multi-stage review is disabled")
	}
	if actor.RoleID != models.RoleSuperadmin {
		return engineErr(CodeForbidden, "only a superadmin may resolve an escalation")
	}
	if action != ResolvePass && action != ResolveReject {
		return validationErr("action", "Action must be either PASS or REJECT")
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
		if progress.CompletedAt == nil {
			return engineErr(CodeStageIncomplete, "escalation has not been formally recorded")
		}
		if progress.Outcome == nil || *progress.Outcome != models.OutcomeEscalate {
			return engineErr(CodeNotEscalated, "stage outcome is not ESCALATE")
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
		if progress.Stage == nil {
			return engineErr(CodePipelineMisconfig, "stage configuration is missing")
		}

		now := time.Now()
		if action == ResolveReject {
			finalized, err := finalizeIdea(tx, actor, idea.IdeaID, models.OutcomeRejected, now)
			if err != nil {
				return err
			}
			decided = finalized
			return s.writeResolution(tx, actor, &progress, action, trimmed)
		}

		// PASS: the escalated row now counts as a normal pass, which also
		// prevents a second resolution of the same row.
		if err := tx.Model(&models.IdeaStageProgress{}).
			Where("progress_id = ?", progress.ProgressID).
			Update("outcome", models.OutcomePass).Error; err != nil {
			return err
		}

		var nextStage models.ReviewPipelineStage
		err := tx.Where("pipeline_id = ? AND stage_order = ?", progress.Stage.PipelineID, progress.Stage.StageOrder+1).
			First(&nextStage).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			// Escalated stage was the pipeline's last: accept directly.
			finalized, ferr := finalizeIdea(tx, actor, idea.IdeaID, models.OutcomeAccepted, now)
			if ferr != nil {
				return ferr
			}
			decided = finalized
			return s.writeResolution(tx, actor, &progress, action, trimmed)
		}

		if err := tx.Model(&models.IdeaStageProgress{}).
			Where("idea_id = ? AND stage_id = ?", progress.IdeaID, nextStage.StageID).
			Update("started_at", now).Error; err != nil {
			return err
		}
		if err := writeAudit(tx, actor, auditEntry{
			Action:     models.AuditStageStarted,
			EntityType: "stage_progress",
			Values: map[string]interface{}{
				"idea_id":     progress.IdeaID,
				"stage_id":    nextStage.StageID,
				"stage_order": nextStage.StageOrder,
			},
			Description: "Next stage activated by escalation resolution",
		}); err != nil {
			return err
		}

		return s.writeResolution(tx, actor, &progress, action, trimmed)
	})
	if err != nil {
		return err
	}

	if decided != nil {
		s.notifier.NotifyDecision(decided)
	}
	return nil
}

func (s *EscalationService) writeResolution(tx *gorm.DB, actor Actor, progress *models.IdeaStageProgress, action, comment string) error {
	return writeAudit(tx, actor, auditEntry{
		Action:     models.AuditEscalationResolved,
		EntityType: "stage_progress",
		EntityID:   progress.ProgressID,
		Values: map[string]interface{}{
			"idea_id":    progress.IdeaID,
			"action":     action,
			"comment":    comment,
			"resolver":   actor.UserID,
			"stage_id":   progress.StageID,
			"escalation": true,
		},
		Description: "Escalation resolved by superadmin",
	})
}
