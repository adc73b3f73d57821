package services

import (
	"errors"
	"time"

	"idea-review-api/models"
	"idea-review-api/utils"

	"gorm.io/gorm"
)

// ReviewService implements the legacy single-stage review path: one
// reviewer claims a SUBMITTED idea, decides it, and a SUPERADMIN may
// abandon a stalled review.
type ReviewService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewReviewService(db *gorm.DB, notifier *NotificationService) *ReviewService {
	return &ReviewService{db: db, notifier: notifier}
}

// StartReview claims a SUBMITTED idea for the actor. Two concurrent calls
// on the same idea produce exactly one success: the transaction re-checks
// for an existing review and the unique key on single_stage_reviews.idea_id
// catches any race the check missed.
func (s *ReviewService) StartReview(actor Actor, ideaID int) (*models.SingleStageReview, error) {
	if !models.IsReviewer(actor.RoleID) {
		return nil, engineErr(CodeForbiddenRole, "only reviewers may start a review")
	}

	var review models.SingleStageReview
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var idea models.Idea
		if err := tx.Where("idea_id = ? AND deleted_at IS NULL", ideaID).First(&idea).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return engineErr(CodeIdeaNotFound, "idea not found")
			}
			return err
		}

		if idea.AuthorID == actor.UserID {
			return engineErr(CodeSelfReviewForbidden, "authors may not review their own ideas")
		}

		var existing int64
		if err := tx.Model(&models.SingleStageReview{}).
			Where("idea_id = ?", idea.IdeaID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return engineErr(CodeAlreadyUnderReview, "another reviewer already claimed this idea")
		}

		if idea.Status == models.StatusUnderReview {
			return engineErr(CodeAlreadyUnderReview, "idea is already under review")
		}
		nextStatus, err := Transition(idea.Status, ActionStartReview, actor.RoleID)
		if err != nil {
			return err
		}

		now := time.Now()
		review = models.SingleStageReview{
			IdeaID:     idea.IdeaID,
			ReviewerID: actor.UserID,
			StartedAt:  now,
		}
		if err := tx.Create(&review).Error; err != nil {
			if isDuplicateKey(err) {
				return engineErr(CodeAlreadyUnderReview, "another reviewer already claimed this idea")
			}
			return err
		}

		if err := tx.Model(&models.Idea{}).
			Where("idea_id = ?", idea.IdeaID).
			Updates(map[string]interface{}{
				"status":     nextStatus,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		return writeAudit(tx, actor, auditEntry{
			Action:       models.AuditIdeaReviewStarted,
			EntityType:   "idea",
			EntityID:     idea.IdeaID,
			EntityNumber: idea.IdeaNumber,
			Values:       map[string]interface{}{"reviewer_id": actor.UserID},
			Description:  "Review started",
		})
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// FinalizeReview records the reviewer's decision and moves the idea to its
// terminal status.
func (s *ReviewService) FinalizeReview(actor Actor, ideaID int, decision, comment string) (*models.Idea, error) {
	if decision != models.DecisionAccepted && decision != models.DecisionRejected {
		return nil, validationErr("decision", "Decision must be either ACCEPTED or REJECTED")
	}
	if message, ok := utils.ValidateComment(comment); !ok {
		return nil, validationErr("comment", message)
	}
	trimmed := utils.SanitizeInput(comment)

	action := ActionAccept
	if decision == models.DecisionRejected {
		action = ActionReject
	}

	var idea models.Idea
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("idea_id = ? AND deleted_at IS NULL", ideaID).First(&idea).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return engineErr(CodeIdeaNotFound, "idea not found")
			}
			return err
		}

		var review models.SingleStageReview
		if err := tx.Where("idea_id = ?", idea.IdeaID).First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return engineErr(CodeNoActiveReview, "idea has no active review")
			}
			return err
		}
		if review.Decision != nil {
			return engineErr(CodeNoActiveReview, "review was already decided")
		}
		if review.ReviewerID != actor.UserID {
			return engineErr(CodeForbidden, "only the claiming reviewer may decide this idea")
		}

		nextStatus, err := Transition(idea.Status, action, actor.RoleID)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&models.SingleStageReview{}).
			Where("review_id = ?", review.ReviewID).
			Updates(map[string]interface{}{
				"decision":   decision,
				"comment":    trimmed,
				"decided_at": now,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Idea{}).
			Where("idea_id = ?", idea.IdeaID).
			Updates(map[string]interface{}{
				"status":     nextStatus,
				"decided_at": now,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}
		idea.Status = nextStatus
		idea.DecidedAt = &now

		return writeAudit(tx, actor, auditEntry{
			Action:       models.AuditIdeaReviewed,
			EntityType:   "idea",
			EntityID:     idea.IdeaID,
			EntityNumber: idea.IdeaNumber,
			Values: map[string]interface{}{
				"decision": decision,
				"comment":  trimmed,
			},
			Description: "Review decision recorded",
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyDecision(&idea)
	return &idea, nil
}

// AbandonReview resets a stalled review: SUPERADMIN only. The review row is
// deleted and the idea returns to SUBMITTED; the original reviewer's id is
// preserved in the audit metadata for investigation.
func (s *ReviewService) AbandonReview(actor Actor, ideaID int) error {
	if actor.RoleID != models.RoleSuperadmin {
		return engineErr(CodeForbiddenRole, "only a superadmin may abandon a review")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var idea models.Idea
		if err := tx.Where("idea_id = ? AND deleted_at IS NULL", ideaID).First(&idea).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return engineErr(CodeIdeaNotFound, "idea not found")
			}
			return err
		}

		var review models.SingleStageReview
		if err := tx.Where("idea_id = ?", idea.IdeaID).First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return engineErr(CodeNoActiveReview, "idea has no active review")
			}
			return err
		}
		if review.Decision != nil {
			return engineErr(CodeNoActiveReview, "review was already decided")
		}

		nextStatus, err := Transition(idea.Status, ActionAbandon, actor.RoleID)
		if err != nil {
			return err
		}

		if err := tx.Delete(&models.SingleStageReview{}, review.ReviewID).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Idea{}).
			Where("idea_id = ?", idea.IdeaID).
			Updates(map[string]interface{}{
				"status":     nextStatus,
				"updated_at": time.Now(),
			}).Error; err != nil {
			return err
		}

		return writeAudit(tx, actor, auditEntry{
			Action:       models.AuditIdeaReviewAbandoned,
			EntityType:   "idea",
			EntityID:     idea.IdeaID,
			EntityNumber: idea.IdeaNumber,
			Values:       map[string]interface{}{"abandoned_reviewer_id": review.ReviewerID},
			Description:  "Review abandoned by superadmin",
		})
	})
}
