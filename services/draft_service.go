package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"idea-review-api/config"
	"idea-review-api/models"
	"idea-review-api/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// Rolling draft lifetime; every successful save resets the clock.
	draftTTL = 90 * 24 * time.Hour

	// Per-author cap on concurrently active, non-expired drafts.
	maxActiveDrafts = 10

	maxTitleLength       = 255
	maxDescriptionLength = 20000
)

// DraftInput carries the optional fields of a draft save. Nil fields are
// left untouched on update.
type DraftInput struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	CategorySlug *string `json:"category_slug"`
	Visibility   *string `json:"visibility"`
}

// DraftService governs creation, update, count-limiting, lazy expiry and
// promotion of draft ideas. Expiry is evaluated at read time against
// draft_expires_at; there is no background sweeper.
type DraftService struct {
	db       *gorm.DB
	features config.Features
}

func NewDraftService(db *gorm.DB, features config.Features) *DraftService {
	return &DraftService{db: db, features: features}
}

// CreateDraft saves a new draft for the actor. The 11th concurrently active
// draft is rejected rather than evicting an old one.
func (s *DraftService) CreateDraft(actor Actor, input DraftInput) (*models.Idea, error) {
	if !s.features.Drafts {
		return nil, engineErr(CodeFeatureDisabled, "drafts are disabled")
	}
	if err := validateDraftInput(input); err != nil {
		return nil, err
	}

	var draft models.Idea
	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		var active int64
		if err := tx.Model(&models.Idea{}).
			Where("author_id = ? AND status = ? AND deleted_at IS NULL", actor.UserID, models.StatusDraft).
			Where("is_expired_draft = ?", false).
			Where("draft_expires_at > ?", now).
			Count(&active).Error; err != nil {
			return err
		}
		if active >= maxActiveDrafts {
			return engineErr(CodeDraftLimitExceeded, fmt.Sprintf("at most %d active drafts are allowed", maxActiveDrafts))
		}

		expiresAt := now.Add(draftTTL)
		draft = models.Idea{
			IdeaNumber:     newIdeaNumber(),
			Status:         models.StatusDraft,
			AuthorID:       actor.UserID,
			Visibility:     models.VisibilityPrivate,
			DraftExpiresAt: &expiresAt,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		applyDraftInput(&draft, input)

		if err := tx.Create(&draft).Error; err != nil {
			return err
		}

		return writeAudit(tx, actor, auditEntry{
			Action:       models.AuditDraftCreated,
			EntityType:   "idea",
			EntityID:     draft.IdeaID,
			EntityNumber: draft.IdeaNumber,
			Description:  "Draft created",
		})
	})
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// UpdateDraft re-verifies ownership, status and expiry before accepting the
// write; a successful save resets the 90-day expiry clock.
func (s *DraftService) UpdateDraft(actor Actor, draftID int, input DraftInput) (*models.Idea, error) {
	if !s.features.Drafts {
		return nil, engineErr(CodeFeatureDisabled, "drafts are disabled")
	}
	if err := validateDraftInput(input); err != nil {
		return nil, err
	}

	var draft models.Idea
	err := s.db.Transaction(func(tx *gorm.DB) error {
		loaded, err := s.loadOwnedDraft(tx, actor, draftID)
		if err != nil {
			return err
		}
		draft = *loaded

		now := time.Now()
		expiresAt := now.Add(draftTTL)
		applyDraftInput(&draft, input)

		updates := map[string]interface{}{
			"title":            draft.Title,
			"description":      draft.Description,
			"category_slug":    draft.CategorySlug,
			"visibility":       draft.Visibility,
			"draft_expires_at": expiresAt,
			"updated_at":       now,
		}
		if err := tx.Model(&models.Idea{}).
			Where("idea_id = ?", draft.IdeaID).
			Updates(updates).Error; err != nil {
			return err
		}
		draft.DraftExpiresAt = &expiresAt
		draft.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// SubmitDraft promotes a draft to SUBMITTED. Unlike draft saves, the full
// required-field rules apply: title, description and category are all
// mandatory. The expiry clock is cleared on success.
func (s *DraftService) SubmitDraft(actor Actor, draftID int, input DraftInput) (*models.Idea, error) {
	if !s.features.Drafts {
		return nil, engineErr(CodeFeatureDisabled, "drafts are disabled")
	}
	if err := validateDraftInput(input); err != nil {
		return nil, err
	}

	var idea models.Idea
	err := s.db.Transaction(func(tx *gorm.DB) error {
		loaded, err := s.loadOwnedDraft(tx, actor, draftID)
		if err != nil {
			return err
		}
		idea = *loaded
		applyDraftInput(&idea, input)

		if idea.Title == nil || strings.TrimSpace(*idea.Title) == "" {
			return validationErr("title", "Title is required")
		}
		if idea.Description == nil || strings.TrimSpace(*idea.Description) == "" {
			return validationErr("description", "Description is required")
		}
		if idea.CategorySlug == nil || strings.TrimSpace(*idea.CategorySlug) == "" {
			return validationErr("category_slug", "Category is required")
		}

		nextStatus, err := Transition(idea.Status, ActionSubmit, actor.RoleID)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&models.Idea{}).
			Where("idea_id = ?", idea.IdeaID).
			Updates(map[string]interface{}{
				"title":            idea.Title,
				"description":      idea.Description,
				"category_slug":    idea.CategorySlug,
				"visibility":       idea.Visibility,
				"status":           nextStatus,
				"submitted_at":     now,
				"draft_expires_at": nil,
				"is_expired_draft": false,
				"updated_at":       now,
			}).Error; err != nil {
			return err
		}
		idea.Status = nextStatus
		idea.SubmittedAt = &now
		idea.DraftExpiresAt = nil

		return writeAudit(tx, actor, auditEntry{
			Action:       models.AuditIdeaSubmitted,
			EntityType:   "idea",
			EntityID:     idea.IdeaID,
			EntityNumber: idea.IdeaNumber,
			Description:  "Draft submitted for review",
		})
	})
	if err != nil {
		return nil, err
	}
	return &idea, nil
}

// ListDrafts returns the actor's drafts. Rows whose expiry has passed are
// lazily flagged expired, persisting the marker the next reader relies on.
func (s *DraftService) ListDrafts(actor Actor) ([]models.Idea, error) {
	if !s.features.Drafts {
		return nil, engineErr(CodeFeatureDisabled, "drafts are disabled")
	}

	var drafts []models.Idea
	if err := s.db.
		Where("author_id = ? AND status = ? AND deleted_at IS NULL", actor.UserID, models.StatusDraft).
		Order("updated_at DESC").
		Find(&drafts).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range drafts {
		if drafts[i].DraftExpired(now) && !drafts[i].IsExpiredDraft {
			drafts[i].IsExpiredDraft = true
			s.markExpired(drafts[i].IdeaID)
		}
	}
	return drafts, nil
}

// DeleteDraft soft-deletes an owned draft.
func (s *DraftService) DeleteDraft(actor Actor, draftID int) error {
	if !s.features.Drafts {
		return engineErr(CodeFeatureDisabled, "drafts are disabled")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var draft models.Idea
		if err := tx.Where("idea_id = ? AND deleted_at IS NULL", draftID).First(&draft).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return engineErr(CodeNotFound, "draft not found")
			}
			return err
		}
		if draft.AuthorID != actor.UserID {
			return engineErr(CodeForbidden, "drafts may only be deleted by their author")
		}
		if draft.Status != models.StatusDraft {
			return engineErr(CodeInvalidStatus, "idea is no longer a draft")
		}

		now := time.Now()
		if err := tx.Model(&models.Idea{}).
			Where("idea_id = ?", draft.IdeaID).
			Updates(map[string]interface{}{
				"deleted_at": now,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		return writeAudit(tx, actor, auditEntry{
			Action:       models.AuditDraftDeleted,
			EntityType:   "idea",
			EntityID:     draft.IdeaID,
			EntityNumber: draft.IdeaNumber,
			Description:  "Draft deleted",
		})
	})
}

// loadOwnedDraft loads a draft for writing: it must exist, belong to the
// actor, still be a DRAFT, and not be lazily expired. Expiry detected here
// is persisted before the EXPIRED error is returned to the caller.
func (s *DraftService) loadOwnedDraft(tx *gorm.DB, actor Actor, draftID int) (*models.Idea, error) {
	var draft models.Idea
	if err := tx.Where("idea_id = ? AND deleted_at IS NULL", draftID).First(&draft).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, engineErr(CodeNotFound, "draft not found")
		}
		return nil, err
	}
	if draft.AuthorID != actor.UserID {
		return nil, engineErr(CodeForbidden, "drafts may only be modified by their author")
	}
	if draft.Status != models.StatusDraft {
		return nil, engineErr(CodeInvalidStatus, "idea is no longer a draft")
	}
	if draft.DraftExpired(time.Now()) {
		if !draft.IsExpiredDraft {
			s.markExpired(draft.IdeaID)
		}
		return nil, engineErr(CodeExpired, "draft has expired")
	}
	return &draft, nil
}

// markExpired persists the lazy expiry flag outside the caller's
// transaction; failure only delays the next lazy marking.
func (s *DraftService) markExpired(ideaID int) {
	s.db.Model(&models.Idea{}).
		Where("idea_id = ? AND status = ?", ideaID, models.StatusDraft).
		Update("is_expired_draft", true)
}

func validateDraftInput(input DraftInput) error {
	if input.Title != nil && len(strings.TrimSpace(*input.Title)) > maxTitleLength {
		return validationErr("title", "Title must not exceed 255 characters")
	}
	if input.Description != nil && len(strings.TrimSpace(*input.Description)) > maxDescriptionLength {
		return validationErr("description", "Description is too long")
	}
	if input.Visibility != nil {
		switch *input.Visibility {
		case models.VisibilityPublic, models.VisibilityPrivate:
		default:
			return validationErr("visibility", "Visibility must be PUBLIC or PRIVATE")
		}
	}
	return nil
}

func applyDraftInput(idea *models.Idea, input DraftInput) {
	if input.Title != nil {
		title := utils.SanitizeInput(*input.Title)
		idea.Title = &title
	}
	if input.Description != nil {
		description := utils.SanitizeInput(*input.Description)
		idea.Description = &description
	}
	if input.CategorySlug != nil {
		slug := utils.SanitizeInput(*input.CategorySlug)
		idea.CategorySlug = &slug
	}
	if input.Visibility != nil {
		idea.Visibility = *input.Visibility
	}
}

func newIdeaNumber() string {
	return "IDEA-" + strings.ToUpper(uuid.NewString()[:8])
}
