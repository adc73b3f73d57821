package services

import (
	"errors"
	"time"

	"idea-review-api/config"
	"idea-review-api/models"

	"gorm.io/gorm"
)

// IdeaService serves the read paths: listings and detail views with
// blind-review masking and lazy draft expiry applied on every read.
type IdeaService struct {
	db       *gorm.DB
	features config.Features
}

func NewIdeaService(db *gorm.DB, features config.Features) *IdeaService {
	return &IdeaService{db: db, features: features}
}

// ListIdeas returns non-draft ideas visible to the requester: public ideas,
// the requester's own, and everything for reviewers.
func (s *IdeaService) ListIdeas(actor Actor, status string) ([]models.Idea, error) {
	query := s.db.Preload("Author").
		Where("status <> ? AND deleted_at IS NULL", models.StatusDraft)

	if status != "" {
		switch status {
		case models.StatusSubmitted, models.StatusUnderReview, models.StatusAccepted, models.StatusRejected:
			query = query.Where("status = ?", status)
		default:
			return nil, validationErr("status", "Unknown status filter")
		}
	}

	if !models.IsReviewer(actor.RoleID) {
		query = query.Where("visibility = ? OR author_id = ?", models.VisibilityPublic, actor.UserID)
	}

	var ideas []models.Idea
	if err := query.Order("submitted_at DESC").Find(&ideas).Error; err != nil {
		return nil, err
	}

	blind, err := s.blindCategories()
	if err != nil {
		return nil, err
	}
	for i := range ideas {
		s.maskIdea(&ideas[i], actor, blind)
	}
	return ideas, nil
}

// GetIdea returns one idea with masking applied. Drafts are only visible to
// their author and are lazily expired on read.
func (s *IdeaService) GetIdea(actor Actor, ideaID int) (*models.Idea, error) {
	var idea models.Idea
	if err := s.db.Preload("Author").
		Where("idea_id = ? AND deleted_at IS NULL", ideaID).
		First(&idea).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, engineErr(CodeIdeaNotFound, "idea not found")
		}
		return nil, err
	}

	if idea.Status == models.StatusDraft {
		if idea.AuthorID != actor.UserID {
			return nil, engineErr(CodeIdeaNotFound, "idea not found")
		}
		if idea.DraftExpired(time.Now()) && !idea.IsExpiredDraft {
			idea.IsExpiredDraft = true
			s.db.Model(&models.Idea{}).
				Where("idea_id = ? AND status = ?", idea.IdeaID, models.StatusDraft).
				Update("is_expired_draft", true)
		}
	} else if idea.Visibility == models.VisibilityPrivate &&
		idea.AuthorID != actor.UserID && !models.IsReviewer(actor.RoleID) {
		return nil, engineErr(CodeIdeaNotFound, "idea not found")
	}

	blind, err := s.blindCategories()
	if err != nil {
		return nil, err
	}
	s.maskIdea(&idea, actor, blind)
	return &idea, nil
}

// blindCategories returns the category slugs whose pipeline has blind
// review enabled.
func (s *IdeaService) blindCategories() (map[string]bool, error) {
	if !s.features.BlindReview {
		return map[string]bool{}, nil
	}

	var pipelines []models.ReviewPipeline
	if err := s.db.Where("blind_review = ? AND deleted_at IS NULL", true).Find(&pipelines).Error; err != nil {
		return nil, err
	}
	blind := make(map[string]bool, len(pipelines))
	for _, pipeline := range pipelines {
		blind[pipeline.CategorySlug] = true
	}
	return blind, nil
}

// maskIdea fills AuthorDisplayName through MaskAuthorIfBlind and strips the
// author relation whenever the name is masked.
func (s *IdeaService) maskIdea(idea *models.Idea, actor Actor, blindCategories map[string]bool) {
	realName := ""
	if idea.Author != nil {
		realName = idea.Author.DisplayName()
	}
	pipelineBlind := idea.CategorySlug != nil && blindCategories[*idea.CategorySlug]

	idea.AuthorDisplayName = MaskAuthorIfBlind(
		idea.AuthorID,
		realName,
		actor.UserID,
		actor.RoleID,
		pipelineBlind,
		idea.Status,
		s.features.BlindReview,
	)
	if idea.AuthorDisplayName == AnonymousAuthorName {
		idea.Author = nil
	}
}
