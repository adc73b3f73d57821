package services

import "idea-review-api/models"

// Sentinels used when the author identity is hidden or missing.
const (
	AnonymousAuthorName = "Anonymous"
	UnknownAuthorName   = "Unknown"
)

// MaskAuthorIfBlind decides the author name shown to a requester. The real
// name is hidden only while every masking condition holds at once: the
// feature is enabled, the idea's pipeline has blind review on, the idea is
// exactly UNDER_REVIEW, the requester is not the author, and the requester
// is not a SUPERADMIN. It is evaluated fresh on every read and never stored.
func MaskAuthorIfBlind(authorID int, authorDisplayName string, requesterID, requesterRoleID int, pipelineBlindReview bool, ideaStatus string, featureEnabled bool) string {
	masked := featureEnabled &&
		pipelineBlindReview &&
		ideaStatus == models.StatusUnderReview &&
		requesterID != authorID &&
		requesterRoleID != models.RoleSuperadmin

	if masked {
		return AnonymousAuthorName
	}
	if authorDisplayName == "" {
		return UnknownAuthorName
	}
	return authorDisplayName
}
