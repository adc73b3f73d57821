package services

import (
	"fmt"

	"idea-review-api/models"
)

// Review actions accepted by Transition.
const (
	ActionSubmit      = "SUBMIT"
	ActionStartReview = "START_REVIEW"
	ActionAccept      = "ACCEPT"
	ActionReject      = "REJECT"
	ActionAbandon     = "ABANDON"
)

// Transition computes the next lifecycle status for an idea. It is pure and
// exhaustive over the five statuses; callers perform I/O and ownership
// checks (SUBMIT is author-gated by the caller, not by role).
//
// Failures are distinguished by code: FORBIDDEN_ROLE when the role lacks
// privilege for the action, ALREADY_REVIEWED when a terminal decision is
// re-applied, INVALID_TRANSITION for every other disallowed pair.
func Transition(current, action string, roleID int) (string, error) {
	switch current {
	case models.StatusDraft:
		if action == ActionSubmit {
			return models.StatusSubmitted, nil
		}
		return "", invalidTransition(current, action)

	case models.StatusSubmitted:
		if action == ActionStartReview {
			if !models.IsReviewer(roleID) {
				return "", insufficientRole(action)
			}
			return models.StatusUnderReview, nil
		}
		return "", invalidTransition(current, action)

	case models.StatusUnderReview:
		switch action {
		case ActionAccept:
			if !models.IsReviewer(roleID) {
				return "", insufficientRole(action)
			}
			return models.StatusAccepted, nil
		case ActionReject:
			if !models.IsReviewer(roleID) {
				return "", insufficientRole(action)
			}
			return models.StatusRejected, nil
		case ActionAbandon:
			if roleID != models.RoleSuperadmin {
				return "", insufficientRole(action)
			}
			return models.StatusSubmitted, nil
		}
		return "", invalidTransition(current, action)

	case models.StatusAccepted:
		if action == ActionAccept {
			return "", alreadyReviewed(current)
		}
		return "", invalidTransition(current, action)

	case models.StatusRejected:
		if action == ActionReject {
			return "", alreadyReviewed(current)
		}
		return "", invalidTransition(current, action)
	}

	return "", engineErr(CodeInvalidTransition, fmt.Sprintf("unknown idea status %q", current))
}

func invalidTransition(current, action string) *EngineError {
	return engineErr(CodeInvalidTransition, fmt.Sprintf("action %s is not allowed in status %s", action, current))
}

func insufficientRole(action string) *EngineError {
	return engineErr(CodeForbiddenRole, fmt.Sprintf("role is not allowed to perform %s", action))
}

func alreadyReviewed(current string) *EngineError {
	return engineErr(CodeAlreadyReviewed, fmt.Sprintf("idea was already decided as %s", current))
}
