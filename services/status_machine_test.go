package services

import (
	"testing"

	"idea-review-api/models"
)

func TestTransitionAllowedPairs(t *testing.T) {
	cases := []struct {
		name    string
		current string
		action  string
		roleID  int
		want    string
	}{
		{"submit draft", models.StatusDraft, ActionSubmit, models.RoleSubmitter, models.StatusSubmitted},
		{"admin starts review", models.StatusSubmitted, ActionStartReview, models.RoleAdmin, models.StatusUnderReview},
		{"superadmin starts review", models.StatusSubmitted, ActionStartReview, models.RoleSuperadmin, models.StatusUnderReview},
		{"admin accepts", models.StatusUnderReview, ActionAccept, models.RoleAdmin, models.StatusAccepted},
		{"admin rejects", models.StatusUnderReview, ActionReject, models.RoleAdmin, models.StatusRejected},
		{"superadmin abandons", models.StatusUnderReview, ActionAbandon, models.RoleSuperadmin, models.StatusSubmitted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Transition(tc.current, tc.action, tc.roleID)
			if err != nil {
				t.Fatalf("Transition(%s, %s, %d) returned error: %v", tc.current, tc.action, tc.roleID, err)
			}
			if got != tc.want {
				t.Fatalf("Transition(%s, %s, %d) = %s, want %s", tc.current, tc.action, tc.roleID, got, tc.want)
			}
		})
	}
}

func TestTransitionInsufficientRole(t *testing.T) {
	cases := []struct {
		name    string
		current string
		action  string
		roleID  int
	}{
		{"submitter starts review", models.StatusSubmitted, ActionStartReview, models.RoleSubmitter},
		{"submitter accepts", models.StatusUnderReview, ActionAccept, models.RoleSubmitter},
		{"submitter rejects", models.StatusUnderReview, ActionReject, models.RoleSubmitter},
		{"submitter abandons", models.StatusUnderReview, ActionAbandon, models.RoleSubmitter},
		{"admin abandons", models.StatusUnderReview, ActionAbandon, models.RoleAdmin},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Transition(tc.current, tc.action, tc.roleID)
			assertEngineCode(t, err, CodeForbiddenRole)
		})
	}
}

func TestTransitionAlreadyReviewed(t *testing.T) {
	_, err := Transition(models.StatusAccepted, ActionAccept, models.RoleAdmin)
	assertEngineCode(t, err, CodeAlreadyReviewed)

	_, err = Transition(models.StatusRejected, ActionReject, models.RoleAdmin)
	assertEngineCode(t, err, CodeAlreadyReviewed)
}

// Every (status, action) pair outside the transition table must fail, and
// never silently return a status.
func TestTransitionExhaustiveRejection(t *testing.T) {
	statuses := []string{
		models.StatusDraft,
		models.StatusSubmitted,
		models.StatusUnderReview,
		models.StatusAccepted,
		models.StatusRejected,
	}
	actions := []string{ActionSubmit, ActionStartReview, ActionAccept, ActionReject, ActionAbandon}

	allowed := map[string]bool{
		models.StatusDraft + "/" + ActionSubmit:          true,
		models.StatusSubmitted + "/" + ActionStartReview: true,
		models.StatusUnderReview + "/" + ActionAccept:    true,
		models.StatusUnderReview + "/" + ActionReject:    true,
		models.StatusUnderReview + "/" + ActionAbandon:   true,
	}

	for _, status := range statuses {
		for _, action := range actions {
			key := status + "/" + action
			got, err := Transition(status, action, models.RoleSuperadmin)
			if allowed[key] {
				if err != nil {
					t.Errorf("Transition(%s) unexpectedly failed: %v", key, err)
				}
				continue
			}
			if err == nil {
				t.Errorf("Transition(%s) = %s, want error", key, got)
				continue
			}
			engineError, ok := AsEngineError(err)
			if !ok {
				t.Errorf("Transition(%s) returned untyped error %v", key, err)
				continue
			}
			switch engineError.Code {
			case CodeInvalidTransition, CodeForbiddenRole, CodeAlreadyReviewed:
			default:
				t.Errorf("Transition(%s) returned unexpected code %s", key, engineError.Code)
			}
		}
	}
}

func TestTransitionDirectAcceptFromSubmitted(t *testing.T) {
	_, err := Transition(models.StatusSubmitted, ActionAccept, models.RoleSuperadmin)
	assertEngineCode(t, err, CodeInvalidTransition)
}

func TestTransitionUnknownStatus(t *testing.T) {
	_, err := Transition("ARCHIVED", ActionSubmit, models.RoleSuperadmin)
	assertEngineCode(t, err, CodeInvalidTransition)
}

func assertEngineCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	engineError, ok := AsEngineError(err)
	if !ok {
		t.Fatalf("expected EngineError, got %T: %v", err, err)
	}
	if engineError.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, engineError.Code, engineError.Message)
	}
}
