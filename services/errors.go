package services

import "errors"

// Machine-readable error codes returned by the review engine. Controllers
// translate these into HTTP statuses; the engine itself never retries.
const (
	CodeUnauthenticated     = "UNAUTHENTICATED"
	CodeForbidden           = "FORBIDDEN"
	CodeForbiddenRole       = "FORBIDDEN_ROLE"
	CodeFeatureDisabled     = "FEATURE_DISABLED"
	CodeIdeaNotFound        = "IDEA_NOT_FOUND"
	CodeNotFound            = "NOT_FOUND"
	CodeProgressNotFound    = "PROGRESS_NOT_FOUND"
	CodePipelineNotFound    = "PIPELINE_NOT_FOUND"
	CodeSelfReviewForbidden = "SELF_REVIEW_FORBIDDEN"
	CodeAlreadyUnderReview  = "ALREADY_UNDER_REVIEW"
	CodeAlreadyClaimed      = "ALREADY_CLAIMED"
	CodeAlreadyCompleted    = "ALREADY_COMPLETED"
	CodeAlreadyReviewed     = "ALREADY_REVIEWED"
	CodeStageNotStarted     = "STAGE_NOT_STARTED"
	CodeStageIncomplete     = "STAGE_INCOMPLETE"
	CodeNotEscalated        = "NOT_ESCALATED"
	CodeInvalidStatus       = "INVALID_STATUS"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeInvalidOutcome      = "INVALID_OUTCOME"
	CodeNoActiveReview      = "NO_ACTIVE_REVIEW"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeDraftLimitExceeded  = "DRAFT_LIMIT_EXCEEDED"
	CodeExpired             = "EXPIRED"
	CodePipelineExists      = "PIPELINE_EXISTS"
	CodePipelineInUse       = "PIPELINE_IN_USE"
	CodeStageInUse          = "STAGE_IN_USE"
	CodeCannotDeleteDefault = "CANNOT_DELETE_DEFAULT"
	CodePipelineMisconfig   = "PIPELINE_MISCONFIGURED"
	CodeInternalError       = "INTERNAL_ERROR"
)

// EngineError is the typed error every engine operation returns on failure.
// Field is set on validation errors so the UI can highlight the offending
// input.
type EngineError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *EngineError) Error() string {
	return e.Message
}

func engineErr(code, message string) *EngineError {
	return &EngineError{Code: code, Message: message}
}

func validationErr(field, message string) *EngineError {
	return &EngineError{Code: CodeValidationError, Message: message, Field: field}
}

// AsEngineError unwraps err into an *EngineError if it is one.
func AsEngineError(err error) (*EngineError, bool) {
	var engineError *EngineError
	if errors.As(err, &engineError) {
		return engineError, true
	}
	return nil, false
}
