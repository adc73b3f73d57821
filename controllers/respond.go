package controllers

import (
	"log"
	"net/http"

	"idea-review-api/config"
	"idea-review-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	ideaService          *services.IdeaService
	reviewService        *services.ReviewService
	pipelineService      *services.PipelineService
	escalationService    *services.EscalationService
	draftService         *services.DraftService
	pipelineAdminService *services.PipelineAdminService
)

// Setup wires the engine services the handlers delegate to. Called once
// from main after the database is initialized.
func Setup(db *gorm.DB, features config.Features) {
	notifier := services.NewNotificationService(db)
	ideaService = services.NewIdeaService(db, features)
	reviewService = services.NewReviewService(db, notifier)
	pipelineService = services.NewPipelineService(db, features, notifier)
	escalationService = services.NewEscalationService(db, features, notifier)
	draftService = services.NewDraftService(db, features)
	pipelineAdminService = services.NewPipelineAdminService(db)
}

// currentActor builds the engine actor from the authenticated request.
func currentActor(c *gin.Context) (services.Actor, bool) {
	userIDValue, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required", "code": services.CodeUnauthenticated})
		return services.Actor{}, false
	}
	roleIDValue, exists := c.Get("roleID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required", "code": services.CodeUnauthenticated})
		return services.Actor{}, false
	}

	return services.Actor{
		UserID:    userIDValue.(int),
		RoleID:    roleIDValue.(int),
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}, true
}

// respondError maps an engine error to its HTTP status. Unknown errors are
// logged with context and returned opaque.
func respondError(c *gin.Context, err error) {
	engineError, ok := services.AsEngineError(err)
	if !ok {
		log.Printf("Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": services.CodeInternalError})
		return
	}

	status := http.StatusConflict
	switch engineError.Code {
	case services.CodeUnauthenticated:
		status = http.StatusUnauthorized
	case services.CodeForbidden, services.CodeForbiddenRole, services.CodeSelfReviewForbidden:
		status = http.StatusForbidden
	case services.CodeIdeaNotFound, services.CodeNotFound, services.CodeProgressNotFound,
		services.CodePipelineNotFound, services.CodeFeatureDisabled:
		status = http.StatusNotFound
	case services.CodeValidationError, services.CodeDraftLimitExceeded:
		status = http.StatusBadRequest
	case services.CodeExpired:
		status = http.StatusGone
	case services.CodePipelineMisconfig, services.CodeInternalError:
		status = http.StatusInternalServerError
	}

	body := gin.H{"error": engineError.Message, "code": engineError.Code}
	if engineError.Field != "" {
		body["field"] = engineError.Field
	}
	c.JSON(status, body)
}
