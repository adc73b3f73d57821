package routes

import (
	"idea-review-api/controllers"
	"idea-review-api/middleware"
	"idea-review-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/login", controllers.Login)

			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Idea Review API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)

			// Ideas (listing and detail, blind-review masking applied)
			ideas := protected.Group("/ideas")
			{
				ideas.GET("", controllers.GetIdeas)
				ideas.GET("/:id", controllers.GetIdea)

				// Legacy single-stage review
				ideas.POST("/:id/review", middleware.RequireRole(models.RoleAdmin, models.RoleSuperadmin), controllers.StartReview)
				ideas.POST("/:id/decision", middleware.RequireRole(models.RoleAdmin, models.RoleSuperadmin), controllers.FinalizeReview)
				ideas.DELETE("/:id/review", middleware.RequireRole(models.RoleSuperadmin), controllers.AbandonReview)

				// Multi-stage pipeline claim
				ideas.POST("/:id/claim", middleware.RequireRole(models.RoleAdmin, models.RoleSuperadmin), controllers.ClaimStage)
			}

			// Stage progress actions
			stages := protected.Group("/stage-progress")
			stages.Use(middleware.RequireRole(models.RoleAdmin, models.RoleSuperadmin))
			{
				stages.POST("/:id/assign", controllers.AssignStage)
				stages.POST("/:id/complete", controllers.CompleteStage)
				stages.POST("/:id/resolve", middleware.RequireRole(models.RoleSuperadmin), controllers.ResolveEscalation)
			}

			// Escalation queue (superadmin)
			protected.GET("/escalations", middleware.RequireRole(models.RoleSuperadmin), controllers.GetEscalationQueue)

			// Drafts
			drafts := protected.Group("/drafts")
			{
				drafts.GET("", controllers.ListDrafts)
				drafts.POST("", controllers.CreateDraft)
				drafts.PUT("/:id", controllers.UpdateDraft)
				drafts.DELETE("/:id", controllers.DeleteDraft)
				drafts.POST("/:id/submit", controllers.SubmitDraft)
			}

			// Pipeline administration
			pipelines := protected.Group("/pipelines")
			pipelines.Use(middleware.RequireRole(models.RoleAdmin, models.RoleSuperadmin))
			{
				pipelines.GET("", controllers.GetPipelines)
				pipelines.POST("", middleware.RequireRole(models.RoleSuperadmin), controllers.CreatePipeline)
				pipelines.PUT("/:id", middleware.RequireRole(models.RoleSuperadmin), controllers.UpdatePipeline)
				pipelines.DELETE("/:id", middleware.RequireRole(models.RoleSuperadmin), controllers.DeletePipeline)
			}
		}
	}
}
