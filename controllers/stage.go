package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ClaimStage moves a SUBMITTED idea into its category's pipeline and
// assigns the first stage to the caller.
func ClaimStage(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	ideaID, ok := pathID(c, "id")
	if !ok {
		return
	}

	progress, err := pipelineService.ClaimStage(actor, ideaID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":           true,
		"stage_progress_id": progress.ProgressID,
		"message":           "Idea claimed into multi-stage review",
	})
}

// AssignStage lets a reviewer take ownership of an activated, unassigned
// stage.
func AssignStage(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	progressID, ok := pathID(c, "id")
	if !ok {
		return
	}

	progress, err := pipelineService.AssignStage(actor, progressID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"stage_progress_id": progress.ProgressID,
		"message":           "Stage assigned",
	})
}

// CompleteStage records the stage outcome and advances, escalates or
// finalizes the idea.
func CompleteStage(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	progressID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Outcome string `json:"outcome" binding:"required"`
		Comment string `json:"comment" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := pipelineService.CompleteStage(actor, progressID, req.Outcome, req.Comment); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Stage completed",
	})
}

// ResolveEscalation is the superadmin override for escalated stages.
func ResolveEscalation(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	progressID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Action  string `json:"action" binding:"required"`
		Comment string `json:"comment" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := escalationService.ResolveEscalation(actor, progressID, req.Action, req.Comment); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Escalation resolved",
	})
}

// GetEscalationQueue lists escalations awaiting superadmin resolution.
func GetEscalationQueue(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	rows, err := pipelineService.EscalationQueue(actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"escalations": rows,
		"total":       len(rows),
	})
}
