package controllers

import (
	"net/http"

	"idea-review-api/services"

	"github.com/gin-gonic/gin"
)

// CreateDraft saves a new draft for the caller.
func CreateDraft(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var input services.DraftInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	draft, err := draftService.CreateDraft(actor, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"draft_id": draft.IdeaID,
		"draft":    draft,
	})
}

// UpdateDraft saves changes to an owned draft and resets its expiry clock.
func UpdateDraft(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	draftID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input services.DraftInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	draft, err := draftService.UpdateDraft(actor, draftID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"draft":   draft,
	})
}

// ListDrafts returns the caller's drafts with lazy expiry applied.
func ListDrafts(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	drafts, err := draftService.ListDrafts(actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"drafts":  drafts,
		"total":   len(drafts),
	})
}

// SubmitDraft promotes a draft into the review queue.
func SubmitDraft(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	draftID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input services.DraftInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	idea, err := draftService.SubmitDraft(actor, draftID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"idea_id": idea.IdeaID,
		"status":  idea.Status,
		"message": "Idea submitted for review",
	})
}

// DeleteDraft removes an owned draft.
func DeleteDraft(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	draftID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := draftService.DeleteDraft(actor, draftID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Draft deleted",
	})
}
