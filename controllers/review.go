package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// StartReview claims a SUBMITTED idea for the calling reviewer on the
// legacy single-stage path.
func StartReview(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	ideaID, ok := pathID(c, "id")
	if !ok {
		return
	}

	review, err := reviewService.StartReview(actor, ideaID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"review_id": review.ReviewID,
		"message":   "Review started",
	})
}

// FinalizeReview records the reviewer's accept/reject decision.
func FinalizeReview(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	ideaID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Decision string `json:"decision" binding:"required"`
		Comment  string `json:"comment" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	idea, err := reviewService.FinalizeReview(actor, ideaID, req.Decision, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  idea.Status,
		"message": "Review decision recorded",
	})
}

// AbandonReview resets a stalled review. Superadmin only.
func AbandonReview(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	ideaID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := reviewService.AbandonReview(actor, ideaID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Review abandoned, idea returned to SUBMITTED",
	})
}

func pathID(c *gin.Context, name string) (int, bool) {
	value, err := strconv.Atoi(c.Param(name))
	if err != nil || value <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " parameter"})
		return 0, false
	}
	return value, true
}
