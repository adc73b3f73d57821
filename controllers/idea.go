package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// GetIdeas lists non-draft ideas visible to the caller, with blind-review
// masking applied.
func GetIdeas(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	status := strings.TrimSpace(c.Query("status"))
	ideas, err := ideaService.ListIdeas(actor, status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"ideas":   ideas,
		"total":   len(ideas),
	})
}

// GetIdea returns one idea with masking and lazy draft expiry applied.
func GetIdea(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	ideaID, ok := pathID(c, "id")
	if !ok {
		return
	}

	idea, err := ideaService.GetIdea(actor, ideaID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"idea":    idea,
	})
}
