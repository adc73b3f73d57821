package controllers

import (
	"net/http"

	"idea-review-api/services"

	"github.com/gin-gonic/gin"
)

// GetPipelines lists all live pipelines with their stages.
func GetPipelines(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	pipelines, err := pipelineAdminService.ListPipelines(actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"pipelines": pipelines,
		"total":     len(pipelines),
	})
}

// CreatePipeline creates a pipeline with ordered stages. Superadmin only.
func CreatePipeline(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var input services.PipelineInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	pipeline, err := pipelineAdminService.CreatePipeline(actor, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"pipeline": pipeline,
	})
}

// UpdatePipeline replaces a pipeline's attributes and stages.
func UpdatePipeline(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	pipelineID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input services.PipelineInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	pipeline, err := pipelineAdminService.UpdatePipeline(actor, pipelineID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"pipeline": pipeline,
	})
}

// DeletePipeline soft-deletes a non-default pipeline.
func DeletePipeline(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	pipelineID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := pipelineAdminService.DeletePipeline(actor, pipelineID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Pipeline deleted",
	})
}
