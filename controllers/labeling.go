package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"labelbridge/labeling"
)

type StartLabelingInput struct {
	AnnotationSetID string `json:"annotationSetId" binding:"required"`
}

// StartLabeling Provision the external project and tasks for an annotation set
func StartLabeling(orchestrator *labeling.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input StartLabelingInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := orchestrator.StartLabeling(c.Request.Context(), input.AnnotationSetID)
		if err != nil {
			abortLabelingError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// GetExport Fetch the annotation export of a session's remote project
func GetExport(orchestrator *labeling.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tasks, err := orchestrator.FetchExport(c.Request.Context(), c.Param("annotation_set_id"))
		if err != nil {
			abortLabelingError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": tasks})
	}
}

// GetTaskStatus Fetch the local task link together with its remote state
func GetTaskStatus(orchestrator *labeling.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		task, remote, err := orchestrator.TaskStatus(c.Request.Context(), c.Param("task_id"))
		if err != nil {
			abortLabelingError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": gin.H{
			"task":       task,
			"is_labeled": remote.IsLabeled,
		}})
	}
}

// abortLabelingError Map orchestrator errors onto HTTP statuses
func abortLabelingError(c *gin.Context, err error) {
	var serviceErr *labeling.ServiceError

	switch {
	case errors.Is(err, labeling.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, labeling.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, labeling.ErrMisconfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	case errors.As(err, &serviceErr):
		log.Warn(fmt.Sprintf("Annotation service call failed at %s: %s", serviceErr.Step, serviceErr.Err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
