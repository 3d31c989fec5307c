package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health Liveness probe
func Health(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
		})
	}
}
