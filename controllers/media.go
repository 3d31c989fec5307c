package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"labelbridge/models"
	"labelbridge/storage"
	"labelbridge/utils"
)

// signedURLTTL bounds how long a resolved media link stays usable.
const signedURLTTL = 300 * time.Second

// GetDatasetItemMedia Gate media access behind the static token and redirect
// to a short-lived signed URL for the item's stored file. The token decides
// who may resolve media at all; the signed URL bounds exposure afterwards.
func GetDatasetItemMedia(db *gorm.DB, signer storage.Signer, config *utils.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if config.LabelStudio.MediaToken == "" || token != config.LabelStudio.MediaToken {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid media token"})
			return
		}

		if config.Storage.Bucket == "" || signer == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage is not configured"})
			return
		}

		var item models.DatasetItem
		if err := db.WithContext(c.Request.Context()).First(&item, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Dataset item not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		var file models.File
		if err := db.WithContext(c.Request.Context()).First(&file, "id = ?", item.FileID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		objectPath := storage.ObjectPath(file.DatastoreID, file.ID)
		signedURL, err := signer.SignedURL(c.Request.Context(), config.Storage.Bucket, objectPath, signedURLTTL)
		if err != nil {
			log.Warn(fmt.Sprintf("Cannot sign object %s: %s", objectPath, err.Error()))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Cannot sign storage URL"})
			return
		}

		c.Redirect(http.StatusFound, signedURL)
	}
}
