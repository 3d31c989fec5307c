package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"labelbridge/models"
)

// Admin endpoints mirroring the upstream-owned dataset entities, so a
// deployment can be seeded and inspected without the upstream service.

// FindAnnotationSets Find all annotation sets
func FindAnnotationSets(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sets []models.AnnotationSet
		db.Find(&sets)

		c.JSON(http.StatusOK, gin.H{"data": sets})
	}
}

type CreateAnnotationSetInput struct {
	PurposeKey       string  `json:"purpose_key" binding:"required"`
	DatasetVersionID *string `json:"dataset_version_id"`
}

// CreateAnnotationSet Create a new annotation set
func CreateAnnotationSet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CreateAnnotationSetInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		set := models.AnnotationSet{PurposeKey: input.PurposeKey, DatasetVersionID: input.DatasetVersionID}
		if err := db.Create(&set).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": set})
	}
}

// FindAnnotationSet Find an annotation set
func FindAnnotationSet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var set models.AnnotationSet
		if err := db.Where("id = ?", c.Param("id")).First(&set).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found!"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": set})
	}
}

type CreateDatasetItemInput struct {
	DatasetVersionID string `json:"dataset_version_id" binding:"required"`
	FileID           string `json:"file_id" binding:"required"`
}

// CreateDatasetItem Create a new dataset item
func CreateDatasetItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CreateDatasetItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		item := models.DatasetItem{DatasetVersionID: input.DatasetVersionID, FileID: input.FileID}
		if err := db.Create(&item).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": item})
	}
}

// FindDatasetItems Find dataset items, optionally filtered by dataset version
func FindDatasetItems(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var items []models.DatasetItem
		query := db
		if version := c.Query("dataset_version_id"); version != "" {
			query = query.Where("dataset_version_id = ?", version)
		}
		query.Find(&items)

		c.JSON(http.StatusOK, gin.H{"data": items})
	}
}

type CreateFileInput struct {
	DatastoreID string `json:"datastore_id" binding:"required"`
}

// CreateFile Create a new file record
func CreateFile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CreateFileInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		file := models.File{DatastoreID: input.DatastoreID}
		if err := db.Create(&file).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": file})
	}
}

// FindFile Find a file record
func FindFile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var file models.File
		if err := db.Where("id = ?", c.Param("id")).First(&file).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found!"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": file})
	}
}
