package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DatasetItem is one unit of work (e.g. a video) in a dataset version.
type DatasetItem struct {
	ID               string         `json:"id" gorm:"primaryKey"`
	DatasetVersionID string         `json:"dataset_version_id" gorm:"index"`
	FileID           string         `json:"file_id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`
}

func (d *DatasetItem) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}
