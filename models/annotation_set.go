package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnnotationSet is a labeling campaign over one dataset version. Owned by
// upstream dataset management; mirrored here so sessions can be provisioned.
type AnnotationSet struct {
	ID               string         `json:"id" gorm:"primaryKey"`
	PurposeKey       string         `json:"purpose_key"`
	DatasetVersionID *string        `json:"dataset_version_id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`
}

func (a *AnnotationSet) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
