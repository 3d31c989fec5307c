package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// File is the stored object a DatasetItem points at.
type File struct {
	ID          string         `json:"id" gorm:"primaryKey"`
	DatastoreID string         `json:"datastore_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}
