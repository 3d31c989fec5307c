package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task states. TaskStateCreated is set on provisioning; later states arrive via
// webhook callbacks from the external tool.
const (
	TaskStateCreated   = "CREATED"
	TaskStateAnnotated = "ANNOTATED"
)

// ExternalAnnotationTask links one (AnnotationSet, DatasetItem) pair to the task
// created in the external labeling tool. The composite unique index guarantees
// re-provisioning never duplicates a task.
type ExternalAnnotationTask struct {
	ID              string         `json:"id" gorm:"primaryKey"`
	AnnotationSetID string         `json:"annotation_set_id" gorm:"uniqueIndex:idx_set_item"`
	DatasetItemID   string         `json:"dataset_item_id" gorm:"uniqueIndex:idx_set_item"`
	ExternalTaskID  string         `json:"external_task_id" gorm:"index"`
	State           string         `json:"state"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

func (t *ExternalAnnotationTask) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}
