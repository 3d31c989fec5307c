package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project states. Anything other than ProjectStateActive is terminal.
const (
	ProjectStateActive   = "ACTIVE"
	ProjectStateArchived = "ARCHIVED"
)

// ExternalAnnotationProject links an AnnotationSet to the project created in the
// external labeling tool. At most one non-deleted link exists per annotation set;
// the unique index backs up the orchestrator's check-then-create.
type ExternalAnnotationProject struct {
	ID                string         `json:"id" gorm:"primaryKey"`
	AnnotationSetID   string         `json:"annotation_set_id" gorm:"uniqueIndex"`
	ExternalProjectID string         `json:"external_project_id"`
	ProjectURL        string         `json:"project_url"`
	WebhookSecret     string         `json:"-"`
	WebhookRegistered bool           `json:"webhook_registered"`
	LabelConfig       string         `json:"label_config"`
	State             string         `json:"state"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-" gorm:"index"`
}

func (p *ExternalAnnotationProject) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
