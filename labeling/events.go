package labeling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"labelbridge/models"
)

// EventHandler receives webhook payloads after their secret has been
// verified. Implementations must treat the payload as untrusted input.
type EventHandler interface {
	HandleEvent(ctx context.Context, event string, payload []byte) error
}

// EventRecorder applies annotation events to the local task links and leaves
// everything else for a later ingestion step.
type EventRecorder struct {
	db *gorm.DB
}

// NewEventRecorder Create an event recorder writing to db
func NewEventRecorder(db *gorm.DB) *EventRecorder {
	return &EventRecorder{db: db}
}

type annotationEvent struct {
	Task struct {
		ID json.Number `json:"id"`
	} `json:"task"`
}

// HandleEvent Update the task link state for annotation events
func (r *EventRecorder) HandleEvent(ctx context.Context, event string, payload []byte) error {
	switch event {
	case "ANNOTATION_CREATED", "ANNOTATION_UPDATED":
		var ev annotationEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("cannot decode %s payload: %w", event, err)
		}
		externalTaskID := ev.Task.ID.String()
		if externalTaskID == "" {
			return fmt.Errorf("%s payload carries no task id", event)
		}

		var task models.ExternalAnnotationTask
		err := r.db.WithContext(ctx).First(&task, "external_task_id = ?", externalTaskID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn(fmt.Sprintf("No task link for external task %s", externalTaskID))
			return nil
		}
		if err != nil {
			return err
		}

		return r.db.WithContext(ctx).
			Model(&task).
			Update("state", models.TaskStateAnnotated).Error
	default:
		log.Debug(fmt.Sprintf("Ignoring webhook event %s", event))
		return nil
	}
}
