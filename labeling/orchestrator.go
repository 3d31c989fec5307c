package labeling

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"labelbridge/labelstudio"
	"labelbridge/models"
	"labelbridge/utils"
)

// DefaultLabelConfig is used when no label config override is configured.
const DefaultLabelConfig = `<View><Video name="video" value="$video"/><Labels name="label" toName="video"><Label value="Action"/></Labels></View>`

// AnnotationAPI is the slice of the annotation tool client the orchestrator
// depends on.
type AnnotationAPI interface {
	CreateProject(ctx context.Context, name string, labelConfig string) (*labelstudio.Project, error)
	CreateTask(ctx context.Context, projectID string, payload labelstudio.TaskPayload) (string, error)
	GetTask(ctx context.Context, taskID string) (*labelstudio.Task, error)
	GetProjectExport(ctx context.Context, projectID string) ([]labelstudio.ExportedTask, error)
	RegisterWebhook(ctx context.Context, projectID string, callbackURL string, secret string) error
}

// StartResult is the outcome of one StartLabeling invocation.
type StartResult struct {
	ExternalProjectID string `json:"externalProjectId"`
	ProjectURL        string `json:"projectUrl"`
	TasksCreated      int    `json:"tasksCreated"`
	TasksTotal        int    `json:"tasksTotal"`
	WebhookRegistered bool   `json:"webhookRegistered"`
}

// Orchestrator provisions labeling sessions: one external project per
// annotation set, one external task per dataset item. All checks are
// idempotent so a failed run is recovered by calling StartLabeling again.
type Orchestrator struct {
	db     *gorm.DB
	api    AnnotationAPI
	config *utils.Config

	exports *ExportCache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewOrchestrator Create an orchestrator using the given collaborators
func NewOrchestrator(db *gorm.DB, api AnnotationAPI, config *utils.Config, exports *ExportCache) *Orchestrator {
	return &Orchestrator{
		db:      db,
		api:     api,
		config:  config,
		exports: exports,
		locks:   make(map[string]*sync.Mutex),
	}
}

// lockSet serializes provisioning per annotation set, so two concurrent
// StartLabeling calls cannot both observe "no project exists".
func (o *Orchestrator) lockSet(annotationSetID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[annotationSetID]
	if !ok {
		l = &sync.Mutex{}
		o.locks[annotationSetID] = l
	}
	return l
}

// StartLabeling Ensure the external project exists and create tasks for every
// dataset item that has none yet
func (o *Orchestrator) StartLabeling(ctx context.Context, annotationSetID string) (*StartResult, error) {
	l := o.lockSet(annotationSetID)
	l.Lock()
	defer l.Unlock()

	var set models.AnnotationSet
	if err := o.db.WithContext(ctx).First(&set, "id = ?", annotationSetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("annotation set %s: %w", annotationSetID, ErrNotFound)
		}
		return nil, err
	}

	if set.DatasetVersionID == nil || *set.DatasetVersionID == "" {
		return nil, fmt.Errorf("annotation set %s has no dataset version: %w", set.ID, ErrInvalidState)
	}

	if o.config.LabelStudio.BaseURL == "" || o.config.LabelStudio.APIKey == "" {
		return nil, fmt.Errorf("annotation service: %w", ErrMisconfigured)
	}

	var items []models.DatasetItem
	if err := o.db.WithContext(ctx).
		Where("dataset_version_id = ?", *set.DatasetVersionID).
		Order("created_at").
		Find(&items).Error; err != nil {
		return nil, err
	}

	result := &StartResult{TasksTotal: len(items)}

	project, err := o.ensureProject(ctx, &set, result)
	if err != nil {
		return nil, err
	}
	result.ExternalProjectID = project.ExternalProjectID
	result.ProjectURL = project.ProjectURL

	for _, item := range items {
		created, err := o.ensureTask(ctx, set.ID, item.ID, project.ExternalProjectID)
		if err != nil {
			return nil, err
		}
		if created {
			result.TasksCreated++
		}
	}

	return result, nil
}

// ensureProject resolves the existing project link or creates the remote
// project and persists a new link.
func (o *Orchestrator) ensureProject(ctx context.Context, set *models.AnnotationSet, result *StartResult) (*models.ExternalAnnotationProject, error) {
	var project models.ExternalAnnotationProject
	err := o.db.WithContext(ctx).First(&project, "annotation_set_id = ?", set.ID).Error
	if err == nil {
		if err := o.ensureWebhook(ctx, &project); err != nil {
			return nil, err
		}
		result.WebhookRegistered = project.WebhookRegistered
		return &project, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	labelConfig := o.config.LabelStudio.LabelConfig
	if labelConfig == "" {
		labelConfig = DefaultLabelConfig
	}

	// Annotation set ids are unique, so the name cannot collide.
	name := fmt.Sprintf("%s-%s", set.PurposeKey, set.ID)
	remote, err := o.api.CreateProject(ctx, name, labelConfig)
	if err != nil {
		return nil, &ServiceError{Step: "create project", Err: err}
	}
	log.Info(fmt.Sprintf("Created remote project %s for annotation set %s", remote.ID, set.ID))

	project = models.ExternalAnnotationProject{
		AnnotationSetID:   set.ID,
		ExternalProjectID: remote.ID,
		ProjectURL:        remote.URL,
		WebhookSecret:     o.config.LabelStudio.WebhookSecret,
		LabelConfig:       labelConfig,
		State:             models.ProjectStateActive,
	}
	if err := o.db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, err
	}

	if err := o.ensureWebhook(ctx, &project); err != nil {
		return nil, err
	}
	result.WebhookRegistered = project.WebhookRegistered
	return &project, nil
}

// ensureWebhook registers the webhook unless the stored link already has a
// successful registration, and records the outcome on the link.
func (o *Orchestrator) ensureWebhook(ctx context.Context, project *models.ExternalAnnotationProject) error {
	if project.WebhookRegistered {
		return nil
	}
	if !o.registerWebhook(ctx, project.ExternalProjectID) {
		return nil
	}

	if err := o.db.WithContext(ctx).Model(project).Update("webhook_registered", true).Error; err != nil {
		return err
	}
	project.WebhookRegistered = true
	return nil
}

// registerWebhook is best-effort: a failure is logged and retried implicitly
// on the next StartLabeling of the same annotation set.
func (o *Orchestrator) registerWebhook(ctx context.Context, externalProjectID string) bool {
	publicBase := o.config.Public.BaseURL
	secret := o.config.LabelStudio.WebhookSecret
	if publicBase == "" || secret == "" {
		return false
	}

	callbackURL := strings.TrimRight(publicBase, "/") + "/webhooks/labelstudio"
	if err := o.api.RegisterWebhook(ctx, externalProjectID, callbackURL, secret); err != nil {
		log.Warn(fmt.Sprintf("Webhook registration failed for project %s: %s", externalProjectID, err.Error()))
		return false
	}
	return true
}

// ensureTask creates a remote task for the item unless a link already exists.
func (o *Orchestrator) ensureTask(ctx context.Context, annotationSetID string, datasetItemID string, externalProjectID string) (bool, error) {
	var existing models.ExternalAnnotationTask
	err := o.db.WithContext(ctx).
		First(&existing, "annotation_set_id = ? AND dataset_item_id = ?", annotationSetID, datasetItemID).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	payload := labelstudio.TaskPayload{
		Data: labelstudio.TaskMedia{
			Video: MediaURL(o.config.Public.BaseURL, o.config.LabelStudio.MediaToken, datasetItemID),
		},
	}
	externalTaskID, err := o.api.CreateTask(ctx, externalProjectID, payload)
	if err != nil {
		return false, &ServiceError{Step: "create task", Err: err}
	}

	task := models.ExternalAnnotationTask{
		AnnotationSetID: annotationSetID,
		DatasetItemID:   datasetItemID,
		ExternalTaskID:  externalTaskID,
		State:           models.TaskStateCreated,
	}
	if err := o.db.WithContext(ctx).Create(&task).Error; err != nil {
		return false, err
	}
	return true, nil
}

// TaskStatus Fetch the remote state of a locally known task link
func (o *Orchestrator) TaskStatus(ctx context.Context, taskID string) (*models.ExternalAnnotationTask, *labelstudio.Task, error) {
	var task models.ExternalAnnotationTask
	if err := o.db.WithContext(ctx).First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
		}
		return nil, nil, err
	}

	remote, err := o.api.GetTask(ctx, task.ExternalTaskID)
	if err != nil {
		return nil, nil, &ServiceError{Step: "get task", Err: err}
	}
	return &task, remote, nil
}

// FetchExport Fetch the remote project export for an annotation set, served
// from the export cache when fresh
func (o *Orchestrator) FetchExport(ctx context.Context, annotationSetID string) ([]labelstudio.ExportedTask, error) {
	var project models.ExternalAnnotationProject
	if err := o.db.WithContext(ctx).First(&project, "annotation_set_id = ?", annotationSetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no project for annotation set %s: %w", annotationSetID, ErrNotFound)
		}
		return nil, err
	}

	if o.exports != nil {
		if tasks, ok := o.exports.Read(project.ExternalProjectID); ok {
			return tasks, nil
		}
	}

	tasks, err := o.api.GetProjectExport(ctx, project.ExternalProjectID)
	if err != nil {
		return nil, &ServiceError{Step: "get project export", Err: err}
	}
	if o.exports != nil {
		o.exports.Update(project.ExternalProjectID, tasks)
	}
	return tasks, nil
}

// MediaURL Build the tokenized media URL the external tool uses to fetch a
// dataset item through this service
func MediaURL(publicBase string, mediaToken string, datasetItemID string) string {
	base := strings.TrimRight(publicBase, "/")
	return fmt.Sprintf("%s/media/dataset-item/%s?token=%s", base, datasetItemID, url.QueryEscape(mediaToken))
}
