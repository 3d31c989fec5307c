package controllers

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"labelbridge/labelstudio"
	"labelbridge/models"
	"labelbridge/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:controllers-%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.AnnotationSet{},
		&models.DatasetItem{},
		&models.File{},
		&models.ExternalAnnotationProject{},
		&models.ExternalAnnotationTask{},
	))
	return db
}

func testConfig() *utils.Config {
	config := &utils.Config{}
	config.Service.Name = "labelbridge-test"
	config.LabelStudio.BaseURL = "http://annotation-tool"
	config.LabelStudio.APIKey = "key"
	config.LabelStudio.MediaToken = "media-token"
	config.Storage.Bucket = "curated-media"
	config.Public.BaseURL = "http://labelbridge"
	return config
}

// stubAPI answers every annotation tool call with fixed values.
type stubAPI struct{}

func (stubAPI) CreateProject(ctx context.Context, name string, labelConfig string) (*labelstudio.Project, error) {
	return &labelstudio.Project{ID: "P1", URL: "http://annotation-tool/projects/P1"}, nil
}

func (stubAPI) CreateTask(ctx context.Context, projectID string, payload labelstudio.TaskPayload) (string, error) {
	return "T1", nil
}

func (stubAPI) GetTask(ctx context.Context, taskID string) (*labelstudio.Task, error) {
	return &labelstudio.Task{ID: taskID}, nil
}

func (stubAPI) GetProjectExport(ctx context.Context, projectID string) ([]labelstudio.ExportedTask, error) {
	return nil, nil
}

func (stubAPI) RegisterWebhook(ctx context.Context, projectID string, callbackURL string, secret string) error {
	return nil
}
