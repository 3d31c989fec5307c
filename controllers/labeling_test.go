package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"labelbridge/labeling"
	"labelbridge/models"
)

func labelingRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	orchestrator := labeling.NewOrchestrator(db, stubAPI{}, testConfig(), nil)

	r := gin.New()
	r.POST("/labeling/start", StartLabeling(orchestrator))
	r.GET("/labeling/export/:annotation_set_id", GetExport(orchestrator))
	r.GET("/labeling/tasks/:task_id", GetTaskStatus(orchestrator))
	return r
}

func TestStartLabelingEndpoint(t *testing.T) {
	db := newTestDB(t)
	r := labelingRouter(db)

	version := "dv1"
	set := models.AnnotationSet{PurposeKey: "traffic", DatasetVersionID: &version}
	require.NoError(t, db.Create(&set).Error)

	file := models.File{DatastoreID: "ds1"}
	require.NoError(t, db.Create(&file).Error)
	item := models.DatasetItem{DatasetVersionID: version, FileID: file.ID}
	require.NoError(t, db.Create(&item).Error)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/labeling/start", strings.NewReader(`{"annotationSetId": "`+set.ID+`"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"externalProjectId":"P1"`)
	assert.Contains(t, w.Body.String(), `"tasksCreated":1`)
	assert.Contains(t, w.Body.String(), `"tasksTotal":1`)
}

func TestStartLabelingEndpointErrors(t *testing.T) {
	db := newTestDB(t)
	r := labelingRouter(db)

	// Unknown annotation set
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/labeling/start", strings.NewReader(`{"annotationSetId": "missing"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Set without a dataset version
	set := models.AnnotationSet{PurposeKey: "traffic"}
	require.NoError(t, db.Create(&set).Error)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/labeling/start", strings.NewReader(`{"annotationSetId": "`+set.ID+`"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Body without the required field
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/labeling/start", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetExportEndpointUnknownSet(t *testing.T) {
	db := newTestDB(t)
	r := labelingRouter(db)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/labeling/export/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTaskStatusEndpoint(t *testing.T) {
	db := newTestDB(t)
	r := labelingRouter(db)

	task := models.ExternalAnnotationTask{
		AnnotationSetID: "as1",
		DatasetItemID:   "d1",
		ExternalTaskID:  "T1",
		State:           models.TaskStateCreated,
	}
	require.NoError(t, db.Create(&task).Error)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/labeling/tasks/"+task.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/labeling/tasks/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
