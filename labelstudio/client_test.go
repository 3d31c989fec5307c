package labelstudio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProjectUsesTokenAuth(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 7, "url": "http://tool/projects/7"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-key")
	project, err := client.CreateProject(context.Background(), "traffic-as1", "<View/>")
	require.NoError(t, err)

	assert.Equal(t, "Token secret-key", gotAuth)
	assert.Equal(t, "7", project.ID)
	assert.Equal(t, "http://tool/projects/7", project.URL)
}

func TestCreateProjectSynthesizesURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "traffic-as1", body["title"])
		assert.Equal(t, "<View/>", body["label_config"])

		_, _ = w.Write([]byte(`{"id": 42}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "key")
	project, err := client.CreateProject(context.Background(), "traffic-as1", "<View/>")
	require.NoError(t, err)

	assert.Equal(t, "42", project.ID)
	assert.Equal(t, server.URL+"/projects/42", project.URL)
}

func TestCreateTaskSingleObjectResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/42/tasks/", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": 101, "data": {"video": "http://svc/media/dataset-item/d1?token=x"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	payload := TaskPayload{Data: TaskMedia{Video: "http://svc/media/dataset-item/d1?token=x"}}
	taskID, err := client.CreateTask(context.Background(), "42", payload)
	require.NoError(t, err)
	assert.Equal(t, "101", taskID)
}

func TestCreateTaskListResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(` [{"id": 102}] `))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	taskID, err := client.CreateTask(context.Background(), "42", TaskPayload{})
	require.NoError(t, err)
	assert.Equal(t, "102", taskID)
}

func TestCreateTaskEmptyListResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	_, err := client.CreateTask(context.Background(), "42", TaskPayload{})
	assert.Error(t, err)
}

func TestCreateTaskResponseWithoutID(t *testing.T) {
	for name, body := range map[string]string{
		"object": `{"data": {"video": "http://svc/v"}}`,
		"list":   `[{"data": {"video": "http://svc/v"}}]`,
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			client := NewClient(server.URL, "key")
			_, err := client.CreateTask(context.Background(), "42", TaskPayload{})
			assert.Error(t, err)
		})
	}
}

func TestNon2xxBecomesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail": "bad key"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "wrong")
	_, err := client.CreateProject(context.Background(), "p", "<View/>")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "bad key")
	assert.Equal(t, "create project", apiErr.Op)
}

func TestGetTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tasks/101/", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"id": 101, "is_labeled": true, "data": {"video": "http://svc/v"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	task, err := client.GetTask(context.Background(), "101")
	require.NoError(t, err)

	assert.Equal(t, "101", task.ID)
	assert.True(t, task.IsLabeled)
	assert.Equal(t, "http://svc/v", task.Data.Video)
}

func TestGetProjectExport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/42/export", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id": 101, "annotations": [{"result": []}]}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	tasks, err := client.GetProjectExport(context.Background(), "42")
	require.NoError(t, err)

	require.Len(t, tasks, 1)
	assert.Equal(t, "101", tasks[0].ID.String())
	assert.Len(t, tasks[0].Annotations, 1)
}

func TestRegisterWebhook(t *testing.T) {
	var body map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/webhooks/", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	err := client.RegisterWebhook(context.Background(), "42", "http://svc/webhooks/labelstudio", "hush")
	require.NoError(t, err)

	assert.Equal(t, "42", body["project"])
	assert.Equal(t, "http://svc/webhooks/labelstudio", body["url"])
	assert.Equal(t, "hush", body["secret"])
}
