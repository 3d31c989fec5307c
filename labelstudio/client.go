package labelstudio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
	// Bulk exports can be large, give them more room.
	exportTimeout = 60 * time.Second
)

// APIError is returned for any non-2xx answer from the annotation tool. The
// upstream status and body are kept for diagnostics.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("label studio %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Client wraps the external annotation tool's HTTP API. It does protocol
// translation only; retry policy is left to the caller.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient Create a client for the annotation tool at baseURL
func NewClient(baseURL string, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

// Project is the normalized result of CreateProject.
type Project struct {
	ID  string
	URL string
}

type createProjectRequest struct {
	Title       string `json:"title"`
	LabelConfig string `json:"label_config"`
}

type projectResponse struct {
	ID  json.Number `json:"id"`
	URL string      `json:"url"`
}

// CreateProject Create a remote project and return its id and browsable URL.
// When the response carries no URL one is synthesized from the base URL.
func (c *Client) CreateProject(ctx context.Context, name string, labelConfig string) (*Project, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/projects/", createProjectRequest{
		Title:       name,
		LabelConfig: labelConfig,
	}, defaultTimeout, "create project")
	if err != nil {
		return nil, err
	}

	var resp projectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("create project: cannot decode response: %w", err)
	}

	project := &Project{ID: resp.ID.String(), URL: resp.URL}
	if project.URL == "" && project.ID != "" {
		project.URL = fmt.Sprintf("%s/projects/%s", c.baseURL, project.ID)
	}
	return project, nil
}

// TaskMedia is the data block of a task payload. The media field points at
// this service's tokenized media URL, never at the raw storage object.
type TaskMedia struct {
	Video string `json:"video"`
}

// TaskPayload is the body sent when creating a task.
type TaskPayload struct {
	Data TaskMedia `json:"data"`
}

type taskResponse struct {
	ID        json.Number `json:"id"`
	Data      TaskMedia   `json:"data"`
	IsLabeled bool        `json:"is_labeled"`
}

// CreateTask Create a task in a remote project and return its id as a string.
// The endpoint answers with either a single task object or a one-element list
// depending on the import path taken server-side; both shapes are handled.
func (c *Client) CreateTask(ctx context.Context, projectID string, payload TaskPayload) (string, error) {
	path := fmt.Sprintf("/api/projects/%s/tasks/", projectID)
	body, err := c.do(ctx, http.MethodPost, path, payload, defaultTimeout, "create task")
	if err != nil {
		return "", err
	}

	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []taskResponse
		if err := json.Unmarshal(body, &list); err != nil {
			return "", fmt.Errorf("create task: cannot decode list response: %w", err)
		}
		if len(list) == 0 {
			return "", fmt.Errorf("create task: empty response list")
		}
		if list[0].ID.String() == "" {
			return "", fmt.Errorf("create task: response carries no task id")
		}
		return list[0].ID.String(), nil
	}

	var single taskResponse
	if err := json.Unmarshal(body, &single); err != nil {
		return "", fmt.Errorf("create task: cannot decode response: %w", err)
	}
	if single.ID.String() == "" {
		return "", fmt.Errorf("create task: response carries no task id")
	}
	return single.ID.String(), nil
}

// Task is the normalized result of GetTask.
type Task struct {
	ID        string
	Data      TaskMedia
	IsLabeled bool
}

// GetTask Fetch a single remote task
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	path := fmt.Sprintf("/api/tasks/%s/", taskID)
	body, err := c.do(ctx, http.MethodGet, path, nil, defaultTimeout, "get task")
	if err != nil {
		return nil, err
	}

	var resp taskResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("get task: cannot decode response: %w", err)
	}
	return &Task{ID: resp.ID.String(), Data: resp.Data, IsLabeled: resp.IsLabeled}, nil
}

// ExportedTask is one entry of a project export, annotations kept raw for the
// downstream ingestion step.
type ExportedTask struct {
	ID          json.Number       `json:"id"`
	Data        TaskMedia         `json:"data"`
	Annotations []json.RawMessage `json:"annotations"`
}

// GetProjectExport Fetch the full annotation export of a remote project
func (c *Client) GetProjectExport(ctx context.Context, projectID string) ([]ExportedTask, error) {
	path := fmt.Sprintf("/api/projects/%s/export", projectID)
	body, err := c.do(ctx, http.MethodGet, path, nil, exportTimeout, "get project export")
	if err != nil {
		return nil, err
	}

	var tasks []ExportedTask
	if err := json.Unmarshal(body, &tasks); err != nil {
		return nil, fmt.Errorf("get project export: cannot decode response: %w", err)
	}
	return tasks, nil
}

type registerWebhookRequest struct {
	Project string `json:"project"`
	URL     string `json:"url"`
	Secret  string `json:"secret"`
}

// RegisterWebhook Point the remote project's webhook at callbackURL, bound to
// the shared secret
func (c *Client) RegisterWebhook(ctx context.Context, projectID string, callbackURL string, secret string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/webhooks/", registerWebhookRequest{
		Project: projectID,
		URL:     callbackURL,
		Secret:  secret,
	}, defaultTimeout, "register webhook")
	return err
}

func (c *Client) do(ctx context.Context, method string, path string, payload interface{}, timeout time.Duration, op string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: cannot marshal request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: cannot read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
