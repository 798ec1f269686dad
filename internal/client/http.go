package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/quarryhill/taskgraph/internal/model"
)

// HTTPClient implements TaskGraphClient using the taskgraph HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Task CRUD ---

func (c *HTTPClient) CreateTask(ctx context.Context, req *CreateTaskRequest) (*model.Task, error) {
	var task model.Task
	if err := c.doJSON(ctx, http.MethodPost, "/v1/tasks", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *HTTPClient) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := c.doJSON(ctx, http.MethodGet, "/v1/tasks/"+url.PathEscape(id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *HTTPClient) ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error) {
	q := url.Values{}
	if len(req.Status) > 0 {
		q.Set("status", strings.Join(req.Status, ","))
	}
	if req.StoryID != "" {
		q.Set("story", req.StoryID)
	}
	if req.Stories {
		q.Set("stories", "true")
	}
	if req.Search != "" {
		q.Set("search", req.Search)
	}
	if req.Sort != "" {
		q.Set("sort", req.Sort)
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Offset > 0 {
		q.Set("offset", strconv.Itoa(req.Offset))
	}

	path := "/v1/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListTasksResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) UpdateTask(ctx context.Context, id string, req *UpdateTaskRequest) (*model.Task, error) {
	var task model.Task
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/tasks/"+url.PathEscape(id), req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *HTTPClient) DeleteTask(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/tasks/"+url.PathEscape(id), nil, nil)
}

// --- Dependencies ---

func (c *HTTPClient) AddDependency(ctx context.Context, taskID, dependsOnID, createdBy string) (*model.Dependency, error) {
	body := map[string]string{
		"depends_on_id": dependsOnID,
		"created_by":    createdBy,
	}
	var dep model.Dependency
	if err := c.doJSON(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(taskID)+"/dependencies", body, &dep); err != nil {
		return nil, err
	}
	return &dep, nil
}

func (c *HTTPClient) RemoveDependency(ctx context.Context, taskID, dependsOnID string) error {
	q := url.Values{}
	q.Set("depends_on_id", dependsOnID)
	path := "/v1/tasks/" + url.PathEscape(taskID) + "/dependencies?" + q.Encode()
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *HTTPClient) GetDependencies(ctx context.Context, taskID string) ([]*model.Dependency, error) {
	var resp struct {
		Dependencies []*model.Dependency `json:"dependencies"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/tasks/"+url.PathEscape(taskID)+"/dependencies", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Dependencies, nil
}

// --- Resources ---

func (c *HTTPClient) SaveResources(ctx context.Context, taskID string, entries []model.ResourceEntry) (*SaveResourcesResponse, error) {
	body := map[string]any{"resources": entries}
	var resp SaveResourcesResponse
	if err := c.doJSON(ctx, http.MethodPut, "/v1/tasks/"+url.PathEscape(taskID)+"/resources", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GetTaskResources(ctx context.Context, taskID string) (*model.DependencyGraph, error) {
	var g model.DependencyGraph
	if err := c.doJSON(ctx, http.MethodGet, "/v1/tasks/"+url.PathEscape(taskID)+"/resources", nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *HTTPClient) GetConflicts(ctx context.Context, taskID string) ([]*model.Conflict, error) {
	var resp struct {
		Conflicts []*model.Conflict `json:"conflicts"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/tasks/"+url.PathEscape(taskID)+"/conflicts", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Conflicts, nil
}

func (c *HTTPClient) GetResourceUsage(ctx context.Context, resourceID string) (*model.ResourceUsage, error) {
	var usage model.ResourceUsage
	if err := c.doJSON(ctx, http.MethodGet, "/v1/resources/"+url.PathEscape(resourceID)+"/usage", nil, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

// --- Ordering and rollup ---

func (c *HTTPClient) GetExecutionOrder(ctx context.Context, storyID string, statuses []string) (*model.ExecutionOrder, error) {
	q := url.Values{}
	if storyID != "" {
		q.Set("story", storyID)
	}
	if len(statuses) > 0 {
		q.Set("status", strings.Join(statuses, ","))
	}
	path := "/v1/order"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var order model.ExecutionOrder
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *HTTPClient) GetStoryHealth(ctx context.Context) ([]*model.StoryHealth, error) {
	var resp struct {
		Stories []*model.StoryHealth `json:"stories"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/stories/health", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Stories, nil
}

// --- Cleanup ---

func (c *HTTPClient) Cleanup(ctx context.Context, status string) (*model.CleanupResult, error) {
	body := map[string]string{"status": status}
	var result model.CleanupResult
	if err := c.doJSON(ctx, http.MethodPost, "/v1/cleanup", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// --- Graph and events ---

func (c *HTTPClient) GetGraph(ctx context.Context, limit int) (*model.GraphResponse, error) {
	path := "/v1/graph"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var g model.GraphResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *HTTPClient) GetStats(ctx context.Context) (*model.GraphStats, error) {
	var stats model.GraphStats
	if err := c.doJSON(ctx, http.MethodGet, "/v1/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *HTTPClient) GetEvents(ctx context.Context, taskID string) ([]*model.Event, error) {
	var resp struct {
		Events []*model.Event `json:"events"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/tasks/"+url.PathEscape(taskID)+"/events", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Cycle      []string
}

func (e *APIError) Error() string {
	if len(e.Cycle) > 0 {
		return fmt.Sprintf("HTTP %d: %s (cycle: %s)", e.StatusCode, e.Message, strings.Join(e.Cycle, " -> "))
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content carries no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string   `json:"error"`
			Cycle []string `json:"cycle"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error, Cycle: errResp.Cycle}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
