package connection

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/timi-go/internal/core/domain"
	"github.com/yndnr/timi-go/internal/core/service"
)

// PathTasks is the tasks collection. The trailing slash avoids a redirect.
const PathTasks = "/tasks/"

// TaskClient implements service.TaskBackend.
type TaskClient struct {
	http *HTTPClient
}

var _ service.TaskBackend = (*TaskClient)(nil)

// NewTaskClient creates a TaskClient.
func NewTaskClient(c *HTTPClient) *TaskClient {
	return &TaskClient{http: c}
}

// ListTasks returns the signed-in user's tasks.
func (t *TaskClient) ListTasks(ctx context.Context, token string) ([]domain.Task, error) {
	resp, err := t.http.Get(ctx, PathTasks, token)
	if err != nil {
		return nil, err
	}

	var wire []wireTask
	if err := ParseResponse(resp, &wire); err != nil {
		return nil, taskError("GET "+PathTasks, err)
	}

	tasks := make([]domain.Task, 0, len(wire))
	for _, w := range wire {
		tasks = append(tasks, w.toDomain())
	}
	return tasks, nil
}

// CreateTask adds a task.
func (t *TaskClient) CreateTask(ctx context.Context, token string, req *service.CreateTaskRequest) (*domain.Task, error) {
	resp, err := t.http.Post(ctx, PathTasks, token, req)
	if err != nil {
		return nil, err
	}

	var wire wireTask
	if err := ParseResponse(resp, &wire); err != nil {
		return nil, taskError("POST "+PathTasks, err)
	}

	task := wire.toDomain()
	return &task, nil
}

func taskError(endpoint string, err error) error {
	switch statusOf(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrSessionExpired.WithCause(err)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.ErrValidation.WithDetails(detailOf(err)).WithCause(err)
	default:
		return backendError(endpoint, err)
	}
}

// wireTask accepts the backend's timestamps, which may lack a zone.
type wireTask struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Completed   bool     `json:"completed"`
	CreatedAt   wireTime `json:"created_at"`
	UpdatedAt   wireTime `json:"updated_at"`
}

func (w wireTask) toDomain() domain.Task {
	t := domain.Task{
		ID:        w.ID,
		Title:     w.Title,
		Completed: w.Completed,
		CreatedAt: time.Time(w.CreatedAt),
		UpdatedAt: time.Time(w.UpdatedAt),
	}
	if w.Description != nil {
		t.Description = *w.Description
	}
	return t
}

type wireTime time.Time

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON parses RFC 3339 or naive ISO 8601 (read as UTC).
func (t *wireTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*t = wireTime{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = wireTime(parsed.UTC())
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}
