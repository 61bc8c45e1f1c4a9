package service

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/yndnr/timi-go/internal/core/domain"
	"github.com/yndnr/timi-go/internal/telemetry/logger"
)

// TaskBackend is the remote tasks API. Calls carry the bearer token.
type TaskBackend interface {
	ListTasks(ctx context.Context, token string) ([]domain.Task, error)
	CreateTask(ctx context.Context, token string, req *CreateTaskRequest) (*domain.Task, error)
}

// CreateTaskRequest contains a new task.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Validate checks the request before it is sent.
func (r CreateTaskRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, domain.MaxTaskTitleLength)),
		validation.Field(&r.Description, validation.Length(0, 2000)),
	)
}

// TaskService loads and creates dashboard tasks for the signed-in user.
//
// A backend rejection of the token (ErrSessionExpired) signs the user out
// through the controller.
type TaskService struct {
	backend    TaskBackend
	controller *SessionController
	logger     logger.Logger
}

// NewTaskService creates a TaskService.
func NewTaskService(backend TaskBackend, controller *SessionController, l logger.Logger) *TaskService {
	if l == nil {
		l = logger.Nop()
	}
	return &TaskService{
		backend:    backend,
		controller: controller,
		logger:     l.With("component", "tasks"),
	}
}

// List returns the user's tasks.
func (s *TaskService) List(ctx context.Context) ([]domain.Task, error) {
	token, err := s.controller.BearerToken()
	if err != nil {
		return nil, err
	}

	tasks, err := s.backend.ListTasks(ctx, token)
	if err != nil {
		return nil, s.handleError(ctx, err)
	}
	return tasks, nil
}

// Create adds a task.
func (s *TaskService) Create(ctx context.Context, req *CreateTaskRequest) (*domain.Task, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := req.Validate(); err != nil {
		return nil, domain.ErrValidation.WithDetails(err.Error()).WithCause(err)
	}

	token, err := s.controller.BearerToken()
	if err != nil {
		return nil, err
	}

	task, err := s.backend.CreateTask(ctx, token, req)
	if err != nil {
		return nil, s.handleError(ctx, err)
	}
	return task, nil
}

func (s *TaskService) handleError(ctx context.Context, err error) error {
	if errors.Is(err, domain.ErrSessionExpired) {
		s.logger.Info("backend rejected token, signing out")
		s.controller.Invalidate(ctx, err)
	}
	return err
}
