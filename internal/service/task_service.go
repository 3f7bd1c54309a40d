package service

import (
	"context"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eduplatform/gateway/internal/dto"
	"github.com/eduplatform/gateway/internal/models"
	"github.com/eduplatform/gateway/internal/upstream"
	appErrors "github.com/eduplatform/gateway/pkg/errors"
)

// assignmentLister is the upstream slice the task layer consumes.
type assignmentLister interface {
	GetAll(ctx context.Context, auth upstream.Auth) ([]models.Assignment, error)
}

// taskStatusStore abstracts the simulated status persistence.
type taskStatusStore interface {
	Get(ctx context.Context, userID int) (models.TaskStatusMap, error)
	Set(ctx context.Context, userID, taskID int, status models.TaskStatus) error
	Clear(ctx context.Context, userID int) error
}

// TaskService merges backend assignments with the locally simulated
// status map and derives the progress figure from them.
type TaskService struct {
	assignments assignmentLister
	statuses    taskStatusStore
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTaskService constructs a TaskService.
func NewTaskService(assignments assignmentLister, statuses taskStatusStore, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{assignments: assignments, statuses: statuses, validator: validate, logger: logger}
}

// List returns the caller's assignments with their simulated statuses.
// An absent map entry reads as pending.
func (s *TaskService) List(ctx context.Context, auth upstream.Auth, userID int) ([]dto.TaskView, error) {
	assignments, err := s.assignments.GetAll(ctx, auth)
	if err != nil {
		return nil, err
	}

	statuses, err := s.statuses.Get(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task statuses")
	}

	views := make([]dto.TaskView, 0, len(assignments))
	for _, a := range assignments {
		views = append(views, dto.TaskView{Assignment: a, Status: statuses.Get(a.ID)})
	}
	return views, nil
}

// SetStatus updates the simulated status of one assignment. The write is
// last-write-wins by construction; concurrent updates race silently.
func (s *TaskService) SetStatus(ctx context.Context, userID, taskID int, req dto.SetTaskStatusRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task status payload")
	}
	if err := s.statuses.Set(ctx, userID, taskID, req.Status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist task status")
	}
	return nil
}

// Progress computes the completion percentage over the current assignment
// list. Only ids present in the list count: a completed mark for a
// deleted assignment affects neither numerator nor denominator. Empty
// list reads as zero progress.
func Progress(assignments []models.Assignment, statuses models.TaskStatusMap) int {
	if len(assignments) == 0 {
		return 0
	}

	completed := 0
	for _, a := range assignments {
		if statuses.Get(a.ID) == models.TaskCompleted {
			completed++
		}
	}

	return int(math.Round(float64(completed) / float64(len(assignments)) * 100))
}

// Tally counts tasks per simulated status.
func Tally(views []dto.TaskView) dto.TaskTally {
	var tally dto.TaskTally
	for _, v := range views {
		switch v.Status {
		case models.TaskCompleted:
			tally.Completed++
		case models.TaskInProgress:
			tally.InProgress++
		default:
			tally.Pending++
		}
	}
	return tally
}
