package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/eduplatform/gateway/internal/dto"
	"github.com/eduplatform/gateway/internal/models"
	"github.com/eduplatform/gateway/internal/upstream"
)

const (
	recentCourseLimit = 4
	upcomingTaskLimit = 5
)

// courseLister is the upstream slice the dashboard consumes.
type courseLister interface {
	GetAll(ctx context.Context, auth upstream.Auth, filter models.CourseFilter) ([]models.Course, error)
}

// DashboardService assembles the landing screen aggregate, replacing the
// independent per-widget fetches (and their partial-loading flicker) with
// one composed response.
type DashboardService struct {
	courses courseLister
	tasks   *TaskService
	logger  *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(courses courseLister, tasks *TaskService, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{courses: courses, tasks: tasks, logger: logger}
}

// Overview builds the dashboard payload. A course fetch failure degrades
// to an empty course strip rather than failing the whole screen; the task
// list is the screen's backbone and its failure propagates.
func (s *DashboardService) Overview(ctx context.Context, auth upstream.Auth, userID int, user *models.UserProfile) (*dto.DashboardResponse, error) {
	views, err := s.tasks.List(ctx, auth, userID)
	if err != nil {
		return nil, err
	}

	assignments := make([]models.Assignment, len(views))
	statuses := models.TaskStatusMap{}
	for i, v := range views {
		assignments[i] = v.Assignment
		if v.Status != models.TaskPending {
			statuses[v.ID] = v.Status
		}
	}

	courses, err := s.courses.GetAll(ctx, auth, models.CourseFilter{})
	if err != nil {
		s.logger.Warn("dashboard course fetch failed", zap.Error(err))
		courses = nil
	}
	if len(courses) > recentCourseLimit {
		courses = courses[:recentCourseLimit]
	}

	return &dto.DashboardResponse{
		Progress:      Progress(assignments, statuses),
		Tally:         Tally(views),
		RecentCourses: courses,
		UpcomingTasks: upcoming(views),
		User:          user,
	}, nil
}

// upcoming picks the next tasks coming due: everything not completed,
// ordered by due date. Unparseable due dates sort last in input order.
func upcoming(views []dto.TaskView) []dto.TaskView {
	pending := make([]dto.TaskView, 0, len(views))
	for _, v := range views {
		if v.Status != models.TaskCompleted {
			pending = append(pending, v)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		ti, iok := parseDueDate(pending[i].DueDate)
		tj, jok := parseDueDate(pending[j].DueDate)
		if iok && jok {
			return ti.Before(tj)
		}
		return iok && !jok
	})

	if len(pending) > upcomingTaskLimit {
		pending = pending[:upcomingTaskLimit]
	}
	return pending
}

func parseDueDate(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
