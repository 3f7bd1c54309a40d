package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduplatform/gateway/internal/models"
	"github.com/eduplatform/gateway/internal/upstream"
	appErrors "github.com/eduplatform/gateway/pkg/errors"
)

type mockCourseLister struct {
	courses []models.Course
	err     error
}

func (m *mockCourseLister) GetAll(ctx context.Context, auth upstream.Auth, filter models.CourseFilter) ([]models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.courses, nil
}

func newDashboardFixture(courses courseLister, assignments []models.Assignment, statuses models.TaskStatusMap) *DashboardService {
	lister := &mockAssignmentLister{assignments: assignments}
	store := newMockTaskStatusStore()
	if statuses != nil {
		store.statuses[1] = statuses
	}
	tasks := NewTaskService(lister, store, validator.New(), zap.NewNop())
	return NewDashboardService(courses, tasks, zap.NewNop())
}

func TestDashboardOverview(t *testing.T) {
	assignments := []models.Assignment{
		{ID: 1, Title: "A", DueDate: "2026-09-05"},
		{ID: 2, Title: "B", DueDate: "2026-09-02"},
		{ID: 3, Title: "C", DueDate: "2026-09-10"},
		{ID: 4, Title: "D", DueDate: "not-a-date"},
	}
	statuses := models.TaskStatusMap{1: models.TaskCompleted}
	courses := &mockCourseLister{courses: []models.Course{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5}}}

	svc := newDashboardFixture(courses, assignments, statuses)
	user := &models.UserProfile{ID: 1, Username: "alice"}

	res, err := svc.Overview(context.Background(), upstream.Auth{}, 1, user)
	require.NoError(t, err)

	assert.Equal(t, 25, res.Progress)
	assert.Equal(t, 1, res.Tally.Completed)
	assert.Equal(t, 3, res.Tally.Pending)
	assert.Len(t, res.RecentCourses, recentCourseLimit)
	assert.Same(t, user, res.User)

	// completed tasks drop out, earliest due date first, unparseable last
	require.Len(t, res.UpcomingTasks, 3)
	assert.Equal(t, 2, res.UpcomingTasks[0].ID)
	assert.Equal(t, 3, res.UpcomingTasks[1].ID)
	assert.Equal(t, 4, res.UpcomingTasks[2].ID)
}

func TestDashboardOverviewCourseFailureDegrades(t *testing.T) {
	svc := newDashboardFixture(&mockCourseLister{err: appErrors.ErrUpstream}, []models.Assignment{{ID: 1}}, nil)

	res, err := svc.Overview(context.Background(), upstream.Auth{}, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, res.RecentCourses)
	assert.Equal(t, 1, res.Tally.Pending)
}

func TestDashboardOverviewTaskFailurePropagates(t *testing.T) {
	lister := &mockAssignmentLister{err: appErrors.ErrUnreachable}
	tasks := NewTaskService(lister, newMockTaskStatusStore(), validator.New(), zap.NewNop())
	svc := NewDashboardService(&mockCourseLister{}, tasks, zap.NewNop())

	_, err := svc.Overview(context.Background(), upstream.Auth{}, 1, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnreachable.Code, appErrors.FromError(err).Code)
}
