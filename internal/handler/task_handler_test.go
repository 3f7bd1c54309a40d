package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduplatform/gateway/internal/dto"
	"github.com/eduplatform/gateway/internal/middleware"
	"github.com/eduplatform/gateway/internal/models"
	"github.com/eduplatform/gateway/internal/service"
	"github.com/eduplatform/gateway/internal/upstream"
)

type fakeAssignmentLister struct {
	assignments []models.Assignment
	err         error
}

func (f *fakeAssignmentLister) GetAll(ctx context.Context, auth upstream.Auth) ([]models.Assignment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.assignments, nil
}

type fakeTaskStatusStore struct {
	statuses map[int]models.TaskStatusMap
}

func newFakeTaskStatusStore() *fakeTaskStatusStore {
	return &fakeTaskStatusStore{statuses: make(map[int]models.TaskStatusMap)}
}

func (f *fakeTaskStatusStore) Get(ctx context.Context, userID int) (models.TaskStatusMap, error) {
	if s, ok := f.statuses[userID]; ok {
		return s, nil
	}
	return models.TaskStatusMap{}, nil
}

func (f *fakeTaskStatusStore) Set(ctx context.Context, userID, taskID int, status models.TaskStatus) error {
	if f.statuses[userID] == nil {
		f.statuses[userID] = models.TaskStatusMap{}
	}
	f.statuses[userID][taskID] = status
	return nil
}

func (f *fakeTaskStatusStore) Clear(ctx context.Context, userID int) error {
	delete(f.statuses, userID)
	return nil
}

func taskContext(t *testing.T, rec *httptest.ResponseRecorder, method, target string, body string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(rec)
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
		c.Request = httptest.NewRequest(method, target, reader)
		c.Request.Header.Set("Content-Type", "application/json")
	} else {
		c.Request = httptest.NewRequest(method, target, nil)
	}
	c.Set(middleware.ContextClaimsKey, &models.SessionClaims{SessionID: "s1", UserID: 7})
	c.Set(middleware.ContextSessionKey, &models.Session{ID: "s1", AccessToken: "access"})
	return c
}

func TestTaskHandlerList(t *testing.T) {
	lister := &fakeAssignmentLister{assignments: []models.Assignment{{ID: 1, Title: "Essay"}, {ID: 2, Title: "Quiz"}}}
	store := newFakeTaskStatusStore()
	store.statuses[7] = models.TaskStatusMap{1: models.TaskInProgress}
	svc := service.NewTaskService(lister, store, validator.New(), zap.NewNop())
	handler := NewTaskHandler(svc, service.NewMetricsService())

	rec := httptest.NewRecorder()
	c := taskContext(t, rec, http.MethodGet, "/tasks", "")

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var views []dto.TaskView
	require.NoError(t, json.Unmarshal(envelope.Data, &views))
	require.Len(t, views, 2)
	assert.Equal(t, models.TaskInProgress, views[0].Status)
	assert.Equal(t, models.TaskPending, views[1].Status)
}

func TestTaskHandlerListUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := service.NewTaskService(&fakeAssignmentLister{}, newFakeTaskStatusStore(), validator.New(), zap.NewNop())
	handler := NewTaskHandler(svc, service.NewMetricsService())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/tasks", nil)

	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTaskHandlerSetStatus(t *testing.T) {
	store := newFakeTaskStatusStore()
	svc := service.NewTaskService(&fakeAssignmentLister{}, store, validator.New(), zap.NewNop())
	handler := NewTaskHandler(svc, service.NewMetricsService())

	rec := httptest.NewRecorder()
	c := taskContext(t, rec, http.MethodPut, "/tasks/4/status", `{"status": "completed"}`)
	c.Params = gin.Params{{Key: "id", Value: "4"}}

	handler.SetStatus(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.TaskCompleted, store.statuses[7].Get(4))
}

func TestTaskHandlerSetStatusInvalidValue(t *testing.T) {
	svc := service.NewTaskService(&fakeAssignmentLister{}, newFakeTaskStatusStore(), validator.New(), zap.NewNop())
	handler := NewTaskHandler(svc, service.NewMetricsService())

	rec := httptest.NewRecorder()
	c := taskContext(t, rec, http.MethodPut, "/tasks/4/status", `{"status": "done"}`)
	c.Params = gin.Params{{Key: "id", Value: "4"}}

	handler.SetStatus(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskHandlerSetStatusBadID(t *testing.T) {
	svc := service.NewTaskService(&fakeAssignmentLister{}, newFakeTaskStatusStore(), validator.New(), zap.NewNop())
	handler := NewTaskHandler(svc, service.NewMetricsService())

	rec := httptest.NewRecorder()
	c := taskContext(t, rec, http.MethodPut, "/tasks/abc/status", `{"status": "completed"}`)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.SetStatus(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
