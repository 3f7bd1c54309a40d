package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduplatform/gateway/internal/middleware"
	"github.com/eduplatform/gateway/internal/models"
	"github.com/eduplatform/gateway/internal/repository"
	"github.com/eduplatform/gateway/internal/service"
	"github.com/eduplatform/gateway/internal/upstream"
	appErrors "github.com/eduplatform/gateway/pkg/errors"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type fakeUserAPI struct {
	tokenPair *upstream.TokenPair
	obtainErr error
	profile   *models.UserProfile
}

func (f *fakeUserAPI) ObtainToken(ctx context.Context, username, password string) (*upstream.TokenPair, error) {
	if f.obtainErr != nil {
		return nil, f.obtainErr
	}
	return f.tokenPair, nil
}

func (f *fakeUserAPI) Me(ctx context.Context, auth upstream.Auth) (*models.UserProfile, error) {
	return f.profile, nil
}

func (f *fakeUserAPI) FindByUsername(ctx context.Context, auth upstream.Auth, username string) (*models.UserProfile, error) {
	return f.profile, nil
}

func (f *fakeUserAPI) Register(ctx context.Context, payload upstream.RegisterPayload) (*models.UserProfile, error) {
	return &models.UserProfile{ID: 8, Username: payload.Username, Role: models.RoleStudent}, nil
}

func (f *fakeUserAPI) UpdateProfile(ctx context.Context, auth upstream.Auth, id int, patch map[string]interface{}) (*models.UserProfile, error) {
	return f.profile, nil
}

type fakeSessionStore struct {
	sessions map[string]*models.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*models.Session)}
}

func (f *fakeSessionStore) Save(ctx context.Context, session *models.Session) error {
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionStore) Find(ctx context.Context, id string) (*models.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	return session, nil
}

func (f *fakeSessionStore) Delete(ctx context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionStore) PublishProfileChanged(ctx context.Context, event repository.ProfileChangedEvent) error {
	return nil
}

type fakeTaskClearer struct {
	cleared []int
}

func (f *fakeTaskClearer) Clear(ctx context.Context, userID int) error {
	f.cleared = append(f.cleared, userID)
	return nil
}

func newAuthFixture(users *fakeUserAPI) (*service.AuthService, *fakeSessionStore, *fakeTaskClearer) {
	store := newFakeSessionStore()
	tasks := &fakeTaskClearer{}
	svc := service.NewAuthService(users, store, tasks, validator.New(), zap.NewNop(), service.SessionConfig{
		Secret: "secret",
		TTL:    time.Hour,
		Issuer: "gateway",
	})
	return svc, store, tasks
}

func TestAuthHandlerLoginSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	users := &fakeUserAPI{
		tokenPair: &upstream.TokenPair{Access: "access", Refresh: "refresh"},
		profile:   &models.UserProfile{ID: 3, Username: "alice", Role: models.RoleStudent},
	}
	svc, _, _ := newAuthFixture(users)
	handler := NewAuthHandler(svc, service.NewMetricsService())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	body := bytes.NewBufferString(`{"username": "alice", "password": "password"}`)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", body)
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var res struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &res))
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "alice", res.User.Username)
}

func TestAuthHandlerLoginMissingFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _, _ := newAuthFixture(&fakeUserAPI{})
	handler := NewAuthHandler(svc, service.NewMetricsService())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username": "alice"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlerLoginBadCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _, _ := newAuthFixture(&fakeUserAPI{obtainErr: appErrors.ErrInvalidCredentials})
	handler := NewAuthHandler(svc, service.NewMetricsService())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username": "alice", "password": "wrong"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "invalid username or password", envelope.Error.Message)
}

func TestAuthHandlerMe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _, _ := newAuthFixture(&fakeUserAPI{})
	handler := NewAuthHandler(svc, service.NewMetricsService())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextSessionKey, &models.Session{
		ID:          "s1",
		AccessToken: "access",
		User:        &models.UserProfile{ID: 3, Username: "alice"},
	})

	handler.Me(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var profile models.UserProfile
	require.NoError(t, json.Unmarshal(envelope.Data, &profile))
	assert.Equal(t, "alice", profile.Username)
}

func TestAuthHandlerLogoutWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _, _ := newAuthFixture(&fakeUserAPI{})
	handler := NewAuthHandler(svc, service.NewMetricsService())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)

	handler.Logout(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerLogoutClearsTasks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, store, tasks := newAuthFixture(&fakeUserAPI{})
	store.sessions["s1"] = &models.Session{ID: "s1", AccessToken: "access"}
	handler := NewAuthHandler(svc, service.NewMetricsService())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	c.Set(middleware.ContextClaimsKey, &models.SessionClaims{SessionID: "s1", UserID: 3})

	handler.Logout(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store.sessions)
	assert.Equal(t, []int{3}, tasks.cleared)
}

func TestAuthHandlerRegister(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _, _ := newAuthFixture(&fakeUserAPI{})
	handler := NewAuthHandler(svc, service.NewMetricsService())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	body := bytes.NewBufferString(`{"username": "bob", "email": "bob@example.com", "password": "secret123"}`)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/register", body)
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Register(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var profile models.UserProfile
	require.NoError(t, json.Unmarshal(envelope.Data, &profile))
	assert.Equal(t, models.RoleStudent, profile.Role)
}
