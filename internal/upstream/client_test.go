package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduplatform/gateway/internal/models"
	"github.com/eduplatform/gateway/pkg/config"
	appErrors "github.com/eduplatform/gateway/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := New(config.UpstreamConfig{BaseURL: server.URL, Timeout: 2 * time.Second}, zap.NewNop())
	return client, server
}

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth, gotRequestID string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`[]`)) //nolint:errcheck
	}))

	svc := NewCourseService(client)
	ctx := WithRequestID(context.Background(), "req-1")
	_, err := svc.GetAll(ctx, Auth{SessionID: "s1", AccessToken: "token123"}, models.CourseFilter{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer token123", gotAuth)
	assert.Equal(t, "req-1", gotRequestID)
}

func TestClientListNormalizationBareArray(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": 1, "name": "Algebra"}, {"id": 2, "name": "Biology"}]`)) //nolint:errcheck
	}))

	courses, err := NewCourseService(client).GetAll(context.Background(), Auth{AccessToken: "t"}, models.CourseFilter{})
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Algebra", courses[0].Name)
}

func TestClientListNormalizationEnvelope(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count": 2, "next": null, "previous": null, "results": [{"id": 1, "name": "Algebra"}, {"id": 2, "name": "Biology"}]}`)) //nolint:errcheck
	}))

	courses, err := NewCourseService(client).GetAll(context.Background(), Auth{AccessToken: "t"}, models.CourseFilter{})
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Biology", courses[1].Name)
}

func TestClientListEnvelopeWithoutResults(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count": 0}`)) //nolint:errcheck
	}))

	courses, err := NewCourseService(client).GetAll(context.Background(), Auth{AccessToken: "t"}, models.CourseFilter{})
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestClientEnrollConflictDetailVerbatim(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": "You are already enrolled in this course."}`)) //nolint:errcheck
	}))

	err := NewCourseService(client).Enroll(context.Background(), Auth{SessionID: "s1", AccessToken: "t"}, 3)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "You are already enrolled in this course.", appErr.Message)
}

func TestClientFieldValidationDetail(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"username": ["A user with that username already exists."]}`)) //nolint:errcheck
	}))

	_, err := NewAuthService(client).Register(context.Background(), RegisterPayload{Username: "taken", Email: "a@b.c", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, "username: A user with that username already exists.", appErrors.FromError(err).Message)
}

func TestClientMultiFieldValidationDetailIsDeterministic(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"username": ["This field is required."], "email": ["Enter a valid email address."]}`)) //nolint:errcheck
	}))

	for i := 0; i < 5; i++ {
		_, err := NewAuthService(client).Register(context.Background(), RegisterPayload{Password: "x"})
		require.Error(t, err)
		assert.Equal(t, "email: Enter a valid email address.", appErrors.FromError(err).Message)
	}
}

func TestClientUnauthorizedInvalidatesSession(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Given token not valid for any token type"}`)) //nolint:errcheck
	}))

	var invalidated []string
	client.SetInvalidation(func(ctx context.Context, sessionID string) {
		invalidated = append(invalidated, sessionID)
	})

	_, err := NewAssignmentService(client).GetAll(context.Background(), Auth{SessionID: "s1", AccessToken: "stale"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrSessionExpired.Code, appErr.Code)
	assert.Equal(t, []string{"s1"}, invalidated)
}

func TestClientAnonymousUnauthorizedIsCredentialError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "No active account found with the given credentials"}`)) //nolint:errcheck
	}))

	var invalidated bool
	client.SetInvalidation(func(ctx context.Context, sessionID string) { invalidated = true })

	_, err := NewAuthService(client).ObtainToken(context.Background(), "alice", "wrong")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
	assert.Equal(t, "No active account found with the given credentials", appErr.Message)
	assert.False(t, invalidated)
}

func TestRefreshTokenKeepsRefreshWhenNotRotated(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access": "new-access"}`)) //nolint:errcheck
	}))

	pair, err := NewAuthService(client).RefreshToken(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "new-access", pair.Access)
	assert.Equal(t, "refresh-1", pair.Refresh)
}

func TestClientUnreachable(t *testing.T) {
	client := New(config.UpstreamConfig{BaseURL: "http://127.0.0.1:1", Timeout: 500 * time.Millisecond}, zap.NewNop())

	_, err := NewCourseService(client).GetAll(context.Background(), Auth{AccessToken: "t"}, models.CourseFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnreachable.Code, appErrors.FromError(err).Code)
}

func TestClientNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail": "Not found."}`)) //nolint:errcheck
	}))

	_, err := NewCourseService(client).GetByID(context.Background(), Auth{AccessToken: "t"}, 99)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "Not found.", appErr.Message)
}

func TestClientCourseFilterQuery(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`)) //nolint:errcheck
	}))

	_, err := NewCourseService(client).GetAll(context.Background(), Auth{AccessToken: "t"}, models.CourseFilter{Enrolled: true, Search: "algebra"})
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "enrolled=true")
	assert.Contains(t, gotQuery, "search=algebra")
}

func TestObserverSeesStatusAndPath(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail": "forbidden"}`)) //nolint:errcheck
	}))

	type observation struct {
		method string
		path   string
		status int
	}
	var seen []observation
	client.SetObserver(observerFunc(func(method, path string, status int, _ time.Duration) {
		seen = append(seen, observation{method, path, status})
	}))

	_, err := NewReportService(client).GetAll(context.Background(), Auth{SessionID: "s1", AccessToken: "t"})
	require.Error(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, http.MethodGet, seen[0].method)
	assert.Equal(t, "/reports/", seen[0].path)
	assert.Equal(t, http.StatusForbidden, seen[0].status)
}

type observerFunc func(method, path string, status int, duration time.Duration)

func (f observerFunc) ObserveUpstreamRequest(method, path string, status int, duration time.Duration) {
	f(method, path, status, duration)
}
