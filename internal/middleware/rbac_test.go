package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/eduplatform/gateway/internal/models"
)

func rbacRouter(claims *models.SessionClaims, allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextClaimsKey, claims)
		}
	})
	r.PATCH("/users/:id", RBAC(allowed...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRBACAllowsMatchingRole(t *testing.T) {
	r := rbacRouter(&models.SessionClaims{UserID: 1, Role: models.RoleAdmin}, string(models.RoleAdmin))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/users/2", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRBACRejectsOtherRole(t *testing.T) {
	r := rbacRouter(&models.SessionClaims{UserID: 1, Role: models.RoleStudent}, string(models.RoleAdmin))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/users/2", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRBACSelfMatchesOwnID(t *testing.T) {
	r := rbacRouter(&models.SessionClaims{UserID: 7, Role: models.RoleStudent}, Self, string(models.RoleAdmin))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/users/7", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/users/8", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRBACRejectsMissingClaims(t *testing.T) {
	r := rbacRouter(nil, string(models.RoleAdmin))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/users/1", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextClaimsKey, &models.SessionClaims{UserID: 1, Role: models.RoleLecturer})
	})
	r.POST("/courses", RequireRoles(models.RoleLecturer, models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/courses", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
}
