package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eduplatform/gateway/internal/models"
	"github.com/eduplatform/gateway/internal/service"
	"github.com/eduplatform/gateway/internal/upstream"
	appErrors "github.com/eduplatform/gateway/pkg/errors"
	"github.com/eduplatform/gateway/pkg/middleware/requestid"
	"github.com/eduplatform/gateway/pkg/response"
)

const (
	// ContextClaimsKey stores the validated session claims.
	ContextClaimsKey = "sessionClaims"
	// ContextSessionKey stores the loaded session record.
	ContextSessionKey = "session"
)

// SessionGuard is the route guard: two states only. No session token, an
// invalid one, or a deleted session record all reject with 401;
// otherwise the nested routes render. The session record (and with it
// the upstream access token) is loaded once here so handlers read it
// synchronously from the context.
func SessionGuard(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		session, err := authService.Session(c.Request.Context(), claims.SessionID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if !session.Authenticated() {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// ClaimsFrom returns the validated claims stored by the guard.
func ClaimsFrom(c *gin.Context) *models.SessionClaims {
	value, exists := c.Get(ContextClaimsKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}

// SessionFrom returns the session record stored by the guard.
func SessionFrom(c *gin.Context) *models.Session {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	session, ok := value.(*models.Session)
	if !ok {
		return nil
	}
	return session
}

// UpstreamAuth builds the upstream credentials for the current request,
// carrying the request id through for correlation.
func UpstreamAuth(c *gin.Context) (upstream.Auth, bool) {
	session := SessionFrom(c)
	if session == nil {
		return upstream.Auth{}, false
	}
	return upstream.Auth{SessionID: session.ID, AccessToken: session.AccessToken}, true
}

// UpstreamContext derives the context for upstream calls, carrying the
// inbound request id so backend round trips stay correlated.
func UpstreamContext(c *gin.Context) context.Context {
	return upstream.WithRequestID(c.Request.Context(), requestid.Value(c))
}
