package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session holds the upstream token pair and the resolved user profile for
// one authenticated client. It lives in Redis from login until logout or
// TTL expiry; the gateway never inspects the upstream tokens beyond
// presence.
type Session struct {
	ID           string       `json:"id"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *UserProfile `json:"user,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Authenticated reports whether the session counts as logged in. Presence
// of the access token is the whole check; no signature or expiry
// validation happens on the gateway side.
func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != ""
}

// SessionClaims is the payload of gateway-issued session tokens.
type SessionClaims struct {
	SessionID string   `json:"session_id"`
	UserID    int      `json:"user_id"`
	Username  string   `json:"username"`
	Role      UserRole `json:"role"`
	jwt.RegisteredClaims
}
