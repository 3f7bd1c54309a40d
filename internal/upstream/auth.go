package upstream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/eduplatform/gateway/internal/models"
)

// TokenPair is the backend token endpoint response.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RegisterPayload is the backend user creation payload.
type RegisterPayload struct {
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	Password  string          `json:"password"`
	FirstName string          `json:"first_name,omitempty"`
	LastName  string          `json:"last_name,omitempty"`
	Role      models.UserRole `json:"role"`
}

// AuthService wraps the token and user endpoints.
type AuthService struct {
	client *Client
}

// NewAuthService builds the auth domain service.
func NewAuthService(client *Client) *AuthService {
	return &AuthService{client: client}
}

// ObtainToken exchanges credentials for a token pair. Runs anonymously;
// a credential rejection carries the backend detail message through.
func (s *AuthService) ObtainToken(ctx context.Context, username, password string) (*TokenPair, error) {
	body, err := s.client.do(ctx, Anonymous, http.MethodPost, "/token/", nil, map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	var pair TokenPair
	if err := decodeObject(body, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// RefreshToken exchanges a refresh token for a new access token.
func (s *AuthService) RefreshToken(ctx context.Context, refresh string) (*TokenPair, error) {
	body, err := s.client.do(ctx, Anonymous, http.MethodPost, "/token/refresh/", nil, map[string]string{
		"refresh": refresh,
	})
	if err != nil {
		return nil, err
	}
	var pair TokenPair
	if err := decodeObject(body, &pair); err != nil {
		return nil, err
	}
	if pair.Refresh == "" {
		pair.Refresh = refresh
	}
	return &pair, nil
}

// Me resolves the authenticated profile via /users/me/.
func (s *AuthService) Me(ctx context.Context, auth Auth) (*models.UserProfile, error) {
	body, err := s.client.do(ctx, auth, http.MethodGet, "/users/me/", nil, nil)
	if err != nil {
		return nil, err
	}
	var profile models.UserProfile
	if err := decodeObject(body, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByUsername lists users and filters client side. Fallback path for
// backends without /users/me/.
func (s *AuthService) FindByUsername(ctx context.Context, auth Auth, username string) (*models.UserProfile, error) {
	body, err := s.client.do(ctx, auth, http.MethodGet, "/users/", nil, nil)
	if err != nil {
		return nil, err
	}
	var users []models.UserProfile
	if err := decodeList(body, &users); err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, nil
}

// Register creates a new account.
func (s *AuthService) Register(ctx context.Context, payload RegisterPayload) (*models.UserProfile, error) {
	if payload.Role == "" {
		payload.Role = models.RoleStudent
	}
	body, err := s.client.do(ctx, Anonymous, http.MethodPost, "/users/", nil, payload)
	if err != nil {
		return nil, err
	}
	var profile models.UserProfile
	if err := decodeObject(body, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile sends a partial update and returns the merged record the
// backend answers with.
func (s *AuthService) UpdateProfile(ctx context.Context, auth Auth, id int, patch map[string]interface{}) (*models.UserProfile, error) {
	body, err := s.client.do(ctx, auth, http.MethodPatch, fmt.Sprintf("/users/%d/", id), nil, patch)
	if err != nil {
		return nil, err
	}
	var profile models.UserProfile
	if err := decodeObject(body, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
