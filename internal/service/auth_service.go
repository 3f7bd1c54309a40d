package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eduplatform/gateway/internal/dto"
	"github.com/eduplatform/gateway/internal/models"
	"github.com/eduplatform/gateway/internal/repository"
	"github.com/eduplatform/gateway/internal/upstream"
	appErrors "github.com/eduplatform/gateway/pkg/errors"
)

// userAPI is the slice of the upstream surface the session layer needs.
type userAPI interface {
	ObtainToken(ctx context.Context, username, password string) (*upstream.TokenPair, error)
	Me(ctx context.Context, auth upstream.Auth) (*models.UserProfile, error)
	FindByUsername(ctx context.Context, auth upstream.Auth, username string) (*models.UserProfile, error)
	Register(ctx context.Context, payload upstream.RegisterPayload) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, auth upstream.Auth, id int, patch map[string]interface{}) (*models.UserProfile, error)
}

// sessionStore abstracts session persistence.
type sessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	Find(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	PublishProfileChanged(ctx context.Context, event repository.ProfileChangedEvent) error
}

// taskClearer wipes the simulated task statuses on logout.
type taskClearer interface {
	Clear(ctx context.Context, userID int) error
}

// SessionConfig defines gateway session token behaviour.
type SessionConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// AuthService owns the session lifecycle: it is the injectable replacement
// for the ambient browser-storage access the product relied on. Init is
// construction, teardown is Logout or the centralized 401 invalidation.
type AuthService struct {
	users     userAPI
	sessions  sessionStore
	tasks     taskClearer
	validator *validator.Validate
	logger    *zap.Logger
	config    SessionConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users userAPI, sessions sessionStore, tasks taskClearer, validate *validator.Validate, logger *zap.Logger, config SessionConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{users: users, sessions: sessions, tasks: tasks, validator: validate, logger: logger, config: config}
}

// Login exchanges credentials for an upstream token pair, resolves the
// profile, persists the session and mints the gateway session token.
//
// The profile fetch is best effort: a failure there must not block a login
// that already obtained valid tokens, so the error is swallowed and a
// fallback profile is stored instead. That profile may show the wrong role
// until the next login; the product behaved the same way.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	pair, err := s.users.ObtainToken(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	auth := upstream.Auth{SessionID: sessionID, AccessToken: pair.Access}

	profile := s.resolveProfile(ctx, auth, req.Username)

	session := &models.Session{
		ID:           sessionID,
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
		User:         profile,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}

	token, err := s.mintToken(session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session token")
	}

	return &dto.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.config.TTL.Seconds()),
		User:      profile,
	}, nil
}

// resolveProfile tries /users/me/ first and falls back to listing users
// and matching the submitted username. Any failure degrades to the
// fallback profile.
func (s *AuthService) resolveProfile(ctx context.Context, auth upstream.Auth, username string) *models.UserProfile {
	profile, err := s.users.Me(ctx, auth)
	if err == nil && profile != nil {
		return profile
	}
	if err != nil {
		s.logger.Warn("profile fetch via /users/me/ failed", zap.String("username", username), zap.Error(err))
	}

	profile, err = s.users.FindByUsername(ctx, auth, username)
	if err == nil && profile != nil {
		return profile
	}
	if err != nil {
		s.logger.Warn("profile fetch via /users/ failed", zap.String("username", username), zap.Error(err))
	}

	return models.FallbackProfile(username)
}

// Register creates a backend account, defaulting the role to student.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*models.UserProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	return s.users.Register(ctx, upstream.RegisterPayload{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      models.UserRole(req.Role),
	})
}

// Logout tears the session down and wipes the user's simulated task
// statuses. No confirmation step and idempotent: logging out twice is not
// an error.
func (s *AuthService) Logout(ctx context.Context, claims *models.SessionClaims) error {
	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	if err := s.tasks.Clear(ctx, claims.UserID); err != nil {
		s.logger.Warn("failed to clear task statuses on logout", zap.Int("user_id", claims.UserID), zap.Error(err))
	}
	return nil
}

// Current returns the cached profile for the session, nil when the fetch
// after login failed and even the fallback was lost.
func (s *AuthService) Current(ctx context.Context, sessionID string) (*models.UserProfile, error) {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.User, nil
}

// Session loads the stored session record for a validated token.
func (s *AuthService) Session(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.ErrSessionExpired
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// Authenticated reports whether the session exists and holds an access
// token. Token presence is the entire check.
func (s *AuthService) Authenticated(ctx context.Context, sessionID string) bool {
	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		return false
	}
	return session.Authenticated()
}

// UpdateProfile patches the backend record. When the caller edits their
// own profile the response is merged into the stored session and broadcast
// so dependent views refresh without a reload; admin edits of other users
// leave the caller's session untouched.
func (s *AuthService) UpdateProfile(ctx context.Context, claims *models.SessionClaims, targetID int, req dto.UpdateProfileRequest) (*models.UserProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	session, err := s.Session(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}

	patch := map[string]interface{}{}
	if req.Email != "" {
		patch["email"] = req.Email
	}
	if req.FirstName != "" {
		patch["first_name"] = req.FirstName
	}
	if req.LastName != "" {
		patch["last_name"] = req.LastName
	}
	if req.Bio != "" {
		patch["bio"] = req.Bio
	}
	if req.Password != "" {
		patch["password"] = req.Password
	}

	auth := upstream.Auth{SessionID: session.ID, AccessToken: session.AccessToken}
	updated, err := s.users.UpdateProfile(ctx, auth, targetID, patch)
	if err != nil {
		return nil, err
	}

	// An admin patching somebody else must not have the target's profile
	// merged into their own session.
	if targetID != claims.UserID {
		return updated, nil
	}

	if session.User == nil {
		session.User = updated
	} else {
		session.User.Merge(*updated)
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist profile")
	}

	if err := s.sessions.PublishProfileChanged(ctx, repository.ProfileChangedEvent{
		SessionID: session.ID,
		UserID:    session.User.ID,
		User:      session.User,
	}); err != nil {
		s.logger.Warn("profile change broadcast failed", zap.Error(err))
	}

	return session.User, nil
}

// InvalidateSession is the centralized 401 handler: whatever endpoint
// observed the rejection, the session is gone afterwards and the guard
// answers uniformly on the next request.
func (s *AuthService) InvalidateSession(ctx context.Context, sessionID string) {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("session invalidation failed", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	s.logger.Info("session invalidated after upstream 401", zap.String("session_id", sessionID))
}

// ValidateToken parses and validates a gateway session token.
func (s *AuthService) ValidateToken(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session token")
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session claims")
	}

	return claims, nil
}

func (s *AuthService) mintToken(session *models.Session) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.SessionClaims{
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   session.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	if session.User != nil {
		claims.UserID = session.User.ID
		claims.Username = session.User.Username
		claims.Role = session.User.Role
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}
