package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/eduplatform/gateway/internal/models"
	appErrors "github.com/eduplatform/gateway/pkg/errors"
)

const (
	sessionKeyPrefix      = "session:"
	profileChangedChannel = "events:profile"
)

// ProfileChangedEvent is broadcast after a profile update so anything
// holding a copy of the user (other gateway instances, live UI streams)
// can refresh without a full reload.
type ProfileChangedEvent struct {
	SessionID string              `json:"session_id"`
	UserID    int                 `json:"user_id"`
	User      *models.UserProfile `json:"user"`
}

// SessionRepository persists sessions in Redis. The session record is the
// single owner of the upstream token pair and the resolved profile.
type SessionRepository struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(client *redis.Client, logger *zap.Logger, ttl time.Duration) *SessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionRepository{client: client, logger: logger, ttl: ttl}
}

// Save writes the full session record.
func (r *SessionRepository) Save(ctx context.Context, session *models.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", session.ID, err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+session.ID, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session %s: %w", session.ID, err)
	}
	return nil
}

// Find loads a session by id. A missing record maps to ErrCacheMiss so the
// guard can distinguish "logged out" from a Redis failure.
func (r *SessionRepository) Find(ctx context.Context, id string) (*models.Session, error) {
	raw, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get session %s: %w", id, err)
	}

	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return &session, nil
}

// Delete removes the session record. Deleting an absent record is fine.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del session %s: %w", id, err)
	}
	return nil
}

// PublishProfileChanged broadcasts the updated profile.
func (r *SessionRepository) PublishProfileChanged(ctx context.Context, event ProfileChangedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal profile event: %w", err)
	}
	if err := r.client.Publish(ctx, profileChangedChannel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish profile event: %w", err)
	}
	return nil
}
