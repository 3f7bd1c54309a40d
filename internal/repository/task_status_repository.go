package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/eduplatform/gateway/internal/models"
)

const (
	taskStatusKeyPrefix = "taskstatus:"
	taskChangedChannel  = "events:tasks"
)

// taskChangedEvent notifies other gateway instances that a user's status
// map changed. Origin identifies the writer: the instance that wrote
// never reacts to its own broadcast, it already updated its in-memory
// copy at write time.
type taskChangedEvent struct {
	Origin string `json:"origin"`
	UserID int    `json:"user_id"`
}

// TaskStatusRepository persists the per-user task-status maps. Each map is
// written back whole on every change: concurrent writers race and the last
// write lands, silently overwriting the other. There is no merge and no
// conflict resolution, matching the product behaviour this simulates.
type TaskStatusRepository struct {
	client     *redis.Client
	logger     *zap.Logger
	instanceID string

	mu    sync.RWMutex
	local map[int]models.TaskStatusMap

	cancel context.CancelFunc
	done   chan struct{}
}

// NewTaskStatusRepository constructs the repository with a fresh instance
// identity for broadcast origin tracking.
func NewTaskStatusRepository(client *redis.Client, logger *zap.Logger) *TaskStatusRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskStatusRepository{
		client:     client,
		logger:     logger,
		instanceID: uuid.NewString(),
		local:      make(map[int]models.TaskStatusMap),
	}
}

// Get returns the user's status map, loading it from Redis on first use.
// Callers receive a copy; mutations go through Set.
func (r *TaskStatusRepository) Get(ctx context.Context, userID int) (models.TaskStatusMap, error) {
	r.mu.RLock()
	cached, ok := r.local[userID]
	r.mu.RUnlock()
	if ok {
		return copyMap(cached), nil
	}

	loaded, err := r.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.local[userID] = loaded
	r.mu.Unlock()

	return copyMap(loaded), nil
}

// Set updates one entry and writes the full map back. The in-memory copy
// is updated before the broadcast because the writer will not receive its
// own notification.
func (r *TaskStatusRepository) Set(ctx context.Context, userID, taskID int, status models.TaskStatus) error {
	r.mu.Lock()
	statuses, ok := r.local[userID]
	if !ok {
		loaded, err := r.load(ctx, userID)
		if err != nil {
			r.mu.Unlock()
			return err
		}
		statuses = loaded
	}
	statuses[taskID] = status
	r.local[userID] = statuses
	snapshot := copyMap(statuses)
	r.mu.Unlock()

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal task statuses for user %d: %w", userID, err)
	}
	if err := r.client.Set(ctx, taskStatusKey(userID), payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set task statuses for user %d: %w", userID, err)
	}

	r.broadcast(ctx, userID)
	return nil
}

// Clear drops the user's map entirely. Logout path: the next login starts
// with an empty map even for the same user.
func (r *TaskStatusRepository) Clear(ctx context.Context, userID int) error {
	r.mu.Lock()
	delete(r.local, userID)
	r.mu.Unlock()

	if err := r.client.Del(ctx, taskStatusKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del task statuses for user %d: %w", userID, err)
	}

	r.broadcast(ctx, userID)
	return nil
}

// Start launches the cross-instance subscriber. Broadcasts from this
// instance are ignored; everything else invalidates the local copy so the
// next Get reloads from Redis.
func (r *TaskStatusRepository) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	sub := r.client.Subscribe(ctx, taskChangedChannel)
	go func() {
		defer close(r.done)
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				r.handleBroadcast(msg.Payload)
			}
		}
	}()
}

// Stop terminates the subscriber and waits for it to drain.
func (r *TaskStatusRepository) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}

func (r *TaskStatusRepository) handleBroadcast(payload string) {
	var event taskChangedEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		r.logger.Warn("dropping malformed task broadcast", zap.Error(err))
		return
	}
	if event.Origin == r.instanceID {
		return
	}

	r.mu.Lock()
	delete(r.local, event.UserID)
	r.mu.Unlock()
}

func (r *TaskStatusRepository) broadcast(ctx context.Context, userID int) {
	payload, err := json.Marshal(taskChangedEvent{Origin: r.instanceID, UserID: userID})
	if err != nil {
		return
	}
	if err := r.client.Publish(ctx, taskChangedChannel, payload).Err(); err != nil {
		r.logger.Warn("task broadcast failed", zap.Int("user_id", userID), zap.Error(err))
	}
}

func (r *TaskStatusRepository) load(ctx context.Context, userID int) (models.TaskStatusMap, error) {
	raw, err := r.client.Get(ctx, taskStatusKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return models.TaskStatusMap{}, nil
		}
		return nil, fmt.Errorf("redis get task statuses for user %d: %w", userID, err)
	}

	var statuses models.TaskStatusMap
	if err := json.Unmarshal(raw, &statuses); err != nil {
		return nil, fmt.Errorf("unmarshal task statuses for user %d: %w", userID, err)
	}
	if statuses == nil {
		statuses = models.TaskStatusMap{}
	}
	return statuses, nil
}

func taskStatusKey(userID int) string {
	return fmt.Sprintf("%s%d", taskStatusKeyPrefix, userID)
}

func copyMap(in models.TaskStatusMap) models.TaskStatusMap {
	out := make(models.TaskStatusMap, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
