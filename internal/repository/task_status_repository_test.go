package repository

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduplatform/gateway/internal/models"
)

func TestHandleBroadcastIgnoresOwnOrigin(t *testing.T) {
	repo := NewTaskStatusRepository(nil, zap.NewNop())
	repo.local[5] = models.TaskStatusMap{1: models.TaskCompleted}

	payload, err := json.Marshal(taskChangedEvent{Origin: repo.instanceID, UserID: 5})
	require.NoError(t, err)
	repo.handleBroadcast(string(payload))

	assert.Contains(t, repo.local, 5, "own broadcast must not invalidate the local copy")
}

func TestHandleBroadcastInvalidatesForeignOrigin(t *testing.T) {
	repo := NewTaskStatusRepository(nil, zap.NewNop())
	repo.local[5] = models.TaskStatusMap{1: models.TaskCompleted}
	repo.local[6] = models.TaskStatusMap{2: models.TaskInProgress}

	payload, err := json.Marshal(taskChangedEvent{Origin: "other-instance", UserID: 5})
	require.NoError(t, err)
	repo.handleBroadcast(string(payload))

	assert.NotContains(t, repo.local, 5)
	assert.Contains(t, repo.local, 6, "only the broadcast user is invalidated")
}

func TestHandleBroadcastDropsMalformedPayload(t *testing.T) {
	repo := NewTaskStatusRepository(nil, zap.NewNop())
	repo.local[5] = models.TaskStatusMap{1: models.TaskCompleted}

	repo.handleBroadcast("not-json")

	assert.Contains(t, repo.local, 5)
}

func TestTaskStatusKey(t *testing.T) {
	assert.Equal(t, "taskstatus:42", taskStatusKey(42))
}

func TestCopyMapIsolation(t *testing.T) {
	original := models.TaskStatusMap{1: models.TaskPending}
	copied := copyMap(original)
	copied[1] = models.TaskCompleted

	assert.Equal(t, models.TaskPending, original[1])
}
