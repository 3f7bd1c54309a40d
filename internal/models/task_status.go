package models

// TaskStatus is the locally simulated completion state of an assignment.
// It has no backend counterpart: the map lives only in the gateway's store
// and can diverge from real submission state.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
)

// Valid reports whether the status is one of the three known states.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

// TaskStatusMap maps assignment id to status. A missing entry means
// pending.
type TaskStatusMap map[int]TaskStatus

// Get returns the stored status, defaulting to pending.
func (m TaskStatusMap) Get(taskID int) TaskStatus {
	if s, ok := m[taskID]; ok {
		return s
	}
	return TaskPending
}
