package dto

import "github.com/eduplatform/gateway/internal/models"

// TaskView is an assignment merged with its locally simulated status.
type TaskView struct {
	models.Assignment
	Status models.TaskStatus `json:"status"`
}

// SetTaskStatusRequest updates the simulated status of one assignment.
type SetTaskStatusRequest struct {
	Status models.TaskStatus `json:"status" validate:"required,oneof=pending in-progress completed"`
}

// TaskTally counts tasks per status for the stat cards.
type TaskTally struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}
