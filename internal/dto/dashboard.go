package dto

import "github.com/eduplatform/gateway/internal/models"

// DashboardResponse aggregates everything the landing screen shows in one
// round trip: overall progress, per-status tallies, the most recent
// courses and the next tasks coming due.
type DashboardResponse struct {
	Progress      int                 `json:"progress"`
	Tally         TaskTally           `json:"tally"`
	RecentCourses []models.Course     `json:"recent_courses"`
	UpcomingTasks []TaskView          `json:"upcoming_tasks"`
	User          *models.UserProfile `json:"user,omitempty"`
}
