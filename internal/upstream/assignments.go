package upstream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/eduplatform/gateway/internal/models"
)

// AssignmentPayload is the create/update body for assignments.
type AssignmentPayload struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	Course      int    `json:"course,omitempty"`
}

// AssignmentService wraps the assignment endpoints.
type AssignmentService struct {
	client *Client
}

// NewAssignmentService builds the assignment domain service.
func NewAssignmentService(client *Client) *AssignmentService {
	return &AssignmentService{client: client}
}

// GetAll lists every assignment visible to the caller.
func (s *AssignmentService) GetAll(ctx context.Context, auth Auth) ([]models.Assignment, error) {
	body, err := s.client.do(ctx, auth, http.MethodGet, "/assignments/", nil, nil)
	if err != nil {
		return nil, err
	}
	var assignments []models.Assignment
	if err := decodeList(body, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// GetByID fetches one assignment.
func (s *AssignmentService) GetByID(ctx context.Context, auth Auth, id int) (*models.Assignment, error) {
	body, err := s.client.do(ctx, auth, http.MethodGet, fmt.Sprintf("/assignments/%d/", id), nil, nil)
	if err != nil {
		return nil, err
	}
	var assignment models.Assignment
	if err := decodeObject(body, &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Create adds an assignment to a course.
func (s *AssignmentService) Create(ctx context.Context, auth Auth, payload AssignmentPayload) (*models.Assignment, error) {
	body, err := s.client.do(ctx, auth, http.MethodPost, "/assignments/", nil, payload)
	if err != nil {
		return nil, err
	}
	var assignment models.Assignment
	if err := decodeObject(body, &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Update patches an assignment.
func (s *AssignmentService) Update(ctx context.Context, auth Auth, id int, payload AssignmentPayload) (*models.Assignment, error) {
	body, err := s.client.do(ctx, auth, http.MethodPatch, fmt.Sprintf("/assignments/%d/", id), nil, payload)
	if err != nil {
		return nil, err
	}
	var assignment models.Assignment
	if err := decodeObject(body, &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Delete removes an assignment.
func (s *AssignmentService) Delete(ctx context.Context, auth Auth, id int) error {
	_, err := s.client.do(ctx, auth, http.MethodDelete, fmt.Sprintf("/assignments/%d/", id), nil, nil)
	return err
}
