package upstream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/eduplatform/gateway/internal/models"
)

// ReportPayload is the create/update body for weekly progress reports.
type ReportPayload struct {
	Title              string `json:"title,omitempty"`
	Content            string `json:"content,omitempty"`
	WeekNumber         int    `json:"week_number,omitempty"`
	ProgressPercentage int    `json:"progress_percentage,omitempty"`
}

// ReportService wraps the report endpoints.
type ReportService struct {
	client *Client
}

// NewReportService builds the report domain service.
func NewReportService(client *Client) *ReportService {
	return &ReportService{client: client}
}

// GetAll lists reports visible to the caller.
func (s *ReportService) GetAll(ctx context.Context, auth Auth) ([]models.Report, error) {
	body, err := s.client.do(ctx, auth, http.MethodGet, "/reports/", nil, nil)
	if err != nil {
		return nil, err
	}
	var reports []models.Report
	if err := decodeList(body, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// Create adds a new weekly report.
func (s *ReportService) Create(ctx context.Context, auth Auth, payload ReportPayload) (*models.Report, error) {
	body, err := s.client.do(ctx, auth, http.MethodPost, "/reports/", nil, payload)
	if err != nil {
		return nil, err
	}
	var report models.Report
	if err := decodeObject(body, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Update patches a report.
func (s *ReportService) Update(ctx context.Context, auth Auth, id int, payload ReportPayload) (*models.Report, error) {
	body, err := s.client.do(ctx, auth, http.MethodPatch, fmt.Sprintf("/reports/%d/", id), nil, payload)
	if err != nil {
		return nil, err
	}
	var report models.Report
	if err := decodeObject(body, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Delete removes a report.
func (s *ReportService) Delete(ctx context.Context, auth Auth, id int) error {
	_, err := s.client.do(ctx, auth, http.MethodDelete, fmt.Sprintf("/reports/%d/", id), nil, nil)
	return err
}
