package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/eduplatform/gateway/internal/models"
)

// CoursePayload is the create/update body for courses.
type CoursePayload struct {
	Name          string `json:"name,omitempty"`
	Code          string `json:"code,omitempty"`
	Description   string `json:"description,omitempty"`
	Lecturer      int    `json:"lecturer,omitempty"`
	DurationWeeks int    `json:"duration_weeks,omitempty"`
}

// CourseService wraps the course, enrollment and material endpoints.
type CourseService struct {
	client *Client
}

// NewCourseService builds the course domain service.
func NewCourseService(client *Client) *CourseService {
	return &CourseService{client: client}
}

// GetAll lists courses, passing the enrolled/search filters through.
func (s *CourseService) GetAll(ctx context.Context, auth Auth, filter models.CourseFilter) ([]models.Course, error) {
	query := url.Values{}
	if filter.Enrolled {
		query.Set("enrolled", "true")
	}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}

	body, err := s.client.do(ctx, auth, http.MethodGet, "/courses/", query, nil)
	if err != nil {
		return nil, err
	}
	var courses []models.Course
	if err := decodeList(body, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// GetByID fetches one course.
func (s *CourseService) GetByID(ctx context.Context, auth Auth, id int) (*models.Course, error) {
	body, err := s.client.do(ctx, auth, http.MethodGet, fmt.Sprintf("/courses/%d/", id), nil, nil)
	if err != nil {
		return nil, err
	}
	var course models.Course
	if err := decodeObject(body, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create registers a new course (lecturer/admin only, enforced upstream
// and by the gateway's RBAC layer).
func (s *CourseService) Create(ctx context.Context, auth Auth, payload CoursePayload) (*models.Course, error) {
	body, err := s.client.do(ctx, auth, http.MethodPost, "/courses/", nil, payload)
	if err != nil {
		return nil, err
	}
	var course models.Course
	if err := decodeObject(body, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// Update patches a course.
func (s *CourseService) Update(ctx context.Context, auth Auth, id int, payload CoursePayload) (*models.Course, error) {
	body, err := s.client.do(ctx, auth, http.MethodPatch, fmt.Sprintf("/courses/%d/", id), nil, payload)
	if err != nil {
		return nil, err
	}
	var course models.Course
	if err := decodeObject(body, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// Delete removes a course.
func (s *CourseService) Delete(ctx context.Context, auth Auth, id int) error {
	_, err := s.client.do(ctx, auth, http.MethodDelete, fmt.Sprintf("/courses/%d/", id), nil, nil)
	return err
}

// Enroll performs self-enrollment. Enrolling twice surfaces the backend
// rejection message rather than silently succeeding.
func (s *CourseService) Enroll(ctx context.Context, auth Auth, courseID int) error {
	_, err := s.client.do(ctx, auth, http.MethodPost, fmt.Sprintf("/courses/%d/enroll/", courseID), nil, nil)
	return err
}

// EnrollStudent is the admin/lecturer path creating an enrollment record
// for a specific student.
func (s *CourseService) EnrollStudent(ctx context.Context, auth Auth, courseID, studentID int) (*models.Enrollment, error) {
	payload := map[string]int{"course": courseID}
	if studentID != 0 {
		payload["student"] = studentID
	}
	body, err := s.client.do(ctx, auth, http.MethodPost, "/enrollments/", nil, payload)
	if err != nil {
		return nil, err
	}
	var enrollment models.Enrollment
	if err := decodeObject(body, &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Enrollments lists enrollment records visible to the caller.
func (s *CourseService) Enrollments(ctx context.Context, auth Auth) ([]models.Enrollment, error) {
	body, err := s.client.do(ctx, auth, http.MethodGet, "/enrollments/", nil, nil)
	if err != nil {
		return nil, err
	}
	var enrollments []models.Enrollment
	if err := decodeList(body, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// Materials lists the learning resources attached to a course.
func (s *CourseService) Materials(ctx context.Context, auth Auth, courseID int) ([]models.Material, error) {
	query := url.Values{}
	query.Set("course", strconv.Itoa(courseID))

	body, err := s.client.do(ctx, auth, http.MethodGet, "/materials/", query, nil)
	if err != nil {
		return nil, err
	}
	var materials []models.Material
	if err := decodeList(body, &materials); err != nil {
		return nil, err
	}
	return materials, nil
}
