package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eduplatform/gateway/internal/dto"
	"github.com/eduplatform/gateway/internal/middleware"
	"github.com/eduplatform/gateway/internal/models"
	"github.com/eduplatform/gateway/internal/upstream"
	appErrors "github.com/eduplatform/gateway/pkg/errors"
	"github.com/eduplatform/gateway/pkg/response"
)

// CourseHandler proxies course, enrollment and material endpoints.
type CourseHandler struct {
	service *upstream.CourseService
}

// NewCourseHandler creates a new handler.
func NewCourseHandler(svc *upstream.CourseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// List godoc
// @Summary List courses
// @Description List courses, optionally filtered to the caller's enrollments
// @Tags Courses
// @Produce json
// @Param enrolled query bool false "Only enrolled courses"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	auth, ok := middleware.UpstreamAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.CourseFilter{
		Enrolled: c.Query("enrolled") == "true",
		Search:   c.Query("search"),
	}

	courses, err := h.service.GetAll(middleware.UpstreamContext(c), auth, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, courses)
}

// Get returns a single course by id.
func (h *CourseHandler) Get(c *gin.Context) {
	auth, ok := middleware.UpstreamAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course id"))
		return
	}

	course, err := h.service.GetByID(middleware.UpstreamContext(c), auth, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, course)
}

// Create creates a course on the backend.
func (h *CourseHandler) Create(c *gin.Context) {
	auth, ok := middleware.UpstreamAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload upstream.CoursePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}

	course, err := h.service.Create(middleware.UpstreamContext(c), auth, payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, course)
}

// Update updates a course on the backend.
func (h *CourseHandler) Update(c *gin.Context) {
	auth, ok := middleware.UpstreamAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course id"))
		return
	}

	var payload upstream.CoursePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}

	course, err := h.service.Update(middleware.UpstreamContext(c), auth, id, payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, course)
}

// Delete removes a course on the backend.
func (h *CourseHandler) Delete(c *gin.Context) {
	auth, ok := middleware.UpstreamAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course id"))
		return
	}

	if err := h.service.Delete(middleware.UpstreamContext(c), auth, id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Enroll godoc
// @Summary Enroll in a course
// @Description Enroll the authenticated student in the given course
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope "Already enrolled"
// @Router /courses/{id}/enroll [post]
func (h *CourseHandler) Enroll(c *gin.Context) {
	auth, ok := middleware.UpstreamAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course id"))
		return
	}

	if err := h.service.Enroll(middleware.UpstreamContext(c), auth, id); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"enrolled": true, "course": id})
}

// EnrollStudent enrolls a named student, for lecturer and admin use.
func (h *CourseHandler) EnrollStudent(c *gin.Context) {
	auth, ok := middleware.UpstreamAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}
	if req.Course == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "course is required"))
		return
	}

	enrollment, err := h.service.EnrollStudent(middleware.UpstreamContext(c), auth, req.Course, req.Student)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, enrollment)
}

// Enrollments lists the enrollments visible to the caller.
func (h *CourseHandler) Enrollments(c *gin.Context) {
	auth, ok := middleware.UpstreamAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	enrollments, err := h.service.Enrollments(middleware.UpstreamContext(c), auth)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enrollments)
}

// Materials lists the materials attached to a course.
func (h *CourseHandler) Materials(c *gin.Context) {
	auth, ok := middleware.UpstreamAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course id"))
		return
	}

	materials, err := h.service.Materials(middleware.UpstreamContext(c), auth, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, materials)
}

// MaterialsByCourse lists materials filtered by the course query parameter.
func (h *CourseHandler) MaterialsByCourse(c *gin.Context) {
	auth, ok := middleware.UpstreamAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.Atoi(c.Query("course"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course id"))
		return
	}

	materials, err := h.service.Materials(middleware.UpstreamContext(c), auth, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, materials)
}
