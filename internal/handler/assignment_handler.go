package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eduplatform/gateway/internal/middleware"
	"github.com/eduplatform/gateway/internal/upstream"
	appErrors "github.com/eduplatform/gateway/pkg/errors"
	"github.com/eduplatform/gateway/pkg/response"
)

// AssignmentHandler proxies assignment endpoints.
type AssignmentHandler struct {
	service *upstream.AssignmentService
}

// NewAssignmentHandler creates a new handler.
func NewAssignmentHandler(svc *upstream.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// List returns every assignment visible to the caller.
func (h *AssignmentHandler) List(c *gin.Context) {
	auth, ok := middleware.UpstreamAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	assignments, err := h.service.GetAll(middleware.UpstreamContext(c), auth)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, assignments)
}

// Get returns a single assignment.
func (h *AssignmentHandler) Get(c *gin.Context) {
	auth, ok := middleware.UpstreamAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid assignment id"))
		return
	}

	assignment, err := h.service.GetByID(middleware.UpstreamContext(c), auth, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, assignment)
}

// Create creates an assignment on the backend.
func (h *AssignmentHandler) Create(c *gin.Context) {
	auth, ok := middleware.UpstreamAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload upstream.AssignmentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	assignment, err := h.service.Create(middleware.UpstreamContext(c), auth, payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, assignment)
}

// Update updates an assignment on the backend.
func (h *AssignmentHandler) Update(c *gin.Context) {
	auth, ok := middleware.UpstreamAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid assignment id"))
		return
	}

	var payload upstream.AssignmentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	assignment, err := h.service.Update(middleware.UpstreamContext(c), auth, id, payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, assignment)
}

// Delete removes an assignment on the backend.
func (h *AssignmentHandler) Delete(c *gin.Context) {
	auth, ok := middleware.UpstreamAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid assignment id"))
		return
	}

	if err := h.service.Delete(middleware.UpstreamContext(c), auth, id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
