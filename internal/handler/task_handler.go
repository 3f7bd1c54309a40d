package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eduplatform/gateway/internal/dto"
	"github.com/eduplatform/gateway/internal/middleware"
	"github.com/eduplatform/gateway/internal/service"
	appErrors "github.com/eduplatform/gateway/pkg/errors"
	"github.com/eduplatform/gateway/pkg/response"
)

// TaskHandler serves the merged assignment and status view.
type TaskHandler struct {
	service *service.TaskService
	metrics *service.MetricsService
}

// NewTaskHandler creates a new handler.
func NewTaskHandler(svc *service.TaskService, metrics *service.MetricsService) *TaskHandler {
	return &TaskHandler{service: svc, metrics: metrics}
}

// List godoc
// @Summary List tasks
// @Description Assignments merged with the caller's locally tracked statuses
// @Tags Tasks
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	auth, ok := middleware.UpstreamAuth(c)
	if claims == nil || !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	views, err := h.service.List(middleware.UpstreamContext(c), auth, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, views)
}

// SetStatus records the caller's status for a task.
func (h *TaskHandler) SetStatus(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	taskID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid task id"))
		return
	}

	var req dto.SetTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	if err := h.service.SetStatus(c.Request.Context(), claims.UserID, taskID, req); err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordTaskWrite()
	response.JSON(c, http.StatusOK, gin.H{"id": taskID, "status": req.Status})
}
