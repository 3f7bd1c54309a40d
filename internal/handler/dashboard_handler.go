package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduplatform/gateway/internal/middleware"
	"github.com/eduplatform/gateway/internal/service"
	appErrors "github.com/eduplatform/gateway/pkg/errors"
	"github.com/eduplatform/gateway/pkg/response"
)

// DashboardHandler serves the aggregated landing view.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Overview godoc
// @Summary Dashboard overview
// @Description Progress, task tally, recent courses and upcoming tasks
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	session := middleware.SessionFrom(c)
	auth, ok := middleware.UpstreamAuth(c)
	if claims == nil || session == nil || !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	overview, err := h.service.Overview(middleware.UpstreamContext(c), auth, claims.UserID, session.User)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, overview)
}
