package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eduplatform/gateway/internal/middleware"
	"github.com/eduplatform/gateway/internal/service"
	"github.com/eduplatform/gateway/internal/upstream"
	appErrors "github.com/eduplatform/gateway/pkg/errors"
	"github.com/eduplatform/gateway/pkg/response"
)

// ReportHandler proxies weekly report endpoints and serves exports.
type ReportHandler struct {
	service *upstream.ReportService
	export  *service.ExportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(svc *upstream.ReportService, export *service.ExportService) *ReportHandler {
	return &ReportHandler{service: svc, export: export}
}

// List returns the reports visible to the caller.
func (h *ReportHandler) List(c *gin.Context) {
	auth, ok := middleware.UpstreamAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	reports, err := h.service.GetAll(middleware.UpstreamContext(c), auth)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, reports)
}

// Create submits a weekly report.
func (h *ReportHandler) Create(c *gin.Context) {
	auth, ok := middleware.UpstreamAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload upstream.ReportPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}

	report, err := h.service.Create(middleware.UpstreamContext(c), auth, payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, report)
}

// Update edits a report on the backend.
func (h *ReportHandler) Update(c *gin.Context) {
	auth, ok := middleware.UpstreamAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid report id"))
		return
	}

	var payload upstream.ReportPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}

	report, err := h.service.Update(middleware.UpstreamContext(c), auth, id, payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, report)
}

// Delete removes a report on the backend.
func (h *ReportHandler) Delete(c *gin.Context) {
	auth, ok := middleware.UpstreamAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid report id"))
		return
	}

	if err := h.service.Delete(middleware.UpstreamContext(c), auth, id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Export godoc
// @Summary Export reports
// @Description Download the caller's reports as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	auth, ok := middleware.UpstreamAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", string(service.FormatCSV)))
	if format != service.FormatCSV && format != service.FormatPDF {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}

	result, err := h.export.Reports(middleware.UpstreamContext(c), auth, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Body)
}
