package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/consult-booking-api/internal/service"
	appErrors "github.com/noah-isme/consult-booking-api/pkg/errors"
	"github.com/noah-isme/consult-booking-api/pkg/response"
)

// ExportHandler serves consultant schedule downloads.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Schedule godoc
// @Summary Export a consultant's schedule
// @Tags Exports
// @Produce octet-stream
// @Param consultantId path string true "Consultant ID"
// @Param from query string true "Window start (RFC3339 or YYYY-MM-DD)"
// @Param to query string true "Window end (RFC3339 or YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200
// @Router /consultants/{consultantId}/schedule/export [get]
func (h *ExportHandler) Schedule(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	from, to, err := parseWindow(c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.RenderSchedule(c.Request.Context(), c.Param("consultantId"), from, to, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.MimeType, result.Content)
}
