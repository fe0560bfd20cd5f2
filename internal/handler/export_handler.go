package handler

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/trevnoctilla/campaigns-api/internal/service"
)

// ExportHandler streams campaign results as styled xlsx workbooks.
type ExportHandler struct {
	campaignsService *service.CampaignsService
}

// NewExportHandler creates a new handler instance.
func NewExportHandler(campaignsService *service.CampaignsService) *ExportHandler {
	return &ExportHandler{campaignsService: campaignsService}
}

// Export handles GET /campaigns/:id/export requests. The optional
// verbosity query parameter selects the result comment preset.
func (h *ExportHandler) Export(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid campaign id")
	}

	verbosity := c.QueryParam("verbosity")
	data, filename, err := h.campaignsService.ExportCampaignXLSX(c.Request().Context(), id, verbosity)
	if err != nil {
		return mapServiceError(c, err, "failed to export campaign")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
