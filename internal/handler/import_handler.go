package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trevnoctilla/campaigns-api/internal/dto"
	"github.com/trevnoctilla/campaigns-api/internal/service"
)

// ImportHandler handles CSV ingestion for new campaigns.
type ImportHandler struct {
	campaignsService *service.CampaignsService
}

// NewImportHandler wires a handler backed by the campaigns service.
func NewImportHandler(campaignsService *service.CampaignsService) *ImportHandler {
	return &ImportHandler{campaignsService: campaignsService}
}

// ImportCSV handles POST /campaigns/import requests. The multipart form
// carries the csv file plus the campaign name and sender profile fields.
func (h *ImportHandler) ImportCSV(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return Error(c, http.StatusBadRequest, "missing csv file")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return Error(c, http.StatusBadRequest, "unable to open file")
	}
	defer file.Close()

	name := c.FormValue("name")
	sender := dto.SenderProfileInput{
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
		Company:   c.FormValue("company"),
		Email:     c.FormValue("email"),
		Phone:     c.FormValue("phone"),
		Subject:   c.FormValue("subject"),
		Message:   c.FormValue("message"),
	}

	campaign, err := h.campaignsService.ImportCampaignCSV(c.Request().Context(), name, sender, file)
	if err != nil {
		return mapServiceError(c, err, "failed to process csv")
	}

	return Success(c, http.StatusCreated, "campaign imported", campaign)
}
