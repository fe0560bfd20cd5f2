package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/trevnoctilla/campaigns-api/internal/dto"
	"github.com/trevnoctilla/campaigns-api/internal/repository"
	"github.com/trevnoctilla/campaigns-api/internal/service"
)

// CampaignsHandler exposes the campaign control surface.
type CampaignsHandler struct {
	service *service.CampaignsService
}

// NewCampaignsHandler creates a new handler instance.
func NewCampaignsHandler(service *service.CampaignsService) *CampaignsHandler {
	return &CampaignsHandler{service: service}
}

// Create handles POST /campaigns requests.
func (h *CampaignsHandler) Create(c echo.Context) error {
	var req dto.CreateCampaignRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	campaign, err := h.service.CreateCampaign(c.Request().Context(), req)
	if err != nil {
		return mapServiceError(c, err, "failed to create campaign")
	}
	return Success(c, http.StatusCreated, "campaign created", campaign)
}

// Get handles GET /campaigns/:id requests.
func (h *CampaignsHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid campaign id")
	}

	campaign, err := h.service.GetCampaign(c.Request().Context(), id)
	if err != nil {
		return mapServiceError(c, err, "failed to load campaign")
	}
	return Success(c, http.StatusOK, "campaign retrieved", campaign)
}

// List handles GET /campaigns requests.
func (h *CampaignsHandler) List(c echo.Context) error {
	campaigns, err := h.service.ListCampaigns(c.Request().Context())
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list campaigns")
	}
	return Success(c, http.StatusOK, "campaigns retrieved", campaigns)
}

// ListCompanies handles GET /campaigns/:id/companies requests.
func (h *CampaignsHandler) ListCompanies(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid campaign id")
	}

	companies, err := h.service.ListCompanies(c.Request().Context(), id)
	if err != nil {
		return mapServiceError(c, err, "failed to list companies")
	}
	return Success(c, http.StatusOK, "companies retrieved", companies)
}

// Start handles POST /campaigns/:id/start requests (rapid-all mode).
func (h *CampaignsHandler) Start(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid campaign id")
	}

	if err := h.service.StartCampaign(c.Request().Context(), id); err != nil {
		return mapServiceError(c, err, "failed to start campaign")
	}
	return Success(c, http.StatusAccepted, "campaign started", map[string]any{"id": id})
}

// Stop handles POST /campaigns/:id/stop requests.
func (h *CampaignsHandler) Stop(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid campaign id")
	}

	if err := h.service.StopCampaign(c.Request().Context(), id); err != nil {
		return mapServiceError(c, err, "failed to stop campaign")
	}
	return Success(c, http.StatusOK, "campaign stopping", map[string]any{"id": id})
}

// StartCompany handles POST /campaigns/:id/companies/:companyID/start
// requests (single mode).
func (h *CampaignsHandler) StartCompany(c echo.Context) error {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid campaign id")
	}
	companyID, err := uuid.Parse(c.Param("companyID"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid company id")
	}

	if err := h.service.StartCompany(c.Request().Context(), campaignID, companyID); err != nil {
		return mapServiceError(c, err, "failed to start company")
	}
	return Success(c, http.StatusAccepted, "company processing", map[string]any{"id": companyID})
}

// RequeueCompany handles POST /campaigns/:id/companies/:companyID/requeue
// requests.
func (h *CampaignsHandler) RequeueCompany(c echo.Context) error {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid campaign id")
	}
	companyID, err := uuid.Parse(c.Param("companyID"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid company id")
	}

	if err := h.service.RequeueCompany(c.Request().Context(), campaignID, companyID); err != nil {
		return mapServiceError(c, err, "failed to re-queue company")
	}
	return Success(c, http.StatusOK, "company re-queued", map[string]any{"id": companyID})
}

func mapServiceError(c echo.Context, err error, fallback string) error {
	var validationErr service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return Error(c, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, service.ErrCampaignBusy):
		return Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrCampaignNotFound), errors.Is(err, repository.ErrCompanyNotFound):
		return Error(c, http.StatusNotFound, err.Error())
	default:
		return Error(c, http.StatusInternalServerError, fallback)
	}
}
