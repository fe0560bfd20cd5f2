package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/trevnoctilla/campaigns-api/internal/events"
	"github.com/trevnoctilla/campaigns-api/internal/service"
)

// heartbeatInterval keeps idle SSE connections from being reaped by
// intermediaries.
const heartbeatInterval = 25 * time.Second

// EventsHandler streams live run progress over server-sent events.
type EventsHandler struct {
	campaignsService *service.CampaignsService
	broker           *events.Broker
}

// NewEventsHandler creates a new handler instance.
func NewEventsHandler(campaignsService *service.CampaignsService, broker *events.Broker) *EventsHandler {
	return &EventsHandler{campaignsService: campaignsService, broker: broker}
}

// Stream handles GET /campaigns/:id/events requests. Frames are written
// as they arrive until the client disconnects.
func (h *EventsHandler) Stream(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid campaign id")
	}

	// Reject streams for campaigns that do not exist before committing
	// to the SSE response.
	if _, err := h.campaignsService.GetCampaign(c.Request().Context(), id); err != nil {
		return mapServiceError(c, err, "failed to load campaign")
	}

	frames, cancel := h.broker.Subscribe(id)
	defer cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(frame)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", frame.Type, payload); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
