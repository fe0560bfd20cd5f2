package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/trevnoctilla/campaigns-api/internal/engine"
	"github.com/trevnoctilla/campaigns-api/internal/entity"
	"github.com/trevnoctilla/campaigns-api/internal/events"
	"github.com/trevnoctilla/campaigns-api/internal/repository"
	"github.com/trevnoctilla/campaigns-api/internal/service"
)

func TestEventsHandler_StreamsFrames(t *testing.T) {
	repo := repository.NewMemoryCampaignsRepository()
	broker := events.NewBroker()
	svc := service.NewCampaignsService(repo, stubRunner{}, engine.NewPool(1), broker, nil, nil, "US")
	handler := NewEventsHandler(svc, broker)

	campaign := &entity.Campaign{ID: uuid.New(), Name: "live"}
	if err := repo.CreateCampaign(context.Background(), campaign, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}

	e := echo.New()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/campaigns/"+campaign.ID.String()+"/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(campaign.ID.String())

	done := make(chan error, 1)
	go func() { done <- handler.Stream(c) }()

	// Give the subscription a moment to attach before publishing.
	time.Sleep(20 * time.Millisecond)
	broker.Publish(campaign.ID, events.Frame{Type: events.FrameStatus, Status: "processing"})
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stream error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("stream did not terminate on disconnect")
	}

	body := rec.Body.String()
	if !strings.Contains(body, "event: status") || !strings.Contains(body, `"status":"processing"`) {
		t.Fatalf("expected status frame in stream, got %q", body)
	}
	if contentType := rec.Header().Get(echo.HeaderContentType); contentType != "text/event-stream" {
		t.Fatalf("unexpected content type %q", contentType)
	}
}

func TestEventsHandler_UnknownCampaign(t *testing.T) {
	repo := repository.NewMemoryCampaignsRepository()
	broker := events.NewBroker()
	svc := service.NewCampaignsService(repo, stubRunner{}, engine.NewPool(1), broker, nil, nil, "US")
	handler := NewEventsHandler(svc, broker)

	c, rec := jsonContext(t, http.MethodGet, "/campaigns/x/events", "")
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())
	_ = handler.Stream(c)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
