package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/trevnoctilla/campaigns-api/internal/entity"
)

func TestNotifyCampaign(t *testing.T) {
	var received struct {
		Event    string          `json:"event"`
		Campaign entity.Campaign `json:"campaign"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/campaign-events" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Fatalf("unexpected content type %s", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL)
	campaign := &entity.Campaign{ID: uuid.New(), Name: "spring outreach", Status: entity.CampaignCompleted}

	if err := client.NotifyCampaign(context.Background(), "campaign_finished", campaign); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if received.Event != "campaign_finished" {
		t.Fatalf("unexpected event %q", received.Event)
	}
	if received.Campaign.ID != campaign.ID {
		t.Fatalf("campaign snapshot not delivered")
	}
}

func TestNotifyCampaign_BackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"queue full"}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL)
	err := client.NotifyCampaign(context.Background(), "campaign_started", &entity.Campaign{})
	if err == nil {
		t.Fatalf("expected error for backend failure")
	}
	if got := err.Error(); got != "backend callback error: queue full" {
		t.Fatalf("unexpected error message %q", got)
	}
}

func TestNewClient_EmptyBaseURL(t *testing.T) {
	if NewClient(nil, "") != nil {
		t.Fatalf("expected nil client for empty base url")
	}
}
