// Package backend posts campaign lifecycle callbacks to the SaaS backend
// that hosts the campaigns UI.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/idtoken"

	"github.com/trevnoctilla/campaigns-api/internal/entity"
)

// Client posts JSON callbacks to the backend.
type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient builds a backend client, auto-configuring an ID token client
// for service-to-service calls when none is supplied. An empty base URL
// returns nil; callbacks are then disabled.
func NewClient(client *http.Client, baseURL string) *Client {
	if baseURL == "" {
		return nil
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if client == nil {
		idc, err := idtoken.NewClient(context.Background(), baseURL)
		if err != nil {
			client = &http.Client{Timeout: 10 * time.Second}
		} else {
			client = idc
		}
	}
	return &Client{client: client, baseURL: baseURL}
}

// NotifyCampaign posts one lifecycle event with the campaign snapshot.
func (c *Client) NotifyCampaign(ctx context.Context, event string, campaign *entity.Campaign) error {
	payload := map[string]any{
		"event":    event,
		"campaign": campaign,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal callback payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/campaign-events", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend callback failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("backend callback error: %s", extractError(resp.Body))
	}
	return nil
}

func extractError(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return "backend returned an error"
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return string(data)
}
