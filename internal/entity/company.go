package entity

import (
	"time"

	"github.com/google/uuid"
)

// Status describes where a company sits in its outreach lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCaptcha    Status = "captcha"
)

// Terminal reports whether a company will not move again without an
// explicit re-queue.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCaptcha:
		return true
	}
	return false
}

// Valid reports whether s is one of the known lifecycle statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCaptcha:
		return true
	}
	return false
}

// Company represents one outreach target inside a campaign.
type Company struct {
	ID                    uuid.UUID  `json:"id"`
	CampaignID            uuid.UUID  `json:"campaign_id"`
	WebsiteURL            string     `json:"website_url"`
	CompanyName           *string    `json:"company_name,omitempty"`
	ContactEmail          *string    `json:"contact_email,omitempty"`
	ContactPerson         *string    `json:"contact_person,omitempty"`
	Phone                 *string    `json:"phone,omitempty"`
	Status                Status     `json:"status"`
	ErrorMessage          *string    `json:"error_message,omitempty"`
	ScreenshotURL         *string    `json:"screenshot_url,omitempty"`
	ProcessingTimeSeconds *float64   `json:"processing_time_seconds,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
	ProcessedAt           *time.Time `json:"processed_at,omitempty"`
}
