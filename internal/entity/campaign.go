package entity

import (
	"time"

	"github.com/google/uuid"
)

// CampaignCounters aggregates per-status company counts. Counters are
// always derived from the company list with Recount, never mutated on
// their own.
type CampaignCounters struct {
	TotalCompanies int `json:"total_companies"`
	ProcessedCount int `json:"processed_count"`
	SuccessCount   int `json:"success_count"`
	FailedCount    int `json:"failed_count"`
	CaptchaCount   int `json:"captcha_count"`
}

// Recount reduces a company list into aggregate counters.
func Recount(companies []Company) CampaignCounters {
	counters := CampaignCounters{TotalCompanies: len(companies)}
	for _, company := range companies {
		switch company.Status {
		case StatusCompleted:
			counters.SuccessCount++
		case StatusFailed:
			counters.FailedCount++
		case StatusCaptcha:
			counters.CaptchaCount++
		}
	}
	counters.ProcessedCount = counters.SuccessCount + counters.FailedCount + counters.CaptchaCount
	return counters
}

// SenderProfile is the immutable per-campaign input written into matching
// form fields on every target site.
type SenderProfile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company,omitempty"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

// Campaign is an ordered, append-only list of companies plus the sender
// profile used to fill their contact forms.
type Campaign struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Sender    SenderProfile    `json:"sender"`
	Status    string           `json:"status"`
	Counters  CampaignCounters `json:"counters"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Campaign-level statuses. These describe the batch, not any single
// company.
const (
	CampaignDraft     = "draft"
	CampaignRunning   = "running"
	CampaignStopped   = "stopped"
	CampaignCompleted = "completed"
)
