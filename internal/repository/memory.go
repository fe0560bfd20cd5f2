package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trevnoctilla/campaigns-api/internal/entity"
)

// MemoryCampaignsRepository keeps campaigns in process memory. Used when
// no DATABASE_URL is configured and throughout the test suite. All
// mutations run under one lock, so concurrent run completions cannot lose
// updates.
type MemoryCampaignsRepository struct {
	mu        sync.RWMutex
	campaigns map[uuid.UUID]*entity.Campaign
	companies map[uuid.UUID]*entity.Company
	// order preserves input order per campaign.
	order map[uuid.UUID][]uuid.UUID
}

// NewMemoryCampaignsRepository builds an empty in-memory store.
func NewMemoryCampaignsRepository() *MemoryCampaignsRepository {
	return &MemoryCampaignsRepository{
		campaigns: make(map[uuid.UUID]*entity.Campaign),
		companies: make(map[uuid.UUID]*entity.Company),
		order:     make(map[uuid.UUID][]uuid.UUID),
	}
}

var _ CampaignsRepository = (*MemoryCampaignsRepository)(nil)

// CreateCampaign stores the campaign and its companies.
func (r *MemoryCampaignsRepository) CreateCampaign(ctx context.Context, campaign *entity.Campaign, companies []entity.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *campaign
	r.campaigns[campaign.ID] = &stored

	ids := make([]uuid.UUID, 0, len(companies))
	for _, company := range companies {
		c := company
		c.CampaignID = campaign.ID
		c.Status = entity.StatusPending
		r.companies[c.ID] = &c
		ids = append(ids, c.ID)
	}
	r.order[campaign.ID] = ids
	return nil
}

// GetCampaign returns a copy with derived counters.
func (r *MemoryCampaignsRepository) GetCampaign(ctx context.Context, id uuid.UUID) (*entity.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.campaigns[id]
	if !ok {
		return nil, ErrCampaignNotFound
	}
	campaign := *stored
	campaign.Counters = entity.Recount(r.companiesLocked(id))
	return &campaign, nil
}

// ListCampaigns returns every campaign, newest first.
func (r *MemoryCampaignsRepository) ListCampaigns(ctx context.Context) ([]entity.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	campaigns := make([]entity.Campaign, 0, len(r.campaigns))
	for id, stored := range r.campaigns {
		campaign := *stored
		campaign.Counters = entity.Recount(r.companiesLocked(id))
		campaigns = append(campaigns, campaign)
	}
	sort.Slice(campaigns, func(i, j int) bool {
		return campaigns[i].CreatedAt.After(campaigns[j].CreatedAt)
	})
	return campaigns, nil
}

// SetCampaignStatus updates the batch-level status.
func (r *MemoryCampaignsRepository) SetCampaignStatus(ctx context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.campaigns[id]
	if !ok {
		return ErrCampaignNotFound
	}
	stored.Status = status
	stored.UpdatedAt = time.Now()
	return nil
}

// ListCompanies returns the campaign's companies in input order.
func (r *MemoryCampaignsRepository) ListCompanies(ctx context.Context, campaignID uuid.UUID) ([]entity.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.campaigns[campaignID]; !ok {
		return nil, ErrCampaignNotFound
	}
	return r.companiesLocked(campaignID), nil
}

// GetCompany returns a copy of one company.
func (r *MemoryCampaignsRepository) GetCompany(ctx context.Context, id uuid.UUID) (*entity.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.companies[id]
	if !ok {
		return nil, ErrCompanyNotFound
	}
	company := *stored
	return &company, nil
}

// SetCompanyStatus moves one company to a new status; moving to pending
// clears the previous run's report.
func (r *MemoryCampaignsRepository) SetCompanyStatus(ctx context.Context, id uuid.UUID, status entity.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.companies[id]
	if !ok {
		return ErrCompanyNotFound
	}
	stored.Status = status
	stored.UpdatedAt = time.Now()
	if status == entity.StatusPending {
		stored.ErrorMessage = nil
		stored.ScreenshotURL = nil
		stored.ProcessingTimeSeconds = nil
		stored.ProcessedAt = nil
	}
	return nil
}

// RecordRun applies a run's terminal report.
func (r *MemoryCampaignsRepository) RecordRun(ctx context.Context, id uuid.UUID, update RunUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.companies[id]
	if !ok {
		return ErrCompanyNotFound
	}
	now := time.Now()
	stored.Status = update.Status
	stored.ErrorMessage = update.ErrorMessage
	stored.ScreenshotURL = update.ScreenshotURL
	stored.ProcessingTimeSeconds = update.ProcessingTimeSeconds
	stored.ProcessedAt = &now
	stored.UpdatedAt = now
	return nil
}

// RevertProcessing returns still-processing companies to pending.
func (r *MemoryCampaignsRepository) RevertProcessing(ctx context.Context, campaignID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reverted := 0
	for _, id := range r.order[campaignID] {
		stored := r.companies[id]
		if stored == nil || stored.Status != entity.StatusProcessing {
			continue
		}
		stored.Status = entity.StatusPending
		stored.ErrorMessage = nil
		stored.UpdatedAt = time.Now()
		reverted++
	}
	return reverted, nil
}

func (r *MemoryCampaignsRepository) companiesLocked(campaignID uuid.UUID) []entity.Company {
	ids := r.order[campaignID]
	companies := make([]entity.Company, 0, len(ids))
	for _, id := range ids {
		if stored, ok := r.companies[id]; ok {
			companies = append(companies, *stored)
		}
	}
	return companies
}
