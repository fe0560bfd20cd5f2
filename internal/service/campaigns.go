package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"

	"github.com/trevnoctilla/campaigns-api/internal/dto"
	"github.com/trevnoctilla/campaigns-api/internal/engine"
	"github.com/trevnoctilla/campaigns-api/internal/entity"
	"github.com/trevnoctilla/campaigns-api/internal/events"
	"github.com/trevnoctilla/campaigns-api/internal/repository"
)

// ErrCampaignBusy is returned when a start request races an already
// running batch.
var ErrCampaignBusy = errors.New("campaign is already running")

// CompanyRunner executes the discovery-and-fill pipeline for one company.
// Implemented by engine.Runner; faked in tests.
type CompanyRunner interface {
	Run(ctx context.Context, websiteURL string, profile entity.SenderProfile, pub *events.Publisher) engine.Outcome
}

// ScreenshotStore persists evidence captures and returns a serveable URL.
type ScreenshotStore interface {
	Save(companyID uuid.UUID, png []byte) (string, error)
}

// Notifier posts campaign lifecycle callbacks to the hosting backend.
type Notifier interface {
	NotifyCampaign(ctx context.Context, event string, campaign *entity.Campaign) error
}

// CampaignsService owns campaign lifecycle, batch orchestration and the
// status state machine. It is the only writer of company statuses.
type CampaignsService struct {
	repo        repository.CampaignsRepository
	runner      CompanyRunner
	pool        *engine.Pool
	broker      *events.Broker
	screenshots ScreenshotStore
	notifier    Notifier
	phoneRegion string

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
}

// NewCampaignsService wires the service. notifier and screenshots may be
// nil; those features degrade to no-ops.
func NewCampaignsService(
	repo repository.CampaignsRepository,
	runner CompanyRunner,
	pool *engine.Pool,
	broker *events.Broker,
	screenshots ScreenshotStore,
	notifier Notifier,
	phoneRegion string,
) *CampaignsService {
	if phoneRegion == "" {
		phoneRegion = "US"
	}
	return &CampaignsService{
		repo:        repo,
		runner:      runner,
		pool:        pool,
		broker:      broker,
		screenshots: screenshots,
		notifier:    notifier,
		phoneRegion: phoneRegion,
		cancels:     make(map[uuid.UUID]context.CancelFunc),
	}
}

// Broker exposes the live-progress broker for the SSE handler.
func (s *CampaignsService) Broker() *events.Broker {
	return s.broker
}

// CreateCampaign validates the payload, drops rows without a usable
// website URL and persists the campaign in pending state.
func (s *CampaignsService) CreateCampaign(ctx context.Context, req dto.CreateCampaignRequest) (*entity.Campaign, error) {
	sender := entity.SenderProfile{
		FirstName: strings.TrimSpace(req.Sender.FirstName),
		LastName:  strings.TrimSpace(req.Sender.LastName),
		Company:   strings.TrimSpace(req.Sender.Company),
		Email:     strings.TrimSpace(req.Sender.Email),
		Phone:     s.normalizePhone(req.Sender.Phone),
		Subject:   strings.TrimSpace(req.Sender.Subject),
		Message:   strings.TrimSpace(req.Sender.Message),
	}
	if err := validateSender(sender); err != nil {
		return nil, err
	}

	companies := make([]entity.Company, 0, len(req.Companies))
	for _, input := range req.Companies {
		websiteURL := normalizeWebsiteURL(input.WebsiteURL)
		if websiteURL == "" {
			continue
		}
		companies = append(companies, entity.Company{
			ID:            uuid.New(),
			WebsiteURL:    websiteURL,
			CompanyName:   optional(input.CompanyName),
			ContactEmail:  optional(input.ContactEmail),
			ContactPerson: optional(input.ContactPerson),
			Phone:         optional(s.normalizePhone(input.Phone)),
			Status:        entity.StatusPending,
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		})
	}
	if len(companies) == 0 {
		return nil, ValidationError{Message: "campaign needs at least one company with a website url"}
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = fmt.Sprintf("campaign %s", time.Now().Format("2006-01-02 15:04"))
	}

	campaign := &entity.Campaign{
		ID:        uuid.New(),
		Name:      name,
		Sender:    sender,
		Status:    entity.CampaignDraft,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.repo.CreateCampaign(ctx, campaign, companies); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	return s.repo.GetCampaign(ctx, campaign.ID)
}

// GetCampaign returns one campaign with derived counters.
func (s *CampaignsService) GetCampaign(ctx context.Context, id uuid.UUID) (*entity.Campaign, error) {
	return s.repo.GetCampaign(ctx, id)
}

// ListCampaigns returns all campaigns.
func (s *CampaignsService) ListCampaigns(ctx context.Context) ([]entity.Campaign, error) {
	return s.repo.ListCampaigns(ctx)
}

// ListCompanies returns a campaign's companies in input order.
func (s *CampaignsService) ListCompanies(ctx context.Context, campaignID uuid.UUID) ([]entity.Company, error) {
	return s.repo.ListCompanies(ctx, campaignID)
}

// StartCampaign launches the rapid-all batch: every pending company is
// processed with bounded parallelism. Returns immediately; progress flows
// through the event broker.
func (s *CampaignsService) StartCampaign(ctx context.Context, id uuid.UUID) error {
	campaign, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return err
	}
	companies, err := s.repo.ListCompanies(ctx, id)
	if err != nil {
		return err
	}

	var pending []entity.Company
	for _, company := range companies {
		if company.Status == entity.StatusPending {
			pending = append(pending, company)
		}
	}
	if len(pending) == 0 {
		return ValidationError{Message: "campaign has no pending companies"}
	}

	s.mu.Lock()
	if _, running := s.cancels[id]; running {
		s.mu.Unlock()
		return ErrCampaignBusy
	}
	batchCtx, cancel := context.WithCancel(context.Background())
	s.cancels[id] = cancel
	s.mu.Unlock()

	if err := s.repo.SetCampaignStatus(ctx, id, entity.CampaignRunning); err != nil {
		s.clearCancel(id)
		return err
	}

	pub := s.broker.NewPublisher(id)
	pub.Status(fmt.Sprintf("starting %d companies (pool %d)", len(pending), s.pool.Size()))
	s.notify(ctx, "campaign_started", campaign)

	go s.runBatch(batchCtx, campaign, pending, pub)
	return nil
}

func (s *CampaignsService) runBatch(ctx context.Context, campaign *entity.Campaign, pending []entity.Company, pub *events.Publisher) {
	defer s.clearCancel(campaign.ID)

	s.pool.Process(ctx, pending, func(runCtx context.Context, company entity.Company) {
		s.runCompany(runCtx, campaign, company, pub)
	})

	// The repo is the safety net for anything the per-run revert missed.
	bg := context.Background()
	if ctx.Err() != nil {
		if reverted, err := s.repo.RevertProcessing(bg, campaign.ID); err == nil && reverted > 0 {
			log.Printf("campaign=%s reverted %d in-flight companies to pending", campaign.ID, reverted)
		}
		_ = s.repo.SetCampaignStatus(bg, campaign.ID, entity.CampaignStopped)
		pub.Status("campaign stopped")
	} else {
		_ = s.repo.SetCampaignStatus(bg, campaign.ID, entity.CampaignCompleted)
		pub.Status("campaign completed")
	}

	if refreshed, err := s.repo.GetCampaign(bg, campaign.ID); err == nil {
		s.notify(bg, "campaign_finished", refreshed)
	}
}

// runCompany drives one company through its state machine. Every fault is
// absorbed here; the batch never sees a company's failure.
func (s *CampaignsService) runCompany(ctx context.Context, campaign *entity.Campaign, company entity.Company, pub *events.Publisher) {
	companyPub := pub.ForCompany(company.ID)

	if err := s.repo.SetCompanyStatus(ctx, company.ID, entity.StatusProcessing); err != nil {
		companyPub.Error(fmt.Sprintf("start run: %v", err))
		return
	}
	companyPub.Status(string(entity.StatusProcessing))

	outcome := s.runner.Run(ctx, company.WebsiteURL, campaign.Sender, companyPub)

	bg := context.Background()
	if outcome.Cancelled {
		// Cancellation is not a processing error; the company goes back in
		// the queue.
		if err := s.repo.SetCompanyStatus(bg, company.ID, entity.StatusPending); err != nil {
			log.Printf("company=%s revert to pending failed: %v", company.ID, err)
		}
		return
	}

	update := repository.RunUpdate{Status: outcome.Status}
	if outcome.ErrorMessage != "" {
		msg := outcome.ErrorMessage
		update.ErrorMessage = &msg
	}
	seconds := outcome.Duration.Seconds()
	update.ProcessingTimeSeconds = &seconds

	if len(outcome.Screenshot) > 0 && s.screenshots != nil {
		if shotURL, err := s.screenshots.Save(company.ID, outcome.Screenshot); err == nil {
			update.ScreenshotURL = &shotURL
			companyPub.Screenshot(shotURL, outcome.FinalURL)
		}
	}

	if err := s.repo.RecordRun(bg, company.ID, update); err != nil {
		log.Printf("company=%s record run failed: %v", company.ID, err)
	}
	companyPub.Status(string(outcome.Status))
	if outcome.ErrorMessage != "" {
		companyPub.Log("run", string(outcome.Status), outcome.ErrorMessage)
	}
}

// StartCompany processes a single company in isolation ("single" mode),
// typically an ad-hoc retry of a failed one.
func (s *CampaignsService) StartCompany(ctx context.Context, campaignID, companyID uuid.UUID) error {
	campaign, err := s.repo.GetCampaign(ctx, campaignID)
	if err != nil {
		return err
	}
	company, err := s.repo.GetCompany(ctx, companyID)
	if err != nil {
		return err
	}
	if company.CampaignID != campaignID {
		return repository.ErrCompanyNotFound
	}
	if company.Status == entity.StatusProcessing {
		return ErrCampaignBusy
	}
	if company.Status.Terminal() {
		if err := s.repo.SetCompanyStatus(ctx, companyID, entity.StatusPending); err != nil {
			return err
		}
	}

	pub := s.broker.NewPublisher(campaignID)
	go s.runCompany(context.Background(), campaign, *company, pub)
	return nil
}

// StopCampaign cancels a running batch. In-flight runs tear their sessions
// down and their companies revert to pending.
func (s *CampaignsService) StopCampaign(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	cancel, running := s.cancels[id]
	s.mu.Unlock()

	if !running {
		return ValidationError{Message: "campaign is not running"}
	}
	cancel()
	return nil
}

// RequeueCompany resets a terminal company to pending.
func (s *CampaignsService) RequeueCompany(ctx context.Context, campaignID, companyID uuid.UUID) error {
	company, err := s.repo.GetCompany(ctx, companyID)
	if err != nil {
		return err
	}
	if company.CampaignID != campaignID {
		return repository.ErrCompanyNotFound
	}
	if !company.Status.Terminal() {
		return ValidationError{Message: "only completed, failed or captcha companies can be re-queued"}
	}
	return s.repo.SetCompanyStatus(ctx, companyID, entity.StatusPending)
}

func (s *CampaignsService) clearCancel(id uuid.UUID) {
	s.mu.Lock()
	if cancel, ok := s.cancels[id]; ok {
		cancel()
		delete(s.cancels, id)
	}
	s.mu.Unlock()
}

func (s *CampaignsService) notify(ctx context.Context, event string, campaign *entity.Campaign) {
	if s.notifier == nil || campaign == nil {
		return
	}
	if err := s.notifier.NotifyCampaign(ctx, event, campaign); err != nil {
		log.Printf("campaign=%s backend notify %s failed: %v", campaign.ID, event, err)
	}
}

// normalizePhone formats to E.164 when parseable and otherwise returns the
// trimmed input unchanged; the filler writes whatever the operator gave.
func (s *CampaignsService) normalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	number, err := phonenumbers.Parse(raw, s.phoneRegion)
	if err != nil {
		return raw
	}
	if !phonenumbers.IsPossibleNumber(number) {
		return raw
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

// normalizeWebsiteURL trims, defaults the scheme to https and validates
// the host. Empty return means the row is dropped.
func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// ImportCampaignCSV builds a campaign from a row-oriented file. Column
// headers are matched by alias; rows without a website URL are dropped,
// not errored.
func (s *CampaignsService) ImportCampaignCSV(ctx context.Context, name string, sender dto.SenderProfileInput, r io.Reader) (*entity.Campaign, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ValidationError{Message: "input file is empty"}
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	columns := resolveColumns(header)
	if columns.website < 0 {
		return nil, ValidationError{Message: "no website column found (accepted headers: website, url, site)"}
	}

	var companies []dto.CompanyInput
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		input := dto.CompanyInput{
			WebsiteURL:    cell(row, columns.website),
			CompanyName:   cell(row, columns.name),
			ContactEmail:  cell(row, columns.email),
			ContactPerson: cell(row, columns.person),
			Phone:         cell(row, columns.phone),
		}
		if strings.TrimSpace(input.WebsiteURL) == "" {
			continue
		}
		companies = append(companies, input)
	}

	return s.CreateCampaign(ctx, dto.CreateCampaignRequest{
		Name:      name,
		Sender:    sender,
		Companies: companies,
	})
}

// columnIndexes holds resolved header positions; -1 means absent.
type columnIndexes struct {
	website int
	name    int
	email   int
	person  int
	phone   int
}

var headerAliases = map[string][]string{
	"website": {"website", "url", "site", "website_url", "web"},
	"name":    {"company", "company_name", "name", "business"},
	"email":   {"email", "contact_email", "e-mail", "mail"},
	"person":  {"contact_person", "person", "contact", "contact_name"},
	"phone":   {"phone", "telephone", "tel", "phone_number"},
}

func resolveColumns(header []string) columnIndexes {
	columns := columnIndexes{website: -1, name: -1, email: -1, person: -1, phone: -1}
	for i, raw := range header {
		col := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_")
		for field, aliases := range headerAliases {
			for _, alias := range aliases {
				if col != alias {
					continue
				}
				switch field {
				case "website":
					if columns.website < 0 {
						columns.website = i
					}
				case "name":
					if columns.name < 0 {
						columns.name = i
					}
				case "email":
					if columns.email < 0 {
						columns.email = i
					}
				case "person":
					if columns.person < 0 {
						columns.person = i
					}
				case "phone":
					if columns.phone < 0 {
						columns.phone = i
					}
				}
			}
		}
	}
	return columns
}

func cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}
