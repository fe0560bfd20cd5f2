package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trevnoctilla/campaigns-api/internal/entity"
)

var (
	// ErrCampaignNotFound is returned when no campaign matches the lookup.
	ErrCampaignNotFound = errors.New("campaign not found")
	// ErrCompanyNotFound is returned when no company matches the lookup.
	ErrCompanyNotFound = errors.New("company not found")
)

// RunUpdate records one company's terminal (or reverted) state after a run.
type RunUpdate struct {
	Status                entity.Status
	ErrorMessage          *string
	ScreenshotURL         *string
	ProcessingTimeSeconds *float64
}

// CampaignsRepository describes persistence for campaigns and their
// companies. Aggregate counters are never stored; readers derive them from
// the company list.
type CampaignsRepository interface {
	CreateCampaign(ctx context.Context, campaign *entity.Campaign, companies []entity.Company) error
	GetCampaign(ctx context.Context, id uuid.UUID) (*entity.Campaign, error)
	ListCampaigns(ctx context.Context) ([]entity.Campaign, error)
	SetCampaignStatus(ctx context.Context, id uuid.UUID, status string) error
	ListCompanies(ctx context.Context, campaignID uuid.UUID) ([]entity.Company, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*entity.Company, error)
	// SetCompanyStatus moves a company between lifecycle statuses; the
	// single mutation path for the status state machine.
	SetCompanyStatus(ctx context.Context, id uuid.UUID, status entity.Status) error
	// RecordRun applies a run's terminal report atomically.
	RecordRun(ctx context.Context, id uuid.UUID, update RunUpdate) error
	// RevertProcessing flips every still-processing company of a campaign
	// back to pending. Used on batch cancellation.
	RevertProcessing(ctx context.Context, campaignID uuid.UUID) (int, error)
}

// querier is the subset of pgxpool.Pool the repository uses; narrowed so
// tests can stub it.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGXCampaignsRepository implements CampaignsRepository with pgx.
type PGXCampaignsRepository struct {
	pool querier
}

// NewPGXCampaignsRepository wires a pgx backed repository.
func NewPGXCampaignsRepository(pool *pgxpool.Pool) *PGXCampaignsRepository {
	return &PGXCampaignsRepository{pool: pool}
}

var _ querier = (*pgxpool.Pool)(nil)
var _ CampaignsRepository = (*PGXCampaignsRepository)(nil)

// EnsureSchema creates the campaign tables when they do not exist yet.
func (r *PGXCampaignsRepository) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS campaigns (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft',
    sender_first_name TEXT NOT NULL DEFAULT '',
    sender_last_name TEXT NOT NULL DEFAULT '',
    sender_company TEXT NOT NULL DEFAULT '',
    sender_email TEXT NOT NULL DEFAULT '',
    sender_phone TEXT NOT NULL DEFAULT '',
    sender_subject TEXT NOT NULL DEFAULT '',
    sender_message TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS companies (
    id UUID PRIMARY KEY,
    campaign_id UUID NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
    website_url TEXT NOT NULL,
    company_name TEXT NULL,
    contact_email TEXT NULL,
    contact_person TEXT NULL,
    phone TEXT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    error_message TEXT NULL,
    screenshot_url TEXT NULL,
    processing_time_seconds DOUBLE PRECISION NULL,
    position INT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    processed_at TIMESTAMPTZ NULL
);
CREATE INDEX IF NOT EXISTS idx_companies_campaign ON companies (campaign_id, position);`
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure campaign schema: %w", err)
	}
	return nil
}

// CreateCampaign persists the campaign and its company list.
func (r *PGXCampaignsRepository) CreateCampaign(ctx context.Context, campaign *entity.Campaign, companies []entity.Company) error {
	if campaign == nil {
		return fmt.Errorf("campaign payload is nil")
	}

	_, err := r.pool.Exec(ctx, `
        INSERT INTO campaigns (
            id, name, status,
            sender_first_name, sender_last_name, sender_company,
            sender_email, sender_phone, sender_subject, sender_message,
            created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())`,
		campaign.ID, campaign.Name, campaign.Status,
		campaign.Sender.FirstName, campaign.Sender.LastName, campaign.Sender.Company,
		campaign.Sender.Email, campaign.Sender.Phone, campaign.Sender.Subject, campaign.Sender.Message,
	)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}

	for position, company := range companies {
		_, err := r.pool.Exec(ctx, `
            INSERT INTO companies (
                id, campaign_id, website_url, company_name, contact_email,
                contact_person, phone, status, position, created_at, updated_at
            ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())`,
			company.ID, campaign.ID, company.WebsiteURL,
			stringOrNil(company.CompanyName), stringOrNil(company.ContactEmail),
			stringOrNil(company.ContactPerson), stringOrNil(company.Phone),
			entity.StatusPending, position,
		)
		if err != nil {
			return fmt.Errorf("insert company %d: %w", position, err)
		}
	}
	return nil
}

// GetCampaign fetches one campaign with counters derived from its
// companies.
func (r *PGXCampaignsRepository) GetCampaign(ctx context.Context, id uuid.UUID) (*entity.Campaign, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT id, name, status,
               sender_first_name, sender_last_name, sender_company,
               sender_email, sender_phone, sender_subject, sender_message,
               created_at, updated_at
        FROM campaigns WHERE id = $1`, id)

	var campaign entity.Campaign
	err := row.Scan(
		&campaign.ID, &campaign.Name, &campaign.Status,
		&campaign.Sender.FirstName, &campaign.Sender.LastName, &campaign.Sender.Company,
		&campaign.Sender.Email, &campaign.Sender.Phone, &campaign.Sender.Subject, &campaign.Sender.Message,
		&campaign.CreatedAt, &campaign.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("query campaign: %w", err)
	}

	companies, err := r.ListCompanies(ctx, id)
	if err != nil {
		return nil, err
	}
	campaign.Counters = entity.Recount(companies)
	return &campaign, nil
}

// ListCampaigns returns every campaign, newest first, counters included.
func (r *PGXCampaignsRepository) ListCampaigns(ctx context.Context) ([]entity.Campaign, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, name, status,
               sender_first_name, sender_last_name, sender_company,
               sender_email, sender_phone, sender_subject, sender_message,
               created_at, updated_at
        FROM campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []entity.Campaign
	for rows.Next() {
		var campaign entity.Campaign
		err := rows.Scan(
			&campaign.ID, &campaign.Name, &campaign.Status,
			&campaign.Sender.FirstName, &campaign.Sender.LastName, &campaign.Sender.Company,
			&campaign.Sender.Email, &campaign.Sender.Phone, &campaign.Sender.Subject, &campaign.Sender.Message,
			&campaign.CreatedAt, &campaign.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaigns: %w", err)
	}

	for i := range campaigns {
		companies, err := r.ListCompanies(ctx, campaigns[i].ID)
		if err != nil {
			return nil, err
		}
		campaigns[i].Counters = entity.Recount(companies)
	}
	return campaigns, nil
}

// SetCampaignStatus updates the batch-level status.
func (r *PGXCampaignsRepository) SetCampaignStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE campaigns SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update campaign status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

// ListCompanies returns a campaign's companies in their original input
// order.
func (r *PGXCampaignsRepository) ListCompanies(ctx context.Context, campaignID uuid.UUID) ([]entity.Company, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, campaign_id, website_url, company_name, contact_email,
               contact_person, phone, status, error_message, screenshot_url,
               processing_time_seconds, created_at, updated_at, processed_at
        FROM companies WHERE campaign_id = $1 ORDER BY position ASC`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var companies []entity.Company
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, *company)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return companies, nil
}

// GetCompany fetches one company by id.
func (r *PGXCampaignsRepository) GetCompany(ctx context.Context, id uuid.UUID) (*entity.Company, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT id, campaign_id, website_url, company_name, contact_email,
               contact_person, phone, status, error_message, screenshot_url,
               processing_time_seconds, created_at, updated_at, processed_at
        FROM companies WHERE id = $1`, id)

	company, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}
	return company, nil
}

// SetCompanyStatus moves one company to a new lifecycle status. A move to
// pending clears the previous run's report.
func (r *PGXCampaignsRepository) SetCompanyStatus(ctx context.Context, id uuid.UUID, status entity.Status) error {
	var (
		tag pgconn.CommandTag
		err error
	)
	if status == entity.StatusPending {
		tag, err = r.pool.Exec(ctx, `
            UPDATE companies
            SET status = $2, error_message = NULL, screenshot_url = NULL,
                processing_time_seconds = NULL, processed_at = NULL, updated_at = now()
            WHERE id = $1`, id, status)
	} else {
		tag, err = r.pool.Exec(ctx, `UPDATE companies SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	}
	if err != nil {
		return fmt.Errorf("update company status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCompanyNotFound
	}
	return nil
}

// RecordRun stores a run's terminal report in a single statement.
func (r *PGXCampaignsRepository) RecordRun(ctx context.Context, id uuid.UUID, update RunUpdate) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE companies
        SET status = $2, error_message = $3, screenshot_url = $4,
            processing_time_seconds = $5, processed_at = now(), updated_at = now()
        WHERE id = $1`,
		id, update.Status, stringOrNil(update.ErrorMessage),
		stringOrNil(update.ScreenshotURL), floatOrNil(update.ProcessingTimeSeconds),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCompanyNotFound
	}
	return nil
}

// RevertProcessing returns still-processing companies of a campaign to
// pending, reporting how many were reverted.
func (r *PGXCampaignsRepository) RevertProcessing(ctx context.Context, campaignID uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx, `
        UPDATE companies
        SET status = $2, error_message = NULL, updated_at = now()
        WHERE campaign_id = $1 AND status = $3`,
		campaignID, entity.StatusPending, entity.StatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("revert processing companies: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanCompany(row pgx.Row) (*entity.Company, error) {
	var (
		company        entity.Company
		companyName    sql.NullString
		contactEmail   sql.NullString
		contactPerson  sql.NullString
		phone          sql.NullString
		errorMessage   sql.NullString
		screenshotURL  sql.NullString
		processingTime sql.NullFloat64
		processedAt    sql.NullTime
	)
	err := row.Scan(
		&company.ID, &company.CampaignID, &company.WebsiteURL,
		&companyName, &contactEmail, &contactPerson, &phone,
		&company.Status, &errorMessage, &screenshotURL,
		&processingTime, &company.CreatedAt, &company.UpdatedAt, &processedAt,
	)
	if err != nil {
		return nil, err
	}

	company.CompanyName = nullString(companyName)
	company.ContactEmail = nullString(contactEmail)
	company.ContactPerson = nullString(contactPerson)
	company.Phone = nullString(phone)
	company.ErrorMessage = nullString(errorMessage)
	company.ScreenshotURL = nullString(screenshotURL)
	if processingTime.Valid {
		val := processingTime.Float64
		company.ProcessingTimeSeconds = &val
	}
	if processedAt.Valid {
		ts := processedAt.Time
		company.ProcessedAt = &ts
	}
	return &company, nil
}

func nullString(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	val := value.String
	return &val
}

func stringOrNil(value *string) any {
	if value == nil {
		return nil
	}
	if *value == "" {
		return nil
	}
	return *value
}

func floatOrNil(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}
