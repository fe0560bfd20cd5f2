package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/trevnoctilla/campaigns-api/internal/entity"
)

// Verbosity presets for the synthesized result comment.
const (
	VerbosityMinimal  = "minimal"
	VerbosityStandard = "standard"
	VerbosityDetailed = "detailed"
)

// statusFills maps a company status to the row background used in the
// export workbook.
var statusFills = map[entity.Status]string{
	entity.StatusCompleted:  "C6EFCE",
	entity.StatusFailed:     "FFC7CE",
	entity.StatusCaptcha:    "FFEB9C",
	entity.StatusProcessing: "BDD7EE",
	entity.StatusPending:    "D9D9D9",
}

// ExportCampaignXLSX renders the campaign results as a styled workbook:
// one row per company, status-colored, with a human-readable comment. A
// pure read-side transform of the company list.
func (s *CampaignsService) ExportCampaignXLSX(ctx context.Context, id uuid.UUID, verbosity string) ([]byte, string, error) {
	campaign, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return nil, "", err
	}
	companies, err := s.repo.ListCompanies(ctx, id)
	if err != nil {
		return nil, "", err
	}

	file := excelize.NewFile()
	defer file.Close()

	const sheet = "Results"
	file.SetSheetName("Sheet1", sheet)

	headers := []string{"Company", "Website", "Contact Email", "Contact Person", "Phone", "Status", "Processing Time (s)", "Comment"}
	for i, title := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = file.SetCellValue(sheet, col+"1", title)
	}
	_ = file.SetColWidth(sheet, "A", "B", 28)
	_ = file.SetColWidth(sheet, "H", "H", 60)

	for rowIdx, company := range companies {
		row := rowIdx + 2
		values := []any{
			deref(company.CompanyName),
			company.WebsiteURL,
			deref(company.ContactEmail),
			deref(company.ContactPerson),
			deref(company.Phone),
			string(company.Status),
			processingTime(company),
			ResultComment(company, verbosity),
		}
		for i, value := range values {
			col, _ := excelize.ColumnNumberToName(i + 1)
			_ = file.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), value)
		}

		if fill, ok := statusFills[company.Status]; ok {
			styleID, styleErr := file.NewStyle(&excelize.Style{
				Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill}},
			})
			if styleErr == nil {
				_ = file.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("H%d", row), styleID)
			}
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("write workbook: %w", err)
	}

	filename := fmt.Sprintf("%s-results.xlsx", sanitizeFilename(campaign.Name))
	return buf.Bytes(), filename, nil
}

// ResultComment synthesizes the per-company comment from status and error
// message, at the requested verbosity.
func ResultComment(company entity.Company, verbosity string) string {
	switch verbosity {
	case VerbosityMinimal:
		return minimalComment(company.Status)
	case VerbosityDetailed:
		return detailedComment(company)
	default:
		return standardComment(company)
	}
}

func minimalComment(status entity.Status) string {
	switch status {
	case entity.StatusCompleted:
		return "OK"
	case entity.StatusFailed:
		return "Failed"
	case entity.StatusCaptcha:
		return "CAPTCHA"
	case entity.StatusProcessing:
		return "In progress"
	default:
		return "Queued"
	}
}

func standardComment(company entity.Company) string {
	switch company.Status {
	case entity.StatusCompleted:
		return "Contact form filled successfully."
	case entity.StatusFailed:
		if company.ErrorMessage != nil {
			return "Failed: " + *company.ErrorMessage
		}
		return "Failed: no details recorded."
	case entity.StatusCaptcha:
		return "Blocked by CAPTCHA; needs manual review."
	case entity.StatusProcessing:
		return "Still processing."
	default:
		return "Waiting in queue."
	}
}

func detailedComment(company entity.Company) string {
	var parts []string
	parts = append(parts, standardComment(company))
	if company.ProcessingTimeSeconds != nil {
		parts = append(parts, fmt.Sprintf("Run took %.1fs.", *company.ProcessingTimeSeconds))
	}
	if company.ScreenshotURL != nil {
		parts = append(parts, "Screenshot evidence available.")
	}
	if company.Status == entity.StatusCaptcha {
		parts = append(parts, "Re-queueing will not help until the CAPTCHA is removed; submit manually instead.")
	}
	if company.Status == entity.StatusFailed {
		parts = append(parts, "Candidate for automatic retry.")
	}
	return strings.Join(parts, " ")
}

func processingTime(company entity.Company) any {
	if company.ProcessingTimeSeconds == nil {
		return ""
	}
	return *company.ProcessingTimeSeconds
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return "campaign"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "campaign"
	}
	return b.String()
}
