package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/trevnoctilla/campaigns-api/internal/dto"
	"github.com/trevnoctilla/campaigns-api/internal/entity"
	"github.com/trevnoctilla/campaigns-api/internal/repository"
)

func TestExportCampaignXLSX(t *testing.T) {
	svc, repo := newTestService(&fakeRunner{})

	campaign, err := svc.CreateCampaign(context.Background(), dto.CreateCampaignRequest{
		Name:   "Spring Outreach 2026",
		Sender: dto.SenderProfileInput{Email: "alex@northwind.example", Message: "Hello!"},
		Companies: []dto.CompanyInput{
			{WebsiteURL: "https://a.example", CompanyName: "Acme"},
			{WebsiteURL: "https://b.example", CompanyName: "Beta"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	companies, _ := repo.ListCompanies(context.Background(), campaign.ID)
	message := "navigation timeout: https://b.example"
	seconds := 21.4
	if err := repo.RecordRun(context.Background(), companies[0].ID, repository.RunUpdate{Status: entity.StatusCompleted, ProcessingTimeSeconds: &seconds}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := repo.RecordRun(context.Background(), companies[1].ID, repository.RunUpdate{Status: entity.StatusFailed, ErrorMessage: &message}); err != nil {
		t.Fatalf("record: %v", err)
	}

	data, filename, err := svc.ExportCampaignXLSX(context.Background(), campaign.ID, VerbosityStandard)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filename != "spring-outreach-2026-results.xlsx" {
		t.Fatalf("unexpected filename %q", filename)
	}

	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer file.Close()

	rows, err := file.GetRows("Results")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "Acme" || rows[1][5] != "completed" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	if !strings.Contains(rows[2][7], "navigation timeout") {
		t.Fatalf("expected error in comment, got %q", rows[2][7])
	}
}

func TestExportCampaignXLSX_NotFound(t *testing.T) {
	svc, _ := newTestService(&fakeRunner{})

	if _, _, err := svc.ExportCampaignXLSX(context.Background(), uuid.New(), ""); err == nil {
		t.Fatalf("expected not-found error")
	}
}

func TestResultComment_Verbosity(t *testing.T) {
	message := "no contact form found"
	seconds := 8.0
	shot := "/screenshots/x.png"
	failed := entity.Company{
		Status:                entity.StatusFailed,
		ErrorMessage:          &message,
		ProcessingTimeSeconds: &seconds,
		ScreenshotURL:         &shot,
	}

	if got := ResultComment(failed, VerbosityMinimal); got != "Failed" {
		t.Fatalf("minimal: got %q", got)
	}
	if got := ResultComment(failed, VerbosityStandard); !strings.Contains(got, message) {
		t.Fatalf("standard: expected error message, got %q", got)
	}
	detailed := ResultComment(failed, VerbosityDetailed)
	for _, fragment := range []string{message, "8.0s", "Screenshot", "retry"} {
		if !strings.Contains(detailed, fragment) {
			t.Fatalf("detailed: expected %q in %q", fragment, detailed)
		}
	}

	captcha := entity.Company{Status: entity.StatusCaptcha}
	if got := ResultComment(captcha, VerbosityMinimal); got != "CAPTCHA" {
		t.Fatalf("captcha minimal: got %q", got)
	}
	if got := ResultComment(captcha, ""); !strings.Contains(got, "CAPTCHA") {
		t.Fatalf("captcha default verbosity: got %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"Spring Outreach 2026": "spring-outreach-2026",
		"  ":                   "campaign",
		"§§§":                  "campaign",
		"a_b-c":                "a-b-c",
	}
	for input, want := range cases {
		if got := sanitizeFilename(input); got != want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", input, got, want)
		}
	}
}
