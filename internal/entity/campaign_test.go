package entity

import "testing"

func TestRecount(t *testing.T) {
	companies := []Company{
		{Status: StatusPending},
		{Status: StatusProcessing},
		{Status: StatusCompleted},
		{Status: StatusCompleted},
		{Status: StatusFailed},
		{Status: StatusCaptcha},
	}

	counters := Recount(companies)
	if counters.TotalCompanies != 6 {
		t.Fatalf("expected 6 total, got %d", counters.TotalCompanies)
	}
	if counters.SuccessCount != 2 {
		t.Fatalf("expected 2 successes, got %d", counters.SuccessCount)
	}
	if counters.FailedCount != 1 || counters.CaptchaCount != 1 {
		t.Fatalf("unexpected failure counters: %+v", counters)
	}
	if counters.ProcessedCount != 4 {
		t.Fatalf("expected processed = success + failed + captcha, got %d", counters.ProcessedCount)
	}
}

func TestRecount_Empty(t *testing.T) {
	counters := Recount(nil)
	if counters != (CampaignCounters{}) {
		t.Fatalf("expected zero counters, got %+v", counters)
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusCompleted, StatusFailed, StatusCaptcha}
	for _, status := range terminal {
		if !status.Terminal() {
			t.Fatalf("expected %s to be terminal", status)
		}
	}

	for _, status := range []Status{StatusPending, StatusProcessing} {
		if status.Terminal() {
			t.Fatalf("expected %s not to be terminal", status)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, status := range []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCaptcha} {
		if !status.Valid() {
			t.Fatalf("expected %s to be valid", status)
		}
	}
	if Status("queued").Valid() {
		t.Fatalf("unknown status must not be valid")
	}
}
