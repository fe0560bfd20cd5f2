package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/trevnoctilla/campaigns-api/internal/config"
	"github.com/trevnoctilla/campaigns-api/internal/engine/formfill"
	"github.com/trevnoctilla/campaigns-api/internal/entity"
)

const fakeContactForm = `
<html><body><form>
<input type="text" name="name">
<input type="email" name="email">
<textarea name="message"></textarea>
</form></body></html>`

// fakeSession scripts the browser side of a run.
type fakeSession struct {
	pages       map[string]string
	currentURL  string
	frames      []FrameDoc
	navigateErr error
	fillErr     error
	filled      int
	fillCalls   int
	closed      bool
}

func (f *fakeSession) Navigate(_ context.Context, url string, _ time.Duration) error {
	if f.navigateErr != nil {
		return f.navigateErr
	}
	f.currentURL = url
	return nil
}

func (f *fakeSession) Probe(_ context.Context, url string, _ time.Duration) bool {
	if _, ok := f.pages[url]; ok {
		f.currentURL = url
		return true
	}
	return false
}

func (f *fakeSession) DismissConsentModal(context.Context) {}

func (f *fakeSession) CurrentURL(context.Context) (string, error) {
	return f.currentURL, nil
}

func (f *fakeSession) MainHTML(context.Context) (string, error) {
	if html, ok := f.pages[f.currentURL]; ok {
		return html, nil
	}
	return "<html><body></body></html>", nil
}

func (f *fakeSession) FrameDocs(context.Context) ([]FrameDoc, error) {
	return f.frames, nil
}

func (f *fakeSession) Fill(_ context.Context, _ string, plan []formfill.Assignment) (int, error) {
	f.fillCalls++
	if f.fillErr != nil {
		return 0, f.fillErr
	}
	if f.filled > 0 {
		return f.filled, nil
	}
	return len(plan), nil
}

func (f *fakeSession) Screenshot(context.Context) ([]byte, error) {
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

func (f *fakeSession) Close() { f.closed = true }

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		PoolSize:          2,
		NavigationTimeout: time.Second,
		ProbeTimeout:      time.Second,
		RunTimeout:        5 * time.Second,
	}
}

func newTestRunner(session *fakeSession) *Runner {
	return NewRunner(testEngineConfig(), func(context.Context) (Session, error) {
		return session, nil
	})
}

func testProfile() entity.SenderProfile {
	return entity.SenderProfile{
		FirstName: "Alex",
		LastName:  "Meyer",
		Email:     "alex@northwind.example",
		Message:   "Hello there.",
	}
}

func TestRun_CompletesOnFormFill(t *testing.T) {
	session := &fakeSession{pages: map[string]string{
		"https://example.com":         `<html><body><footer><a href="/contact">Contact</a></footer></body></html>`,
		"https://example.com/contact": fakeContactForm,
	}}

	outcome := newTestRunner(session).Run(context.Background(), "https://example.com", testProfile(), nil)

	if outcome.Status != entity.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", outcome.Status, outcome.ErrorMessage)
	}
	if outcome.FilledFields != 3 {
		t.Fatalf("expected 3 filled fields, got %d", outcome.FilledFields)
	}
	if outcome.PartialFill {
		t.Fatalf("full plan must not be partial")
	}
	if !session.closed {
		t.Fatalf("session must be closed after the run")
	}
	if len(outcome.Screenshot) == 0 {
		t.Fatalf("expected evidence screenshot")
	}
	if outcome.Duration <= 0 {
		t.Fatalf("expected positive duration")
	}
}

func TestRun_TerminalStatusAlways(t *testing.T) {
	sessions := map[string]*fakeSession{
		"completed": {pages: map[string]string{"https://example.com": fakeContactForm}},
		"failed":    {navigateErr: errors.New("net::ERR_NAME_NOT_RESOLVED")},
		"captcha":   {pages: map[string]string{"https://example.com": `<div class="g-recaptcha"></div>`}},
	}

	for name, session := range sessions {
		outcome := newTestRunner(session).Run(context.Background(), "https://example.com", testProfile(), nil)
		if !outcome.Status.Terminal() {
			t.Fatalf("%s: expected terminal status, got %s", name, outcome.Status)
		}
		if !session.closed {
			t.Fatalf("%s: session leaked", name)
		}
	}
}

func TestRun_NoFormIsFailure(t *testing.T) {
	session := &fakeSession{pages: map[string]string{
		"https://example.com": `<html><body><p>nothing here</p></body></html>`,
	}}

	outcome := newTestRunner(session).Run(context.Background(), "https://example.com", testProfile(), nil)
	if outcome.Status != entity.StatusFailed {
		t.Fatalf("expected failed, got %s", outcome.Status)
	}
	if !errors.Is(outcome.Cause, ErrNoFormFound) {
		t.Fatalf("expected ErrNoFormFound cause, got %v", outcome.Cause)
	}
	if session.fillCalls != 0 {
		t.Fatalf("no fill must happen without a form")
	}
}

func TestRun_CaptchaStatus(t *testing.T) {
	session := &fakeSession{pages: map[string]string{
		"https://example.com": `<script src="https://www.google.com/recaptcha/api.js"></script>`,
	}}

	outcome := newTestRunner(session).Run(context.Background(), "https://example.com", testProfile(), nil)
	if outcome.Status != entity.StatusCaptcha {
		t.Fatalf("expected captcha, got %s", outcome.Status)
	}
	if !errors.Is(outcome.Cause, ErrCaptchaDetected) {
		t.Fatalf("expected ErrCaptchaDetected cause, got %v", outcome.Cause)
	}
}

func TestRun_FormInFrame(t *testing.T) {
	session := &fakeSession{
		pages: map[string]string{
			"https://example.com": `<html><body><p>embedded widget</p></body></html>`,
		},
		frames: []FrameDoc{{ID: "iframe:0", URL: "https://widget.example", HTML: fakeContactForm}},
	}

	outcome := newTestRunner(session).Run(context.Background(), "https://example.com", testProfile(), nil)
	if outcome.Status != entity.StatusCompleted {
		t.Fatalf("expected completed via frame, got %s (%s)", outcome.Status, outcome.ErrorMessage)
	}
}

func TestRun_SessionFactoryFailure(t *testing.T) {
	runner := NewRunner(testEngineConfig(), func(context.Context) (Session, error) {
		return nil, errors.New("chrome not found")
	})

	outcome := runner.Run(context.Background(), "https://example.com", testProfile(), nil)
	if outcome.Status != entity.StatusFailed {
		t.Fatalf("expected failed, got %s", outcome.Status)
	}
}

func TestRun_CancelledMarksOutcome(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	session := &fakeSession{navigateErr: context.Canceled}
	cancel()

	outcome := newTestRunner(session).Run(ctx, "https://example.com", testProfile(), nil)
	if !outcome.Cancelled {
		t.Fatalf("expected outcome marked cancelled")
	}
}

func TestRun_MessageNotFillable(t *testing.T) {
	session := &fakeSession{pages: map[string]string{
		"https://example.com": `<html><body><form><input type="text" name="coupon_code"></form></body></html>`,
	}}

	outcome := newTestRunner(session).Run(context.Background(), "https://example.com", testProfile(), nil)
	if outcome.Status != entity.StatusFailed {
		t.Fatalf("expected failed, got %s", outcome.Status)
	}
	if !errors.Is(outcome.Cause, ErrMessageNotFilled) {
		t.Fatalf("expected ErrMessageNotFilled cause, got %v", outcome.Cause)
	}
}

func TestRun_PartialFill(t *testing.T) {
	session := &fakeSession{
		pages:  map[string]string{"https://example.com": fakeContactForm},
		filled: 1,
	}

	outcome := newTestRunner(session).Run(context.Background(), "https://example.com", testProfile(), nil)
	if outcome.Status != entity.StatusCompleted {
		t.Fatalf("expected completed, got %s", outcome.Status)
	}
	if !outcome.PartialFill {
		t.Fatalf("expected partial fill flag")
	}
}

// panickingSession blows up mid-pipeline, like a lost CDP connection can.
type panickingSession struct {
	fakeSession
}

func (p *panickingSession) MainHTML(context.Context) (string, error) {
	panic("chrome connection lost")
}

func TestRun_ContainsPanics(t *testing.T) {
	session := &panickingSession{}
	runner := NewRunner(testEngineConfig(), func(context.Context) (Session, error) {
		return session, nil
	})

	outcome := runner.Run(context.Background(), "https://example.com", testProfile(), nil)

	if outcome.Status != entity.StatusFailed {
		t.Fatalf("expected failed after recovered fault, got %s", outcome.Status)
	}
	if !strings.Contains(outcome.ErrorMessage, "chrome connection lost") {
		t.Fatalf("fault cause missing from report: %q", outcome.ErrorMessage)
	}
	if !session.closed {
		t.Fatalf("session must be closed even when the run blows up")
	}
	if outcome.Duration <= 0 {
		t.Fatalf("expected duration on recovered run")
	}
}
