// Package engine drives the contact-form discovery-and-fill pipeline:
// navigate, locate the contact page, locate the form, classify and fill
// its fields, and map the outcome to a company status.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/trevnoctilla/campaigns-api/internal/config"
	"github.com/trevnoctilla/campaigns-api/internal/engine/contactpage"
	"github.com/trevnoctilla/campaigns-api/internal/engine/formfill"
	"github.com/trevnoctilla/campaigns-api/internal/engine/formscan"
	"github.com/trevnoctilla/campaigns-api/internal/entity"
	"github.com/trevnoctilla/campaigns-api/internal/events"
)

// Outcome is the terminal report of one company run.
type Outcome struct {
	Status       entity.Status
	Cause        error
	ErrorMessage string
	// Cancelled is set when the batch was stopped mid-run; the company
	// reverts to pending instead of failing.
	Cancelled    bool
	FilledFields int
	PartialFill  bool
	FinalURL     string
	Screenshot   []byte
	Duration     time.Duration
}

// Runner executes the pipeline for a single company. It is safe for
// concurrent use; every run obtains its own session.
type Runner struct {
	cfg      config.EngineConfig
	sessions SessionFactory
	locator  *contactpage.Locator
}

// NewRunner wires a runner over a session factory.
func NewRunner(cfg config.EngineConfig, sessions SessionFactory) *Runner {
	return &Runner{cfg: cfg, sessions: sessions, locator: contactpage.New()}
}

// Run drives one company through the pipeline. Every fault is contained
// here: the returned outcome is always terminal and nothing escapes to
// disturb sibling runs.
func (r *Runner) Run(ctx context.Context, websiteURL string, profile entity.SenderProfile, pub *events.Publisher) (outcome Outcome) {
	start := time.Now()

	// Contain any fault from the pipeline or the browser bindings. A run
	// that blows up is a failed run, never a dead process.
	defer func() {
		if rec := recover(); rec != nil {
			pub.Log("run", "error", fmt.Sprintf("unexpected fault: %v", rec))
			outcome = r.finish(ctx, Outcome{
				Status:       entity.StatusFailed,
				Cause:        fmt.Errorf("unexpected fault: %v", rec),
				ErrorMessage: fmt.Sprintf("unexpected fault: %v", rec),
			}, start)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.RunTimeout)
	defer cancel()

	session, err := r.sessions(runCtx)
	if err != nil {
		return r.finish(ctx, Outcome{
			Status:       entity.StatusFailed,
			Cause:        err,
			ErrorMessage: fmt.Sprintf("browser session: %v", err),
		}, start)
	}
	defer session.Close()

	outcome = r.pipeline(runCtx, session, websiteURL, profile, pub)

	// Evidence capture on every exit path; best effort.
	if shot, shotErr := session.Screenshot(runCtx); shotErr == nil {
		outcome.Screenshot = shot
	}
	if outcome.FinalURL == "" {
		if loc, locErr := session.CurrentURL(runCtx); locErr == nil {
			outcome.FinalURL = loc
		}
	}

	return r.finish(ctx, outcome, start)
}

func (r *Runner) finish(parent context.Context, outcome Outcome, start time.Time) Outcome {
	outcome.Duration = time.Since(start)
	if errors.Is(parent.Err(), context.Canceled) {
		outcome.Cancelled = true
	}
	return outcome
}

func (r *Runner) pipeline(ctx context.Context, session Session, websiteURL string, profile entity.SenderProfile, pub *events.Publisher) Outcome {
	pub.Log("navigate", "start", websiteURL)

	if err := session.Navigate(ctx, websiteURL, r.cfg.NavigationTimeout); err != nil {
		return r.navigationFailure(err, websiteURL)
	}
	session.DismissConsentModal(ctx)

	html, err := session.MainHTML(ctx)
	if err != nil {
		return failure(ErrNavigationTimeout, fmt.Sprintf("snapshot homepage: %v", err))
	}
	if DetectCaptcha(html) {
		pub.Log("captcha", "detected", websiteURL)
		return Outcome{Status: entity.StatusCaptcha, Cause: ErrCaptchaDetected, ErrorMessage: ErrCaptchaDetected.Error()}
	}

	currentURL, err := session.CurrentURL(ctx)
	if err != nil || currentURL == "" {
		currentURL = websiteURL
	}

	// Contact page discovery. Missing everywhere is not fatal; some sites
	// embed the form on the homepage.
	doc, parseErr := goquery.NewDocumentFromReader(strings.NewReader(html))
	located := contactpage.Result{}
	if parseErr == nil {
		located = r.locator.Locate(ctx, doc, currentURL, func(probeCtx context.Context, candidate string) bool {
			return session.Probe(probeCtx, candidate, r.cfg.ProbeTimeout)
		})
	}

	switch {
	case located.URL == "":
		pub.Log("contact_page", "miss", "no contact page found, continuing on homepage")
	case located.Loaded:
		pub.Log("contact_page", "found", located.URL)
	default:
		pub.Log("contact_page", "found", located.URL)
		if navErr := session.Navigate(ctx, located.URL, r.cfg.NavigationTimeout); navErr != nil {
			// Fall back to the homepage rather than failing the run.
			pub.Log("contact_page", "error", fmt.Sprintf("contact page load failed: %v", navErr))
			if navErr := session.Navigate(ctx, websiteURL, r.cfg.NavigationTimeout); navErr != nil {
				return r.navigationFailure(navErr, websiteURL)
			}
		}
	}

	if located.URL != "" {
		session.DismissConsentModal(ctx)
		if html, err = session.MainHTML(ctx); err != nil {
			return failure(ErrNavigationTimeout, fmt.Sprintf("snapshot contact page: %v", err))
		}
		if DetectCaptcha(html) {
			pub.Log("captcha", "detected", located.URL)
			return Outcome{Status: entity.StatusCaptcha, Cause: ErrCaptchaDetected, ErrorMessage: ErrCaptchaDetected.Error()}
		}
	}

	// Form discovery: main document first, then every frame.
	docs := []formscan.Doc{{HTML: html}}
	if frames, frameErr := session.FrameDocs(ctx); frameErr == nil {
		for _, frame := range frames {
			docs = append(docs, formscan.Doc{FrameID: frame.ID, HTML: frame.HTML})
		}
	}

	form, scanErr := formscan.Locate(docs)
	if scanErr != nil || form == nil {
		pub.Log("form", "miss", "no usable form in main document or frames")
		return failure(ErrNoFormFound, ErrNoFormFound.Error())
	}
	pub.Log("form", "found", fmt.Sprintf("form %d (score %d, %d fields)", form.FormIndex, form.Score, len(form.Fields)))

	plan := formfill.Build(form, profile)
	if !plan.Satisfied() {
		pub.Log("fill", "error", "form has no message or email field to fill")
		return failure(ErrMessageNotFilled, ErrMessageNotFilled.Error())
	}

	filled, fillErr := session.Fill(ctx, form.FrameID, plan.Assignments)
	if fillErr != nil {
		return failure(fillErr, fmt.Sprintf("fill form: %v", fillErr))
	}

	entries := make([]events.LogEntry, 0, len(plan.Assignments))
	for _, a := range plan.Assignments {
		entries = append(entries, events.LogEntry{Action: "fill_field", Status: string(a.Role), Message: a.FieldName})
	}
	pub.LogsBatch(entries)

	return Outcome{
		Status:       entity.StatusCompleted,
		FilledFields: filled,
		PartialFill:  filled < len(plan.Assignments),
	}
}

func (r *Runner) navigationFailure(err error, url string) Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return failure(ErrNavigationTimeout, fmt.Sprintf("%s: %s", ErrNavigationTimeout, url))
	}
	return failure(err, fmt.Sprintf("navigation failed: %v", err))
}

func failure(cause error, message string) Outcome {
	return Outcome{Status: entity.StatusFailed, Cause: cause, ErrorMessage: message}
}
