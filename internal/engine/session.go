package engine

import (
	"context"
	"time"

	"github.com/trevnoctilla/campaigns-api/internal/engine/formfill"
)

// FrameDoc is an HTML snapshot of one non-main frame attached to the page.
type FrameDoc struct {
	// ID addresses the frame for follow-up actions (filling). The main
	// document uses the empty ID.
	ID   string
	URL  string
	HTML string
}

// Session is one isolated, disposable browsing context. Implemented by
// internal/browser; faked in tests.
type Session interface {
	// Navigate loads a URL and waits for the DOM to be parsed, bounded by
	// timeout.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// Probe attempts a lightweight navigation and reports whether the URL
	// resolved with a non-error status. On success the session is left on
	// the probed page.
	Probe(ctx context.Context, url string, timeout time.Duration) bool
	// DismissConsentModal clicks away a cookie/consent overlay when one is
	// present. Absence of a match is not an error.
	DismissConsentModal(ctx context.Context)
	CurrentURL(ctx context.Context) (string, error)
	MainHTML(ctx context.Context) (string, error)
	// FrameDocs snapshots every reachable non-main frame, in discovery
	// order.
	FrameDocs(ctx context.Context) ([]FrameDoc, error)
	// Fill applies a fill plan inside the scope identified by frameID
	// (empty for the main document) and returns how many controls were
	// written.
	Fill(ctx context.Context, frameID string, plan []formfill.Assignment) (int, error)
	Screenshot(ctx context.Context) ([]byte, error)
	// Close tears the browsing context down. Always called, on every exit
	// path of a run.
	Close()
}

// SessionFactory builds a fresh Session per company run.
type SessionFactory func(ctx context.Context) (Session, error)
