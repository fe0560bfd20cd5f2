// Package browser owns the headless Chrome instance and the per-run
// browsing contexts the engine drives.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/trevnoctilla/campaigns-api/internal/config"
	"github.com/trevnoctilla/campaigns-api/internal/engine"
	"github.com/trevnoctilla/campaigns-api/internal/engine/formfill"
)

// Manager owns one Chrome process allocator shared by all runs. Each run
// gets its own tab context; nothing else is shared between runs.
type Manager struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	cfg      config.EngineConfig
}

// NewManager prepares a Chrome exec allocator. The browser process itself
// starts lazily with the first session.
func NewManager(ctx context.Context, cfg config.EngineConfig) *Manager {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(cfg.UserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	return &Manager{allocCtx: allocCtx, cancel: cancel, cfg: cfg}
}

// Close shuts the browser process down.
func (m *Manager) Close() {
	m.cancel()
}

// NewSession opens a fresh tab context for one company run. The tab must
// descend from the allocator, so the run context cannot be its parent;
// cancelling the run tears the tab down through an AfterFunc instead.
func (m *Manager) NewSession(ctx context.Context) (engine.Session, error) {
	tabCtx, cancelTab := chromedp.NewContext(m.allocCtx)
	stop := context.AfterFunc(ctx, cancelTab)
	cancel := func() {
		stop()
		cancelTab()
	}

	// Materialize the tab so teardown is guaranteed even if the run never
	// navigates.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("open browser tab: %w", err)
	}

	return &session{ctx: tabCtx, cancel: cancel, cfg: m.cfg}, nil
}

type session struct {
	ctx    context.Context
	cancel func()
	cfg    config.EngineConfig
}

var _ engine.Session = (*session)(nil)

func (s *session) Close() {
	s.cancel()
}

// op derives the context for one CDP call: rooted in the tab so chromedp
// can route it, bounded by timeout, and cancelled as soon as the caller's
// context is.
func (s *session) op(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithTimeout(s.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return opCtx, func() { stop(); cancel() }
}

// Navigate loads the URL and waits until the DOM is parsed. Full network
// idle is deliberately not awaited; broken third-party resources on the
// target sites would otherwise burn the whole deadline.
func (s *session) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	navCtx, cancel := s.op(ctx, timeout)
	defer cancel()

	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		if cause := ctx.Err(); cause != nil {
			return fmt.Errorf("navigate %s: %w", url, cause)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("navigate %s: %w", url, context.DeadlineExceeded)
		}
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// Probe issues a lightweight navigation and accepts any response below 400.
func (s *session) Probe(ctx context.Context, url string, timeout time.Duration) bool {
	navCtx, cancel := s.op(ctx, timeout)
	defer cancel()

	resp, err := chromedp.RunResponse(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return false
	}
	return resp == nil || resp.Status < 400
}

func (s *session) DismissConsentModal(ctx context.Context) {
	// Two probes with a short settle in between; consent overlays often
	// animate in after DOMContentLoaded.
	for attempt := 0; attempt < 2; attempt++ {
		evalCtx, cancel := s.op(ctx, s.cfg.ConsentWait)
		var clicked bool
		err := chromedp.Run(evalCtx, chromedp.Evaluate(consentScript, &clicked))
		cancel()
		if err == nil && clicked {
			return
		}
		select {
		case <-time.After(s.cfg.ConsentWait):
		case <-ctx.Done():
			return
		}
	}
}

func (s *session) CurrentURL(ctx context.Context) (string, error) {
	opCtx, cancel := s.op(ctx, 5*time.Second)
	defer cancel()

	var loc string
	if err := chromedp.Run(opCtx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return loc, nil
}

func (s *session) MainHTML(ctx context.Context) (string, error) {
	opCtx, cancel := s.op(ctx, 10*time.Second)
	defer cancel()

	var html string
	if err := chromedp.Run(opCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("snapshot page: %w", err)
	}
	return html, nil
}

type sameOriginFrame struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
	HTML  string `json:"html"`
}

// FrameDocs snapshots same-origin iframes through the main document and
// cross-origin iframes through their own CDP targets.
func (s *session) FrameDocs(ctx context.Context) ([]engine.FrameDoc, error) {
	var docs []engine.FrameDoc

	opCtx, cancel := s.op(ctx, 10*time.Second)
	defer cancel()

	var local []sameOriginFrame
	if err := chromedp.Run(opCtx, chromedp.Evaluate(sameOriginFramesScript, &local)); err == nil {
		for _, frame := range local {
			docs = append(docs, engine.FrameDoc{
				ID:   frameIDLocal(frame.Index),
				URL:  frame.URL,
				HTML: frame.HTML,
			})
		}
	}

	targets, err := chromedp.Targets(opCtx)
	if err != nil {
		return docs, nil
	}
	for _, info := range targets {
		if info.Type != "iframe" {
			continue
		}
		html, err := s.targetHTML(ctx, info.TargetID)
		if err != nil {
			continue
		}
		docs = append(docs, engine.FrameDoc{
			ID:   frameIDTarget(info.TargetID),
			URL:  info.URL,
			HTML: html,
		})
	}
	return docs, nil
}

func (s *session) targetHTML(ctx context.Context, id target.ID) (string, error) {
	frameCtx, cancel := chromedp.NewContext(s.ctx, chromedp.WithTargetID(id))
	defer cancel()

	runCtx, cancelRun := context.WithTimeout(frameCtx, 5*time.Second)
	defer cancelRun()
	defer context.AfterFunc(ctx, cancelRun)()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Fill applies the plan inside the scope identified by frameID. The empty
// ID targets the main document.
func (s *session) Fill(ctx context.Context, frameID string, plan []formfill.Assignment) (int, error) {
	if len(plan) == 0 {
		return 0, nil
	}

	encoded, err := json.Marshal(plan)
	if err != nil {
		return 0, fmt.Errorf("encode fill plan: %w", err)
	}

	evalIn := s.ctx
	docExpr := "document"
	switch {
	case frameID == "":
	case strings.HasPrefix(frameID, "iframe:"):
		idx, convErr := strconv.Atoi(strings.TrimPrefix(frameID, "iframe:"))
		if convErr != nil {
			return 0, fmt.Errorf("bad frame id %q", frameID)
		}
		docExpr = fmt.Sprintf("document.querySelectorAll('iframe')[%d].contentDocument", idx)
	case strings.HasPrefix(frameID, "target:"):
		frameCtx, cancel := chromedp.NewContext(s.ctx, chromedp.WithTargetID(target.ID(strings.TrimPrefix(frameID, "target:"))))
		defer cancel()
		evalIn = frameCtx
	default:
		return 0, fmt.Errorf("bad frame id %q", frameID)
	}

	script := fmt.Sprintf(fillScriptTemplate, docExpr, string(encoded))

	runCtx, cancel := context.WithTimeout(evalIn, 15*time.Second)
	defer cancel()
	defer context.AfterFunc(ctx, cancel)()

	var filled int
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &filled)); err != nil {
		return 0, fmt.Errorf("apply fill plan: %w", err)
	}
	return filled, nil
}

func (s *session) Screenshot(ctx context.Context) ([]byte, error) {
	shotCtx, cancel := s.op(ctx, 10*time.Second)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(shotCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

func frameIDLocal(index int) string {
	return "iframe:" + strconv.Itoa(index)
}

func frameIDTarget(id target.ID) string {
	return "target:" + string(id)
}
