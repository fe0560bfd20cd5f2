// Package contactpage finds the contact page of an arbitrary website from
// its loaded homepage, without site-specific configuration.
package contactpage

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ProbeFunc checks whether a conventional path resolves with a non-error
// status, leaving the browser on that page when it does.
type ProbeFunc func(ctx context.Context, url string) bool

// DefaultKeywords matches contact links by visible text or href. All
// comparisons are case-insensitive. The list is configurable so deployments
// can add language variants.
var DefaultKeywords = []string{
	"contact us",
	"contact",
	"get in touch",
	"reach us",
	"enquiry",
	"kontakt",
}

// DefaultPaths are conventional contact locations probed as a last resort.
var DefaultPaths = []string{"/contact", "/contact-us", "/get-in-touch"}

// Locator resolves contact-page URLs using an ordered list of strategies.
type Locator struct {
	keywords []string
	paths    []string
}

// New builds a locator with the default keyword and path sets.
func New() *Locator {
	return &Locator{keywords: DefaultKeywords, paths: DefaultPaths}
}

// NewWithKeywords builds a locator with a custom keyword list. Empty input
// falls back to the defaults.
func NewWithKeywords(keywords, paths []string) *Locator {
	l := New()
	if len(keywords) > 0 {
		l.keywords = lowered(keywords)
	}
	if len(paths) > 0 {
		l.paths = paths
	}
	return l
}

// Result is one strategy's outcome.
type Result struct {
	// URL is the absolute contact-page URL, empty when every strategy
	// missed.
	URL string
	// Loaded reports whether the browser is already on the page (direct
	// path probes navigate as a side effect).
	Loaded bool
	// Strategy names what found the URL, for run logs.
	Strategy string
}

// Locate runs the strategies in order and returns the first hit. The doc is
// the rendered homepage; pageURL is the page's current URL so relative
// links resolve correctly after redirects.
func (l *Locator) Locate(ctx context.Context, doc *goquery.Document, pageURL string, probe ProbeFunc) Result {
	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		return Result{}
	}

	strategies := []struct {
		name string
		run  func() string
	}{
		{"footer-link", func() string {
			return l.linkSearch(doc.Find("footer, [role=contentinfo], [class*=footer], [id*=footer]"), base)
		}},
		{"document-link", func() string { return l.linkSearch(doc.Selection, base) }},
	}

	for _, strat := range strategies {
		if found := strat.run(); found != "" {
			return Result{URL: found, Strategy: strat.name}
		}
	}

	if probe != nil {
		origin := base.Scheme + "://" + base.Host
		for _, path := range l.paths {
			candidate := origin + path
			if ctx.Err() != nil {
				return Result{}
			}
			if probe(ctx, candidate) {
				return Result{URL: candidate, Loaded: true, Strategy: "direct-path"}
			}
		}
	}

	return Result{}
}

// linkSearch returns the first anchor within scope whose text or href
// matches a contact keyword, resolved to an absolute URL. mailto:/tel:
// links never qualify.
func (l *Locator) linkSearch(scope *goquery.Selection, base *url.URL) string {
	var found string
	scope.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return true
		}

		lowerHref := strings.ToLower(href)
		if strings.HasPrefix(lowerHref, "mailto:") || strings.HasPrefix(lowerHref, "tel:") || strings.HasPrefix(lowerHref, "javascript:") {
			return true
		}

		text := strings.ToLower(strings.TrimSpace(sel.Text()))
		if !l.matches(text) && !l.matches(lowerHref) {
			return true
		}

		resolved := resolve(base, href)
		if resolved == "" {
			return true
		}
		found = resolved
		return false
	})
	return found
}

func (l *Locator) matches(signal string) bool {
	if signal == "" {
		return false
	}
	for _, keyword := range l.keywords {
		if strings.Contains(signal, keyword) {
			return true
		}
	}
	return false
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}

func lowered(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}
