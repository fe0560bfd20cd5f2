package service

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/idna"

	"github.com/trevnoctilla/campaigns-api/internal/entity"
)

var (
	emailPattern = regexp.MustCompile(`(?i)^[a-z0-9._%+\-']+@[a-z0-9.-]+\.[a-z]{2,}$`)
	idnaProfile  = idna.Lookup
)

const trackingPrefix = "utm_"

// ValidationError signals a request the caller can fix.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// validateSender checks that the profile carries everything a form fill
// needs. First and last name may be empty; forms that require them get
// the generic placeholder instead.
func validateSender(sender entity.SenderProfile) error {
	if sender.Email == "" {
		return ValidationError{Message: "sender email is required"}
	}
	if !emailPattern.MatchString(sender.Email) {
		return ValidationError{Message: "sender email is not a valid address"}
	}
	if sender.Message == "" {
		return ValidationError{Message: "sender message is required"}
	}
	return nil
}

// normalizeWebsiteURL coerces free-form input into an absolute http(s)
// URL. Internationalized hostnames are converted to punycode so the
// browser and the database agree on one spelling. Returns "" for input
// that cannot become a navigable URL.
func normalizeWebsiteURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return ""
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}

	if host, err := idnaProfile.ToASCII(parsed.Hostname()); err == nil && host != "" {
		if port := parsed.Port(); port != "" {
			parsed.Host = host + ":" + port
		} else {
			parsed.Host = host
		}
	}

	parsed.Fragment = ""
	stripTrackingParams(parsed)
	return parsed.String()
}

// stripTrackingParams drops utm_ query parameters. They carry no routing
// information and make the same site look like two different entries.
func stripTrackingParams(u *url.URL) {
	if u.RawQuery == "" {
		return
	}
	query := u.Query()
	changed := false
	for key := range query {
		if strings.HasPrefix(strings.ToLower(key), trackingPrefix) {
			query.Del(key)
			changed = true
		}
	}
	if changed {
		u.RawQuery = query.Encode()
	}
}
