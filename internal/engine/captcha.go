package engine

import "strings"

// captchaMarkers are markup fragments of the common CAPTCHA providers. A
// hit means the site obstructs automation at page level, which is surfaced
// as its own status rather than a failure.
var captchaMarkers = []string{
	"www.google.com/recaptcha",
	"g-recaptcha",
	"grecaptcha",
	"hcaptcha.com",
	"h-captcha",
	"challenges.cloudflare.com",
	"cf-turnstile",
}

// DetectCaptcha scans an HTML snapshot for CAPTCHA provider markup.
func DetectCaptcha(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range captchaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
