package engine

import "testing"

func TestDetectCaptcha(t *testing.T) {
	positives := []string{
		`<script src="https://www.google.com/recaptcha/api.js"></script>`,
		`<div class="g-recaptcha" data-sitekey="abc"></div>`,
		`<script src="https://hcaptcha.com/1/api.js"></script>`,
		`<div class="h-captcha"></div>`,
		`<script src="https://challenges.cloudflare.com/turnstile/v0/api.js"></script>`,
		`<div class="CF-Turnstile"></div>`,
	}
	for _, html := range positives {
		if !DetectCaptcha(html) {
			t.Fatalf("expected captcha detection in %q", html)
		}
	}

	negatives := []string{
		`<html><body><form><input type="email"></form></body></html>`,
		`<p>We protect your privacy.</p>`,
		"",
	}
	for _, html := range negatives {
		if DetectCaptcha(html) {
			t.Fatalf("unexpected captcha detection in %q", html)
		}
	}
}
