package engine

import "errors"

// Failure causes recorded on companies. Everything a run can go wrong with
// maps onto one of these so the API layer and the export comments can
// reason about outcomes without string matching.
var (
	// ErrNavigationTimeout means the target page did not load within its
	// deadline.
	ErrNavigationTimeout = errors.New("navigation timeout")
	// ErrNoContactPage means every locator strategy missed. Not fatal by
	// itself; the pipeline continues against the homepage.
	ErrNoContactPage = errors.New("no contact page found")
	// ErrNoFormFound means no usable form exists in the main document or
	// any frame.
	ErrNoFormFound = errors.New("no contact form found")
	// ErrCaptchaDetected means a CAPTCHA wall blocks the page. Surfaced as
	// its own status, not as a failure.
	ErrCaptchaDetected = errors.New("captcha detected")
	// ErrRunTimeout means the whole run exceeded its deadline.
	ErrRunTimeout = errors.New("run timeout")
	// ErrMessageNotFilled means a form was found but neither the message
	// nor an email-equivalent field could be written.
	ErrMessageNotFilled = errors.New("message field could not be filled")
)
