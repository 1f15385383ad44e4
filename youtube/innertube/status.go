package innertube

import (
	"strings"

	"github.com/ytget/streamres/errs"
)

// Verdict is the closed classification of a playability status. Every
// response maps to exactly one verdict; unrecognized statuses land on
// VerdictUnknown rather than being string-matched ad hoc by callers.
type Verdict int

const (
	VerdictOK Verdict = iota
	// VerdictFatal ends resolution for every persona: the condition is a
	// property of the video, not of the client identity.
	VerdictFatal
	// VerdictRetryable refuses this persona but another one may succeed.
	VerdictRetryable
	// VerdictLoginRequired needs credentials this persona cannot supply;
	// treated as retryable across personas, fatal once personas run out.
	VerdictLoginRequired
	// VerdictUnknown is an unmapped status string. Treated as retryable so a
	// new server-side status never bricks resolution outright.
	VerdictUnknown
)

func (v Verdict) String() string {
	switch v {
	case VerdictOK:
		return "ok"
	case VerdictFatal:
		return "fatal"
	case VerdictRetryable:
		return "retryable"
	case VerdictLoginRequired:
		return "login_required"
	default:
		return "unknown"
	}
}

// Classification pairs the verdict with the sentinel to surface when the
// verdict terminates resolution.
type Classification struct {
	Verdict Verdict
	Status  string
	Reason  string
	// Sentinel is set for fatal and login verdicts; nil otherwise.
	Sentinel error
}

// Fatal reports whether resolution must stop immediately.
func (c Classification) Fatal() bool { return c.Verdict == VerdictFatal }

// Err builds the terminal error for a fatal or exhausted classification.
func (c Classification) Err() error {
	sentinel := c.Sentinel
	if sentinel == nil {
		sentinel = errs.ErrVideoUnavailable
	}
	return errs.NewUnplayable(sentinel, c.Status, c.Reason)
}

// Classify maps one playability block onto the closed verdict set.
func Classify(status PlayabilityStatus) Classification {
	reason := status.ReasonText()
	c := Classification{Status: status.Status, Reason: reason}
	lower := strings.ToLower(reason)

	switch status.Status {
	case "OK":
		c.Verdict = VerdictOK

	case "ERROR":
		switch {
		case mentionsRateLimit(lower):
			// Throttling is a property of the caller, not of the video.
			c.Verdict = VerdictRetryable
			c.Sentinel = errs.ErrRateLimited
		case mentionsGeo(lower):
			c.Verdict = VerdictFatal
			c.Sentinel = errs.ErrGeoBlocked
		default:
			c.Verdict = VerdictFatal
			c.Sentinel = errs.ErrVideoUnavailable
		}

	case "UNPLAYABLE":
		// Usually persona-specific ("not available on this app"), but a few
		// reasons describe the video itself.
		switch {
		case mentionsGeo(lower):
			c.Verdict = VerdictFatal
			c.Sentinel = errs.ErrGeoBlocked
		case strings.Contains(lower, "removed"):
			c.Verdict = VerdictFatal
			c.Sentinel = errs.ErrVideoUnavailable
		default:
			c.Verdict = VerdictRetryable
		}

	case "LOGIN_REQUIRED":
		c.Verdict = VerdictLoginRequired
		switch {
		case mentionsRateLimit(lower):
			c.Sentinel = errs.ErrRateLimited
		case strings.Contains(lower, "age"):
			c.Sentinel = errs.ErrAgeRestricted
		case strings.Contains(lower, "private"):
			c.Sentinel = errs.ErrPrivate
		default:
			c.Sentinel = errs.ErrVideoUnavailable
		}

	case "AGE_CHECK_REQUIRED", "CONTENT_CHECK_REQUIRED":
		c.Verdict = VerdictLoginRequired
		c.Sentinel = errs.ErrAgeRestricted

	case "LIVE_STREAM_OFFLINE":
		c.Verdict = VerdictFatal
		c.Sentinel = errs.ErrLiveOffline

	default:
		c.Verdict = VerdictUnknown
	}
	return c
}

// mentionsRateLimit matches the throttling refusals: the bot interstitial and
// plain too-many-requests texts.
func mentionsRateLimit(lowerReason string) bool {
	return strings.Contains(lowerReason, "not a bot") ||
		strings.Contains(lowerReason, "too many requests") ||
		strings.Contains(lowerReason, "rate limit")
}

func mentionsGeo(lowerReason string) bool {
	return strings.Contains(lowerReason, "country") ||
		strings.Contains(lowerReason, "region") ||
		strings.Contains(lowerReason, "not available in your")
}
