package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrVideoUnavailable indicates that the requested video cannot be accessed.
	ErrVideoUnavailable = errors.New("video unavailable")
	// ErrPrivate indicates that the video is private and cannot be played.
	ErrPrivate = errors.New("video is private")
	// ErrAgeRestricted indicates that the video has an age restriction.
	ErrAgeRestricted = errors.New("age restricted")
	// ErrGeoBlocked indicates the video is not available in the current region.
	ErrGeoBlocked = errors.New("geo blocked")
	// ErrLiveOffline indicates a live stream that is not currently broadcasting.
	ErrLiveOffline = errors.New("live stream offline")
	// ErrRateLimited indicates throttling or rate limiting by the remote service.
	ErrRateLimited = errors.New("rate limited")
	// ErrCipherFailed indicates failure during signature deciphering.
	ErrCipherFailed = errors.New("cipher failed")
	// ErrNoStreams indicates that the client attempts were exhausted without a
	// single playable stream surviving classification. Distinct from
	// ErrVideoUnavailable: the content exists, but configuration (codec
	// capabilities, quality gates) filtered everything out.
	ErrNoStreams = errors.New("no streams found")
	// ErrAborted indicates the caller cancelled resolution mid-flight.
	ErrAborted = errors.New("resolution aborted")
)

// Unplayable is the terminal "cannot play" condition. It wraps one of the
// fatal sentinels above and carries the human-readable reason text extracted
// from the playability block, for the host UI to display.
type Unplayable struct {
	Status string
	Reason string
	Err    error
}

func (u *Unplayable) Error() string {
	if u.Reason != "" {
		return fmt.Sprintf("unplayable (%s): %s", u.Status, u.Reason)
	}
	return fmt.Sprintf("unplayable (%s)", u.Status)
}

func (u *Unplayable) Unwrap() error { return u.Err }

// NewUnplayable builds an Unplayable wrapping the given sentinel.
func NewUnplayable(sentinel error, status, reason string) *Unplayable {
	return &Unplayable{Status: status, Reason: reason, Err: sentinel}
}
