package jsinterp

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the requested function name does not occur in the
	// supplied source text.
	ErrNotFound = errors.New("jsinterp: function not found")
	// ErrUnsupported means the function body uses syntax outside the
	// enumerated grammar. The interpreter refuses rather than approximating:
	// a silently wrong transform produces an unplayable URL that is much
	// harder to diagnose than an explicit failure.
	ErrUnsupported = errors.New("jsinterp: unsupported syntax")
)

const snippetLimit = 80

// snippet truncates source text for inclusion in error messages.
func snippet(src string) string {
	if len(src) > snippetLimit {
		return src[:snippetLimit] + "..."
	}
	return src
}

func unsupportedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, fmt.Sprintf(format, args...))
}
