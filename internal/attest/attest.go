// Package attest produces proof-of-origin (po) tokens for client personas
// whose streaming policy requires one. The solver is pluggable; the default
// build carries a stub and the real script-driven solver sits behind the
// `attest` build tag.
package attest

import (
	"context"
	"time"
)

// Mode defines how attestation is used.
type Mode int

const (
	// Off disables attestation entirely.
	Off Mode = iota
	// Auto attests on demand, when a persona's policy asks for a token.
	Auto
	// Force always attests before player requests.
	Force
)

// Input carries the parameters that influence the attestation result.
type Input struct {
	UserAgent        string
	ClientName       string
	ClientVersion    string
	VisitorID        string
	VideoID          string
	AdditionalParams map[string]string
}

// Output contains the attestation result to apply to player requests.
type Output struct {
	Token     string
	ExpiresAt time.Time
	// Optional metadata for diagnostics
	Metadata map[string]string
}

// Solver is an interface for attestation providers.
type Solver interface {
	Attest(ctx context.Context, input Input) (Output, error)
}

// Cache stores attestation outputs keyed by input characteristics.
type Cache interface {
	Get(key string) (Output, bool)
	Set(key string, value Output)
}

// KeyFromInput derives a cache key from the Input fields that influence the
// attestation result. The video id deliberately stays out: tokens are bound
// to the client identity, not the content.
func KeyFromInput(in Input) string {
	return in.UserAgent + "|" + in.ClientName + "|" + in.ClientVersion + "|" + in.VisitorID
}
