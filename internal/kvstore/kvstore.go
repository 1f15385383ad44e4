// Package kvstore provides small key/value caches with per-entry expiry,
// used to persist derived state (compiled cipher programs, attestation
// tokens) across process runs.
package kvstore

import (
	"time"
)

// Entry is a stored value with its expiry. A zero ExpiresAt never expires.
type Entry struct {
	Value     string            `json:"value"`
	ExpiresAt time.Time         `json:"expiresAt"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (e Entry) expired() bool {
	return !e.ExpiresAt.IsZero() && time.Until(e.ExpiresAt) <= 0
}

// Store is the cache contract. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(key string) (Entry, bool)
	Set(key string, value Entry)
}
