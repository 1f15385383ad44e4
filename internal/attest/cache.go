package attest

import (
	"encoding/json"
	"time"

	"github.com/ytget/streamres/internal/kvstore"
)

const storeKeyPrefix = "potoken|"

// StoreCache adapts a kvstore.Store into an attestation Cache, so tokens
// survive process restarts alongside the mirrored player scripts.
type StoreCache struct {
	store kvstore.Store
}

func NewStoreCache(store kvstore.Store) *StoreCache {
	return &StoreCache{store: store}
}

func (c *StoreCache) Get(key string) (Output, bool) {
	e, ok := c.store.Get(storeKeyPrefix + key)
	if !ok {
		return Output{}, false
	}
	var out Output
	if err := json.Unmarshal([]byte(e.Value), &out); err != nil {
		return Output{}, false
	}
	if !out.ExpiresAt.IsZero() && time.Until(out.ExpiresAt) <= 0 {
		return Output{}, false
	}
	return out, true
}

func (c *StoreCache) Set(key string, value Output) {
	b, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.store.Set(storeKeyPrefix+key, kvstore.Entry{Value: string(b), ExpiresAt: value.ExpiresAt})
}
