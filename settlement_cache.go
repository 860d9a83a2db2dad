package donation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// SettlementCache deduplicates settle calls by payment proof. Presenting
// the same signed payload twice within the TTL returns the recorded
// settlement instead of broadcasting again, and concurrent duplicates
// wait for the first in-flight settlement rather than racing it.
//
// The cache is in-memory and single-instance; behind a load balancer
// each replica deduplicates independently, and the facilitator's nonce
// replay protection remains the backstop.
type SettlementCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]settlementEntry
	pending map[string]chan struct{}
}

type settlementEntry struct {
	result  *SettleResponse
	expires time.Time
}

// SettlementStatus is the outcome of checking the cache for a key.
type SettlementStatus int

const (
	// SettlementNew means the key is unseen; the caller now owns the
	// in-flight marker and must call Complete or Fail.
	SettlementNew SettlementStatus = iota
	// SettlementCached means a prior settlement is recorded for the key.
	SettlementCached
	// SettlementInFlight means another request is settling this key.
	SettlementInFlight
)

// NewSettlementCache creates a cache that remembers settlements for ttl.
func NewSettlementCache(ttl time.Duration) *SettlementCache {
	return &SettlementCache{
		ttl:     ttl,
		entries: make(map[string]settlementEntry),
		pending: make(map[string]chan struct{}),
	}
}

// SettlementKey derives the dedupe key for a payment proof header. The
// raw header covers the client's signature and nonce, so distinct
// payment attempts always hash to distinct keys.
func SettlementKey(paymentHeader string) string {
	sum := sha256.Sum256([]byte(paymentHeader))
	return hex.EncodeToString(sum[:])
}

// CheckAndMark atomically looks up key and, when unseen, marks it
// in-flight. The returned channel is the wait handle for
// SettlementInFlight, or the done handle the caller must resolve for
// SettlementNew.
func (c *SettlementCache) CheckAndMark(key string) (SettlementStatus, *SettleResponse, chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		if time.Now().Before(entry.expires) {
			return SettlementCached, entry.result, nil
		}
		delete(c.entries, key)
	}

	if done, ok := c.pending[key]; ok {
		return SettlementInFlight, nil, done
	}

	done := make(chan struct{})
	c.pending[key] = done
	return SettlementNew, nil, done
}

// Wait blocks until the in-flight settlement for key resolves or ctx is
// cancelled. A nil response with nil error means the in-flight attempt
// failed and the caller may try settling itself.
func (c *SettlementCache) Wait(ctx context.Context, key string, done chan struct{}) (*SettleResponse, error) {
	select {
	case <-done:
		return c.get(key), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *SettlementCache) get(key string) *SettleResponse {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	if time.Now().After(entry.expires) {
		delete(c.entries, key)
		return nil
	}
	return entry.result
}

// Complete records a successful settlement, releases the in-flight
// marker, and wakes any waiters.
func (c *SettlementCache) Complete(key string, result *SettleResponse, done chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = settlementEntry{result: result, expires: time.Now().Add(c.ttl)}
	delete(c.pending, key)
	close(done)

	c.sweepLocked()
}

// Fail releases the in-flight marker without recording a result, so the
// settlement can be retried.
func (c *SettlementCache) Fail(key string, done chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.pending, key)
	close(done)
}

// sweepLocked drops expired entries. Caller holds mu.
func (c *SettlementCache) sweepLocked() {
	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, key)
		}
	}
}
