// Package resultcache provides a thread-safe, TTL-based LRU cache for
// verification details, keyed by domain and policy flags.
package resultcache

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/optimode/domaincheck/types"
)

const (
	// DefaultSize is the maximum number of entries kept.
	DefaultSize = 1000
	// DefaultTTL is how long an entry stays valid.
	DefaultTTL = 24 * time.Hour
)

// Cache memoizes verification details.
// Entries expire after the TTL; beyond the size bound the least recently
// used entry is evicted.
type Cache struct {
	lru *expirable.LRU[string, types.Details]
	ttl time.Duration
}

// New creates a cache holding at most size entries for ttl each.
// Non-positive values fall back to DefaultSize and DefaultTTL.
func New(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		lru: expirable.NewLRU[string, types.Details](size, nil, ttl),
		ttl: ttl,
	}
}

// Key builds the cache key from the domain and the three policy flags.
// The connection timeout is deliberately not part of the key.
func Key(domain string, requireSMTPOrMX, mxNotRequired, smtpNotRequired bool) string {
	return fmt.Sprintf("%s-%t-%t-%t", domain, requireSMTPOrMX, mxNotRequired, smtpNotRequired)
}

// Get returns the details stored under key, if present and not expired.
func (c *Cache) Get(key string) (types.Details, bool) {
	d, ok := c.lru.Get(key)
	if !ok {
		return types.Details{}, false
	}
	return d.Clone(), true
}

// Set stores d under key, replacing any previous entry and restarting its TTL.
func (c *Cache) Set(key string, d types.Details) {
	c.lru.Add(key, d.Clone())
}

// Remove drops the entry for key, if any.
func (c *Cache) Remove(key string) {
	c.lru.Remove(key)
}

// Purge drops all entries.
func (c *Cache) Purge() {
	c.lru.Purge()
}

// Len returns the number of entries in the cache (for diagnostics).
// Expired entries not yet reaped may be counted.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// TTL returns the entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Storable reports whether d is informative enough to cache.
// A result without an SMTP check is kept only when MX succeeded; a result
// with an SMTP check only when both checks succeeded. Failures may be
// transient and must be re-checked on the next call.
func Storable(d types.Details) bool {
	if !d.SMTPChecked() {
		return d.MXVerificationSucceed
	}
	return d.MXVerificationSucceed && *d.SMTPVerificationSucceed
}
