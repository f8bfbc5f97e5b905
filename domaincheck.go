// Package domaincheck verifies that an email domain can receive mail by
// checking its DNS MX records and, depending on the policy, whether any
// candidate mail host accepts TCP connections on an SMTP port.
//
// Basic usage:
//
//	result, err := domaincheck.VerifyEmailDomain(ctx, "user@example.com")
//
// With a dedicated verifier and policy:
//
//	v := domaincheck.New().
//	    WithCache(domaincheck.NewCache(1000, 24*time.Hour)).
//	    WithLogger(logger)
//	result, err := v.VerifyEmailDomain(ctx, "example.com", domaincheck.Options{
//	    RequireSMTPOrMX:       true,
//	    SMTPConnectionTimeout: 2 * time.Second,
//	})
//
// Only TCP reachability of the SMTP ports is checked; no SMTP command is sent.
package domaincheck

import (
	"context"
	"sync"
	"time"

	"github.com/optimode/domaincheck/internal/resultcache"
)

// Cache is the verification result cache. It is safe for concurrent use
// and may be shared between verifiers.
type Cache = resultcache.Cache

// NewCache creates a result cache holding at most size entries for ttl each.
// Non-positive values select 1000 entries and 24 hours.
func NewCache(size int, ttl time.Duration) *Cache {
	return resultcache.New(size, ttl)
}

var defaultVerifier = sync.OnceValue(New)

// VerifyEmailDomain verifies input with a process-wide default Verifier,
// which shares one cache across all calls.
func VerifyEmailDomain(ctx context.Context, input string, opts ...Options) (Result, error) {
	return defaultVerifier().VerifyEmailDomain(ctx, input, opts...)
}
