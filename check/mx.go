package check

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/optimode/domaincheck/internal/metrics"
	"github.com/optimode/domaincheck/internal/resolver"
)

// MXResolver looks up MX records. *net.Resolver implements it, as does
// the wire-level resolver used by default.
type MXResolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// MXChecker resolves the mail exchangers of a domain.
type MXChecker struct {
	resolver MXResolver
	log      zerolog.Logger
	metrics  *metrics.Metrics
}

func NewMXChecker(r MXResolver, log zerolog.Logger, m *metrics.Metrics) *MXChecker {
	return &MXChecker{resolver: r, log: log, metrics: m}
}

// ExchangeServers returns the MX hosts of domain, most preferred first,
// without trailing dots. A "no data" or "server failure" answer is not an
// error: the domain simply has no mail exchangers. Any other DNS failure
// is returned.
func (c *MXChecker) ExchangeServers(ctx context.Context, domain string) ([]string, error) {
	start := time.Now()

	mxRecords, err := c.resolver.LookupMX(ctx, domain)
	if err != nil {
		if isEmptyAnswer(err) {
			c.metrics.ObserveLookup(metrics.LookupEmpty, start)
			c.log.Debug().Err(err).Str("domain", domain).Msg("no mx records")
			return nil, nil
		}
		c.metrics.ObserveLookup(metrics.LookupError, start)
		return nil, fmt.Errorf("MX lookup for %s: %w", domain, err)
	}

	sort.SliceStable(mxRecords, func(i, j int) bool {
		return mxRecords[i].Pref < mxRecords[j].Pref
	})

	hosts := make([]string, 0, len(mxRecords))
	for _, mx := range mxRecords {
		hosts = append(hosts, strings.TrimSuffix(mx.Host, "."))
	}

	result := metrics.LookupOK
	if len(hosts) == 0 {
		result = metrics.LookupEmpty
	}
	c.metrics.ObserveLookup(result, start)
	c.log.Debug().Str("domain", domain).Strs("hosts", hosts).Msg("mx lookup")
	return hosts, nil
}

// isEmptyAnswer reports whether err means "no MX records" rather than a
// failed lookup.
func isEmptyAnswer(err error) bool {
	if errors.Is(err, resolver.ErrNoData) || errors.Is(err, resolver.ErrServerFailure) {
		return true
	}

	// The net package reports SERVFAIL as "server misbehaving", and folds
	// "no data" and NXDOMAIN into IsNotFound. This path is less strict than
	// the wire resolver: a nonexistent domain reads as having no MX records
	// instead of failing the lookup with resolver.ErrNotFound.
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound || dnsErr.Err == "server misbehaving"
	}
	return false
}
