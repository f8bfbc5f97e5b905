package domaincheck

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/optimode/domaincheck/check"
	"github.com/optimode/domaincheck/internal/metrics"
	"github.com/optimode/domaincheck/internal/parse"
	"github.com/optimode/domaincheck/internal/probe"
	"github.com/optimode/domaincheck/internal/resolver"
	"github.com/optimode/domaincheck/internal/resultcache"
)

// Verifier runs the verification pipeline.
// Instantiate with the New() function; the With methods are meant to be
// called before the Verifier is used concurrently.
type Verifier struct {
	resolver check.MXResolver
	prober   check.PortProber // nil selects TCP dialing
	cache    *resultcache.Cache
	log      zerolog.Logger
	metrics  *metrics.Metrics

	mx    *check.MXChecker
	smtp  *check.SMTPChecker
	group singleflight.Group

	flightsMu sync.Mutex
	flights   map[string]*flight
}

// New creates a Verifier with a fresh cache, the nameservers of
// /etc/resolv.conf (or the net package resolver if that file cannot be
// read) and plain TCP dialing for port probes.
func New() *Verifier {
	v := &Verifier{
		cache: resultcache.New(resultcache.DefaultSize, resultcache.DefaultTTL),
		log:   zerolog.Nop(),
	}
	if r, err := resolver.FromResolvConf(resolver.DefaultResolvConf); err == nil {
		v.resolver = r
	} else {
		v.resolver = net.DefaultResolver
	}
	v.rebuild()
	return v
}

// WithResolver replaces the MX resolver.
func (v *Verifier) WithResolver(r check.MXResolver) *Verifier {
	v.resolver = r
	v.rebuild()
	return v
}

// WithProber replaces the port prober.
func (v *Verifier) WithProber(p check.PortProber) *Verifier {
	v.prober = p
	v.rebuild()
	return v
}

// WithCache replaces the result cache, e.g. to share one cache between
// verifiers or to isolate tests.
func (v *Verifier) WithCache(c *Cache) *Verifier {
	v.cache = c
	return v
}

// WithLogger sets the logger. The default discards everything.
func (v *Verifier) WithLogger(l zerolog.Logger) *Verifier {
	v.log = l
	v.rebuild()
	return v
}

// WithMetrics registers Prometheus collectors on reg and records lookups,
// probes, cache use and verdicts.
func (v *Verifier) WithMetrics(reg prometheus.Registerer) *Verifier {
	v.metrics = metrics.New(reg)
	v.rebuild()
	return v
}

// rebuild recreates the pipeline steps after a dependency changed.
func (v *Verifier) rebuild() {
	p := v.prober
	if p == nil {
		p = probe.New(probe.Config{Logger: v.log, Metrics: v.metrics})
	}
	v.mx = check.NewMXChecker(v.resolver, v.log, v.metrics)
	v.smtp = check.NewSMTPChecker(p, v.log)
}

// VerifyEmailDomain verifies the domain of input, an email address or a
// bare domain. It returns an error when opts conflict, when the MX
// lookup fails for a reason other than "no data" or "server failure", or
// when ctx is done before a definite answer.
func (v *Verifier) VerifyEmailDomain(ctx context.Context, input string, opts ...Options) (Result, error) {
	o := Options{}
	if len(opts) > 0 {
		o = opts[0]
	}
	s, err := EnsureOptions(o)
	if err != nil {
		return Result{}, err
	}

	domain := parse.ASCII(parse.Domain(input))
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("verifying %s: %w", domain, err)
	}

	details, err := v.verify(ctx, domain, s)
	if err != nil {
		v.log.Warn().Err(err).Str("domain", domain).Msg("verification failed")
		return Result{}, err
	}

	verified := s.Policy.Verified(details)
	v.metrics.ObserveVerification(s.Policy.String(), verified)
	return Result{
		Domain:   domain,
		Verified: verified,
		Details:  details,
	}, nil
}

// verify returns the raw signals for domain, from the cache when allowed.
// Concurrent misses for the same key share one network check.
func (v *Verifier) verify(ctx context.Context, domain string, s Settings) (Details, error) {
	if !s.UseCache {
		return v.check(ctx, domain, s)
	}

	key := resultcache.Key(domain, s.Policy.RequireSMTPOrMX(), s.Policy.MXNotRequired(), s.Policy.SMTPNotRequired())
	if d, ok := v.cache.Get(key); ok {
		v.metrics.ObserveCache(true)
		v.log.Debug().Str("key", key).Msg("cache hit")
		return d, nil
	}
	v.metrics.ObserveCache(false)
	v.log.Debug().Str("key", key).Msg("cache miss")

	f := v.join(ctx, key)
	ch := v.group.DoChan(key, func() (any, error) {
		d, err := v.check(f.ctx, domain, s)
		if err != nil {
			return Details{}, err
		}
		if resultcache.Storable(d) {
			v.cache.Set(key, d)
		}
		return d, nil
	})

	select {
	case res := <-ch:
		v.leave(key, f)
		if res.Err != nil {
			return Details{}, res.Err
		}
		d := res.Val.(Details).Clone()
		if err := interrupted(ctx, domain, d); err != nil {
			return Details{}, err
		}
		return d, nil
	case <-ctx.Done():
		v.leave(key, f)
		return Details{}, fmt.Errorf("verifying %s: %w", domain, ctx.Err())
	}
}

// flight is the context shared by all callers waiting on one in-flight
// check. It is cancelled when the last of them gives up.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func (v *Verifier) join(ctx context.Context, key string) *flight {
	v.flightsMu.Lock()
	defer v.flightsMu.Unlock()
	if v.flights == nil {
		v.flights = make(map[string]*flight)
	}
	f, ok := v.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		v.flights[key] = f
	}
	f.waiters++
	return f
}

func (v *Verifier) leave(key string, f *flight) {
	v.flightsMu.Lock()
	defer v.flightsMu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if v.flights[key] == f {
		delete(v.flights, key)
	}
	// a check abandoned by every caller must not be joined by later ones
	v.group.Forget(key)
}

// check runs the MX lookup and, when the policy needs it, the SMTP check.
func (v *Verifier) check(ctx context.Context, domain string, s Settings) (Details, error) {
	exchangeServers, err := v.mx.ExchangeServers(ctx, domain)
	if err != nil {
		return Details{}, err
	}

	d := Details{MXVerificationSucceed: len(exchangeServers) > 0}
	if s.Policy.skipSMTP(d.MXVerificationSucceed) {
		return d, nil
	}

	hosts := check.SMTPHostList(domain, exchangeServers)
	running := v.smtp.Running(ctx, hosts, s.SMTPConnectionTimeout)
	d.SMTPVerificationSucceed = &running
	if err := interrupted(ctx, domain, d); err != nil {
		return Details{}, err
	}
	return d, nil
}

// interrupted returns an error when ctx is done and d carries a failed
// SMTP check, which may have stopped before every port was tried. An open
// port found before the cancellation is kept.
func interrupted(ctx context.Context, domain string, d Details) error {
	if !d.SMTPChecked() || d.SMTPSucceeded() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("SMTP check for %s: %w", domain, err)
	}
	return nil
}

// ConcurrencyOptions configures concurrent processing for VerifyMany.
type ConcurrencyOptions struct {
	// Workers is the number of concurrent goroutines. Default: 5
	Workers int
}

// VerifyMany verifies multiple inputs concurrently with the same options.
// The result order matches the input slice order; inputs whose verification
// failed, or that were not started before ctx was done, have a zero Result.
// The first error encountered is returned after all workers stopped.
// Inputs are grouped by their ASCII domain so that repeated domains are
// answered from the cache or share one in-flight check.
func (v *Verifier) VerifyMany(ctx context.Context, inputs []string, opts Options, copts ...ConcurrencyOptions) ([]Result, error) {
	if _, err := EnsureOptions(opts); err != nil {
		return nil, err
	}

	workers := 5
	if len(copts) > 0 && copts[0].Workers > 0 {
		workers = copts[0].Workers
	}

	order := make([]int, len(inputs))
	domains := make([]string, len(inputs))
	for i, in := range inputs {
		order[i] = i
		domains[i] = parse.ASCII(parse.Domain(in))
	}
	sort.SliceStable(order, func(a, b int) bool {
		return domains[order[a]] < domains[order[b]]
	})

	results := make([]Result, len(inputs))
	var (
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	pending := make(chan int)
	go func() {
		defer close(pending)
		for _, idx := range order {
			select {
			case pending <- idx:
			case <-ctx.Done():
				fail(ctx.Err())
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for range min(workers, len(inputs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range pending {
				res, err := v.VerifyEmailDomain(ctx, inputs[idx], opts)
				if err != nil {
					fail(fmt.Errorf("verifying %q: %w", inputs[idx], err))
					continue
				}
				results[idx] = res
			}
		}()
	}

	wg.Wait()
	return results, firstErr
}
