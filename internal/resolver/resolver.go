// Package resolver implements MX lookups directly on the DNS wire protocol,
// so that response codes such as SERVFAIL and "no data" answers can be told
// apart from NXDOMAIN, which the net package reports identically.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/miekg/dns"
)

// DefaultResolvConf is the resolver configuration read by FromResolvConf
// when no path is given.
const DefaultResolvConf = "/etc/resolv.conf"

var (
	// ErrNoData is returned when the name exists but has no MX records.
	ErrNoData = errors.New("resolver: no data")
	// ErrServerFailure is returned for SERVFAIL answers.
	ErrServerFailure = errors.New("resolver: server failure")
	// ErrNotFound is returned for NXDOMAIN answers.
	ErrNotFound = errors.New("resolver: no such domain")
	// ErrNoServers is returned by New when no nameserver is configured.
	ErrNoServers = errors.New("resolver: no nameservers configured")
)

// Error describes a failed lookup.
type Error struct {
	Name   string // queried name
	Server string // last server asked, host:port
	Rcode  int    // response code, -1 if no response was received
	Err    error  // ErrNoData, ErrServerFailure, ErrNotFound or a transport error
}

func (e *Error) Error() string {
	if e.Rcode >= 0 {
		return fmt.Sprintf("lookup %s on %s: %s: %v", e.Name, e.Server, dns.RcodeToString[e.Rcode], e.Err)
	}
	return fmt.Sprintf("lookup %s on %s: %v", e.Name, e.Server, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config is the resolver configuration.
type Config struct {
	// Servers are nameserver addresses, host:port. Required.
	Servers []string
	// Timeout is the per-exchange timeout. Default: 5s
	Timeout time.Duration
	// Attempts is how many rounds over all servers are made. Default: 2
	Attempts int
}

// Resolver queries MX records from the configured nameservers.
type Resolver struct {
	cfg Config
	udp *dns.Client
	tcp *dns.Client
}

// New creates a resolver.
func New(cfg Config) (*Resolver, error) {
	if len(cfg.Servers) == 0 {
		return nil, ErrNoServers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 2
	}
	return &Resolver{
		cfg: cfg,
		udp: &dns.Client{Net: "udp", Timeout: cfg.Timeout},
		tcp: &dns.Client{Net: "tcp", Timeout: cfg.Timeout},
	}, nil
}

// FromResolvConf creates a resolver using the nameservers, timeout and
// attempts of a resolv.conf file. An empty path means DefaultResolvConf.
func FromResolvConf(path string) (*Resolver, error) {
	if path == "" {
		path = DefaultResolvConf
	}
	cc, err := dns.ClientConfigFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	servers := make([]string, 0, len(cc.Servers))
	for _, s := range cc.Servers {
		servers = append(servers, net.JoinHostPort(s, cc.Port))
	}
	return New(Config{
		Servers:  servers,
		Timeout:  time.Duration(cc.Timeout) * time.Second,
		Attempts: cc.Attempts,
	})
}

// LookupMX returns the MX records of name in answer order.
// The returned hosts are absolute, with a trailing dot.
// SERVFAIL, NOTIMP and REFUSED move on to the next server; the last such
// error is returned once every server failed.
func (r *Resolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	fqdn := dns.Fqdn(name)

	var lastErr error
	for attempt := 0; attempt < r.cfg.Attempts; attempt++ {
		for _, server := range r.cfg.Servers {
			if err := ctx.Err(); err != nil {
				return nil, &Error{Name: name, Server: server, Rcode: -1, Err: err}
			}

			resp, err := r.exchange(ctx, fqdn, server)
			if err != nil {
				lastErr = &Error{Name: name, Server: server, Rcode: -1, Err: err}
				continue
			}
			if nextServer(resp.Rcode) {
				_, lastErr = answer(name, server, resp)
				continue
			}
			return answer(name, server, resp)
		}
	}
	return nil, lastErr
}

// nextServer reports whether rcode is a per-server failure after which the
// next nameserver is asked.
func nextServer(rcode int) bool {
	switch rcode {
	case dns.RcodeServerFailure, dns.RcodeNotImplemented, dns.RcodeRefused:
		return true
	}
	return false
}

// exchange sends one MX query over UDP, repeating it over TCP when the
// answer was truncated.
func (r *Resolver) exchange(ctx context.Context, fqdn, server string) (*dns.Msg, error) {
	m := new(dns.Msg)
	m.SetQuestion(fqdn, dns.TypeMX)
	m.RecursionDesired = true

	resp, _, err := r.udp.ExchangeContext(ctx, m, server)
	if err != nil {
		return nil, err
	}
	if resp.Truncated {
		m.Id = dns.Id()
		resp, _, err = r.tcp.ExchangeContext(ctx, m, server)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func answer(name, server string, resp *dns.Msg) ([]*net.MX, error) {
	switch resp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeServerFailure:
		return nil, &Error{Name: name, Server: server, Rcode: resp.Rcode, Err: ErrServerFailure}
	case dns.RcodeNameError:
		return nil, &Error{Name: name, Server: server, Rcode: resp.Rcode, Err: ErrNotFound}
	default:
		return nil, &Error{Name: name, Server: server, Rcode: resp.Rcode, Err: errors.New("rcode " + strconv.Itoa(resp.Rcode))}
	}

	var out []*net.MX
	for _, rr := range resp.Answer {
		mx, ok := rr.(*dns.MX)
		if !ok {
			// CNAME chains are followed by the recursive server.
			continue
		}
		out = append(out, &net.MX{Host: mx.Mx, Pref: mx.Preference})
	}
	if len(out) == 0 {
		return nil, &Error{Name: name, Server: server, Rcode: resp.Rcode, Err: ErrNoData}
	}
	return out, nil
}
