// Package probe checks TCP reachability of host:port pairs.
// A probe is a bare connect; no protocol is spoken on the connection.
package probe

import (
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/optimode/domaincheck/internal/metrics"
)

// Config configures the prober.
type Config struct {
	// Dial is injectable for testing. Defaults to net.DialTimeout.
	Dial    func(network, address string, timeout time.Duration) (net.Conn, error)
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// Prober performs single TCP connection attempts.
type Prober struct {
	cfg Config
}

// New creates a prober.
func New(cfg Config) *Prober {
	if cfg.Dial == nil {
		cfg.Dial = net.DialTimeout
	}
	return &Prober{cfg: cfg}
}

// IsPortOpen reports whether a TCP connection to host:port completes
// within timeout. Refusals, unreachable hosts, name resolution failures
// and timeouts all yield false; it never returns an error. An established
// connection is closed before returning.
func (p *Prober) IsPortOpen(host string, port int, timeout time.Duration) bool {
	address := net.JoinHostPort(host, strconv.Itoa(port))
	start := time.Now()

	conn, err := p.cfg.Dial("tcp", address, timeout)
	if err != nil {
		p.cfg.Logger.Debug().Err(err).
			Str("address", address).
			Dur("duration", time.Since(start)).
			Msg("port closed")
		p.cfg.Metrics.ObserveProbe(port, false)
		return false
	}
	_ = conn.Close()

	p.cfg.Logger.Debug().
		Str("address", address).
		Dur("duration", time.Since(start)).
		Msg("port open")
	p.cfg.Metrics.ObserveProbe(port, true)
	return true
}
