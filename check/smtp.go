package check

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SMTPPorts are the well-known SMTP ports, probed in this order.
var SMTPPorts = []int{25, 465, 587, 2525}

// PortProber attempts a single TCP connection.
type PortProber interface {
	IsPortOpen(host string, port int, timeout time.Duration) bool
}

// SMTPHostList returns the hosts to probe for domain: the MX hosts in
// preference order, then "smtp.<domain>", then the domain itself. The two
// fallbacks are always present, even without MX records.
func SMTPHostList(domain string, exchangeServers []string) []string {
	hosts := make([]string, 0, len(exchangeServers)+2)
	hosts = append(hosts, exchangeServers...)
	return append(hosts, "smtp."+domain, domain)
}

// SMTPChecker checks whether any candidate host accepts TCP connections
// on an SMTP port.
type SMTPChecker struct {
	prober PortProber
	log    zerolog.Logger
}

func NewSMTPChecker(p PortProber, log zerolog.Logger) *SMTPChecker {
	return &SMTPChecker{prober: p, log: log}
}

// Running probes every host on every port in SMTPPorts, host-major, one at
// a time, and returns true at the first open port. It returns false once all
// combinations failed, or early when ctx is done.
func (c *SMTPChecker) Running(ctx context.Context, hosts []string, timeout time.Duration) bool {
	for _, host := range hosts {
		for _, port := range SMTPPorts {
			// Check context cancellation before each attempt
			select {
			case <-ctx.Done():
				return false
			default:
			}

			if c.prober.IsPortOpen(host, port, timeout) {
				c.log.Debug().Str("host", host).Int("port", port).Msg("smtp port open")
				return true
			}
		}
	}
	c.log.Debug().Strs("hosts", hosts).Msg("no smtp port open")
	return false
}
