package check_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/optimode/domaincheck/check"
)

// mockProber records every probe and reports the listed host:port pairs open.
type mockProber struct {
	mu     sync.Mutex
	open   map[string]bool
	probes []string
	times  []time.Duration
}

func (m *mockProber) IsPortOpen(host string, port int, timeout time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	addr := fmt.Sprintf("%s:%d", host, port)
	m.probes = append(m.probes, addr)
	m.times = append(m.times, timeout)
	return m.open[addr]
}

func TestSMTPHostList(t *testing.T) {
	hosts := check.SMTPHostList("domain.com", []string{"mx1.domain.com", "mx2.domain.com"})
	assert.Equal(t, []string{"mx1.domain.com", "mx2.domain.com", "smtp.domain.com", "domain.com"}, hosts)
}

func TestSMTPHostList_NoMX(t *testing.T) {
	assert.Equal(t, []string{"smtp.domain.com", "domain.com"}, check.SMTPHostList("domain.com", nil))
}

func TestSMTPHostList_DoesNotAliasInput(t *testing.T) {
	mx := make([]string, 1, 10)
	mx[0] = "mx1"
	_ = check.SMTPHostList("a.com", mx)
	_ = check.SMTPHostList("b.com", mx)
	assert.Equal(t, []string{"mx1", "smtp.b.com", "b.com"}, check.SMTPHostList("b.com", mx))
	assert.Len(t, mx, 1)
}

func TestRunning_ProbesEveryCombination(t *testing.T) {
	p := &mockProber{}
	c := check.NewSMTPChecker(p, zerolog.Nop())

	ok := c.Running(context.Background(), []string{"host1", "host2"}, time.Second)
	assert.False(t, ok)
	assert.Equal(t, []string{
		"host1:25", "host1:465", "host1:587", "host1:2525",
		"host2:25", "host2:465", "host2:587", "host2:2525",
	}, p.probes)
	for _, d := range p.times {
		assert.Equal(t, time.Second, d)
	}
}

func TestRunning_StopsAtFirstSuccess(t *testing.T) {
	p := &mockProber{open: map[string]bool{"host2:587": true}}
	c := check.NewSMTPChecker(p, zerolog.Nop())

	ok := c.Running(context.Background(), []string{"host1", "host2"}, time.Second)
	assert.True(t, ok)
	assert.Len(t, p.probes, 7)
	assert.Equal(t, "host2:587", p.probes[len(p.probes)-1])
}

func TestRunning_FirstProbeSucceeds(t *testing.T) {
	p := &mockProber{open: map[string]bool{"host1:25": true, "host2:25": true}}
	c := check.NewSMTPChecker(p, zerolog.Nop())

	assert.True(t, c.Running(context.Background(), []string{"host1", "host2"}, time.Second))
	assert.Equal(t, []string{"host1:25"}, p.probes)
}

func TestRunning_NoHosts(t *testing.T) {
	p := &mockProber{}
	c := check.NewSMTPChecker(p, zerolog.Nop())

	assert.False(t, c.Running(context.Background(), nil, time.Second))
	assert.Empty(t, p.probes)
}

func TestRunning_ContextCancelled(t *testing.T) {
	p := &mockProber{}
	c := check.NewSMTPChecker(p, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, c.Running(ctx, []string{"host1"}, time.Second))
	assert.Empty(t, p.probes)
}
