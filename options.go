package domaincheck

import "time"

// DefaultSMTPConnectionTimeout bounds each SMTP port probe when
// Options.SMTPConnectionTimeout is zero.
const DefaultSMTPConnectionTimeout = 1000 * time.Millisecond

// Options configures one verification call.
// At most one of MXNotRequired, SMTPNotRequired and RequireSMTPOrMX may be
// set; with none set both checks are required.
type Options struct {
	// MXNotRequired accepts a domain without MX records if an SMTP port answers.
	MXNotRequired bool
	// SMTPNotRequired accepts a domain on its MX records alone. No port is probed.
	SMTPNotRequired bool
	// RequireSMTPOrMX accepts a domain if either check succeeds. Ports are
	// only probed when the MX check failed.
	RequireSMTPOrMX bool
	// SMTPConnectionTimeout bounds each port probe. Default: 1s
	SMTPConnectionTimeout time.Duration
	// DisableCache bypasses the result cache for reads and writes.
	// Default: false (cache is used)
	DisableCache bool
}

// Policy selects which signals must succeed for a domain to be verified.
type Policy int

const (
	// PolicyBothRequired requires MX records and an open SMTP port.
	PolicyBothRequired Policy = iota
	// PolicySMTPRequired requires an open SMTP port only (MXNotRequired).
	PolicySMTPRequired
	// PolicyMXRequired requires MX records only (SMTPNotRequired).
	PolicyMXRequired
	// PolicyEither requires MX records or an open SMTP port (RequireSMTPOrMX).
	PolicyEither
)

func (p Policy) String() string {
	switch p {
	case PolicyBothRequired:
		return "both"
	case PolicySMTPRequired:
		return "smtp"
	case PolicyMXRequired:
		return "mx"
	case PolicyEither:
		return "either"
	}
	return "unknown"
}

func (p Policy) MXNotRequired() bool   { return p == PolicySMTPRequired }
func (p Policy) SMTPNotRequired() bool { return p == PolicyMXRequired }
func (p Policy) RequireSMTPOrMX() bool { return p == PolicyEither }

// Verified derives the verdict from the raw signals.
// A missing SMTP result counts as a failed SMTP check.
func (p Policy) Verified(d Details) bool {
	if p.RequireSMTPOrMX() {
		return d.MXVerificationSucceed || d.SMTPSucceeded()
	}
	return (d.MXVerificationSucceed || p.MXNotRequired()) &&
		(d.SMTPSucceeded() || p.SMTPNotRequired())
}

// skipSMTP reports whether the SMTP check can be left out given the MX outcome.
func (p Policy) skipSMTP(mxSucceeded bool) bool {
	return (p.RequireSMTPOrMX() && mxSucceeded) || p.SMTPNotRequired()
}

// Settings are Options with all defaults applied.
type Settings struct {
	Policy                Policy
	SMTPConnectionTimeout time.Duration
	UseCache              bool
}

func defaultSettings() Settings {
	return Settings{
		Policy:                PolicyBothRequired,
		SMTPConnectionTimeout: DefaultSMTPConnectionTimeout,
		UseCache:              true,
	}
}

// EnsureOptions applies defaults to o. It returns ErrConflictingPolicy
// when more than one policy flag is set.
func EnsureOptions(o Options) (Settings, error) {
	s := defaultSettings()

	set := 0
	if o.MXNotRequired {
		s.Policy = PolicySMTPRequired
		set++
	}
	if o.SMTPNotRequired {
		s.Policy = PolicyMXRequired
		set++
	}
	if o.RequireSMTPOrMX {
		s.Policy = PolicyEither
		set++
	}
	if set > 1 {
		return Settings{}, ErrConflictingPolicy
	}

	if o.SMTPConnectionTimeout > 0 {
		s.SMTPConnectionTimeout = o.SMTPConnectionTimeout
	}
	s.UseCache = !o.DisableCache
	return s, nil
}
