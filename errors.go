package domaincheck

import "errors"

var (
	// ErrConflictingPolicy is returned when more than one of MXNotRequired,
	// SMTPNotRequired and RequireSMTPOrMX is set.
	ErrConflictingPolicy = errors.New("domaincheck: MXNotRequired, SMTPNotRequired and RequireSMTPOrMX are mutually exclusive")
)
