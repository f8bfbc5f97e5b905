// Package types contains the shared types for domaincheck.
// This package does not import anything from other domaincheck packages
// to avoid circular imports.
package types

// Details is the raw signal record produced by one verification run.
// It is what the result cache stores; the verdict is derived from it.
type Details struct {
	MXVerificationSucceed bool `json:"mxVerificationSucceed"`
	// SMTPVerificationSucceed is nil when the SMTP check did not run.
	SMTPVerificationSucceed *bool `json:"smtpVerificationSucceed,omitempty"`
}

// SMTPChecked reports whether the SMTP check ran.
func (d Details) SMTPChecked() bool {
	return d.SMTPVerificationSucceed != nil
}

// SMTPSucceeded returns the SMTP outcome, treating "not checked" as false.
func (d Details) SMTPSucceeded() bool {
	return d.SMTPVerificationSucceed != nil && *d.SMTPVerificationSucceed
}

// Clone returns a copy that shares no memory with d.
func (d Details) Clone() Details {
	out := Details{MXVerificationSucceed: d.MXVerificationSucceed}
	if d.SMTPVerificationSucceed != nil {
		v := *d.SMTPVerificationSucceed
		out.SMTPVerificationSucceed = &v
	}
	return out
}
