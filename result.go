package domaincheck

import "github.com/optimode/domaincheck/types"

// Details is a re-export from the types package so that consumers
// don't need to import the types package directly.
type Details = types.Details

// Result is the outcome of verifying one email address or domain.
// The Details fields are flattened, in Go and in JSON.
type Result struct {
	Domain   string `json:"domain"`
	Verified bool   `json:"verified"`
	Details
}
