// Package check contains the network steps of domaincheck: MX lookup,
// SMTP host list derivation and the SMTP port liveness check.
// These types can be used directly, but the recommended approach is
// to use the Verifier from the github.com/optimode/domaincheck package.
package check
