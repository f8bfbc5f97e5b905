package parse

import (
	"strings"

	"golang.org/x/net/idna"
)

// Domain extracts the candidate domain from an "email or domain" string.
// Input without "@" is returned as is. Otherwise the part after the last
// "@" is returned, so "wrong@email@domain1.com" yields "domain1.com".
// The result is not validated: malformed input surfaces later as a DNS
// or connection failure.
func Domain(raw string) string {
	atIdx := strings.LastIndex(raw, "@")
	if atIdx < 0 {
		return raw
	}
	return raw[atIdx+1:]
}

// ASCII returns the ASCII/Punycode form of domain for DNS lookups and
// dialing. Pure ASCII input is returned unchanged (no case folding), as is
// any internationalized domain that fails IDNA2008 validation.
func ASCII(domain string) string {
	hasNonASCII := false
	for _, r := range domain {
		if r > 127 {
			hasNonASCII = true
			break
		}
	}
	if !hasNonASCII {
		return domain
	}

	a, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return domain
	}
	return a
}
