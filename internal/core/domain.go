package core

import (
	"fmt"
	"regexp"
	"strings"
)

// domainPattern enforces label+TLD syntax: alphanumeric labels with
// internal hyphens only, and a final label of at least two letters.
var domainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)*\.[a-z]{2,}$`)

// NormalizeDomain lowercases and validates a candidate domain string.
// Invalid domains are rejected here, before any cache or network I/O.
func NormalizeDomain(value string) (string, error) {
	domain := strings.ToLower(strings.TrimSpace(value))
	if domain == "" {
		return "", fmt.Errorf("domain is required")
	}
	if !domainPattern.MatchString(domain) {
		return "", fmt.Errorf("invalid domain: %q", value)
	}
	return domain, nil
}

// SplitDomain splits a normalized domain into its base name and TLD.
func SplitDomain(domain string) (string, string, error) {
	parts := strings.Split(domain, ".")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("domain must include a tld: %q", domain)
	}
	base := strings.Join(parts[:len(parts)-1], ".")
	tld := parts[len(parts)-1]
	return base, tld, nil
}

// TLDOf returns the final label of a domain, or "" when there is none.
func TLDOf(domain string) string {
	idx := strings.LastIndex(domain, ".")
	if idx < 0 || idx == len(domain)-1 {
		return ""
	}
	return domain[idx+1:]
}
