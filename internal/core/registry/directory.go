package registry

import (
	"context"
	"strings"
)

// Endpoint describes the authoritative lookup surfaces for one TLD.
// RDAPBaseURLs are tried in order; WhoisHost is the legacy port-43
// fallback for registries without RDAP coverage.
type Endpoint struct {
	RDAPBaseURLs []string
	WhoisHost    string
}

// Directory resolves a TLD to its registry endpoint. A nil endpoint
// with a nil error means the TLD is unsupported, which is a valid
// state rather than a failure.
type Directory interface {
	Lookup(ctx context.Context, tld string) (*Endpoint, error)
}

// Store is the persistence surface for IANA bootstrap data.
type Store interface {
	GetRDAPServers(ctx context.Context, tld string) ([]string, error)
}

// defaultEndpoints is the hand-curated directory used when the store
// has no bootstrap data for a TLD. The google registry TLDs route to
// known-good servers because the IANA entries are frequently stale.
var defaultEndpoints = map[string]Endpoint{
	"com": {RDAPBaseURLs: []string{"https://rdap.verisign.com/com/v1"}, WhoisHost: "whois.verisign-grs.com"},
	"net": {RDAPBaseURLs: []string{"https://rdap.verisign.com/net/v1"}, WhoisHost: "whois.verisign-grs.com"},
	"org": {RDAPBaseURLs: []string{"https://rdap.publicinterestregistry.org/rdap"}, WhoisHost: "whois.publicinterestregistry.org"},
	"io":  {RDAPBaseURLs: []string{"https://rdap.nic.io"}, WhoisHost: "whois.nic.io"},
	"co":  {RDAPBaseURLs: []string{"https://rdap.nic.co"}},
	"me":  {RDAPBaseURLs: []string{"https://rdap.nic.me"}},
	"xyz": {RDAPBaseURLs: []string{"https://rdap.centralnic.com/xyz"}},
	"dev": {RDAPBaseURLs: []string{"https://pubapi.registry.google/rdap", "https://www.rdap.net/rdap"}},
	"app": {RDAPBaseURLs: []string{"https://pubapi.registry.google/rdap", "https://www.rdap.net/rdap"}},

	// whois-only registries
	"ai": {WhoisHost: "whois.nic.ai"},
}

// Service is the Directory implementation backed by the bootstrap
// store with the curated table as fallback. Overrides win over both.
type Service struct {
	Store     Store
	Static    map[string]Endpoint
	Overrides map[string][]string
}

// Lookup resolves the registry endpoint for a TLD.
func (s *Service) Lookup(ctx context.Context, tld string) (*Endpoint, error) {
	normalized := NormalizeTLD(tld)
	if normalized == "" {
		return nil, nil
	}

	static, hasStatic := s.static()[normalized]

	if s != nil && s.Overrides != nil {
		if urls := s.Overrides[normalized]; len(urls) > 0 {
			return &Endpoint{RDAPBaseURLs: urls, WhoisHost: static.WhoisHost}, nil
		}
	}

	if s != nil && s.Store != nil {
		servers, err := s.Store.GetRDAPServers(ctx, normalized)
		if err != nil {
			return nil, err
		}
		if len(servers) > 0 {
			return &Endpoint{RDAPBaseURLs: servers, WhoisHost: static.WhoisHost}, nil
		}
	}

	if hasStatic {
		endpoint := static
		return &endpoint, nil
	}

	return nil, nil
}

// NormalizeTLD lowercases a TLD and strips any leading dot.
func NormalizeTLD(tld string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(tld, ".")))
}

func (s *Service) static() map[string]Endpoint {
	if s != nil && s.Static != nil {
		return s.Static
	}
	return defaultEndpoints
}
