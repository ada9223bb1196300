// Package probe contains the low-level availability probes: a fast
// low-confidence DNS check, the authoritative RDAP lookup, and a
// legacy WHOIS fallback for registries without RDAP coverage.
package probe

// DNSOutcome classifies a nameserver lookup. Only DNSTaken carries
// availability information; the inconclusive states require RDAP
// confirmation.
type DNSOutcome int

const (
	DNSTaken DNSOutcome = iota
	DNSNoRecords
	DNSErrored
)

// DNSSignal is the result of a DNS probe.
type DNSSignal struct {
	Outcome DNSOutcome
	Detail  string
}

// RDAPOutcome classifies an RDAP lookup. Available and Taken are
// authoritative; the rest are degraded states the resolver maps to a
// conservative taken-with-error result.
type RDAPOutcome int

const (
	RDAPAvailable RDAPOutcome = iota
	RDAPTaken
	RDAPUnsupported
	RDAPTimeout
	RDAPTransportError
)

// RDAPSignal is the result of an RDAP probe.
type RDAPSignal struct {
	Outcome    RDAPOutcome
	Premium    bool
	StatusCode int
	Server     string
	Detail     string
}

// WhoisOutcome classifies a legacy WHOIS lookup.
type WhoisOutcome int

const (
	WhoisAvailable WhoisOutcome = iota
	WhoisTaken
	WhoisInconclusive
)

// WhoisSignal is the result of a WHOIS probe.
type WhoisSignal struct {
	Outcome WhoisOutcome
	Premium bool
	Server  string
	Detail  string
}
