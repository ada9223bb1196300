package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
)

const defaultWhoisTimeout = 5 * time.Second

// WhoisProber is the legacy port-43 fallback for TLDs whose registry
// has a WHOIS host but no RDAP endpoint.
type WhoisProber struct {
	Client  *whois.Client
	Timeout time.Duration
}

// Probe queries the given WHOIS host and interprets the response.
func (p *WhoisProber) Probe(ctx context.Context, domain, host string) WhoisSignal {
	if ctx == nil {
		ctx = context.Background()
	}

	timeout := defaultWhoisTimeout
	if p != nil && p.Timeout > 0 {
		timeout = p.Timeout
	}

	client := p.client()
	client.SetTimeout(timeout)

	type whoisReply struct {
		raw string
		err error
	}

	// The whois client has no context support; race it against the
	// caller's deadline so a hung registry cannot block the resolver.
	replyCh := make(chan whoisReply, 1)
	go func() {
		raw, err := client.Whois(domain, host)
		replyCh <- whoisReply{raw: raw, err: err}
	}()

	select {
	case <-ctx.Done():
		return WhoisSignal{Outcome: WhoisInconclusive, Server: host, Detail: "whois lookup timed out"}
	case reply := <-replyCh:
		if reply.err != nil {
			return WhoisSignal{Outcome: WhoisInconclusive, Server: host, Detail: fmt.Sprintf("whois lookup failed: %v", reply.err)}
		}
		return interpretWhois(reply.raw, host)
	}
}

func (p *WhoisProber) client() *whois.Client {
	if p != nil && p.Client != nil {
		return p.Client
	}
	return whois.NewClient()
}

func interpretWhois(raw, host string) WhoisSignal {
	_, err := whoisparser.Parse(raw)
	switch {
	case err == nil:
		return WhoisSignal{Outcome: WhoisTaken, Server: host, Detail: "whois record found"}
	case errors.Is(err, whoisparser.ErrNotFoundDomain):
		return WhoisSignal{Outcome: WhoisAvailable, Server: host, Detail: "whois no match"}
	case errors.Is(err, whoisparser.ErrPremiumDomain):
		return WhoisSignal{Outcome: WhoisTaken, Premium: true, Server: host, Detail: "whois premium domain"}
	case errors.Is(err, whoisparser.ErrReservedDomain), errors.Is(err, whoisparser.ErrBlockedDomain):
		return WhoisSignal{Outcome: WhoisTaken, Premium: true, Server: host, Detail: "whois reserved domain"}
	case errors.Is(err, whoisparser.ErrDomainLimitExceed):
		return WhoisSignal{Outcome: WhoisInconclusive, Server: host, Detail: "whois query limit exceeded"}
	default:
		return WhoisSignal{Outcome: WhoisInconclusive, Server: host, Detail: fmt.Sprintf("whois parse failed: %v", err)}
	}
}
