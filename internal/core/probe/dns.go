package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

const defaultDNSTimeout = time.Second

// NSLookupFunc resolves the nameserver records for a domain.
type NSLookupFunc func(ctx context.Context, domain string) ([]*net.NS, error)

// DNSProber issues a nameserver lookup with a bounded deadline.
// Nameserver presence is a cheap, very-low-false-positive signal for
// "registered"; absence proves nothing, so only the Taken branch is
// trusted standalone.
type DNSProber struct {
	Lookup  NSLookupFunc
	Timeout time.Duration
}

// Probe classifies the nameserver records for domain.
func (p *DNSProber) Probe(ctx context.Context, domain string) DNSSignal {
	if ctx == nil {
		ctx = context.Background()
	}

	timeout := defaultDNSTimeout
	if p != nil && p.Timeout > 0 {
		timeout = p.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	lookup := net.DefaultResolver.LookupNS
	if p != nil && p.Lookup != nil {
		lookup = p.Lookup
	}

	records, err := lookup(ctx, domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return DNSSignal{Outcome: DNSNoRecords, Detail: "dns nxdomain"}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return DNSSignal{Outcome: DNSErrored, Detail: "dns lookup timed out"}
		}
		return DNSSignal{Outcome: DNSErrored, Detail: fmt.Sprintf("dns lookup failed: %v", err)}
	}

	if len(records) == 0 {
		return DNSSignal{Outcome: DNSNoRecords, Detail: "dns no records"}
	}

	return DNSSignal{Outcome: DNSTaken, Detail: "dns records present"}
}
