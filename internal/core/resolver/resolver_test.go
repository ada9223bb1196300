package resolver

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/domainscout/domainscout/internal/config"
	"github.com/domainscout/domainscout/internal/core"
	"github.com/domainscout/domainscout/internal/core/probe"
	"github.com/domainscout/domainscout/internal/core/registry"
)

type dnsFunc func(ctx context.Context, domain string) probe.DNSSignal

func (f dnsFunc) Probe(ctx context.Context, domain string) probe.DNSSignal {
	return f(ctx, domain)
}

type rdapFunc func(ctx context.Context, domain, tld string) probe.RDAPSignal

func (f rdapFunc) Probe(ctx context.Context, domain, tld string) probe.RDAPSignal {
	return f(ctx, domain, tld)
}

type whoisFunc func(ctx context.Context, domain, host string) probe.WhoisSignal

func (f whoisFunc) Probe(ctx context.Context, domain, host string) probe.WhoisSignal {
	return f(ctx, domain, host)
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]core.CacheEntry
	gets    atomic.Int64
	puts    atomic.Int64
	delay   time.Duration
}

func (m *memoryCache) GetAvailability(ctx context.Context, domain string) (*core.CacheEntry, error) {
	m.gets.Add(1)
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.entries[domain]; ok && entry.ExpiresAt.After(time.Now()) {
		copied := entry
		return &copied, nil
	}
	return nil, nil
}

func (m *memoryCache) PutAvailability(ctx context.Context, entry core.CacheEntry) error {
	m.puts.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[string]core.CacheEntry)
	}
	m.entries[entry.Domain] = entry
	return nil
}

func availableRDAP() rdapFunc {
	return func(ctx context.Context, domain, tld string) probe.RDAPSignal {
		return probe.RDAPSignal{Outcome: probe.RDAPAvailable}
	}
}

func inconclusiveDNS() dnsFunc {
	return func(ctx context.Context, domain string) probe.DNSSignal {
		return probe.DNSSignal{Outcome: probe.DNSNoRecords}
	}
}

func TestResolveRejectsInvalidDomainBeforeIO(t *testing.T) {
	var probed atomic.Int64
	cache := &memoryCache{}
	r := &Resolver{
		Cache: cache,
		DNS: dnsFunc(func(ctx context.Context, domain string) probe.DNSSignal {
			probed.Add(1)
			return probe.DNSSignal{Outcome: probe.DNSTaken}
		}),
		RDAP: rdapFunc(func(ctx context.Context, domain, tld string) probe.RDAPSignal {
			probed.Add(1)
			return probe.RDAPSignal{Outcome: probe.RDAPAvailable}
		}),
	}

	for _, input := range []string{"", "foo", "not a domain", "foo..com", "-foo.com"} {
		result := r.Resolve(context.Background(), input)
		require.False(t, result.Available, "input %q", input)
		require.NotEmpty(t, result.Error, "input %q", input)
	}

	r.Drain()
	require.Zero(t, probed.Load())
	require.Zero(t, cache.gets.Load())
	require.Zero(t, cache.puts.Load())
}

func TestResolveDNSShortCircuit(t *testing.T) {
	r := &Resolver{
		DNS: dnsFunc(func(ctx context.Context, domain string) probe.DNSSignal {
			time.Sleep(10 * time.Millisecond)
			return probe.DNSSignal{Outcome: probe.DNSTaken}
		}),
		RDAP: rdapFunc(func(ctx context.Context, domain, tld string) probe.RDAPSignal {
			time.Sleep(500 * time.Millisecond)
			return probe.RDAPSignal{Outcome: probe.RDAPAvailable}
		}),
	}

	start := time.Now()
	result := r.Resolve(context.Background(), "example.com")
	elapsed := time.Since(start)

	require.False(t, result.Available)
	require.Empty(t, result.Error)
	require.Equal(t, "dns", result.Provenance.Source)
	require.Less(t, elapsed, 300*time.Millisecond)
}

func TestResolveRDAPAuthoritativeAfterInconclusiveDNS(t *testing.T) {
	r := &Resolver{
		DNS:  inconclusiveDNS(),
		RDAP: availableRDAP(),
	}

	result := r.Resolve(context.Background(), "example.com")
	require.True(t, result.Available)
	require.Equal(t, "rdap", result.Provenance.Source)
}

func TestResolveConservativeFallback(t *testing.T) {
	r := &Resolver{
		DNS: inconclusiveDNS(),
		RDAP: rdapFunc(func(ctx context.Context, domain, tld string) probe.RDAPSignal {
			return probe.RDAPSignal{Outcome: probe.RDAPTransportError, Detail: "connection refused"}
		}),
	}

	result := r.Resolve(context.Background(), "example.com")
	require.False(t, result.Available)
	require.NotEmpty(t, result.Error)
}

func TestResolveRDAPTimeoutIsConservative(t *testing.T) {
	r := &Resolver{
		DNS: inconclusiveDNS(),
		RDAP: rdapFunc(func(ctx context.Context, domain, tld string) probe.RDAPSignal {
			return probe.RDAPSignal{Outcome: probe.RDAPTimeout}
		}),
	}

	result := r.Resolve(context.Background(), "example.com")
	require.False(t, result.Available)
	require.Equal(t, "rdap timeout", result.Error)
}

func TestResolveCacheOptimismWithBackgroundRefresh(t *testing.T) {
	cache := &memoryCache{
		entries: map[string]core.CacheEntry{
			"nexify.com": {
				Domain:     "nexify.com",
				Available:  true,
				Source:     "rdap",
				ObservedAt: time.Now().UTC(),
				ExpiresAt:  time.Now().UTC().Add(5 * time.Minute),
			},
		},
	}

	r := &Resolver{
		Cache: cache,
		DNS:   inconclusiveDNS(),
		RDAP: rdapFunc(func(ctx context.Context, domain, tld string) probe.RDAPSignal {
			time.Sleep(50 * time.Millisecond)
			return probe.RDAPSignal{Outcome: probe.RDAPTaken}
		}),
	}

	start := time.Now()
	first := r.Resolve(context.Background(), "nexify.com")
	elapsed := time.Since(start)

	require.True(t, first.Available)
	require.True(t, first.Provenance.FromCache)
	require.Less(t, elapsed, 50*time.Millisecond)

	r.Drain()

	second := r.Resolve(context.Background(), "nexify.com")
	require.False(t, second.Available)
	require.True(t, second.Provenance.FromCache)

	r.Drain()
}

func TestResolveSlowCacheIsAMiss(t *testing.T) {
	cache := &memoryCache{
		delay: time.Second,
		entries: map[string]core.CacheEntry{
			"example.com": {
				Domain:    "example.com",
				Available: true,
				ExpiresAt: time.Now().UTC().Add(time.Hour),
			},
		},
	}

	r := &Resolver{
		Cache:         cache,
		CacheDeadline: 30 * time.Millisecond,
		DNS:           inconclusiveDNS(),
		RDAP: rdapFunc(func(ctx context.Context, domain, tld string) probe.RDAPSignal {
			return probe.RDAPSignal{Outcome: probe.RDAPTaken}
		}),
	}

	result := r.Resolve(context.Background(), "example.com")
	require.False(t, result.Available)
	require.False(t, result.Provenance.FromCache)

	r.Drain()
}

func TestResolveWhoisFallbackForUnsupportedTLD(t *testing.T) {
	r := &Resolver{
		DNS: inconclusiveDNS(),
		RDAP: rdapFunc(func(ctx context.Context, domain, tld string) probe.RDAPSignal {
			return probe.RDAPSignal{Outcome: probe.RDAPUnsupported}
		}),
		Whois: whoisFunc(func(ctx context.Context, domain, host string) probe.WhoisSignal {
			require.Equal(t, "whois.nic.ai", host)
			return probe.WhoisSignal{Outcome: probe.WhoisAvailable, Server: host}
		}),
		Directory: &registry.Service{},
	}

	result := r.Resolve(context.Background(), "nexify.ai")
	require.True(t, result.Available)
	require.Equal(t, "whois", result.Provenance.Source)
	require.Equal(t, "whois.nic.ai", result.Provenance.Server)
}

func TestResolveUnsupportedTLDWithoutWhois(t *testing.T) {
	r := &Resolver{
		DNS: inconclusiveDNS(),
		RDAP: rdapFunc(func(ctx context.Context, domain, tld string) probe.RDAPSignal {
			return probe.RDAPSignal{Outcome: probe.RDAPUnsupported}
		}),
	}

	result := r.Resolve(context.Background(), "example.zzz")
	require.False(t, result.Available)
	require.Contains(t, result.Error, "unsupported tld")
}

func TestResolveIdempotent(t *testing.T) {
	r := &Resolver{
		Cache: &memoryCache{},
		DNS:   inconclusiveDNS(),
		RDAP: rdapFunc(func(ctx context.Context, domain, tld string) probe.RDAPSignal {
			return probe.RDAPSignal{Outcome: probe.RDAPTaken, Premium: true}
		}),
		TTL: config.CacheConfig{TakenTTL: time.Nanosecond},
	}

	first := r.Resolve(context.Background(), "example.com")
	r.Drain()
	second := r.Resolve(context.Background(), "example.com")
	r.Drain()

	require.Equal(t, first.Available, second.Available)
	require.Equal(t, first.Error, second.Error)
	require.NotNil(t, first.Premium)
	require.NotNil(t, second.Premium)
	require.Equal(t, *first.Premium, *second.Premium)
}
