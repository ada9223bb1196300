// Package resolver turns one domain name into one authoritative
// availability answer by combining the cache, a fast DNS probe, and an
// authoritative RDAP lookup under per-phase deadlines.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/domainscout/domainscout/internal/config"
	"github.com/domainscout/domainscout/internal/core"
	"github.com/domainscout/domainscout/internal/core/probe"
	"github.com/domainscout/domainscout/internal/core/registry"
)

const (
	defaultCacheDeadline = 300 * time.Millisecond
	refreshBudget        = 10 * time.Second
	cacheWriteBudget     = 2 * time.Second
	defaultAvailableTTL  = 5 * time.Minute
	defaultTakenTTL      = time.Hour
	defaultErrorTTL      = 30 * time.Second
)

const (
	sourceCache = "cache"
	sourceDNS   = "dns"
	sourceRDAP  = "rdap"
	sourceWhois = "whois"
)

// Cache is the availability cache surface the resolver reads and
// writes. Both operations are best-effort on the resolver's side.
type Cache interface {
	GetAvailability(ctx context.Context, domain string) (*core.CacheEntry, error)
	PutAvailability(ctx context.Context, entry core.CacheEntry) error
}

// DNSProber supplies the low-confidence nameserver signal.
type DNSProber interface {
	Probe(ctx context.Context, domain string) probe.DNSSignal
}

// RDAPProber supplies the authoritative registry signal.
type RDAPProber interface {
	Probe(ctx context.Context, domain, tld string) probe.RDAPSignal
}

// WhoisProber is the port-43 fallback for TLDs without RDAP coverage.
type WhoisProber interface {
	Probe(ctx context.Context, domain, host string) probe.WhoisSignal
}

// Resolver orchestrates cache, DNS, and RDAP for single domains. It is
// stateless across calls and safe for concurrent use; the cache is the
// only shared storage and it tolerates last-write-wins races.
type Resolver struct {
	Cache     Cache
	DNS       DNSProber
	RDAP      RDAPProber
	Whois     WhoisProber
	Directory registry.Directory

	TTL           config.CacheConfig
	CacheDeadline time.Duration
	Logger        *logging.Logger
	Clock         func() time.Time

	background sync.WaitGroup
}

// Resolve produces a terminal availability result for one domain.
// Every failure mode degrades to available:false with a populated
// Error field; Resolve never returns an error to its caller.
func (r *Resolver) Resolve(ctx context.Context, raw string) core.AvailabilityResult {
	if ctx == nil {
		ctx = context.Background()
	}

	requestedAt := r.now()
	checkID := uuid.NewString()

	domain, err := core.NormalizeDomain(raw)
	if err != nil {
		return core.AvailabilityResult{
			Domain:    strings.ToLower(strings.TrimSpace(raw)),
			Available: false,
			Error:     err.Error(),
			Provenance: core.Provenance{
				CheckID:     checkID,
				RequestedAt: requestedAt,
				ResolvedAt:  r.now(),
			},
		}
	}
	tld := core.TLDOf(domain)

	if entry := r.cacheLookup(ctx, domain); entry != nil {
		result := r.resultFromCache(domain, entry, checkID, requestedAt)

		// Optimistic hit: answer from the cache now, verify in the
		// background, and let the cache self-heal. The refresh outcome
		// is never surfaced to this caller.
		r.background.Add(1)
		go func() {
			defer r.background.Done()
			refreshCtx, cancel := context.WithTimeout(context.Background(), refreshBudget)
			defer cancel()
			refreshed := r.probePhase(refreshCtx, domain, tld, checkID, requestedAt)
			r.storeResult(refreshCtx, refreshed)
		}()

		return result
	}

	result := r.probePhase(ctx, domain, tld, checkID, requestedAt)
	r.writeBack(result)
	return result
}

// Drain blocks until all background refreshes and cache writes started
// by previous Resolve calls have finished.
func (r *Resolver) Drain() {
	r.background.Wait()
}

// cacheLookup queries the cache under its own deadline. A slow or
// failing cache is treated as a miss so it never blocks the critical
// path.
func (r *Resolver) cacheLookup(ctx context.Context, domain string) *core.CacheEntry {
	if r.Cache == nil {
		return nil
	}

	deadline := r.CacheDeadline
	if deadline <= 0 {
		deadline = defaultCacheDeadline
	}

	lookupCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	entryCh := make(chan *core.CacheEntry, 1)
	go func() {
		entry, err := r.Cache.GetAvailability(lookupCtx, domain)
		if err != nil {
			if r.Logger != nil {
				r.Logger.Debug("Cache lookup failed",
					zap.String("domain", domain),
					zap.Error(err),
				)
			}
			entryCh <- nil
			return
		}
		entryCh <- entry
	}()

	select {
	case <-lookupCtx.Done():
		return nil
	case entry := <-entryCh:
		return entry
	}
}

func (r *Resolver) resultFromCache(domain string, entry *core.CacheEntry, checkID string, requestedAt time.Time) core.AvailabilityResult {
	return core.AvailabilityResult{
		Domain:    domain,
		Available: entry.Available,
		Premium:   entry.Premium,
		Error:     entry.Message,
		Provenance: core.Provenance{
			CheckID:     checkID,
			RequestedAt: requestedAt,
			ResolvedAt:  r.now(),
			Source:      sourceCache,
			FromCache:   true,
		},
	}
}

// probePhase races the DNS and RDAP probes. A DNS "taken" answer
// short-circuits without waiting for RDAP; every other DNS outcome is
// discarded and RDAP decides.
func (r *Resolver) probePhase(ctx context.Context, domain, tld, checkID string, requestedAt time.Time) core.AvailabilityResult {
	var dnsCh chan probe.DNSSignal
	if r.DNS != nil {
		dnsCh = make(chan probe.DNSSignal, 1)
		go func() {
			dnsCh <- r.DNS.Probe(ctx, domain)
		}()
	}

	rdapCh := make(chan probe.RDAPSignal, 1)
	go func() {
		if r.RDAP == nil {
			rdapCh <- probe.RDAPSignal{Outcome: probe.RDAPTransportError, Detail: "rdap prober is not configured"}
			return
		}
		rdapCh <- r.RDAP.Probe(ctx, domain, tld)
	}()

	for {
		select {
		case signal := <-dnsCh:
			if signal.Outcome == probe.DNSTaken {
				return core.AvailabilityResult{
					Domain:    domain,
					Available: false,
					Provenance: core.Provenance{
						CheckID:     checkID,
						RequestedAt: requestedAt,
						ResolvedAt:  r.now(),
						Source:      sourceDNS,
					},
				}
			}
			dnsCh = nil
		case signal := <-rdapCh:
			return r.resultFromRDAP(ctx, domain, tld, signal, checkID, requestedAt)
		}
	}
}

func (r *Resolver) resultFromRDAP(ctx context.Context, domain, tld string, signal probe.RDAPSignal, checkID string, requestedAt time.Time) core.AvailabilityResult {
	result := core.AvailabilityResult{
		Domain: domain,
		Provenance: core.Provenance{
			CheckID:     checkID,
			RequestedAt: requestedAt,
			ResolvedAt:  r.now(),
			Source:      sourceRDAP,
			Server:      signal.Server,
		},
	}

	switch signal.Outcome {
	case probe.RDAPAvailable:
		result.Available = true
	case probe.RDAPTaken:
		result.Available = false
		result.Premium = core.BoolPtr(signal.Premium)
	case probe.RDAPTimeout:
		result.Available = false
		result.Error = "rdap timeout"
	case probe.RDAPUnsupported:
		return r.whoisFallback(ctx, domain, tld, checkID, requestedAt)
	default:
		result.Available = false
		result.Error = signal.Detail
		if result.Error == "" {
			result.Error = "rdap transport error"
		}
	}

	result.Provenance.ResolvedAt = r.now()
	return result
}

// whoisFallback handles TLDs the RDAP directory cannot serve. With a
// known WHOIS host the legacy protocol decides; without one the domain
// is reported as an unsupported TLD.
func (r *Resolver) whoisFallback(ctx context.Context, domain, tld, checkID string, requestedAt time.Time) core.AvailabilityResult {
	result := core.AvailabilityResult{
		Domain:    domain,
		Available: false,
		Provenance: core.Provenance{
			CheckID:     checkID,
			RequestedAt: requestedAt,
			Source:      sourceWhois,
		},
	}

	host := r.whoisHost(ctx, tld)
	if host == "" || r.Whois == nil {
		result.Error = fmt.Sprintf("unsupported tld: %q", tld)
		result.Provenance.Source = sourceRDAP
		result.Provenance.ResolvedAt = r.now()
		return result
	}

	signal := r.Whois.Probe(ctx, domain, host)
	result.Provenance.Server = signal.Server

	switch signal.Outcome {
	case probe.WhoisAvailable:
		result.Available = true
	case probe.WhoisTaken:
		if signal.Premium {
			result.Premium = core.BoolPtr(true)
		}
	default:
		result.Error = signal.Detail
		if result.Error == "" {
			result.Error = "whois lookup inconclusive"
		}
	}

	result.Provenance.ResolvedAt = r.now()
	return result
}

func (r *Resolver) whoisHost(ctx context.Context, tld string) string {
	if r.Directory == nil {
		return ""
	}
	endpoint, err := r.Directory.Lookup(ctx, tld)
	if err != nil || endpoint == nil {
		return ""
	}
	return endpoint.WhoisHost
}

// writeBack persists a resolution outcome without blocking the caller.
// Cache writes are a performance optimization, never a correctness
// requirement, so failures are logged and dropped.
func (r *Resolver) writeBack(result core.AvailabilityResult) {
	if r.Cache == nil {
		return
	}

	r.background.Add(1)
	go func() {
		defer r.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), cacheWriteBudget)
		defer cancel()
		r.storeResult(ctx, result)
	}()
}

func (r *Resolver) storeResult(ctx context.Context, result core.AvailabilityResult) {
	if r.Cache == nil || result.Domain == "" {
		return
	}

	now := r.now()
	entry := core.CacheEntry{
		Domain:     result.Domain,
		Available:  result.Available,
		Premium:    result.Premium,
		Message:    result.Error,
		Source:     result.Provenance.Source,
		ObservedAt: now,
		ExpiresAt:  now.Add(r.ttlFor(result)),
	}

	if err := r.Cache.PutAvailability(ctx, entry); err != nil && r.Logger != nil {
		r.Logger.Warn("Cache write failed",
			zap.String("domain", result.Domain),
			zap.Error(err),
		)
	}
}

// ttlFor applies the staleness policy: confirmed-taken domains are
// stable and cache longest, available ones may be registered at any
// moment, and degraded observations expire quickly so recoverable
// failures get retried.
func (r *Resolver) ttlFor(result core.AvailabilityResult) time.Duration {
	switch {
	case result.Error != "":
		if r.TTL.ErrorTTL > 0 {
			return r.TTL.ErrorTTL
		}
		return defaultErrorTTL
	case result.Available:
		if r.TTL.AvailableTTL > 0 {
			return r.TTL.AvailableTTL
		}
		return defaultAvailableTTL
	default:
		if r.TTL.TakenTTL > 0 {
			return r.TTL.TakenTTL
		}
		return defaultTakenTTL
	}
}

func (r *Resolver) now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now().UTC()
}
