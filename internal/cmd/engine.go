package cmd

import (
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/logging"

	"github.com/domainscout/domainscout/internal/config"
	"github.com/domainscout/domainscout/internal/core/engine"
	"github.com/domainscout/domainscout/internal/core/probe"
	"github.com/domainscout/domainscout/internal/core/provider"
	"github.com/domainscout/domainscout/internal/core/registry"
	"github.com/domainscout/domainscout/internal/core/resolver"
	"github.com/domainscout/domainscout/internal/core/scheduler"
	"github.com/domainscout/domainscout/internal/core/store"
)

// engineSet bundles the resolution pipeline built on one store.
type engineSet struct {
	resolver  *resolver.Resolver
	scheduler *scheduler.Scheduler
}

// buildEngine wires the store-backed directory, rate limiter, probes,
// resolver, and scheduler from configuration.
func buildEngine(cfg *config.Config, db *store.Store, logger *logging.Logger) *engineSet {
	limiter := &engine.RateLimiter{Store: db}
	limiter.ApplyOverrides(cfg.RateLimits)
	limiter.ApplySafetyMargin(cfg.RateLimitMargin)

	directory := &registry.Service{
		Store:     db,
		Overrides: cfg.Registry.Servers,
	}

	res := &resolver.Resolver{
		Cache: db,
		DNS:   &probe.DNSProber{Timeout: cfg.Resolver.DNSTimeout},
		RDAP: &probe.RDAPProber{
			Directory: directory,
			Limiter:   limiter,
			Timeout:   cfg.Resolver.RDAPTimeout,
		},
		Whois:         &probe.WhoisProber{Timeout: cfg.Resolver.WhoisTimeout},
		Directory:     directory,
		TTL:           cfg.Cache,
		CacheDeadline: cfg.Resolver.CacheDeadline,
		Logger:        logger,
	}

	sched := &scheduler.Scheduler{Resolver: res}

	if cfg.Provider.Namecheap.Enabled {
		timeout := cfg.Provider.Namecheap.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		sched.Bulk = &provider.Namecheap{
			Config:     cfg.Provider.Namecheap,
			HTTPClient: &http.Client{Timeout: timeout},
			Limiter:    limiter,
		}
	}

	return &engineSet{
		resolver:  res,
		scheduler: sched,
	}
}
