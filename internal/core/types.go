package core

import "time"

// Provenance captures metadata about how a resolution was produced.
type Provenance struct {
	CheckID     string    `json:"check_id,omitempty"`
	RequestedAt time.Time `json:"requested_at,omitempty"`
	ResolvedAt  time.Time `json:"resolved_at,omitempty"`
	Source      string    `json:"source,omitempty"`
	Server      string    `json:"server,omitempty"`
	FromCache   bool      `json:"from_cache,omitempty"`
}

// AvailabilityResult is the terminal unit delivered to a result sink.
// Available is always a concrete boolean; degraded lookups report
// Available=false with a non-empty Error so callers can distinguish
// "confidently taken" from "could not confirm".
type AvailabilityResult struct {
	Domain       string     `json:"domain"`
	Available    bool       `json:"available"`
	Premium      *bool      `json:"premium,omitempty"`
	PremiumPrice *float64   `json:"premium_price,omitempty"`
	Aftermarket  *bool      `json:"aftermarket,omitempty"`
	Error        string     `json:"error,omitempty"`
	Provenance   Provenance `json:"provenance"`
}

// CacheEntry is a previously observed availability outcome.
type CacheEntry struct {
	Domain     string
	Available  bool
	Premium    *bool
	Message    string
	Source     string
	ObservedAt time.Time
	ExpiresAt  time.Time
}

// BatchOptions configures a batch resolution.
type BatchOptions struct {
	// IndividualCount is how many leading domains are resolved one at a
	// time before group calls kick in.
	IndividualCount int
	// TargetCount stops the scheduler from launching new work once this
	// many available results have been observed. Zero means unbounded.
	TargetCount int
	// Parallelism caps concurrently in-flight single-domain resolutions.
	Parallelism int
	// GroupSize is the number of domains per bulk-provider call.
	GroupSize int
	// GroupParallelism caps concurrently in-flight group calls.
	GroupParallelism int
}

// BatchSummary reports the outcome of a batch resolution.
type BatchSummary struct {
	Terminated     bool `json:"terminated"`
	AvailableFound int  `json:"available_found"`
	Resolved       int  `json:"resolved"`
}

// RateLimitState captures per-endpoint rate limiting state.
type RateLimitState struct {
	RequestCount int
	WindowStart  time.Time
	BackoffUntil *time.Time
	Last429At    *time.Time
}

// BoolPtr returns a pointer to b, for the optional result flags.
func BoolPtr(b bool) *bool {
	return &b
}
