// Package scheduler fans a list of domains out to the single-domain
// resolver (or a bulk provider) under a hard concurrency cap, streams
// results back as they complete, and stops launching new work once a
// target number of available domains has been found.
package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/domainscout/domainscout/internal/core"
	"github.com/domainscout/domainscout/internal/core/provider"
)

const (
	defaultIndividualCount  = 7
	defaultParallelism      = 8
	defaultGroupSize        = 25
	defaultGroupParallelism = 3
)

// Resolver is the single-domain resolution surface the scheduler fans
// out to.
type Resolver interface {
	Resolve(ctx context.Context, domain string) core.AvailabilityResult
}

// OnResult receives each terminal result exactly once, in completion
// order. Invocations are serialized; the callback never runs
// concurrently with itself.
type OnResult func(core.AvailabilityResult)

// Scheduler owns the lifecycle of in-flight work for its batches. The
// in-flight table deduplicates concurrent requests for the same domain
// across overlapping batches: a second request attaches to the
// existing resolution instead of issuing a duplicate probe.
type Scheduler struct {
	Resolver Resolver
	Bulk     provider.BulkChecker

	mu       sync.Mutex
	inflight map[string]*inflightCall
}

type inflightCall struct {
	done   chan struct{}
	result core.AvailabilityResult
}

// batchState serializes result emission and early-termination
// accounting for one ResolveBatch call.
type batchState struct {
	mu         sync.Mutex
	onResult   OnResult
	target     int
	available  int
	resolved   int
	terminated bool
}

func (b *batchState) emit(result core.AvailabilityResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.resolved++
	if result.Available {
		b.available++
		if b.target > 0 && b.available >= b.target {
			b.terminated = true
		}
	}
	if b.onResult != nil {
		b.onResult(result)
	}
}

func (b *batchState) isTerminated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.terminated
}

func (b *batchState) summary() core.BatchSummary {
	b.mu.Lock()
	defer b.mu.Unlock()
	return core.BatchSummary{
		Terminated:     b.terminated,
		AvailableFound: b.available,
		Resolved:       b.resolved,
	}
}

// ResolveBatch resolves every domain in the input exactly once,
// invoking onResult per domain as each resolution completes. It
// returns once all launched work has drained. Only precondition
// violations produce an error; per-domain failures surface as
// conservative results through onResult.
func (s *Scheduler) ResolveBatch(ctx context.Context, domains []string, onResult OnResult, opts core.BatchOptions) (core.BatchSummary, error) {
	if s == nil || s.Resolver == nil {
		return core.BatchSummary{}, errors.New("scheduler resolver is not configured")
	}
	opts, err := s.applyDefaults(opts)
	if err != nil {
		return core.BatchSummary{}, err
	}

	if ctx == nil {
		ctx = context.Background()
	}

	unique := dedupe(domains)
	state := &batchState{onResult: onResult, target: opts.TargetCount}

	split := opts.IndividualCount
	if split > len(unique) {
		split = len(unique)
	}

	s.runIndividual(ctx, unique[:split], opts.Parallelism, state)

	if !state.isTerminated() {
		remainder := unique[split:]
		if s.Bulk != nil {
			s.runGroups(ctx, remainder, opts, state)
		} else {
			s.runIndividual(ctx, remainder, opts.Parallelism, state)
		}
	}

	return state.summary(), nil
}

func (s *Scheduler) applyDefaults(opts core.BatchOptions) (core.BatchOptions, error) {
	if opts.IndividualCount < 0 || opts.TargetCount < 0 {
		return opts, errors.New("batch counts must not be negative")
	}
	if opts.Parallelism < 0 || opts.GroupSize < 0 || opts.GroupParallelism < 0 {
		return opts, errors.New("batch concurrency options must not be negative")
	}

	if opts.IndividualCount == 0 {
		opts.IndividualCount = defaultIndividualCount
	}
	if opts.Parallelism == 0 {
		opts.Parallelism = defaultParallelism
	}
	if opts.GroupSize == 0 {
		opts.GroupSize = defaultGroupSize
	}
	if opts.GroupParallelism == 0 {
		opts.GroupParallelism = defaultGroupParallelism
	}

	if s.Bulk != nil {
		if limit := s.Bulk.GroupLimit(); limit > 0 && opts.GroupSize > limit {
			opts.GroupSize = limit
		}
	}

	return opts, nil
}

// runIndividual processes domains in waves of up to parallelism
// concurrent resolutions. Each wave is fully launched before any of it
// is awaited; results stream out as they individually complete.
func (s *Scheduler) runIndividual(ctx context.Context, domains []string, parallelism int, state *batchState) {
	for start := 0; start < len(domains); start += parallelism {
		if state.isTerminated() {
			return
		}

		end := start + parallelism
		if end > len(domains) {
			end = len(domains)
		}

		var wg sync.WaitGroup
		for _, domain := range domains[start:end] {
			wg.Add(1)
			go func(domain string) {
				defer wg.Done()
				state.emit(s.resolveOne(ctx, domain))
			}(domain)
		}
		wg.Wait()
	}
}

// runGroups processes domains through the bulk provider in waves of up
// to GroupParallelism concurrent calls, each covering GroupSize
// domains. A failed group call synthesizes one error result per
// requested domain so the exactly-once delivery contract holds.
func (s *Scheduler) runGroups(ctx context.Context, domains []string, opts core.BatchOptions, state *batchState) {
	groups := chunk(domains, opts.GroupSize)

	for start := 0; start < len(groups); start += opts.GroupParallelism {
		if state.isTerminated() {
			return
		}

		end := start + opts.GroupParallelism
		if end > len(groups) {
			end = len(groups)
		}

		var wg sync.WaitGroup
		for _, group := range groups[start:end] {
			wg.Add(1)
			go func(group []string) {
				defer wg.Done()
				s.checkGroup(ctx, group, state)
			}(group)
		}
		wg.Wait()
	}
}

func (s *Scheduler) checkGroup(ctx context.Context, group []string, state *batchState) {
	results, err := s.Bulk.CheckMany(ctx, group)
	if err != nil {
		for _, domain := range group {
			state.emit(core.AvailabilityResult{
				Domain:    strings.ToLower(strings.TrimSpace(domain)),
				Available: false,
				Error:     err.Error(),
			})
		}
		return
	}

	for _, result := range results {
		state.emit(result)
	}
}

// resolveOne resolves a domain through the shared in-flight table so
// concurrent requests for the same domain share one resolution.
func (s *Scheduler) resolveOne(ctx context.Context, domain string) core.AvailabilityResult {
	key := strings.ToLower(strings.TrimSpace(domain))

	s.mu.Lock()
	if call, ok := s.inflight[key]; ok {
		s.mu.Unlock()
		<-call.done
		return call.result
	}
	call := &inflightCall{done: make(chan struct{})}
	if s.inflight == nil {
		s.inflight = make(map[string]*inflightCall)
	}
	s.inflight[key] = call
	s.mu.Unlock()

	call.result = s.Resolver.Resolve(ctx, domain)

	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
	close(call.done)

	return call.result
}

func dedupe(domains []string) []string {
	seen := make(map[string]struct{}, len(domains))
	unique := make([]string, 0, len(domains))
	for _, domain := range domains {
		key := strings.ToLower(strings.TrimSpace(domain))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, key)
	}
	return unique
}

func chunk(domains []string, size int) [][]string {
	if size <= 0 {
		return [][]string{domains}
	}

	var groups [][]string
	for start := 0; start < len(domains); start += size {
		end := start + size
		if end > len(domains) {
			end = len(domains)
		}
		groups = append(groups, domains[start:end])
	}
	return groups
}
