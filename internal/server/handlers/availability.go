package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/domainscout/domainscout/internal/core"
	"github.com/domainscout/domainscout/internal/core/scheduler"
	apperrors "github.com/domainscout/domainscout/internal/errors"
)

// Resolver resolves the availability of a single domain.
type Resolver interface {
	Resolve(ctx context.Context, domain string) core.AvailabilityResult
}

// BatchScheduler fans a list of candidate domains out to the resolver.
type BatchScheduler interface {
	ResolveBatch(ctx context.Context, domains []string, onResult scheduler.OnResult, opts core.BatchOptions) (core.BatchSummary, error)
}

// Availability serves the single-domain and batch availability endpoints.
type Availability struct {
	Resolver Resolver
	Batch    BatchScheduler
}

// NewAvailability creates the availability handler set.
func NewAvailability(resolver Resolver, batch BatchScheduler) *Availability {
	return &Availability{Resolver: resolver, Batch: batch}
}

// ResolveHandler handles GET /v1/availability?domain=example.com.
func (h *Availability) ResolveHandler(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Resolver == nil {
		respondWithError(w, r, apperrors.NewInternalError("resolver not configured"))
		return
	}

	domain := r.URL.Query().Get("domain")
	if domain == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("query parameter 'domain' is required"))
		return
	}

	result := h.Resolver.Resolve(r.Context(), domain)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result)
}

// BatchRequest is the JSON body accepted by the batch endpoint.
type BatchRequest struct {
	Domains         []string `json:"domains"`
	TargetCount     int      `json:"target_count,omitempty"`
	Parallelism     int      `json:"parallelism,omitempty"`
	IndividualCount int      `json:"individual_count,omitempty"`
	GroupSize       int      `json:"group_size,omitempty"`
}

// batchSummaryLine is the terminal NDJSON line of a batch response.
type batchSummaryLine struct {
	Summary core.BatchSummary `json:"summary"`
}

type batchErrorLine struct {
	Error string `json:"error"`
}

const maxBatchDomains = 10000

// BatchHandler handles POST /v1/availability/batch. Results stream back
// as NDJSON, one result object per line, terminated by a summary line.
func (h *Availability) BatchHandler(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Batch == nil {
		respondWithError(w, r, apperrors.NewInternalError("batch scheduler not configured"))
		return
	}

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid batch request body"))
		return
	}

	if len(req.Domains) == 0 {
		respondWithError(w, r, apperrors.NewInvalidInputError("at least one domain is required"))
		return
	}
	if len(req.Domains) > maxBatchDomains {
		respondWithError(w, r, apperrors.NewValidationError("too many domains in one batch"))
		return
	}
	if req.TargetCount < 0 || req.Parallelism < 0 || req.IndividualCount < 0 || req.GroupSize < 0 {
		respondWithError(w, r, apperrors.NewValidationError("batch options must be non-negative"))
		return
	}

	opts := core.BatchOptions{
		TargetCount:     req.TargetCount,
		Parallelism:     req.Parallelism,
		IndividualCount: req.IndividualCount,
		GroupSize:       req.GroupSize,
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	encoder := json.NewEncoder(w)

	// The scheduler serializes result callbacks, but the flush below
	// must not race with the summary write.
	var mu sync.Mutex
	emit := func(result core.AvailabilityResult) {
		mu.Lock()
		defer mu.Unlock()
		_ = encoder.Encode(result)
		if flusher != nil {
			flusher.Flush()
		}
	}

	summary, err := h.Batch.ResolveBatch(r.Context(), req.Domains, emit, opts)

	mu.Lock()
	defer mu.Unlock()
	if err != nil {
		// Headers are already out; surface the failure in-stream.
		_ = encoder.Encode(batchErrorLine{Error: err.Error()})
		if flusher != nil {
			flusher.Flush()
		}
		return
	}

	_ = encoder.Encode(batchSummaryLine{Summary: summary})
	if flusher != nil {
		flusher.Flush()
	}
}
