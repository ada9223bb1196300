// Package provider contains bulk availability providers. A bulk
// provider answers for many domains in one network call; its wire
// format is fully contained in the adapter and never leaks into the
// scheduler.
package provider

import (
	"context"

	"github.com/domainscout/domainscout/internal/core"
)

// BulkChecker resolves a group of domains in one provider call. A nil
// error means one result per requested domain, in request order;
// domains the provider omitted carry a synthesized error result. A
// non-nil error means the whole call failed and the caller must
// synthesize error results for every requested domain.
type BulkChecker interface {
	CheckMany(ctx context.Context, domains []string) ([]core.AvailabilityResult, error)

	// GroupLimit is the maximum number of domains per call.
	GroupLimit() int
}
