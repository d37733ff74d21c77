package facet

import (
	"context"

	"github.com/propfind/searchcore/internal/domain/property"
	"github.com/propfind/searchcore/internal/domain/search/facet"
	"github.com/propfind/searchcore/internal/domain/search/predicate"
)

// Repository defines the storage contract for working-set fetches.
type Repository interface {
	// Query returns one page of matches ordered by id plus the total count.
	Query(ctx context.Context, p predicate.Predicate, offset, limit int) ([]property.Property, int, error)
}

// Cache stores computed counts keyed by criteria fingerprint. Implementations
// report a miss as (zero, false, nil); errors are reserved for backend
// failures.
type Cache interface {
	Get(ctx context.Context, fingerprint string) (facet.Counts, bool, error)
	Put(ctx context.Context, fingerprint string, counts facet.Counts) error
}
