package search

import (
	"context"

	"github.com/propfind/searchcore/internal/domain/property"
	"github.com/propfind/searchcore/internal/domain/search/predicate"
)

// Repository defines the storage contract for property search.
type Repository interface {
	// Query returns one page of matches ordered by id plus the total count.
	Query(ctx context.Context, p predicate.Predicate, offset, limit int) ([]property.Property, int, error)
}
