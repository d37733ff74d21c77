package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/propfind/searchcore/internal/domain"
	"github.com/propfind/searchcore/internal/domain/property"
	"github.com/propfind/searchcore/internal/domain/search/criteria"
	"github.com/propfind/searchcore/internal/domain/search/predicate"
	"github.com/propfind/searchcore/internal/domain/search/result"
)

// DefaultGeoCandidatesCap bounds the bounding-box candidate set fetched for
// exact radius filtering.
const DefaultGeoCandidatesCap = 1000

// Service executes property searches: criteria are compiled into a predicate,
// the store answers the indexable part, and radius searches get an exact
// distance pass on top of the bounding-box pre-filter.
type Service struct {
	repo    Repository
	geoCap  int
	timeout func(error) bool
}

// New creates a search service.
func New(repo Repository) *Service {
	return &Service{
		repo:    repo,
		geoCap:  DefaultGeoCandidatesCap,
		timeout: isTimeout,
	}
}

// WithGeoCandidatesCap overrides the bounding-box candidate cap.
func (s *Service) WithGeoCandidatesCap(n int) *Service {
	if n > 0 {
		s.geoCap = n
	}
	return s
}

// Search returns the page of properties matching the criteria. A store
// failure is always surfaced as an error, never as an empty result.
func (s *Service) Search(ctx context.Context, c criteria.Criteria) (result.SearchResult, error) {
	p := predicate.Compile(c)

	// An unsatisfiable band (minPrice > maxPrice and the like) yields an
	// empty result, not an error.
	if p.Impossible() {
		return result.Empty(c.Page(), c.Limit()), nil
	}

	if p.HasGeo() {
		return s.searchGeo(ctx, c, p)
	}

	props, total, err := s.repo.Query(ctx, p, p.Skip(), p.Take())
	if err != nil {
		return result.SearchResult{}, s.storeErr(err)
	}
	return result.New(props, total, c.Page(), c.Limit()), nil
}

// searchGeo fetches the bounding-box candidate set and re-evaluates the full
// predicate in memory, which applies the exact haversine check, before
// paginating. Pagination cannot be pushed to the store here: the box
// over-approximates the circle, so offsets computed against box matches
// would be wrong.
func (s *Service) searchGeo(
	ctx context.Context, c criteria.Criteria, p predicate.Predicate,
) (result.SearchResult, error) {
	candidates, _, err := s.repo.Query(ctx, p, 0, s.geoCap)
	if err != nil {
		return result.SearchResult{}, s.storeErr(err)
	}

	matched := make([]property.Property, 0, len(candidates))
	for i := range candidates {
		if p.Matches(&candidates[i]) {
			matched = append(matched, candidates[i])
		}
	}

	total := len(matched)
	start := p.Skip()
	if start > total {
		start = total
	}
	end := start + p.Take()
	if end > total {
		end = total
	}

	return result.New(matched[start:end], total, c.Page(), c.Limit()), nil
}

func (s *Service) storeErr(err error) error {
	if s.timeout(err) {
		return fmt.Errorf("%w: %w", domain.ErrStoreTimeout, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
