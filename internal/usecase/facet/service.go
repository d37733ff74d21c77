// Package facet computes filter-option counts for the current search
// criteria, so the UI can show how many results each option would leave.
package facet

import (
	"context"
	"errors"
	"fmt"

	"github.com/propfind/searchcore/internal/domain"
	"github.com/propfind/searchcore/internal/domain/property"
	"github.com/propfind/searchcore/internal/domain/search/criteria"
	"github.com/propfind/searchcore/internal/domain/search/facet"
	"github.com/propfind/searchcore/internal/domain/search/predicate"
)

// DefaultSampleCap bounds the working set fetched for counting. Larger result
// sets are sampled: their counts are approximate and flagged as such.
const DefaultSampleCap = 1000

// Service computes facet counts over the working set selected by the
// criteria. Pagination on the criteria is ignored: counts describe the whole
// working set, not one page.
type Service struct {
	repo      Repository
	cache     Cache // nil disables caching
	sampleCap int
	timeout   func(error) bool

	// onCompute fires once per aggregation that actually hit the store.
	onCompute func()
}

// New creates a facet service.
func New(repo Repository) *Service {
	return &Service{
		repo:      repo,
		sampleCap: DefaultSampleCap,
		timeout:   isTimeout,
	}
}

// WithCache adds a best-effort cache for computed counts.
func (s *Service) WithCache(cache Cache) *Service {
	s.cache = cache
	return s
}

// WithSampleCap overrides the working-set cap.
func (s *Service) WithSampleCap(n int) *Service {
	if n > 0 {
		s.sampleCap = n
	}
	return s
}

// WithComputeHook registers a callback fired on each uncached aggregation.
func (s *Service) WithComputeHook(fn func()) *Service {
	s.onCompute = fn
	return s
}

// Counts returns per-option counts for all facet dimensions under the given
// criteria. A store failure surfaces as an error, never as empty counts.
func (s *Service) Counts(ctx context.Context, c criteria.Criteria) (facet.Counts, error) {
	p := predicate.Compile(c)
	if p.Impossible() {
		return facet.Aggregate(nil), nil
	}

	fingerprint := c.Fingerprint()
	if s.cache != nil {
		// A cache failure only costs a recomputation.
		if counts, hit, err := s.cache.Get(ctx, fingerprint); err == nil && hit {
			return counts, nil
		}
	}

	working, total, err := s.fetchWorkingSet(ctx, p)
	if err != nil {
		return facet.Counts{}, err
	}

	counts := facet.Aggregate(working)
	counts.Sampled = total > s.sampleCap

	if s.onCompute != nil {
		s.onCompute()
	}
	if s.cache != nil {
		_ = s.cache.Put(ctx, fingerprint, counts)
	}
	return counts, nil
}

// fetchWorkingSet pulls up to sampleCap matches and, for radius criteria,
// re-evaluates the full predicate in memory so that bounding-box candidates
// outside the exact circle never reach the counters.
func (s *Service) fetchWorkingSet(ctx context.Context, p predicate.Predicate) ([]property.Property, int, error) {
	working, total, err := s.repo.Query(ctx, p, 0, s.sampleCap)
	if err != nil {
		return nil, 0, s.storeErr(err)
	}

	if p.HasGeo() {
		matched := working[:0]
		for i := range working {
			if p.Matches(&working[i]) {
				matched = append(matched, working[i])
			}
		}
		working = matched
	}
	return working, total, nil
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
