// Package facetcache is a short-lived cache for computed facet counts, keyed
// by the criteria fingerprint. Counts are approximate by design, so serving a
// slightly stale copy is acceptable and saves a working-set fetch per page.
package facetcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/propfind/searchcore/internal/db"
	"github.com/propfind/searchcore/internal/domain/search/facet"
)

// store is the consumer interface for cache persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Repo caches facet counts as JSON values with a fixed TTL.
type Repo struct {
	store     store
	keyPrefix string
	ttl       time.Duration
}

// New creates a facet cache repository.
func New(s store, keyPrefix string, ttl time.Duration) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, ttl: ttl}
}

// Get returns cached counts for the fingerprint. A missing or corrupt entry
// is a miss, never an error the caller has to branch on: the next Put
// overwrites it.
func (r *Repo) Get(ctx context.Context, fingerprint string) (facet.Counts, bool, error) {
	data, err := r.store.Get(ctx, r.key(fingerprint))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return facet.Counts{}, false, nil
		}
		return facet.Counts{}, false, fmt.Errorf("get facet cache: %w", err)
	}

	counts, err := unmarshalCounts(data)
	if err != nil {
		return facet.Counts{}, false, nil
	}
	return counts, true, nil
}

// Put stores counts under the fingerprint, refreshing the TTL.
func (r *Repo) Put(ctx context.Context, fingerprint string, counts facet.Counts) error {
	data, err := marshalCounts(counts)
	if err != nil {
		return err
	}
	if err := r.store.SetWithTTL(ctx, r.key(fingerprint), data, r.ttl); err != nil {
		return fmt.Errorf("set facet cache: %w", err)
	}
	return nil
}

// key hashes the fingerprint so cache keys stay bounded regardless of how
// many filters the criteria carries.
func (r *Repo) key(fingerprint string) string {
	sum := sha256.Sum256([]byte(fingerprint))
	return r.keyPrefix + hex.EncodeToString(sum[:16])
}
